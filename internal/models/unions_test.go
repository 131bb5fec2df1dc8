package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationModeValidate(t *testing.T) {
	ten := 10
	zero := 0

	valid := []RegistrationMode{
		{Kind: RegistrationModeOpen},
		{Kind: RegistrationModeCapped, Capped: &CappedMode{MaxCapacity: 5}},
		{Kind: RegistrationModeApproval, Approval: &ApprovalMode{}},
		{Kind: RegistrationModeApproval, Approval: &ApprovalMode{MaxCapacity: &ten}},
		{Kind: RegistrationModeLevelGated, LevelGated: &LevelGatedMode{MinLevel: 3}},
	}
	for _, m := range valid {
		assert.NoError(t, m.Validate(), "kind %s", m.Kind)
	}

	invalid := []RegistrationMode{
		{Kind: "raffle"},
		{Kind: RegistrationModeCapped},
		{Kind: RegistrationModeCapped, Capped: &CappedMode{MaxCapacity: 0}},
		{Kind: RegistrationModeOpen, Capped: &CappedMode{MaxCapacity: 5}},
		{Kind: RegistrationModeApproval, Approval: &ApprovalMode{MaxCapacity: &zero}},
		{Kind: RegistrationModeLevelGated, LevelGated: &LevelGatedMode{MinLevel: 0}},
		{Kind: RegistrationModeLevelGated, LevelGated: &LevelGatedMode{MinLevel: 2}, Capped: &CappedMode{MaxCapacity: 5}},
	}
	for _, m := range invalid {
		assert.Error(t, m.Validate(), "kind %s", m.Kind)
	}
}

func TestRegistrationModeMaxSeats(t *testing.T) {
	ten := 10
	assert.Equal(t, 0, RegistrationMode{Kind: RegistrationModeOpen}.MaxSeats())
	assert.Equal(t, 5, RegistrationMode{Kind: RegistrationModeCapped, Capped: &CappedMode{MaxCapacity: 5}}.MaxSeats())
	assert.Equal(t, 0, RegistrationMode{Kind: RegistrationModeApproval, Approval: &ApprovalMode{}}.MaxSeats())
	assert.Equal(t, 10, RegistrationMode{Kind: RegistrationModeApproval, Approval: &ApprovalMode{MaxCapacity: &ten}}.MaxSeats())
}

func TestRegistrationModeRoundTrip(t *testing.T) {
	mode := RegistrationMode{
		Kind:   RegistrationModeCapped,
		Capped: &CappedMode{MaxCapacity: 25, WaitlistEnabled: true},
	}

	value, err := mode.Value()
	require.NoError(t, err)

	var decoded RegistrationMode
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, mode, decoded)
	assert.Nil(t, decoded.Approval)
}

func TestSubmissionContentValidate(t *testing.T) {
	assert.NoError(t, SubmissionContent{
		Kind: AssignmentKindLinkSubmission,
		Link: &LinkSubmission{URL: "https://example.com"},
	}.Validate())

	// Empty payload fields fail even when the right variant is set.
	assert.Error(t, SubmissionContent{
		Kind: AssignmentKindQuiz,
		Quiz: &QuizSubmission{},
	}.Validate())
	assert.Error(t, SubmissionContent{
		Kind:       AssignmentKindFileUpload,
		FileUpload: &FileUploadSubmission{BlobID: "abc"},
	}.Validate())

	// A second payload alongside the selected one fails.
	assert.Error(t, SubmissionContent{
		Kind: AssignmentKindLinkSubmission,
		Link: &LinkSubmission{URL: "https://example.com"},
		Quiz: &QuizSubmission{CompletionID: 1},
	}.Validate())
}

func TestXpSourceValidate(t *testing.T) {
	assert.NoError(t, XpSource{
		Kind:       XpSourceAttendance,
		Attendance: &AttendanceSource{WorkshopID: 1},
	}.Validate())
	assert.Error(t, XpSource{Kind: XpSourceAttendance}.Validate())
	assert.Error(t, XpSource{
		Kind:       XpSourceBonus,
		Bonus:      &BonusSource{Reason: "x"},
		Attendance: &AttendanceSource{WorkshopID: 1},
	}.Validate())
	assert.Error(t, XpSource{Kind: "lottery"}.Validate())
}

func TestReviewStateValidate(t *testing.T) {
	assert.NoError(t, Submitted().Validate())
	assert.Error(t, ReviewState{
		Kind:     ReviewKindSubmitted,
		Approved: &ApprovedReview{},
	}.Validate())
	assert.Error(t, ReviewState{Kind: ReviewKindApproved}.Validate())
	assert.NoError(t, ReviewState{
		Kind:     ReviewKindRejected,
		Rejected: &RejectedReview{ReviewedBy: 2},
	}.Validate())
}
