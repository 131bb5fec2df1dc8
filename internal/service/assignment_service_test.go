package service

import (
	"context"
	"testing"
	"time"

	"atelier/internal/blob"
	"atelier/internal/models"
	"atelier/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAssignmentService(db *gorm.DB, blobs blob.Store) *AssignmentService {
	if blobs == nil {
		blobs = blob.NewMemoryStore()
	}
	xp := NewXpService(db, repository.NewXpRepository(db), models.DefaultXpBase)
	return NewAssignmentService(db, repository.NewAssignmentRepository(db), blobs, xp)
}

func linkSpec() models.AssignmentSpec {
	return models.AssignmentSpec{
		Kind: models.AssignmentKindLinkSubmission,
		Link: &models.LinkSubmissionAssignment{},
	}
}

func linkContent(url string) models.SubmissionContent {
	return models.SubmissionContent{
		Kind: models.AssignmentKindLinkSubmission,
		Link: &models.LinkSubmission{URL: url},
	}
}

func createTestAssignment(t *testing.T, svc *AssignmentService, workshopID uint, spec models.AssignmentSpec, xpReward int) *models.WorkshopAssignment {
	t.Helper()
	assignment, err := svc.CreateAssignment(context.Background(), CreateAssignmentInput{
		WorkshopID: workshopID,
		Title:      "Homework",
		Deadline:   time.Now().UTC().Add(24 * time.Hour),
		XpReward:   xpReward,
		Spec:       spec,
	})
	require.NoError(t, err)
	return assignment
}

func checkInUser(t *testing.T, db *gorm.DB, workshopID, userID uint) {
	t.Helper()
	registerUser(t, db, workshopID, userID)
	require.NoError(t, db.Create(&models.WorkshopAttendance{
		WorkshopID:  workshopID,
		UserID:      userID,
		Method:      models.AttendanceMethodCode,
		CheckedInAt: time.Now().UTC(),
	}).Error)
}

func TestSubmitRequiresCheckIn(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newAssignmentService(db, nil)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := createTestWorkshop(t, db, creator, nil)
	assignment := createTestAssignment(t, svc, workshop.ID, linkSpec(), 100)

	alice := createTestUser(t, db, "alice")
	registerUser(t, db, workshop.ID, alice.ID)

	_, err := svc.Submit(ctx, assignment.ID, alice.ID, linkContent("https://example.com/demo"))
	requireAppErrorCode(t, err, models.CodeNotCheckedIn)
}

func TestSubmitAfterCancelledRegistration(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newAssignmentService(db, nil)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := createTestWorkshop(t, db, creator, nil)
	assignment := createTestAssignment(t, svc, workshop.ID, linkSpec(), 100)

	// Alice checks in, then cancels. The check-in row stays behind but
	// no longer opens the door.
	alice := createTestUser(t, db, "alice")
	checkInUser(t, db, workshop.ID, alice.ID)
	require.NoError(t, db.Model(&models.WorkshopRegistration{}).
		Where("workshop_id = ? AND user_id = ?", workshop.ID, alice.ID).
		Update("status", models.RegistrationStatusCancelled).Error)

	_, err := svc.Submit(ctx, assignment.ID, alice.ID, linkContent("https://example.com/demo"))
	requireAppErrorCode(t, err, models.CodeNotRegistered)
}

func TestSubmitTypeMismatch(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newAssignmentService(db, nil)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := createTestWorkshop(t, db, creator, nil)
	assignment := createTestAssignment(t, svc, workshop.ID, linkSpec(), 100)

	alice := createTestUser(t, db, "alice")
	checkInUser(t, db, workshop.ID, alice.ID)

	content := models.SubmissionContent{
		Kind: models.AssignmentKindQuiz,
		Quiz: &models.QuizSubmission{CompletionID: 1},
	}
	_, err := svc.Submit(ctx, assignment.ID, alice.ID, content)
	requireAppErrorCode(t, err, models.CodeValidationError)
}

func TestSubmitLinkValidation(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newAssignmentService(db, nil)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := createTestWorkshop(t, db, creator, nil)
	assignment := createTestAssignment(t, svc, workshop.ID, linkSpec(), 100)

	alice := createTestUser(t, db, "alice")
	checkInUser(t, db, workshop.ID, alice.ID)

	_, err := svc.Submit(ctx, assignment.ID, alice.ID, linkContent("not a url"))
	requireAppErrorCode(t, err, models.CodeValidationError)

	sub, err := svc.Submit(ctx, assignment.ID, alice.ID, linkContent("https://github.com/alice/demo"))
	require.NoError(t, err)
	assert.Equal(t, models.ReviewKindSubmitted, sub.Review.Kind)
}

func TestSubmitAfterDeadline(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newAssignmentService(db, nil)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := createTestWorkshop(t, db, creator, nil)
	assignment := createTestAssignment(t, svc, workshop.ID, linkSpec(), 100)
	require.NoError(t, db.Model(assignment).Update("deadline", time.Now().UTC().Add(-time.Hour)).Error)

	alice := createTestUser(t, db, "alice")
	checkInUser(t, db, workshop.ID, alice.ID)

	_, err := svc.Submit(ctx, assignment.ID, alice.ID, linkContent("https://example.com/demo"))
	requireAppErrorCode(t, err, models.CodeInvalidState)
}

func TestSubmitFileUpload(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	blobs := blob.NewMemoryStore()
	svc := newAssignmentService(db, blobs)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := createTestWorkshop(t, db, creator, nil)
	spec := models.AssignmentSpec{
		Kind: models.AssignmentKindFileUpload,
		FileUpload: &models.FileUploadAssignment{
			AcceptedFormats: []string{".pdf"},
			MaxSizeBytes:    16,
		},
	}
	assignment := createTestAssignment(t, svc, workshop.ID, spec, 100)

	alice := createTestUser(t, db, "alice")
	checkInUser(t, db, workshop.ID, alice.ID)

	smallPdf, err := blobs.Save(ctx, "homework.pdf", []byte("ok"))
	require.NoError(t, err)
	bigPdf, err := blobs.Save(ctx, "big.pdf", make([]byte, 64))
	require.NoError(t, err)
	wrongType, err := blobs.Save(ctx, "notes.docx", []byte("ok"))
	require.NoError(t, err)

	fileContent := func(info *blob.Info) models.SubmissionContent {
		return models.SubmissionContent{
			Kind:       models.AssignmentKindFileUpload,
			FileUpload: &models.FileUploadSubmission{BlobID: info.ID, Filename: info.Filename},
		}
	}

	_, err = svc.Submit(ctx, assignment.ID, alice.ID, fileContent(bigPdf))
	requireAppErrorCode(t, err, models.CodeValidationError)

	_, err = svc.Submit(ctx, assignment.ID, alice.ID, fileContent(wrongType))
	requireAppErrorCode(t, err, models.CodeValidationError)

	missing := models.SubmissionContent{
		Kind:       models.AssignmentKindFileUpload,
		FileUpload: &models.FileUploadSubmission{BlobID: "11111111-2222-4333-8444-555555555555", Filename: "x.pdf"},
	}
	_, err = svc.Submit(ctx, assignment.ID, alice.ID, missing)
	requireAppErrorCode(t, err, models.CodeValidationError)

	sub, err := svc.Submit(ctx, assignment.ID, alice.ID, fileContent(smallPdf))
	require.NoError(t, err)
	assert.Equal(t, smallPdf.ID, sub.Content.FileUpload.BlobID)
}

func TestSubmitQuiz(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newAssignmentService(db, nil)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := createTestWorkshop(t, db, creator, nil)
	spec := models.AssignmentSpec{
		Kind: models.AssignmentKindQuiz,
		Quiz: &models.QuizAssignment{QuizID: "pottery-basics"},
	}
	assignment := createTestAssignment(t, svc, workshop.ID, spec, 100)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	checkInUser(t, db, workshop.ID, alice.ID)

	aliceCompletion, err := svc.RecordQuizCompletion(ctx, RecordQuizCompletionInput{
		QuizID:     "pottery-basics",
		WorkshopID: workshop.ID,
		UserID:     alice.ID,
		Score:      90,
	})
	require.NoError(t, err)
	bobCompletion, err := svc.RecordQuizCompletion(ctx, RecordQuizCompletionInput{
		QuizID:     "pottery-basics",
		WorkshopID: workshop.ID,
		UserID:     bob.ID,
		Score:      70,
	})
	require.NoError(t, err)
	otherQuiz, err := svc.RecordQuizCompletion(ctx, RecordQuizCompletionInput{
		QuizID:     "glazing-101",
		WorkshopID: workshop.ID,
		UserID:     alice.ID,
		Score:      80,
	})
	require.NoError(t, err)

	quizContent := func(completionID uint) models.SubmissionContent {
		return models.SubmissionContent{
			Kind: models.AssignmentKindQuiz,
			Quiz: &models.QuizSubmission{CompletionID: completionID},
		}
	}

	_, err = svc.Submit(ctx, assignment.ID, alice.ID, quizContent(bobCompletion.ID))
	requireAppErrorCode(t, err, models.CodeForbidden)

	_, err = svc.Submit(ctx, assignment.ID, alice.ID, quizContent(otherQuiz.ID))
	requireAppErrorCode(t, err, models.CodeValidationError)

	sub, err := svc.Submit(ctx, assignment.ID, alice.ID, quizContent(aliceCompletion.ID))
	require.NoError(t, err)
	assert.Equal(t, aliceCompletion.ID, sub.Content.Quiz.CompletionID)
}

func TestReviewApprovePaysExactlyOnce(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newAssignmentService(db, nil)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := createTestWorkshop(t, db, creator, nil)
	assignment := createTestAssignment(t, svc, workshop.ID, linkSpec(), 100)

	alice := createTestUser(t, db, "alice")
	checkInUser(t, db, workshop.ID, alice.ID)

	sub, err := svc.Submit(ctx, assignment.ID, alice.ID, linkContent("https://example.com/demo"))
	require.NoError(t, err)

	result, err := svc.Review(ctx, sub.ID, creator.ID, true, "nice work")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewKindApproved, result.Submission.Review.Kind)
	assert.Equal(t, 100, result.Submission.Review.Approved.XpAwarded)
	require.NotNil(t, result.Award)

	// Approval is terminal: neither a second review nor a new submission
	// can touch it.
	_, err = svc.Review(ctx, sub.ID, creator.ID, true, "")
	requireAppErrorCode(t, err, models.CodeAlreadyApproved)
	_, err = svc.Review(ctx, sub.ID, creator.ID, false, "")
	requireAppErrorCode(t, err, models.CodeAlreadyApproved)
	_, err = svc.Submit(ctx, assignment.ID, alice.ID, linkContent("https://example.com/v2"))
	requireAppErrorCode(t, err, models.CodeAlreadyApproved)

	var ledgerRows int64
	require.NoError(t, db.Model(&models.XpTransaction{}).
		Where("user_id = ?", alice.ID).Count(&ledgerRows).Error)
	assert.EqualValues(t, 1, ledgerRows, "the reward is paid exactly once")
}

func TestReviewRejectAllowsResubmission(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newAssignmentService(db, nil)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := createTestWorkshop(t, db, creator, nil)
	assignment := createTestAssignment(t, svc, workshop.ID, linkSpec(), 100)

	alice := createTestUser(t, db, "alice")
	checkInUser(t, db, workshop.ID, alice.ID)

	sub, err := svc.Submit(ctx, assignment.ID, alice.ID, linkContent("https://example.com/v1"))
	require.NoError(t, err)

	rejected, err := svc.Review(ctx, sub.ID, creator.ID, false, "needs more detail")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewKindRejected, rejected.Submission.Review.Kind)
	assert.Equal(t, "needs more detail", rejected.Submission.Review.Rejected.Feedback)
	assert.Nil(t, rejected.Award)

	resubmitted, err := svc.Submit(ctx, assignment.ID, alice.ID, linkContent("https://example.com/v2"))
	require.NoError(t, err)
	assert.Equal(t, sub.ID, resubmitted.ID, "resubmission reuses the row")
	assert.Equal(t, models.ReviewKindSubmitted, resubmitted.Review.Kind)

	approved, err := svc.Review(ctx, sub.ID, creator.ID, true, "")
	require.NoError(t, err)
	require.NotNil(t, approved.Award)

	var ledgerRows int64
	require.NoError(t, db.Model(&models.XpTransaction{}).
		Where("user_id = ?", alice.ID).Count(&ledgerRows).Error)
	assert.EqualValues(t, 1, ledgerRows)
}

func TestReviewZeroRewardAssignment(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newAssignmentService(db, nil)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := createTestWorkshop(t, db, creator, nil)
	assignment := createTestAssignment(t, svc, workshop.ID, linkSpec(), 0)

	alice := createTestUser(t, db, "alice")
	checkInUser(t, db, workshop.ID, alice.ID)

	sub, err := svc.Submit(ctx, assignment.ID, alice.ID, linkContent("https://example.com/demo"))
	require.NoError(t, err)

	result, err := svc.Review(ctx, sub.ID, creator.ID, true, "")
	require.NoError(t, err)
	assert.Nil(t, result.Award, "a zero reward pays nothing")
	assert.Equal(t, 0, result.Submission.Review.Approved.XpAwarded)

	var ledgerRows int64
	require.NoError(t, db.Model(&models.XpTransaction{}).Count(&ledgerRows).Error)
	assert.EqualValues(t, 0, ledgerRows)
}

func TestDeleteAssignmentWithSubmissions(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newAssignmentService(db, nil)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := createTestWorkshop(t, db, creator, nil)
	assignment := createTestAssignment(t, svc, workshop.ID, linkSpec(), 100)

	alice := createTestUser(t, db, "alice")
	checkInUser(t, db, workshop.ID, alice.ID)
	_, err := svc.Submit(ctx, assignment.ID, alice.ID, linkContent("https://example.com/demo"))
	require.NoError(t, err)

	err = svc.DeleteAssignment(ctx, assignment.ID)
	requireAppErrorCode(t, err, models.CodeInvalidState)

	empty := createTestAssignment(t, svc, workshop.ID, linkSpec(), 100)
	require.NoError(t, svc.DeleteAssignment(ctx, empty.ID))
}
