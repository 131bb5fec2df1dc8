package server

import (
	"fmt"
	"net/http"
	"testing"

	"atelier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterOpenWorkshop(t *testing.T) {
	t.Parallel()
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db)

	organizer := createHandlerTestUser(t, db, "org-open", models.UserRoleOrganizer)
	workshop := createHandlerTestWorkshop(t, db, organizer)
	member := createHandlerTestUser(t, db, "member-open", models.UserRoleMember)
	app := testApp(s, member.ID)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/workshops/%d/register", workshop.ID), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var reg models.WorkshopRegistration
	decodeBody(t, resp, &reg)
	assert.Equal(t, models.RegistrationStatusRegistered, reg.Status)
	assert.Equal(t, member.ID, reg.UserID)

	// A second attempt conflicts instead of duplicating the row.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/workshops/%d/register", workshop.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestRegisterUnknownWorkshop(t *testing.T) {
	t.Parallel()
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db)

	member := createHandlerTestUser(t, db, "member-lost", models.UserRoleMember)
	app := testApp(s, member.ID)

	resp := doJSON(t, app, http.MethodPost, "/api/workshops/9999/register", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCappedWaitlistAndPromotion(t *testing.T) {
	t.Parallel()
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db)

	organizer := createHandlerTestUser(t, db, "org-capped", models.UserRoleOrganizer)
	workshop := createHandlerTestWorkshop(t, db, organizer)
	workshop.Mode = &models.RegistrationMode{
		Kind:   models.RegistrationModeCapped,
		Capped: &models.CappedMode{MaxCapacity: 1, WaitlistEnabled: true},
	}
	require.NoError(t, db.Save(workshop).Error)

	alice := createHandlerTestUser(t, db, "alice-capped", models.UserRoleMember)
	bob := createHandlerTestUser(t, db, "bob-capped", models.UserRoleMember)
	path := fmt.Sprintf("/api/workshops/%d/register", workshop.ID)

	resp := doJSON(t, testApp(s, alice.ID), http.MethodPost, path, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var first models.WorkshopRegistration
	decodeBody(t, resp, &first)
	assert.Equal(t, models.RegistrationStatusRegistered, first.Status)

	resp = doJSON(t, testApp(s, bob.ID), http.MethodPost, path, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var second models.WorkshopRegistration
	decodeBody(t, resp, &second)
	assert.Equal(t, models.RegistrationStatusWaitlisted, second.Status)

	// Alice cancels; Bob takes the freed seat in the same request.
	resp = doJSON(t, testApp(s, alice.ID), http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cancel struct {
		Cancelled *models.WorkshopRegistration `json:"cancelled"`
		Promoted  *models.WorkshopRegistration `json:"promoted"`
	}
	decodeBody(t, resp, &cancel)
	require.NotNil(t, cancel.Promoted)
	assert.Equal(t, bob.ID, cancel.Promoted.UserID)
	assert.Equal(t, models.RegistrationStatusRegistered, cancel.Promoted.Status)

	var fresh models.Workshop
	require.NoError(t, db.First(&fresh, workshop.ID).Error)
	assert.Equal(t, 1, fresh.RegistrationCount)
}

func TestApprovalFlowOverHTTP(t *testing.T) {
	t.Parallel()
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db)

	organizer := createHandlerTestUser(t, db, "org-approval", models.UserRoleOrganizer)
	workshop := createHandlerTestWorkshop(t, db, organizer)
	workshop.Mode = &models.RegistrationMode{
		Kind:     models.RegistrationModeApproval,
		Approval: &models.ApprovalMode{},
	}
	require.NoError(t, db.Save(workshop).Error)

	member := createHandlerTestUser(t, db, "member-approval", models.UserRoleMember)

	resp := doJSON(t, testApp(s, member.ID), http.MethodPost,
		fmt.Sprintf("/api/workshops/%d/register", workshop.ID), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var reg models.WorkshopRegistration
	decodeBody(t, resp, &reg)
	assert.Equal(t, models.RegistrationStatusPendingApproval, reg.Status)

	approvePath := fmt.Sprintf("/api/workshops/%d/registrations/%d/approve", workshop.ID, member.ID)

	// Another member cannot decide registrations.
	intruder := createHandlerTestUser(t, db, "intruder-approval", models.UserRoleMember)
	resp = doJSON(t, testApp(s, intruder.ID), http.MethodPost, approvePath, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, testApp(s, organizer.ID), http.MethodPost, approvePath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &reg)
	assert.Equal(t, models.RegistrationStatusRegistered, reg.Status)
}

func TestGetRegistrationsRequiresManager(t *testing.T) {
	t.Parallel()
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db)

	organizer := createHandlerTestUser(t, db, "org-list", models.UserRoleOrganizer)
	workshop := createHandlerTestWorkshop(t, db, organizer)
	member := createHandlerTestUser(t, db, "member-list", models.UserRoleMember)

	path := fmt.Sprintf("/api/workshops/%d/registrations", workshop.ID)
	resp := doJSON(t, testApp(s, member.ID), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, testApp(s, organizer.ID), http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var regs []models.WorkshopRegistration
	decodeBody(t, resp, &regs)
	assert.Empty(t, regs)
}
