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

func newCatalogService(db *gorm.DB) *CatalogService {
	return newCatalogServiceWithStore(db, blob.NewMemoryStore())
}

func newCatalogServiceWithStore(db *gorm.DB, store blob.Store) *CatalogService {
	return NewCatalogService(db, repository.NewWorkshopRepository(db), repository.NewCommunityRepository(db), store)
}

func draftInput(creatorID uint, title string) CreateWorkshopInput {
	now := time.Now().UTC()
	return CreateWorkshopInput{
		Title:     title,
		StartsAt:  now.Add(24 * time.Hour),
		EndsAt:    now.Add(26 * time.Hour),
		CreatorID: creatorID,
	}
}

// readyDraft creates a draft that satisfies the publication checklist:
// schedule, cover image and admission mode.
func readyDraft(t *testing.T, svc *CatalogService, creatorID uint, title string) *models.Workshop {
	t.Helper()
	ctx := context.Background()

	in := draftInput(creatorID, title)
	imageID := "cover-" + title
	in.ImageID = &imageID
	workshop, err := svc.CreateWorkshop(ctx, in)
	require.NoError(t, err)

	_, err = svc.SetMode(ctx, workshop.ID, models.RegistrationMode{Kind: models.RegistrationModeOpen})
	require.NoError(t, err)
	return workshop
}

// endWorkshop moves the schedule into the past so the workshop is
// archivable.
func endWorkshop(t *testing.T, db *gorm.DB, workshopID uint) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Model(&models.Workshop{}).Where("id = ?", workshopID).Updates(map[string]interface{}{
		"starts_at": now.Add(-3 * time.Hour),
		"ends_at":   now.Add(-time.Hour),
	}).Error)
}

func TestCreateWorkshopDerivesSlug(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")

	workshop, err := svc.CreateWorkshop(ctx, draftInput(creator.ID, "Raku Firing & Glazing"))
	require.NoError(t, err)
	assert.Equal(t, "raku-firing-glazing", workshop.Slug)
	assert.Equal(t, models.WorkshopStatusDraft, workshop.Status)

	in := draftInput(creator.ID, "Another Session")
	in.Slug = "Bad Slug!"
	_, err = svc.CreateWorkshop(ctx, in)
	requireAppErrorCode(t, err, models.CodeValidationError)

	in = draftInput(creator.ID, "")
	_, err = svc.CreateWorkshop(ctx, in)
	requireAppErrorCode(t, err, models.CodeValidationError)
}

func TestCreateWorkshopRejectsInvertedSchedule(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newCatalogService(db)

	creator := createTestUser(t, db, "creator")
	in := draftInput(creator.ID, "Backwards")
	in.StartsAt, in.EndsAt = in.EndsAt, in.StartsAt

	_, err := svc.CreateWorkshop(context.Background(), in)
	requireAppErrorCode(t, err, models.CodeValidationError)
}

func TestCreateWorkshopInArchivedCommunity(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	community := models.Community{Name: "Clay Club", Slug: "clay-club", Status: models.CommunityStatusArchived}
	require.NoError(t, db.Create(&community).Error)

	in := draftInput(creator.ID, "Hidden Session")
	in.CommunityID = &community.ID
	_, err := svc.CreateWorkshop(ctx, in)
	requireAppErrorCode(t, err, models.CodeInvalidState)
}

func TestPublishLifecycle(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := readyDraft(t, svc, creator.ID, "Wheel Throwing")

	scheduled, err := svc.Schedule(ctx, workshop.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkshopStatusScheduled, scheduled.Status)

	_, err = svc.Schedule(ctx, workshop.ID)
	requireAppErrorCode(t, err, models.CodeInvalidState)

	published, err := svc.Publish(ctx, workshop.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkshopStatusPublished, published.Status)

	_, err = svc.Publish(ctx, workshop.ID)
	requireAppErrorCode(t, err, models.CodeInvalidState)

	endWorkshop(t, db, workshop.ID)
	archived, err := svc.Archive(ctx, workshop.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkshopStatusArchived, archived.Status)

	// Archived workshops are read-only.
	title := "Renamed"
	_, err = svc.UpdateWorkshop(ctx, workshop.ID, UpdateWorkshopInput{Title: &title})
	requireAppErrorCode(t, err, models.CodeInvalidState)
}

func TestPublishRequiresSchedule(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	in := draftInput(creator.ID, "Unscheduled")
	in.StartsAt = time.Time{}
	in.EndsAt = time.Time{}
	workshop, err := svc.CreateWorkshop(ctx, in)
	require.NoError(t, err)

	_, err = svc.Publish(ctx, workshop.ID)
	requireAppErrorCode(t, err, models.CodeValidationError)
}

func TestSetModeFrozenAfterPublication(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	in := draftInput(creator.ID, "Kiln Basics")
	imageID := "cover-kiln-basics"
	in.ImageID = &imageID
	workshop, err := svc.CreateWorkshop(ctx, in)
	require.NoError(t, err)

	updated, err := svc.SetMode(ctx, workshop.ID, *cappedMode(10, true))
	require.NoError(t, err)
	require.NotNil(t, updated.Mode)
	assert.Equal(t, models.RegistrationModeCapped, updated.Mode.Kind)

	_, err = svc.Publish(ctx, workshop.ID)
	require.NoError(t, err)

	_, err = svc.SetMode(ctx, workshop.ID, *cappedMode(20, true))
	requireAppErrorCode(t, err, models.CodeInvalidState)
}

func TestSetModeValidatesPayload(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop, err := svc.CreateWorkshop(ctx, draftInput(creator.ID, "Slip Casting"))
	require.NoError(t, err)

	// Capped mode with no payload.
	_, err = svc.SetMode(ctx, workshop.ID, models.RegistrationMode{Kind: models.RegistrationModeCapped})
	requireAppErrorCode(t, err, models.CodeValidationError)

	_, err = svc.SetMode(ctx, workshop.ID, *cappedMode(0, true))
	requireAppErrorCode(t, err, models.CodeValidationError)
}

func TestDeleteWorkshopDraftOnly(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	draft, err := svc.CreateWorkshop(ctx, draftInput(creator.ID, "Draft Only"))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteWorkshop(ctx, draft.ID))

	published := readyDraft(t, svc, creator.ID, "Keeps History")
	_, err = svc.Publish(ctx, published.ID)
	require.NoError(t, err)

	err = svc.DeleteWorkshop(ctx, published.ID)
	requireAppErrorCode(t, err, models.CodeInvalidState)
}

func TestPublishRequiresModeAndImage(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop, err := svc.CreateWorkshop(ctx, draftInput(creator.ID, "Bare Listing"))
	require.NoError(t, err)

	// No image yet.
	_, err = svc.Publish(ctx, workshop.ID)
	requireAppErrorCode(t, err, models.CodeValidationError)

	imageID := "cover-bare-listing"
	_, err = svc.UpdateWorkshop(ctx, workshop.ID, UpdateWorkshopInput{ImageID: &imageID})
	require.NoError(t, err)

	// Image but still no admission mode.
	_, err = svc.Publish(ctx, workshop.ID)
	requireAppErrorCode(t, err, models.CodeValidationError)

	_, err = svc.SetMode(ctx, workshop.ID, models.RegistrationMode{Kind: models.RegistrationModeOpen})
	require.NoError(t, err)

	published, err := svc.Publish(ctx, workshop.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkshopStatusPublished, published.Status)
}

func TestArchiveOnlyAfterEnd(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	workshop := readyDraft(t, svc, creator.ID, "Still Running")
	_, err := svc.Publish(ctx, workshop.ID)
	require.NoError(t, err)

	_, err = svc.Archive(ctx, workshop.ID)
	requireAppErrorCode(t, err, models.CodeInvalidState)

	endWorkshop(t, db, workshop.ID)
	archived, err := svc.Archive(ctx, workshop.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkshopStatusArchived, archived.Status)
}

func TestDeleteWorkshopRemovesImage(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	store := blob.NewMemoryStore()
	svc := newCatalogServiceWithStore(db, store)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	info, err := store.Save(ctx, "cover.png", []byte("png-bytes"))
	require.NoError(t, err)

	in := draftInput(creator.ID, "Short Lived")
	in.ImageID = &info.ID
	draft, err := svc.CreateWorkshop(ctx, in)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteWorkshop(ctx, draft.ID))

	_, err = store.Stat(ctx, info.ID)
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestCanManage(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newCatalogService(db)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator")
	cohost := createTestUser(t, db, "cohost")
	organizer := createTestUser(t, db, "organizer")
	member := createTestUser(t, db, "member")
	admin := createTestUser(t, db, "admin")
	require.NoError(t, db.Model(admin).Update("role", models.UserRoleAdmin).Error)
	admin.Role = models.UserRoleAdmin

	community := models.Community{Name: "Clay Club", Slug: "clay-club", Status: models.CommunityStatusActive}
	require.NoError(t, db.Create(&community).Error)
	require.NoError(t, db.Create(&models.CommunityMembership{
		CommunityID: community.ID, UserID: organizer.ID, Role: models.CommunityMembershipRoleOrganizer,
	}).Error)
	require.NoError(t, db.Create(&models.CommunityMembership{
		CommunityID: community.ID, UserID: member.ID, Role: models.CommunityMembershipRoleMember,
	}).Error)

	in := draftInput(creator.ID, "Community Workshop")
	in.CommunityID = &community.ID
	workshop, err := svc.CreateWorkshop(ctx, in)
	require.NoError(t, err)
	require.NoError(t, svc.AddCoHost(ctx, workshop.ID, cohost.ID))

	cases := []struct {
		name string
		user *models.User
		want bool
	}{
		{"creator", creator, true},
		{"co-host", cohost, true},
		{"admin", admin, true},
		{"community organizer", organizer, true},
		{"plain member", member, false},
		{"anonymous", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.CanManage(ctx, workshop, tc.user)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
