package service

import (
	"context"
	"log/slog"
	"time"

	"atelier/internal/blob"
	"atelier/internal/cache"
	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/validation"

	"gorm.io/gorm"
)

// CatalogService implements the workshop catalog: drafting, publication
// lifecycle, admission mode configuration and discovery.
type CatalogService struct {
	db            *gorm.DB
	workshopRepo  repository.WorkshopRepository
	communityRepo repository.CommunityRepository
	blobs         blob.Store
}

// NewCatalogService creates the catalog service.
func NewCatalogService(db *gorm.DB, workshopRepo repository.WorkshopRepository, communityRepo repository.CommunityRepository, blobs blob.Store) *CatalogService {
	return &CatalogService{db: db, workshopRepo: workshopRepo, communityRepo: communityRepo, blobs: blobs}
}

// CreateWorkshopInput carries the fields for a new draft.
type CreateWorkshopInput struct {
	Title       string
	Slug        string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	CreatorID   uint
	CommunityID *uint
	Tags        []string
	ImageID     *string
}

// CreateWorkshop drafts a new workshop. The slug is derived from the
// title when not given explicitly.
func (s *CatalogService) CreateWorkshop(ctx context.Context, in CreateWorkshopInput) (*models.Workshop, error) {
	if in.Title == "" {
		return nil, models.NewValidationError("Workshop title is required")
	}

	slug := in.Slug
	if slug == "" {
		slug = validation.Slugify(in.Title)
	}
	if err := validation.ValidateSlug(slug); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if !in.StartsAt.IsZero() && !in.EndsAt.IsZero() && !in.EndsAt.After(in.StartsAt) {
		return nil, models.NewValidationError("Workshop must end after it starts")
	}

	if in.CommunityID != nil {
		community, err := s.communityRepo.GetByID(ctx, *in.CommunityID)
		if err != nil {
			return nil, err
		}
		if community.Status != models.CommunityStatusActive {
			return nil, models.NewInvalidStateError("archived communities cannot host new workshops")
		}
	}

	workshop := models.Workshop{
		Title:       in.Title,
		Slug:        slug,
		Description: in.Description,
		Status:      models.WorkshopStatusDraft,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		CreatorID:   in.CreatorID,
		CommunityID: in.CommunityID,
		Tags:        models.StringList(in.Tags),
		ImageID:     in.ImageID,
	}
	if err := s.workshopRepo.Create(ctx, &workshop); err != nil {
		return nil, err
	}
	return &workshop, nil
}

// UpdateWorkshopInput carries patchable workshop fields. Nil pointers
// leave a field unchanged.
type UpdateWorkshopInput struct {
	Title       *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Tags        []string
	ImageID     *string
}

// UpdateWorkshop patches workshop details. Archived workshops are
// read-only.
func (s *CatalogService) UpdateWorkshop(ctx context.Context, id uint, in UpdateWorkshopInput) (*models.Workshop, error) {
	workshop, err := s.workshopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workshop.Status == models.WorkshopStatusArchived {
		return nil, models.NewInvalidStateError("archived workshops are read-only")
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, models.NewValidationError("Workshop title is required")
		}
		workshop.Title = *in.Title
	}
	if in.Description != nil {
		workshop.Description = *in.Description
	}
	if in.StartsAt != nil {
		workshop.StartsAt = *in.StartsAt
	}
	if in.EndsAt != nil {
		workshop.EndsAt = *in.EndsAt
	}
	if !workshop.StartsAt.IsZero() && !workshop.EndsAt.IsZero() && !workshop.EndsAt.After(workshop.StartsAt) {
		return nil, models.NewValidationError("Workshop must end after it starts")
	}
	if in.Tags != nil {
		workshop.Tags = models.StringList(in.Tags)
	}
	if in.ImageID != nil {
		workshop.ImageID = in.ImageID
	}

	if err := s.workshopRepo.Update(ctx, workshop); err != nil {
		return nil, err
	}
	return workshop, nil
}

// SetMode configures the admission policy. The mode is frozen once the
// workshop is published; retuning capacity under live registrations
// would break the seat accounting.
func (s *CatalogService) SetMode(ctx context.Context, id uint, mode models.RegistrationMode) (*models.Workshop, error) {
	if err := mode.Validate(); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	workshop, err := s.workshopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workshop.Status != models.WorkshopStatusDraft && workshop.Status != models.WorkshopStatusScheduled {
		return nil, models.NewInvalidStateError("admission mode can only be changed before publication")
	}

	workshop.Mode = &mode
	if err := s.workshopRepo.Update(ctx, workshop); err != nil {
		return nil, err
	}
	return workshop, nil
}

// Schedule marks a draft as ready to announce.
func (s *CatalogService) Schedule(ctx context.Context, id uint) (*models.Workshop, error) {
	workshop, err := s.workshopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workshop.Status != models.WorkshopStatusDraft {
		return nil, models.NewInvalidStateError("only drafts can be scheduled")
	}
	if err := s.validateSchedule(workshop); err != nil {
		return nil, err
	}

	workshop.Status = models.WorkshopStatusScheduled
	if err := s.workshopRepo.Update(ctx, workshop); err != nil {
		return nil, err
	}
	return workshop, nil
}

// Publish announces the workshop and opens registration. Publication
// requires a complete listing: a cover image, an admission mode and a
// valid date range.
func (s *CatalogService) Publish(ctx context.Context, id uint) (*models.Workshop, error) {
	workshop, err := s.workshopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workshop.Status != models.WorkshopStatusDraft && workshop.Status != models.WorkshopStatusScheduled {
		return nil, models.NewInvalidStateError("only draft or scheduled workshops can be published")
	}
	if err := s.validatePublication(workshop); err != nil {
		return nil, err
	}

	workshop.Status = models.WorkshopStatusPublished
	if err := s.workshopRepo.Update(ctx, workshop); err != nil {
		return nil, err
	}
	return workshop, nil
}

func (s *CatalogService) validateSchedule(w *models.Workshop) error {
	if w.StartsAt.IsZero() || w.EndsAt.IsZero() {
		return models.NewValidationError("Workshop schedule must be set before publication")
	}
	if !w.EndsAt.After(w.StartsAt) {
		return models.NewValidationError("Workshop must end after it starts")
	}
	return nil
}

func (s *CatalogService) validatePublication(w *models.Workshop) error {
	if err := s.validateSchedule(w); err != nil {
		return err
	}
	if w.ImageID == nil || *w.ImageID == "" {
		return models.NewValidationError("Workshop needs a cover image before publication")
	}
	if w.Mode == nil {
		return models.NewValidationError("Workshop needs an admission mode before publication")
	}
	if err := w.Mode.Validate(); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// Archive closes a published workshop. Archived workshops stay visible
// but accept no further registrations or check-ins.
func (s *CatalogService) Archive(ctx context.Context, id uint) (*models.Workshop, error) {
	workshop, err := s.workshopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workshop.Status != models.WorkshopStatusPublished {
		return nil, models.NewInvalidStateError("only published workshops can be archived")
	}
	if !time.Now().UTC().After(workshop.EndsAt) {
		return nil, models.NewInvalidStateError("workshops can only be archived after they end")
	}

	workshop.Status = models.WorkshopStatusArchived
	if err := s.workshopRepo.Update(ctx, workshop); err != nil {
		return nil, err
	}
	return workshop, nil
}

// DeleteWorkshop removes a draft. Anything past draft has registrations
// or history worth keeping and can only be archived.
func (s *CatalogService) DeleteWorkshop(ctx context.Context, id uint) error {
	workshop, err := s.workshopRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if workshop.Status != models.WorkshopStatusDraft {
		return models.NewInvalidStateError("only drafts can be deleted")
	}
	if err := s.workshopRepo.Delete(ctx, id); err != nil {
		return err
	}
	// The cover image has no other references once the draft is gone.
	if s.blobs != nil && workshop.ImageID != nil && *workshop.ImageID != "" {
		if err := s.blobs.Delete(ctx, *workshop.ImageID); err != nil {
			slog.Warn("failed to delete workshop image", "workshop_id", id, "image_id", *workshop.ImageID, "error", err)
		}
	}
	return nil
}

// GetWorkshop returns one workshop by ID.
func (s *CatalogService) GetWorkshop(ctx context.Context, id uint) (*models.Workshop, error) {
	return s.workshopRepo.GetByID(ctx, id)
}

// GetWorkshopBySlug returns one workshop by slug.
func (s *CatalogService) GetWorkshopBySlug(ctx context.Context, slug string) (*models.Workshop, error) {
	return s.workshopRepo.GetBySlug(ctx, slug)
}

// ListPublished returns upcoming published workshops. The first page is
// served from cache.
func (s *CatalogService) ListPublished(ctx context.Context, limit, offset int) ([]models.Workshop, error) {
	limit = clampLimit(limit)
	if offset == 0 {
		var workshops []models.Workshop
		err := cache.Aside(ctx, cache.WorkshopCardsKey(limit), &workshops, cache.WorkshopCardsTTL, func() error {
			var fetchErr error
			workshops, fetchErr = s.workshopRepo.ListPublished(ctx, limit, 0)
			return fetchErr
		})
		return workshops, err
	}
	return s.workshopRepo.ListPublished(ctx, limit, offset)
}

// Search returns published workshops matching the query.
func (s *CatalogService) Search(ctx context.Context, query string, limit, offset int) ([]models.Workshop, error) {
	return s.workshopRepo.Search(ctx, query, clampLimit(limit), offset)
}

// ListByCreator returns the workshops a user created.
func (s *CatalogService) ListByCreator(ctx context.Context, creatorID uint, limit, offset int) ([]models.Workshop, error) {
	return s.workshopRepo.ListByCreator(ctx, creatorID, clampLimit(limit), offset)
}

// ListByCommunity returns a community's published workshops.
func (s *CatalogService) ListByCommunity(ctx context.Context, communityID uint, limit, offset int) ([]models.Workshop, error) {
	return s.workshopRepo.ListByCommunity(ctx, communityID, clampLimit(limit), offset)
}

// AddCoHost grants workshop management to another user.
func (s *CatalogService) AddCoHost(ctx context.Context, workshopID, userID uint) error {
	if _, err := s.workshopRepo.GetByID(ctx, workshopID); err != nil {
		return err
	}
	return s.workshopRepo.AddCoHost(ctx, workshopID, userID)
}

// RemoveCoHost revokes a co-host.
func (s *CatalogService) RemoveCoHost(ctx context.Context, workshopID, userID uint) error {
	return s.workshopRepo.RemoveCoHost(ctx, workshopID, userID)
}

// CanManage reports whether the user may manage the workshop: its
// creator, a co-host, a platform admin, or an organizer of the hosting
// community.
func (s *CatalogService) CanManage(ctx context.Context, workshop *models.Workshop, user *models.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() || workshop.CreatorID == user.ID {
		return true, nil
	}

	isCoHost, err := s.workshopRepo.IsCoHost(ctx, workshop.ID, user.ID)
	if err != nil {
		return false, err
	}
	if isCoHost {
		return true, nil
	}

	if workshop.CommunityID != nil {
		membership, err := s.communityRepo.GetMembership(ctx, *workshop.CommunityID, user.ID)
		if err != nil {
			return false, err
		}
		if membership != nil && membership.Role == models.CommunityMembershipRoleOrganizer {
			return true, nil
		}
	}
	return false, nil
}
