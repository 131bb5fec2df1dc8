// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"atelier/internal/models"
	"atelier/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

var craftTopics = []string{
	"Wheel Throwing", "Glaze Chemistry", "Raku Firing", "Hand Building",
	"Slip Casting", "Bookbinding", "Letterpress", "Natural Dyeing",
	"Indigo Shibori", "Blacksmithing", "Knife Making", "Wood Carving",
	"Stained Glass", "Leather Tooling", "Screen Printing", "Weaving",
}

var workshopFormats = []string{
	"Intro to %s", "%s Intensive", "%s for Beginners", "Advanced %s",
	"%s Open Studio", "Weekend %s",
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Password: string(hashed),
		Role:     models.UserRoleMember,
		Bio:      gofakeit.Sentence(10),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCommunity constructs and persists a community run by the given
// organizer.
func (f *Factory) CreateCommunity(organizer *models.User, overrides ...func(*models.Community)) (*models.Community, error) {
	name := gofakeit.City() + " Makers"
	slug := validation.Slugify(name)
	// Community slugs are capped at 24 characters.
	if len(slug) > 20 {
		slug = strings.TrimRight(slug[:20], "-")
	}
	community := &models.Community{
		Name:            name,
		Slug:            slug + fmt.Sprintf("-%d", gofakeit.Number(10, 99)),
		Description:     gofakeit.Paragraph(1, 2, 8, " "),
		CreatedByUserID: &organizer.ID,
		Status:          models.CommunityStatusActive,
	}
	for _, override := range overrides {
		override(community)
	}
	if err := f.db.Create(community).Error; err != nil {
		return nil, err
	}
	membership := models.CommunityMembership{
		CommunityID: community.ID,
		UserID:      organizer.ID,
		Role:        models.CommunityMembershipRoleOrganizer,
	}
	if err := f.db.Create(&membership).Error; err != nil {
		return nil, err
	}
	return community, nil
}

// AddMember enrols a user in a community as a plain member.
func (f *Factory) AddMember(community *models.Community, user *models.User) error {
	return f.db.Create(&models.CommunityMembership{
		CommunityID: community.ID,
		UserID:      user.ID,
		Role:        models.CommunityMembershipRoleMember,
	}).Error
}

// CreateWorkshop constructs and persists a published workshop. The
// schedule is spread across the surrounding weeks so listings look real.
func (f *Factory) CreateWorkshop(creator *models.User, community *models.Community, overrides ...func(*models.Workshop)) (*models.Workshop, error) {
	topic := craftTopics[f.rand.Intn(len(craftTopics))]
	title := fmt.Sprintf(workshopFormats[f.rand.Intn(len(workshopFormats))], topic)

	daysOut := f.rand.Intn(28) - 7
	start := time.Now().UTC().
		AddDate(0, 0, daysOut).
		Truncate(time.Hour)
	workshop := &models.Workshop{
		Title:       title,
		Slug:        validation.Slugify(title) + fmt.Sprintf("-%d", gofakeit.Number(100, 999)),
		Description: gofakeit.Paragraph(2, 3, 10, "\n"),
		Status:      models.WorkshopStatusPublished,
		StartsAt:    start,
		EndsAt:      start.Add(time.Duration(2+f.rand.Intn(4)) * time.Hour),
		CreatorID:   creator.ID,
		Tags:        models.StringList{strings.ToLower(strings.Fields(topic)[0]), "craft"},
		Mode:        f.randomMode(),
	}
	if community != nil {
		workshop.CommunityID = &community.ID
	}
	for _, override := range overrides {
		override(workshop)
	}
	if err := f.db.Create(workshop).Error; err != nil {
		return nil, err
	}
	return workshop, nil
}

func (f *Factory) randomMode() *models.RegistrationMode {
	switch f.rand.Intn(4) {
	case 0:
		return &models.RegistrationMode{Kind: models.RegistrationModeOpen}
	case 1:
		return &models.RegistrationMode{
			Kind: models.RegistrationModeCapped,
			Capped: &models.CappedMode{
				MaxCapacity:     8 + f.rand.Intn(17),
				WaitlistEnabled: f.rand.Intn(2) == 0,
			},
		}
	case 2:
		return &models.RegistrationMode{
			Kind:     models.RegistrationModeApproval,
			Approval: &models.ApprovalMode{},
		}
	default:
		return &models.RegistrationMode{
			Kind:       models.RegistrationModeLevelGated,
			LevelGated: &models.LevelGatedMode{MinLevel: 1 + f.rand.Intn(3)},
		}
	}
}

// CreateAssignment attaches a reviewable task to a workshop.
func (f *Factory) CreateAssignment(workshop *models.Workshop, position int, overrides ...func(*models.WorkshopAssignment)) (*models.WorkshopAssignment, error) {
	assignment := &models.WorkshopAssignment{
		WorkshopID: workshop.ID,
		Title:      gofakeit.Sentence(4),
		Position:   position,
		Deadline:   workshop.EndsAt.AddDate(0, 0, 7),
		XpReward:   25 * (1 + f.rand.Intn(4)),
		Spec:       f.randomSpec(),
	}
	for _, override := range overrides {
		override(assignment)
	}
	if err := f.db.Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

func (f *Factory) randomSpec() models.AssignmentSpec {
	switch f.rand.Intn(3) {
	case 0:
		return models.AssignmentSpec{
			Kind: models.AssignmentKindQuiz,
			Quiz: &models.QuizAssignment{QuizID: gofakeit.UUID()},
		}
	case 1:
		return models.AssignmentSpec{
			Kind: models.AssignmentKindFileUpload,
			FileUpload: &models.FileUploadAssignment{
				AcceptedFormats: []string{".pdf", ".zip"},
				MaxSizeBytes:    10 << 20,
			},
		}
	default:
		return models.AssignmentSpec{
			Kind: models.AssignmentKindLinkSubmission,
			Link: &models.LinkSubmissionAssignment{},
		}
	}
}

// RegisterUser places a registration row directly, matching what the
// registration flow would have produced for an open workshop.
func (f *Factory) RegisterUser(workshop *models.Workshop, user *models.User) error {
	reg := models.WorkshopRegistration{
		WorkshopID:   workshop.ID,
		UserID:       user.ID,
		Status:       models.RegistrationStatusRegistered,
		RegisteredAt: time.Now().UTC().Add(-time.Duration(f.rand.Intn(72)) * time.Hour),
	}
	if err := f.db.Create(&reg).Error; err != nil {
		return err
	}
	return f.db.Model(&models.Workshop{}).
		Where("id = ?", workshop.ID).
		Update("registration_count", gorm.Expr("registration_count + 1")).Error
}

// CreateBoost sets up a time-boxed XP multiplier, personal when user is
// non-nil, global otherwise.
func (f *Factory) CreateBoost(user *models.User, multiplier float64, days int) (*models.XpBoost, error) {
	now := time.Now().UTC()
	boost := &models.XpBoost{
		Multiplier: multiplier,
		StartsAt:   now,
		EndsAt:     now.AddDate(0, 0, days),
		IsActive:   true,
	}
	if user != nil {
		boost.UserID = &user.ID
	}
	if err := f.db.Create(boost).Error; err != nil {
		return nil, err
	}
	return boost, nil
}
