package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"atelier/internal/blob"
	"atelier/internal/config"
	"atelier/internal/database"
	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// newTestServer wires a Server by hand so tests skip the Prometheus
// collector, which registers globally and cannot be created twice.
func newTestServer(t *testing.T, db *gorm.DB) *Server {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:    "test-secret-key-for-handler-tests!!",
		Port:         "0",
		XpBase:       models.DefaultXpBase,
		AttendanceXp: 50,
	}
	middleware.InitMiddleware(cfg)

	blobs := blob.NewMemoryStore()
	s := &Server{
		config:        cfg,
		db:            db,
		userRepo:      repository.NewUserRepository(db),
		workshopRepo:  repository.NewWorkshopRepository(db),
		regRepo:       repository.NewRegistrationRepository(db),
		assignRepo:    repository.NewAssignmentRepository(db),
		xpRepo:        repository.NewXpRepository(db),
		communityRepo: repository.NewCommunityRepository(db),
		blobs:         blobs,
	}
	s.xpService = service.NewXpService(db, s.xpRepo, cfg.XpBase)
	s.catalogService = service.NewCatalogService(db, s.workshopRepo, s.communityRepo, blobs)
	s.registrationService = service.NewRegistrationService(db, s.regRepo, s.communityRepo, s.xpService)
	s.attendanceService = service.NewAttendanceService(db, s.regRepo, s.xpService, cfg.AttendanceXp)
	s.assignmentService = service.NewAssignmentService(db, s.assignRepo, blobs, s.xpService)
	return s
}

func createHandlerTestUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "pw",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createHandlerTestWorkshop(t *testing.T, db *gorm.DB, creator *models.User) *models.Workshop {
	t.Helper()
	now := time.Now().UTC()
	workshop := models.Workshop{
		Title:     "Glaze Chemistry",
		Slug:      "glaze-chemistry-" + creator.Username,
		Status:    models.WorkshopStatusPublished,
		StartsAt:  now.Add(-time.Hour),
		EndsAt:    now.Add(time.Hour),
		CreatorID: creator.ID,
	}
	require.NoError(t, db.Create(&workshop).Error)
	return &workshop
}

// testApp mounts routes with a middleware that impersonates the given user.
func testApp(s *Server, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
	api := app.Group("/api")
	registerTestRoutes(s, api)
	return app
}

func registerTestRoutes(s *Server, api fiber.Router) {
	workshops := api.Group("/workshops")
	workshops.Post("/:id/register", s.Register)
	workshops.Delete("/:id/register", s.CancelRegistration)
	workshops.Get("/:id/registrations", s.GetRegistrations)
	workshops.Post("/:id/registrations/:userId/approve", s.ApproveRegistration)
	workshops.Post("/:id/checkin", s.CheckIn)
	workshops.Post("/:id/checkin-code/refresh", s.RefreshCheckInCode)
	workshops.Post("/:id/publish", s.PublishWorkshop)
	api.Get("/xp/me", s.GetMyLevelInfo)
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body []byte) *http.Response {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest), "body: %s", raw)
}

func TestParsePaginationDefaults(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c, 25)
		return c.JSON(fiber.Map{"limit": p.Limit, "offset": p.Offset})
	})

	resp := doJSON(t, app, http.MethodGet, "/items?limit=500&offset=-3", nil)
	var body map[string]int
	decodeBody(t, resp, &body)
	assert.Equal(t, maxPaginationLimit, body["limit"])
	assert.Equal(t, 0, body["offset"])
}

func TestParseIDInvalid(t *testing.T) {
	app := fiber.New()
	s := &Server{}
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		if _, err := s.parseID(c, "id"); err != nil {
			return nil
		}
		return c.SendStatus(http.StatusOK)
	})

	resp := doJSON(t, app, http.MethodGet, "/items/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
