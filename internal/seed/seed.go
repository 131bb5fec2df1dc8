package seed

import (
	"fmt"
	"log"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// Options configures how much data the seeder creates.
type Options struct {
	NumUsers     int
	NumWorkshops int
	ShouldClean  bool
}

// Seed populates the database with demo data: organizers with
// communities, published workshops under every admission mode,
// assignments, registrations and a couple of XP boosts.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d users and %d workshops...", opts.NumUsers, opts.NumWorkshops)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Printf("warning: could not clear existing data: %v", err)
		}
	}

	f := NewFactory(db)

	admin, err := f.CreateUser(func(u *models.User) {
		u.Username = "admin"
		u.Email = "admin@atelier.dev"
		u.Role = models.UserRoleAdmin
	})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	numOrganizers := opts.NumUsers / 10
	if numOrganizers < 2 {
		numOrganizers = 2
	}
	organizers := make([]*models.User, 0, numOrganizers)
	for i := 0; i < numOrganizers; i++ {
		organizer, err := f.CreateUser(func(u *models.User) {
			u.Role = models.UserRoleOrganizer
		})
		if err != nil {
			return fmt.Errorf("failed to create organizer: %w", err)
		}
		organizers = append(organizers, organizer)
	}

	members := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		member, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create member: %w", err)
		}
		members = append(members, member)
	}
	log.Printf("created %d users (%d organizers)", len(members)+numOrganizers+1, numOrganizers)

	communities := make([]*models.Community, 0, numOrganizers)
	for _, organizer := range organizers {
		community, err := f.CreateCommunity(organizer)
		if err != nil {
			return fmt.Errorf("failed to create community: %w", err)
		}
		for _, member := range members {
			if f.rand.Intn(3) == 0 {
				if err := f.AddMember(community, member); err != nil {
					return fmt.Errorf("failed to add member: %w", err)
				}
			}
		}
		communities = append(communities, community)
	}
	log.Printf("created %d communities", len(communities))

	for i := 0; i < opts.NumWorkshops; i++ {
		organizer := organizers[f.rand.Intn(len(organizers))]

		// Roughly a third of workshops are standalone, the rest are
		// hosted by the organizer's community.
		var community *models.Community
		if f.rand.Intn(3) != 0 {
			community = communities[f.rand.Intn(len(communities))]
		}

		workshop, err := f.CreateWorkshop(organizer, community)
		if err != nil {
			return fmt.Errorf("failed to create workshop: %w", err)
		}

		for pos := 1; pos <= 1+f.rand.Intn(3); pos++ {
			if _, err := f.CreateAssignment(workshop, pos); err != nil {
				return fmt.Errorf("failed to create assignment: %w", err)
			}
		}

		// Open workshops get a realistic registration spread.
		if workshop.Mode != nil && workshop.Mode.Kind == models.RegistrationModeOpen {
			for _, member := range members {
				if f.rand.Intn(4) == 0 {
					if err := f.RegisterUser(workshop, member); err != nil {
						return fmt.Errorf("failed to register user: %w", err)
					}
				}
			}
		}
	}
	log.Printf("created %d workshops", opts.NumWorkshops)

	if _, err := f.CreateBoost(nil, 1.5, 7); err != nil {
		return fmt.Errorf("failed to create global boost: %w", err)
	}
	if len(members) > 0 {
		if _, err := f.CreateBoost(members[0], 2.0, 3); err != nil {
			return fmt.Errorf("failed to create personal boost: %w", err)
		}
	}

	log.Printf("seeding complete; admin login: %s / password123", admin.Email)
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("clearing existing data...")
	tables := []string{
		"xp_boosts", "xp_transactions", "xp_profiles",
		"quiz_completions", "assignment_submissions", "workshop_assignments",
		"workshop_attendances", "workshop_registrations",
		"workshop_co_hosts", "workshops",
		"community_memberships", "communities", "users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
