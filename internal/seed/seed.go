package seed

import (
	"fmt"
	"log"

	"blogicum/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Seeder populates the database with demo content.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db)}
}

// ClearAll removes all seeded content. Tables are emptied children-first so
// foreign keys never dangle mid-run.
func (s *Seeder) ClearAll() error {
	tables := []string{"comments", "posts", "categories", "locations", "users"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Database cleared")
	return nil
}

// defaultCategories are the categories every seeded database starts with.
// One is kept unpublished so hidden-category behavior is visible in dev.
var defaultCategories = []struct {
	Title       string
	IsPublished bool
}{
	{"Travel", true},
	{"Food", true},
	{"Technology", true},
	{"Music", true},
	{"Drafts Corner", false},
}

// Run seeds users, categories, locations, posts, and comments. Roughly one
// post in ten is scheduled into the future and one in ten left unpublished,
// so listings exercise the visibility rules out of the box.
func (s *Seeder) Run(numUsers, numPosts int) error {
	var categories []*models.Category
	for _, c := range defaultCategories {
		category, err := s.factory.CreateCategory(c.Title, func(cat *models.Category) {
			cat.IsPublished = c.IsPublished
		})
		if err != nil {
			return fmt.Errorf("failed to create category %q: %w", c.Title, err)
		}
		categories = append(categories, category)
	}

	var locations []*models.Location
	for i := 0; i < 5; i++ {
		location, err := s.factory.CreateLocation(gofakeit.City())
		if err != nil {
			return fmt.Errorf("failed to create location: %w", err)
		}
		locations = append(locations, location)
	}

	var users []*models.User
	for i := 0; i < numUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return fmt.Errorf("cannot seed posts without users")
	}

	for i := 0; i < numPosts; i++ {
		author := users[s.factory.rand.Intn(len(users))]
		post, err := s.factory.CreatePost(author, func(p *models.Post) {
			if s.factory.rand.Intn(4) > 0 {
				p.CategoryID = &categories[s.factory.rand.Intn(len(categories))].ID
			}
			if s.factory.rand.Intn(2) == 0 {
				p.LocationID = &locations[s.factory.rand.Intn(len(locations))].ID
			}
			switch s.factory.rand.Intn(10) {
			case 0:
				p.PubDate = p.PubDate.AddDate(0, 0, 120) // scheduled
			case 1:
				p.IsPublished = false
			}
		})
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}

		for j := 0; j < s.factory.rand.Intn(5); j++ {
			commenter := users[s.factory.rand.Intn(len(users))]
			if _, err := s.factory.CreateComment(commenter, post); err != nil {
				return fmt.Errorf("failed to create comment: %w", err)
			}
		}
	}

	log.Printf("Seeded %d users, %d categories, %d locations, %d posts",
		len(users), len(categories), len(locations), numPosts)
	return nil
}
