package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SeedMinimalTestData wipes the users table and inserts a small
// deterministic dataset for repeatable tests.
//
// Dataset:
//   - alice (u1): hobbies reading, gaming; friends with bob
//   - bob   (u2): hobbies reading, cooking, gaming; friends with alice
//   - carol (u3): hobbies hiking; no friends
//
// alice and bob share two hobbies, so each scores 1 + 0.5×2 = 2.
func SeedMinimalTestData(db *gorm.DB) error {
	if err := db.Exec("DELETE FROM users").Error; err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}

	now := time.Now().UTC()
	users := []User{
		{
			ID:              "u1",
			Username:        "alice",
			Age:             30,
			Hobbies:         []string{"reading", "gaming"},
			Friends:         []string{"u2"},
			PopularityScore: 2,
			CreatedAt:       now.Add(-2 * time.Minute),
		},
		{
			ID:              "u2",
			Username:        "bob",
			Age:             28,
			Hobbies:         []string{"reading", "cooking", "gaming"},
			Friends:         []string{"u1"},
			PopularityScore: 2,
			CreatedAt:       now.Add(-time.Minute),
		},
		{
			ID:              "u3",
			Username:        "carol",
			Age:             35,
			Hobbies:         []string{"hiking"},
			Friends:         []string{},
			PopularityScore: 0,
			CreatedAt:       now,
		},
	}

	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	return nil
}
