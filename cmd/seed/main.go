// Command seed populates the database with a demo social graph by driving
// the regular service operations, so every seeded record satisfies the
// friendship and score invariants by construction.
package main

import (
	"context"
	"log"

	"github.com/cybernauts/social-graph/internal/app"
	"github.com/cybernauts/social-graph/internal/cache"
	"github.com/cybernauts/social-graph/internal/config"
	"github.com/cybernauts/social-graph/internal/db"
	"github.com/cybernauts/social-graph/internal/logger"
	"github.com/cybernauts/social-graph/internal/service/users"
)

var demoUsers = []users.CreateUserRequest{
	{Username: "alice", Age: 30, Hobbies: []string{"reading", "gaming", "cooking"}},
	{Username: "bob", Age: 28, Hobbies: []string{"reading", "gaming"}},
	{Username: "carol", Age: 35, Hobbies: []string{"hiking", "photography"}},
	{Username: "dave", Age: 22, Hobbies: []string{"gaming", "cycling"}},
	{Username: "erin", Age: 41, Hobbies: []string{"cooking", "photography", "reading"}},
	{Username: "frank", Age: 27, Hobbies: []string{"cycling", "hiking"}},
	{Username: "grace", Age: 33, Hobbies: []string{"gaming", "cooking"}},
	{Username: "heidi", Age: 29, Hobbies: []string{"reading"}},
}

// friendships as index pairs into demoUsers
var demoLinks = [][2]int{
	{0, 1}, {0, 4}, {0, 6},
	{1, 3}, {2, 5}, {3, 6},
	{4, 7}, {2, 7},
}

func main() {
	cfg := config.New()
	logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	if err := database.Exec("DELETE FROM users").Error; err != nil {
		log.Fatalf("failed to clear users: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg)
	svc := users.NewUserService(app.New(database, redisCache, logger.L()))
	ctx := context.Background()

	ids := make([]string, len(demoUsers))
	for i, req := range demoUsers {
		user, err := svc.Create(ctx, req)
		if err != nil {
			log.Fatalf("failed to seed user %q: %v", req.Username, err)
		}
		ids[i] = user.ID
	}
	log.Printf("Seeded %d users.", len(ids))

	for _, pair := range demoLinks {
		if _, _, err := svc.Link(ctx, ids[pair[0]], ids[pair[1]]); err != nil {
			log.Fatalf("failed to link %s and %s: %v",
				demoUsers[pair[0]].Username, demoUsers[pair[1]].Username, err)
		}
	}
	log.Printf("Seeded %d friendships.", len(demoLinks))

	log.Println("Seeding completed.")
}
