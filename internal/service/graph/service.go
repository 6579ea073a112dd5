package graph

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/cybernauts/social-graph/internal/app"
	svcErr "github.com/cybernauts/social-graph/internal/errors"
	"github.com/cybernauts/social-graph/internal/repository"
)

// Service projects the user set into the nodes/edges document the
// visualization frontend renders.
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository
}

// NewGraphService creates a new graph service with dependencies from AppContext.
func NewGraphService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
	}
}

// Node is one user in the projected graph.
type Node struct {
	ID   string   `json:"id"`
	Data NodeData `json:"data"`
}

// NodeData carries the display attributes the frontend shows on a node.
type NodeData struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	Age             int      `json:"age"`
	Hobbies         []string `json:"hobbies"`
	PopularityScore float64  `json:"popularityScore"`
}

// Edge is one undirected friendship. ID is the canonical sorted-pair key;
// source/target orientation is whichever side was scanned first.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the full projection.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Project returns the nodes/edges view of the whole user set.
//
// Cache-first: the projection is served from Redis when present and rebuilt
// from the repository on a miss. Every mutation in the users service
// invalidates the cached copy.
func (s *Service) Project(ctx context.Context) (*Graph, error) {
	if cached, err := s.appCtx.RedisCache.GetGraph(ctx); err == nil && cached != "" {
		var g Graph
		if err := json.Unmarshal([]byte(cached), &g); err == nil {
			return &g, nil
		}
		s.appCtx.Logger.Warn("discarding unreadable cached graph")
	}

	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		s.appCtx.Logger.Error("FindAll failed", "err", err)
		return nil, svcErr.Map(err)
	}

	g := &Graph{Nodes: []Node{}, Edges: []Edge{}}
	seen := map[string]struct{}{}

	for _, user := range users {
		g.Nodes = append(g.Nodes, Node{
			ID: user.ID,
			Data: NodeData{
				ID:              user.ID,
				Username:        user.Username,
				Age:             user.Age,
				Hobbies:         user.Hobbies,
				PopularityScore: user.PopularityScore,
			},
		})

		// Each friendship is stored on both sides; the canonical pair key
		// emits it once.
		for _, friendID := range user.Friends {
			key := pairKey(user.ID, friendID)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			g.Edges = append(g.Edges, Edge{
				ID:     key,
				Source: user.ID,
				Target: friendID,
			})
		}
	}

	if payload, err := json.Marshal(g); err == nil {
		if err := s.appCtx.RedisCache.SetGraph(ctx, string(payload)); err != nil {
			s.appCtx.Logger.Warn("graph cache write failed", "err", err)
		}
	}

	return g, nil
}

// pairKey derives the canonical key for an unordered id pair.
func pairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "-")
}
