package users_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cybernauts/social-graph/internal/app"
	"github.com/cybernauts/social-graph/internal/cache"
	"github.com/cybernauts/social-graph/internal/config"
	"github.com/cybernauts/social-graph/internal/db"
	svcErr "github.com/cybernauts/social-graph/internal/errors"
	"github.com/cybernauts/social-graph/internal/service/users"
)

// setupService spins up an in-memory SQLite DB, applies migrations, seeds
// the deterministic dataset (alice u1 ↔ bob u2, carol u3 unlinked), starts
// a miniredis, and wires everything into a user service.
//
// Each test gets its own isolated DB + Redis.
func setupService(t *testing.T) (*users.Service, *gorm.DB) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(&db.User{}))
	require.NoError(t, db.SeedMinimalTestData(gdb))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests

	appCtx := app.New(gdb, redisCache, logger)
	return users.NewUserService(appCtx), gdb
}

// kindOf unwraps a domain error and returns its kind.
func kindOf(t *testing.T, err error) svcErr.Kind {
	t.Helper()
	var e *svcErr.Error
	require.ErrorAs(t, err, &e)
	return e.Kind
}

func TestCreateDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	user, err := svc.Create(ctx, users.CreateUserRequest{
		Username: "  dave  ",
		Age:      22,
		Hobbies:  []string{"gaming"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "dave", user.Username) // trimmed
	assert.Empty(t, user.Friends)
	assert.Equal(t, 0.0, user.PopularityScore)
	assert.False(t, user.CreatedAt.IsZero())

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.PopularityScore)
	assert.Empty(t, got.Friends)
}

func TestCreateNilHobbies(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	user, err := svc.Create(ctx, users.CreateUserRequest{Username: "dave", Age: 22})
	require.NoError(t, err)
	assert.NotNil(t, user.Hobbies)
	assert.Empty(t, user.Hobbies)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	cases := []users.CreateUserRequest{
		{Username: "d", Age: 22},   // too short
		{Username: "", Age: 22},    // missing
		{Username: "dave", Age: 0}, // missing/zero age
		{Username: "dave", Age: 151},
	}
	for _, req := range cases {
		_, err := svc.Create(ctx, req)
		assert.Equal(t, svcErr.KindValidation, kindOf(t, err), "request %+v", req)
	}
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "u3", all[0].ID) // seeded last
}

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Get(ctx, "missing")
	assert.Equal(t, svcErr.KindNotFound, kindOf(t, err))
}

func TestLinkSymmetric(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	user, friend, err := svc.Link(ctx, "u1", "u3")
	require.NoError(t, err)

	assert.Contains(t, user.Friends, "u3")
	assert.Contains(t, friend.Friends, "u1")

	// alice: friends u2 (2 shared hobbies) and u3 (0 shared) → 2 + 1 = 3
	assert.Equal(t, 3.0, user.PopularityScore)
	// carol: one friend, nothing shared → 1
	assert.Equal(t, 1.0, friend.PopularityScore)

	// persisted on both sides
	got, err := svc.Get(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got.Friends)
}

func TestLinkSelf(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, _, err := svc.Link(ctx, "u1", "u1")
	assert.Equal(t, svcErr.KindInvalidArgument, kindOf(t, err))
}

func TestLinkMissingUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, _, err := svc.Link(ctx, "u1", "missing")
	assert.Equal(t, svcErr.KindNotFound, kindOf(t, err))

	_, _, err = svc.Link(ctx, "missing", "u1")
	assert.Equal(t, svcErr.KindNotFound, kindOf(t, err))
}

func TestLinkDuplicateConflict(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	// u1 and u2 are already linked by the seed
	_, _, err := svc.Link(ctx, "u1", "u2")
	assert.Equal(t, svcErr.KindConflict, kindOf(t, err))

	// first link's effects unchanged
	user, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, user.Friends)
	assert.Equal(t, 2.0, user.PopularityScore)
}

func TestUnlink(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	user, friend, err := svc.Unlink(ctx, "u1", "u2")
	require.NoError(t, err)

	assert.Empty(t, user.Friends)
	assert.Empty(t, friend.Friends)
	assert.Equal(t, 0.0, user.PopularityScore)
	assert.Equal(t, 0.0, friend.PopularityScore)
}

func TestUnlinkIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	// u1 and u3 were never linked
	user, friend, err := svc.Unlink(ctx, "u1", "u3")
	require.NoError(t, err)

	assert.Equal(t, []string{"u2"}, user.Friends)
	assert.Empty(t, friend.Friends)
}

func TestUnlinkNormalizesNullFriends(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	// a friends column stored as SQL NULL deserializes to a nil slice
	require.NoError(t, gdb.Exec("UPDATE users SET friends = NULL WHERE id = ?", "u3").Error)

	user, _, err := svc.Unlink(ctx, "u3", "u1")
	require.NoError(t, err)
	assert.NotNil(t, user.Friends)
	assert.Empty(t, user.Friends)
}

func TestUnlinkMissingUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, _, err := svc.Unlink(ctx, "u1", "missing")
	assert.Equal(t, svcErr.KindNotFound, kindOf(t, err))
}

func TestScoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	a, err := svc.Create(ctx, users.CreateUserRequest{
		Username: "pat", Age: 25, Hobbies: []string{"reading", "gaming"},
	})
	require.NoError(t, err)
	b, err := svc.Create(ctx, users.CreateUserRequest{
		Username: "sam", Age: 26, Hobbies: []string{"reading", "cooking", "gaming"},
	})
	require.NoError(t, err)

	linkedA, linkedB, err := svc.Link(ctx, a.ID, b.ID)
	require.NoError(t, err)

	// 1 friend + 0.5 × 2 shared hobbies
	assert.Equal(t, 2.0, linkedA.PopularityScore)
	assert.Equal(t, 2.0, linkedB.PopularityScore)
}

func TestUpdateCascadesFriendScores(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	hobbies := []string{"reading", "gaming", "cooking"}
	user, err := svc.Update(ctx, "u1", users.UpdateUserRequest{Hobbies: &hobbies})
	require.NoError(t, err)

	// now shares all three of bob's hobbies: 1 + 0.5 × 3
	assert.Equal(t, 2.5, user.PopularityScore)

	friend, err := svc.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 2.5, friend.PopularityScore)
}

func TestUpdateSurvivesDanglingFriend(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	// corrupt alice with a friend id that has no record
	var u db.User
	require.NoError(t, gdb.First(&u, "id = ?", "u1").Error)
	u.Friends = append(u.Friends, "ghost")
	require.NoError(t, gdb.Save(&u).Error)

	hobbies := []string{"reading", "gaming", "cooking"}
	user, err := svc.Update(ctx, "u1", users.UpdateUserRequest{Hobbies: &hobbies})
	require.NoError(t, err)

	// the dangling entry still counts toward the friend total but shares
	// nothing: 2 friends + 0.5 × 3 hobbies shared with bob
	assert.Equal(t, 3.5, user.PopularityScore)

	// the resolvable friend still gets the cascade
	friend, err := svc.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 2.5, friend.PopularityScore)
}

func TestUpdateUsernameCountsRunes(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	// 30 runes but 60 bytes; accepted at create, must stay accepted on update
	name := strings.Repeat("é", 30)
	created, err := svc.Create(ctx, users.CreateUserRequest{Username: name, Age: 22})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, users.UpdateUserRequest{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Username)

	long := strings.Repeat("é", 51)
	_, err = svc.Update(ctx, created.ID, users.UpdateUserRequest{Username: &long})
	assert.Equal(t, svcErr.KindValidation, kindOf(t, err))
}

func TestUpdatePartial(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	age := 31
	user, err := svc.Update(ctx, "u1", users.UpdateUserRequest{Age: &age})
	require.NoError(t, err)

	assert.Equal(t, 31, user.Age)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, []string{"reading", "gaming"}, user.Hobbies)
	assert.Equal(t, 2.0, user.PopularityScore)
}

func TestUpdateExplicitEmptyRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	empty := ""
	_, err := svc.Update(ctx, "u1", users.UpdateUserRequest{Username: &empty})
	assert.Equal(t, svcErr.KindValidation, kindOf(t, err))

	zero := 0
	_, err = svc.Update(ctx, "u1", users.UpdateUserRequest{Age: &zero})
	assert.Equal(t, svcErr.KindValidation, kindOf(t, err))
}

func TestUpdateNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	age := 40
	_, err := svc.Update(ctx, "missing", users.UpdateUserRequest{Age: &age})
	assert.Equal(t, svcErr.KindNotFound, kindOf(t, err))
}

func TestDeleteGuardedByFriendships(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Delete(ctx, "u1")
	var e *svcErr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, svcErr.KindConflict, e.Kind)
	assert.Equal(t, 1, e.Fields["friendCount"])

	// unlink, then delete succeeds
	_, _, err = svc.Unlink(ctx, "u1", "u2")
	require.NoError(t, err)

	id, err := svc.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = svc.Get(ctx, "u1")
	assert.Equal(t, svcErr.KindNotFound, kindOf(t, err))
}

func TestDeleteGuardedByReverseReference(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	// corrupt the data with a one-sided link pointing at carol; the
	// symmetry invariant makes this unreachable in normal operation
	require.NoError(t, gdb.Create(&db.User{
		ID:       "u4",
		Username: "mallory",
		Age:      50,
		Friends:  []string{"u3"},
	}).Error)

	_, err := svc.Delete(ctx, "u3")
	var e *svcErr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, svcErr.KindConflict, e.Kind)
	assert.Equal(t, 1, e.Fields["connectedUsers"])
}

func TestDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Delete(ctx, "missing")
	assert.Equal(t, svcErr.KindNotFound, kindOf(t, err))
}
