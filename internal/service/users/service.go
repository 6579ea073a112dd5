package users

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cybernauts/social-graph/internal/app"
	"github.com/cybernauts/social-graph/internal/db"
	svcErr "github.com/cybernauts/social-graph/internal/errors"
	"github.com/cybernauts/social-graph/internal/repository"
	"github.com/cybernauts/social-graph/internal/score"
)

// Service implements the user lifecycle and friendship operations.
// It contains the business logic on top of repository and cache layers.
//
// Friendship is kept symmetric: every link/unlink mutates both endpoint
// records and recomputes both popularity scores. The two persists are
// sequential with no surrounding transaction; a crash between them leaves a
// one-sided link, which a repeated unlink repairs (removal is idempotent).
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository
	validate *validator.Validate
}

// NewUserService creates a new user service with dependencies from AppContext.
func NewUserService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
		validate: validator.New(),
	}
}

// CreateUserRequest carries the fields for a new user.
type CreateUserRequest struct {
	Username string   `json:"username" validate:"required,min=2,max=50"`
	Age      int      `json:"age" validate:"required,gte=1,lte=150"`
	Hobbies  []string `json:"hobbies"`
}

// UpdateUserRequest is a partial patch. Pointer fields make presence
// explicit: nil means "not provided", so a JSON body that omits a field
// leaves the stored value untouched. A field that is provided must be in
// bounds; an explicit empty or zero value is rejected, not ignored.
type UpdateUserRequest struct {
	Username *string   `json:"username"`
	Age      *int      `json:"age"`
	Hobbies  *[]string `json:"hobbies"`
}

// List returns all users, newest first.
func (s *Service) List(ctx context.Context) ([]db.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		s.appCtx.Logger.Error("FindAll failed", "err", err)
		return nil, svcErr.Map(err)
	}
	if users == nil {
		users = []db.User{}
	}
	return users, nil
}

// Get returns a single user by id.
func (s *Service) Get(ctx context.Context, id string) (*db.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, "user not found")
	}
	return user, nil
}

// Create validates bounds, assigns a fresh id, and persists a new user with
// no friends and a zero popularity score.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*db.User, error) {
	s.appCtx.Logger.Debug("Create called", "username", req.Username)

	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	hobbies := req.Hobbies
	if hobbies == nil {
		hobbies = []string{}
	}

	user := &db.User{
		ID:              uuid.NewString(),
		Username:        req.Username,
		Age:             req.Age,
		Hobbies:         hobbies,
		Friends:         []string{},
		PopularityScore: 0,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.appCtx.Logger.Error("Create save failed", "err", err)
		return nil, svcErr.Map(err)
	}

	s.invalidateGraph(ctx)
	return user, nil
}

// Update applies the provided fields, recomputes the user's score, persists,
// then cascades a score refresh to every current friend: a changed hobby
// list alters the shared-hobby counts on the other side of each link.
//
// The cascade is best-effort. The user's own record is already persisted by
// the time it runs, so a friend that fails to load or save is logged and
// skipped rather than failing the update.
func (s *Service) Update(ctx context.Context, id string, req UpdateUserRequest) (*db.User, error) {
	s.appCtx.Logger.Debug("Update called", "id", id)

	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		// rune count, matching the validator's length semantics on Create
		if l := utf8.RuneCountInString(trimmed); l < 2 || l > 50 {
			return nil, svcErr.Validation("username must be between 2 and 50 characters")
		}
		req.Username = &trimmed
	}
	if req.Age != nil && (*req.Age < 1 || *req.Age > 150) {
		return nil, svcErr.Validation("age must be between 1 and 150")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, "user not found")
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	if req.Hobbies != nil {
		user.Hobbies = *req.Hobbies
	}

	if err := s.refreshScore(ctx, user); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.appCtx.Logger.Error("Update save failed", "id", id, "err", err)
		return nil, svcErr.Map(err)
	}

	s.cascadeScores(ctx, user)
	s.invalidateGraph(ctx)
	return user, nil
}

// Delete removes an unlinked user. A user with friends, or one still
// referenced in another user's friend set, cannot be deleted; the second
// check guards against corrupted one-sided links that the symmetry
// invariant should normally rule out.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	s.appCtx.Logger.Debug("Delete called", "id", id)

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return "", s.notFoundOr(err, "user not found")
	}

	if n := len(user.Friends); n > 0 {
		return "", svcErr.Conflict("cannot delete user with active friendships, unlink all friends first").
			WithField("friendCount", n)
	}

	referencing, err := s.userRepo.FindWhereFriendsContains(ctx, id)
	if err != nil {
		return "", svcErr.Map(err)
	}
	if n := len(referencing); n > 0 {
		return "", svcErr.Conflict("user is still connected to other users, remove all connections first").
			WithField("connectedUsers", n)
	}

	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		s.appCtx.Logger.Error("Delete failed", "id", id, "err", err)
		return "", svcErr.Map(err)
	}

	s.invalidateGraph(ctx)
	return id, nil
}

// Link creates a mutual friendship between two users and returns both
// updated records.
//
// Both records are fetched before either is mutated, so each score is
// computed against the other's pre-existing hobby state.
func (s *Service) Link(ctx context.Context, userID, friendID string) (*db.User, *db.User, error) {
	s.appCtx.Logger.Debug("Link called", "user", userID, "friend", friendID)

	if friendID == "" {
		return nil, nil, svcErr.InvalidArgument("friendId is required")
	}
	if userID == friendID {
		return nil, nil, svcErr.InvalidArgument("user cannot be friends with themselves")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, s.notFoundOr(err, "user or friend not found")
	}
	friend, err := s.userRepo.FindByID(ctx, friendID)
	if err != nil {
		return nil, nil, s.notFoundOr(err, "user or friend not found")
	}

	if user.HasFriend(friendID) {
		return nil, nil, svcErr.Conflict("users are already friends")
	}

	user.Friends = append(user.Friends, friendID)
	friend.Friends = append(friend.Friends, userID)

	if err := s.refreshScore(ctx, user, friend); err != nil {
		return nil, nil, svcErr.Map(err)
	}
	if err := s.refreshScore(ctx, friend, user); err != nil {
		return nil, nil, svcErr.Map(err)
	}

	// Two independent persists; both must succeed for the link to report
	// success. See the Service doc comment for the crash window.
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.appCtx.Logger.Error("Link save failed", "user", userID, "err", err)
		return nil, nil, svcErr.Map(err)
	}
	if err := s.userRepo.Save(ctx, friend); err != nil {
		s.appCtx.Logger.Error("Link save failed", "user", friendID, "err", err)
		return nil, nil, svcErr.Map(err)
	}

	s.invalidateGraph(ctx)
	return user, friend, nil
}

// Unlink removes a friendship from both sides and returns both updated
// records. Removing a link that does not exist is a no-op, so the operation
// is idempotent.
func (s *Service) Unlink(ctx context.Context, userID, friendID string) (*db.User, *db.User, error) {
	s.appCtx.Logger.Debug("Unlink called", "user", userID, "friend", friendID)

	if friendID == "" {
		return nil, nil, svcErr.InvalidArgument("friendId is required")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, s.notFoundOr(err, "user or friend not found")
	}
	friend, err := s.userRepo.FindByID(ctx, friendID)
	if err != nil {
		return nil, nil, s.notFoundOr(err, "user or friend not found")
	}

	user.Friends = remove(user.Friends, friendID)
	friend.Friends = remove(friend.Friends, userID)

	if err := s.refreshScore(ctx, user, friend); err != nil {
		return nil, nil, svcErr.Map(err)
	}
	if err := s.refreshScore(ctx, friend, user); err != nil {
		return nil, nil, svcErr.Map(err)
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.appCtx.Logger.Error("Unlink save failed", "user", userID, "err", err)
		return nil, nil, svcErr.Map(err)
	}
	if err := s.userRepo.Save(ctx, friend); err != nil {
		s.appCtx.Logger.Error("Unlink save failed", "user", friendID, "err", err)
		return nil, nil, svcErr.Map(err)
	}

	s.invalidateGraph(ctx)
	return user, friend, nil
}

// refreshScore recomputes user's popularity score from its current friend
// set. Friend ids are resolved through the repository; ids matching one of
// the known in-memory records use that record instead, so dual-record
// operations score against unpersisted state. Unresolvable ids are skipped
// but still count toward the friend total.
func (s *Service) refreshScore(ctx context.Context, user *db.User, known ...*db.User) error {
	friends := make([]db.User, 0, len(user.Friends))

resolve:
	for _, id := range user.Friends {
		for _, k := range known {
			if k != nil && k.ID == id {
				friends = append(friends, *k)
				continue resolve
			}
		}
		friend, err := s.userRepo.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue // missing friend record contributes nothing
		}
		if err != nil {
			return err
		}
		friends = append(friends, *friend)
	}

	user.PopularityScore = score.Compute(user, friends)
	return nil
}

// cascadeScores refreshes and persists the score of every friend of user.
func (s *Service) cascadeScores(ctx context.Context, user *db.User) {
	for _, id := range user.Friends {
		friend, err := s.userRepo.FindByID(ctx, id)
		if err != nil {
			s.appCtx.Logger.Warn("cascade skipped friend", "id", id, "err", err)
			continue
		}
		if err := s.refreshScore(ctx, friend, user); err != nil {
			s.appCtx.Logger.Warn("cascade rescore failed", "id", id, "err", err)
			continue
		}
		if err := s.userRepo.Save(ctx, friend); err != nil {
			s.appCtx.Logger.Warn("cascade save failed", "id", id, "err", err)
		}
	}
}

// invalidateGraph drops the cached projection after a mutation. Best-effort:
// the TTL bounds staleness if Redis is unreachable.
func (s *Service) invalidateGraph(ctx context.Context) {
	if err := s.appCtx.RedisCache.InvalidateGraph(ctx); err != nil {
		s.appCtx.Logger.Warn("graph cache invalidation failed", "err", err)
	}
}

// notFoundOr maps a record-not-found from the repo to a NotFound with the
// given message, and anything else through the standard mapper.
func (s *Service) notFoundOr(err error, msg string) error {
	mapped := svcErr.Map(err)
	if mapped.Kind == svcErr.KindNotFound {
		return svcErr.NotFound(msg)
	}
	return mapped
}

// remove filters id out of ids. Always returns a non-nil slice so a record
// whose friends column round-trips as SQL NULL still serializes as [].
func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// validationError folds validator output into a single readable message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return svcErr.Validation(err.Error())
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Username":
			return svcErr.Validation("username must be between 2 and 50 characters")
		case "Age":
			return svcErr.Validation("age must be between 1 and 150")
		}
	}
	return svcErr.Validation(verrs.Error())
}
