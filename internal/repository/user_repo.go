package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cybernauts/social-graph/internal/db"
)

// UserRepository provides data access methods for the User model.
// It is the storage boundary the domain services operate through.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// FindByID returns the user with the given id, or gorm.ErrRecordNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAll returns every user, newest first.
func (r *UserRepository) FindAll(ctx context.Context) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// FindWhereFriendsContains returns all users whose friend set includes id.
//
// Friends are stored as a JSON array of UUID strings, so a quoted substring
// match is exact: a UUID cannot appear inside another quoted UUID.
func (r *UserRepository) FindWhereFriendsContains(ctx context.Context, id string) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("friends LIKE ?", fmt.Sprintf(`%%"%s"%%`, id)).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Save upserts the user by primary key.
func (r *UserRepository) Save(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// DeleteByID removes the user with the given id. Deleting an absent id is
// not an error at this layer; existence checks belong to the caller.
func (r *UserRepository) DeleteByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&db.User{}, "id = ?", id).Error
}
