package db

import (
	"time"
)

// User table.
//
// Hobbies and Friends are stored as JSON text columns, keeping the whole
// user a single self-contained record the way the original document store
// held it.
//
// Fields:
//   - ID: opaque UUID assigned at creation, immutable.
//   - Username: display name, trimmed, 2–50 chars.
//   - Age: 1–150 inclusive.
//   - Hobbies: ordered list; duplicates allowed, insertion order preserved.
//   - Friends: ids of befriended users. Symmetric: A lists B iff B lists A.
//     Never contains the owner's own id, never contains duplicates.
//   - PopularityScore: derived; |friends| + 0.5 × shared-hobby count.
//   - CreatedAt: creation timestamp, immutable.
type User struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Username        string    `gorm:"index;size:50;not null" json:"username"`
	Age             int       `gorm:"not null" json:"age"`
	Hobbies         []string  `gorm:"serializer:json" json:"hobbies"`
	Friends         []string  `gorm:"serializer:json" json:"friends"`
	PopularityScore float64   `gorm:"default:0" json:"popularityScore"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// HasFriend reports whether id is already in the user's friend set.
func (u *User) HasFriend(id string) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}
