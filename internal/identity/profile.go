// AngelaMos | 2026
// profile.go

package identity

import (
	"time"
)

// Profile is the public-facing projection of an identity consumed by the
// frontend. It is kept in sync with the identity row by an explicit
// SyncProfile call on every identity write, not by a storage hook.
type Profile struct {
	IdentityID string    `db:"identity_id"`
	Email      string    `db:"email"`
	Name       string    `db:"name"`
	AvatarURL  string    `db:"avatar_url"`
	Bio        string    `db:"bio"`
	City       string    `db:"city"`
	Country    string    `db:"country"`
	IsPublic   bool      `db:"is_public"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// SyncProfile derives the profile fields owned by the identity record.
// Fields the user edits directly (bio, avatar, location) are preserved
// from the existing profile; a nil existing profile yields a fresh one.
func SyncProfile(id *Identity, existing *Profile) Profile {
	p := Profile{
		IdentityID: id.ID,
		IsPublic:   true,
	}
	if existing != nil {
		p = *existing
	}
	p.IdentityID = id.ID
	p.Email = id.Email
	p.Name = id.Name
	return p
}
