package models

import "time"

// Roles recognised by the auth layer.
const (
	RoleClient    = "client"
	RoleTherapist = "therapist"
	RoleAdmin     = "admin"
)

// User represents a platform identity: client, therapist, or admin.
type User struct {
	ID           string    `bson:"id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	Phone        string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Bio          string    `bson:"bio,omitempty" json:"bio,omitempty"`
	Specialties  []string  `bson:"specialties,omitempty" json:"specialties,omitempty"`
	Timezone     string    `bson:"timezone,omitempty" json:"timezone,omitempty"` // IANA name, e.g. "Europe/London"
	TokenHash    string    `bson:"tokenHash,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PublicProfile strips credentials and internal fields for listing endpoints.
func (u User) PublicProfile() map[string]any {
	return map[string]any{
		"id":          u.ID,
		"name":        u.Name,
		"role":        u.Role,
		"bio":         u.Bio,
		"specialties": u.Specialties,
		"timezone":    u.Timezone,
	}
}

// ClientDirectoryEntry is a therapist's view of one of their clients.
type ClientDirectoryEntry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	LastSession time.Time `json:"lastSession"`
	Status      string    `json:"status"`
}
