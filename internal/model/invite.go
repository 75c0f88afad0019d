package model

import (
	"time"

	"github.com/google/uuid"
)

// Invite is a pending request for a user to join a team with a given role.
// It becomes a TeamMember only on acceptance; Approved stays nil while the
// invite is pending.
type Invite struct {
	ID       uuid.UUID  `json:"id"`
	TeamSlug string     `json:"team"`
	Username string     `json:"username"`
	Role     Role       `json:"role"`
	Approved *bool      `json:"approved"`
	Created  *time.Time `json:"created,omitempty"`
}
