package model

import "github.com/pkg/errors"

var ErrInvalidRole = errors.New("invalid role")

type Role string

const (
	RoleOwner       Role = "owner"
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleContributor Role = "contributor"
)

// Roles in descending order of privilege.
var Roles = []Role{RoleOwner, RoleAdmin, RoleManager, RoleContributor}

var roleRanks = map[Role]int{
	RoleContributor: 1,
	RoleManager:     2,
	RoleAdmin:       3,
	RoleOwner:       4,
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRanks[r]; !ok {
		return "", errors.Wrap(ErrInvalidRole, s)
	}
	return r, nil
}

// Rank returns the privilege rank of the role, higher is more privileged.
// Unknown roles rank below contributor.
func (r Role) Rank() int {
	return roleRanks[r]
}

func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}
