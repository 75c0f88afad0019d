package permissions

import (
	"context"

	"github.com/subtitly/teams-service/internal/model"
	"github.com/subtitly/teams-service/internal/repository"
)

// Gate holds the authorization predicates consulted before every mutating
// team, membership, and project operation. Predicates are read-only: a false
// result must abort the operation before any state change. Services receive
// the Gate at construction so tests can swap in a stub without touching the
// stores.
type Gate interface {
	CanCreateTeam(ctx context.Context, user *model.User) bool
	CanChangeTeamSettings(ctx context.Context, team *model.Team, user *model.User) bool
	CanDeleteTeam(ctx context.Context, team *model.Team, user *model.User) bool

	CanAddMember(ctx context.Context, team *model.Team, user *model.User) bool
	CanAssignRole(ctx context.Context, team *model.Team, user *model.User, role model.Role, target *model.TeamMember) bool
	CanRemoveMember(ctx context.Context, team *model.Team, user *model.User) bool

	CanCreateProject(ctx context.Context, user *model.User, team *model.Team) bool
	CanEditProject(ctx context.Context, team *model.Team, user *model.User, project *model.Project) bool
	CanDeleteProject(ctx context.Context, user *model.User, team *model.Team, project *model.Project) bool
}

// RoleGate decides from the acting user's membership role, the team's
// membership policy, and the role privilege ordering.
type RoleGate struct {
	members repository.MemberRepository
}

func NewRoleGate(members repository.MemberRepository) *RoleGate {
	return &RoleGate{members: members}
}

// roleOf returns the user's role in the team, or "" when the user is not a
// member or the lookup fails. Denial is the safe answer for a failed lookup.
func (g *RoleGate) roleOf(ctx context.Context, team *model.Team, user *model.User) model.Role {
	if user == nil || team == nil {
		return ""
	}
	member, err := g.members.Get(ctx, team.Slug, user.Username)
	if err != nil {
		return ""
	}
	return model.Role(member.Role)
}

func (g *RoleGate) CanCreateTeam(ctx context.Context, user *model.User) bool {
	return user != nil && user.Username != ""
}

func (g *RoleGate) CanChangeTeamSettings(ctx context.Context, team *model.Team, user *model.User) bool {
	return g.roleOf(ctx, team, user).AtLeast(model.RoleAdmin)
}

func (g *RoleGate) CanDeleteTeam(ctx context.Context, team *model.Team, user *model.User) bool {
	return g.roleOf(ctx, team, user) == model.RoleOwner
}

func (g *RoleGate) CanAddMember(ctx context.Context, team *model.Team, user *model.User) bool {
	role := g.roleOf(ctx, team, user)
	if role.AtLeast(model.RoleAdmin) {
		return true
	}
	switch team.MembershipPolicy {
	case model.MembershipInvitationByAnyMember:
		return role != ""
	case model.MembershipInvitationByManager:
		return role.AtLeast(model.RoleManager)
	default:
		return false
	}
}

func (g *RoleGate) CanAssignRole(ctx context.Context, team *model.Team, user *model.User, role model.Role, target *model.TeamMember) bool {
	actor := g.roleOf(ctx, team, user)
	if !actor.AtLeast(model.RoleAdmin) {
		return false
	}
	// Owners are assigned out of band, never through this endpoint, and
	// nobody hands out a rank above their own.
	if role == model.RoleOwner || target.Role == model.RoleOwner {
		return false
	}
	return actor.Rank() >= role.Rank()
}

func (g *RoleGate) CanRemoveMember(ctx context.Context, team *model.Team, user *model.User) bool {
	return g.roleOf(ctx, team, user).AtLeast(model.RoleAdmin)
}

func (g *RoleGate) CanCreateProject(ctx context.Context, user *model.User, team *model.Team) bool {
	return g.roleOf(ctx, team, user).AtLeast(model.RoleManager)
}

func (g *RoleGate) CanEditProject(ctx context.Context, team *model.Team, user *model.User, project *model.Project) bool {
	return g.roleOf(ctx, team, user).AtLeast(model.RoleManager)
}

func (g *RoleGate) CanDeleteProject(ctx context.Context, user *model.User, team *model.Team, project *model.Project) bool {
	return g.roleOf(ctx, team, user).AtLeast(model.RoleAdmin)
}
