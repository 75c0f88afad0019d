package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/subtitly/teams-service/internal/model"
	"github.com/subtitly/teams-service/internal/repository"
)

// rosterStub serves membership lookups from a map keyed by username.
type rosterStub struct {
	roles map[string]string
}

func (s *rosterStub) Create(ctx context.Context, member *repository.TeamMember) error { return nil }

func (s *rosterStub) Get(ctx context.Context, teamSlug, username string) (*repository.TeamMember, error) {
	role, ok := s.roles[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &repository.TeamMember{TeamSlug: teamSlug, Username: username, Role: role}, nil
}

func (s *rosterStub) List(ctx context.Context, teamSlug string) ([]*repository.TeamMember, error) {
	return nil, nil
}

func (s *rosterStub) UpdateRole(ctx context.Context, teamSlug, username, role string) (*repository.TeamMember, error) {
	return nil, repository.ErrNotFound
}

func (s *rosterStub) Delete(ctx context.Context, teamSlug, username string) error { return nil }

func gateWith(roles map[string]string) *RoleGate {
	return NewRoleGate(&rosterStub{roles: roles})
}

func team(policy model.MembershipPolicy) *model.Team {
	return &model.Team{
		Slug:             "acme",
		Name:             "Acme",
		MembershipPolicy: policy,
		VideoPolicy:      model.VideoAnyMember,
	}
}

func user(name string) *model.User {
	return &model.User{Username: name}
}

func TestRoleGate_CanCreateTeam(t *testing.T) {
	g := gateWith(nil)

	assert.True(t, g.CanCreateTeam(context.Background(), user("alice")))
	assert.False(t, g.CanCreateTeam(context.Background(), user("")))
	assert.False(t, g.CanCreateTeam(context.Background(), nil))
}

func TestRoleGate_TeamSettingsAndDeletion(t *testing.T) {
	g := gateWith(map[string]string{
		"olga": "owner",
		"adam": "admin",
		"mary": "manager",
		"carl": "contributor",
	})
	tm := team(model.MembershipOpen)

	tests := []struct {
		username      string
		canSettings   bool
		canDeleteTeam bool
	}{
		{"olga", true, true},
		{"adam", true, false},
		{"mary", false, false},
		{"carl", false, false},
		{"outsider", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.canSettings, g.CanChangeTeamSettings(context.Background(), tm, user(tt.username)))
			assert.Equal(t, tt.canDeleteTeam, g.CanDeleteTeam(context.Background(), tm, user(tt.username)))
		})
	}
}

func TestRoleGate_CanAddMember(t *testing.T) {
	g := gateWith(map[string]string{
		"olga": "owner",
		"adam": "admin",
		"mary": "manager",
		"carl": "contributor",
	})

	tests := []struct {
		name     string
		policy   model.MembershipPolicy
		username string
		expected bool
	}{
		{"admin may add under any policy", model.MembershipInvitationByAdmin, "adam", true},
		{"owner may add under any policy", model.MembershipInvitationByAdmin, "olga", true},
		{"manager blocked under admin-only policy", model.MembershipInvitationByAdmin, "mary", false},
		{"manager allowed under manager policy", model.MembershipInvitationByManager, "mary", true},
		{"contributor blocked under manager policy", model.MembershipInvitationByManager, "carl", false},
		{"contributor allowed under any-member policy", model.MembershipInvitationByAnyMember, "carl", true},
		{"outsider blocked under any-member policy", model.MembershipInvitationByAnyMember, "outsider", false},
		{"contributor blocked under open policy", model.MembershipOpen, "carl", false},
		{"admin allowed under open policy", model.MembershipOpen, "adam", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.CanAddMember(context.Background(), team(tt.policy), user(tt.username))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRoleGate_CanAssignRole(t *testing.T) {
	g := gateWith(map[string]string{
		"olga": "owner",
		"adam": "admin",
		"mary": "manager",
	})
	tm := team(model.MembershipOpen)

	contributor := &model.TeamMember{Username: "carl", Role: model.RoleContributor}
	owner := &model.TeamMember{Username: "olga", Role: model.RoleOwner}

	tests := []struct {
		name     string
		actor    string
		role     model.Role
		target   *model.TeamMember
		expected bool
	}{
		{"admin promotes contributor to manager", "adam", model.RoleManager, contributor, true},
		{"admin promotes contributor to admin", "adam", model.RoleAdmin, contributor, true},
		{"owner promotes contributor to admin", "olga", model.RoleAdmin, contributor, true},
		{"manager cannot assign roles", "mary", model.RoleContributor, contributor, false},
		{"nobody assigns the owner role", "olga", model.RoleOwner, contributor, false},
		{"owner target is untouchable", "adam", model.RoleContributor, owner, false},
		{"admin cannot outrank itself via owner grant", "adam", model.RoleOwner, contributor, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.CanAssignRole(context.Background(), tm, user(tt.actor), tt.role, tt.target)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRoleGate_ProjectPredicates(t *testing.T) {
	g := gateWith(map[string]string{
		"olga": "owner",
		"adam": "admin",
		"mary": "manager",
		"carl": "contributor",
	})
	tm := team(model.MembershipOpen)
	project := &model.Project{Slug: "docs", Name: "Docs"}

	tests := []struct {
		username  string
		canCreate bool
		canEdit   bool
		canDelete bool
	}{
		{"olga", true, true, true},
		{"adam", true, true, true},
		{"mary", true, true, false},
		{"carl", false, false, false},
		{"outsider", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.canCreate, g.CanCreateProject(context.Background(), user(tt.username), tm))
			assert.Equal(t, tt.canEdit, g.CanEditProject(context.Background(), tm, user(tt.username), project))
			assert.Equal(t, tt.canDelete, g.CanDeleteProject(context.Background(), user(tt.username), tm, project))
		})
	}
}

func TestRoleGate_CanRemoveMember(t *testing.T) {
	g := gateWith(map[string]string{
		"adam": "admin",
		"carl": "contributor",
	})
	tm := team(model.MembershipOpen)

	assert.True(t, g.CanRemoveMember(context.Background(), tm, user("adam")))
	assert.False(t, g.CanRemoveMember(context.Background(), tm, user("carl")))
	assert.False(t, g.CanRemoveMember(context.Background(), tm, user("outsider")))
}
