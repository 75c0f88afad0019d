package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, role := range Roles {
		got, err := ParseRole(string(role))
		assert.NoError(t, err)
		assert.Equal(t, role, got)
	}

	_, err := ParseRole("superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = ParseRole("")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleOwner.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.AtLeast(RoleManager))
	assert.True(t, RoleManager.AtLeast(RoleContributor))
	assert.True(t, RoleContributor.AtLeast(RoleContributor))

	assert.False(t, RoleAdmin.AtLeast(RoleOwner))
	assert.False(t, RoleContributor.AtLeast(RoleManager))

	// Unknown roles rank below every known role.
	assert.False(t, Role("stranger").AtLeast(RoleContributor))
}

func TestParseMembershipPolicy(t *testing.T) {
	for _, policy := range []MembershipPolicy{
		MembershipOpen,
		MembershipApplication,
		MembershipInvitationByAnyMember,
		MembershipInvitationByManager,
		MembershipInvitationByAdmin,
	} {
		got, err := ParseMembershipPolicy(string(policy))
		assert.NoError(t, err)
		assert.Equal(t, policy, got)
	}

	_, err := ParseMembershipPolicy("closed")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestParseVideoPolicy(t *testing.T) {
	for _, policy := range []VideoPolicy{VideoAnyMember, VideoManagersAndUp, VideoAdminsOnly} {
		got, err := ParseVideoPolicy(string(policy))
		assert.NoError(t, err)
		assert.Equal(t, policy, got)
	}

	_, err := ParseVideoPolicy("nobody")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}
