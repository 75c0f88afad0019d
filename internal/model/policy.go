package model

import "github.com/pkg/errors"

var ErrInvalidPolicy = errors.New("invalid policy")

// MembershipPolicy controls who may join a team and how.
type MembershipPolicy string

const (
	MembershipOpen                  MembershipPolicy = "open"
	MembershipApplication           MembershipPolicy = "application"
	MembershipInvitationByAnyMember MembershipPolicy = "invitation-by-any-member"
	MembershipInvitationByManager   MembershipPolicy = "invitation-by-manager"
	MembershipInvitationByAdmin     MembershipPolicy = "invitation-by-admin"
)

var membershipPolicies = map[MembershipPolicy]struct{}{
	MembershipOpen:                  {},
	MembershipApplication:           {},
	MembershipInvitationByAnyMember: {},
	MembershipInvitationByManager:   {},
	MembershipInvitationByAdmin:     {},
}

func ParseMembershipPolicy(s string) (MembershipPolicy, error) {
	p := MembershipPolicy(s)
	if _, ok := membershipPolicies[p]; !ok {
		return "", errors.Wrap(ErrInvalidPolicy, s)
	}
	return p, nil
}

// VideoPolicy controls who may add and manage team videos.
type VideoPolicy string

const (
	VideoAnyMember     VideoPolicy = "any-member"
	VideoManagersAndUp VideoPolicy = "managers-and-admins"
	VideoAdminsOnly    VideoPolicy = "admins-only"
)

var videoPolicies = map[VideoPolicy]struct{}{
	VideoAnyMember:     {},
	VideoManagersAndUp: {},
	VideoAdminsOnly:    {},
}

func ParseVideoPolicy(s string) (VideoPolicy, error) {
	p := VideoPolicy(s)
	if _, ok := videoPolicies[p]; !ok {
		return "", errors.Wrap(ErrInvalidPolicy, s)
	}
	return p, nil
}
