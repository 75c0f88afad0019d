package model

import "time"

type Team struct {
	Slug             string           `json:"slug" validate:"required"`
	Name             string           `json:"name" validate:"required"`
	Description      string           `json:"description"`
	IsVisible        bool             `json:"is_visible"`
	MembershipPolicy MembershipPolicy `json:"membership_policy"`
	VideoPolicy      VideoPolicy      `json:"video_policy"`
	Created          *time.Time       `json:"created,omitempty"`
}

// TeamPatch carries a partial team update. The slug is immutable and
// identifies the team to update.
type TeamPatch struct {
	Slug             string
	Name             *string
	Description      *string
	IsVisible        *bool
	MembershipPolicy *MembershipPolicy
	VideoPolicy      *VideoPolicy
}

type TeamMember struct {
	Username string     `json:"username"`
	Role     Role       `json:"role"`
	Created  *time.Time `json:"created,omitempty"`
}
