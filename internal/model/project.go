package model

import "time"

type Project struct {
	Slug            string     `json:"slug" validate:"required"`
	Name            string     `json:"name" validate:"required"`
	Description     string     `json:"description"`
	Guidelines      string     `json:"guidelines"`
	WorkflowEnabled bool       `json:"workflow_enabled"`
	Created         *time.Time `json:"created,omitempty"`
	Modified        *time.Time `json:"modified,omitempty"`
}

type ProjectPatch struct {
	TeamSlug        string
	Slug            string
	Name            *string
	Description     *string
	Guidelines      *string
	WorkflowEnabled *bool
}
