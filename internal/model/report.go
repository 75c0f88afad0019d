package model

import "time"

// Task and BillingRecord back the read-only admin report endpoints. They are
// written by other parts of the platform; this service only lists them.

type Task struct {
	ID        int64      `json:"id"`
	TeamSlug  string     `json:"team"`
	Type      string     `json:"type"`
	Assignee  string     `json:"assignee,omitempty"`
	Language  string     `json:"language,omitempty"`
	Completed *time.Time `json:"completed,omitempty"`
	Deleted   bool       `json:"deleted"`
	Created   *time.Time `json:"created,omitempty"`
	Modified  *time.Time `json:"modified,omitempty"`
}

type TaskFilter struct {
	TeamSlug string
	Type     string
	Deleted  *bool
	Complete *bool
}

type BillingRecord struct {
	ID         int64      `json:"id"`
	TeamSlug   string     `json:"team"`
	Username   string     `json:"user"`
	Video      string     `json:"video"`
	Language   string     `json:"language"`
	Minutes    float64    `json:"minutes"`
	IsOriginal bool       `json:"is_original"`
	Source     string     `json:"source"`
	Created    *time.Time `json:"created,omitempty"`
}

type BillingRecordFilter struct {
	TeamSlug   string
	Source     string
	IsOriginal *bool
}

type InviteFilter struct {
	TeamSlug string
	Approved *bool
}
