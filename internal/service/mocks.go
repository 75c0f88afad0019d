package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/subtitly/teams-service/internal/model"
	"github.com/subtitly/teams-service/internal/repository"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *repository.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) Get(ctx context.Context, slug string) (*repository.Team, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) ListVisible(ctx context.Context, username string) ([]*repository.Team, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) Patch(ctx context.Context, patch *repository.TeamPatch) (*repository.Team, error) {
	args := m.Called(ctx, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) Delete(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, member *repository.TeamMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) Get(ctx context.Context, teamSlug, username string) (*repository.TeamMember, error) {
	args := m.Called(ctx, teamSlug, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TeamMember), args.Error(1)
}

func (m *MockMemberRepository) List(ctx context.Context, teamSlug string) ([]*repository.TeamMember, error) {
	args := m.Called(ctx, teamSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.TeamMember), args.Error(1)
}

func (m *MockMemberRepository) UpdateRole(ctx context.Context, teamSlug, username, role string) (*repository.TeamMember, error) {
	args := m.Called(ctx, teamSlug, username, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TeamMember), args.Error(1)
}

func (m *MockMemberRepository) Delete(ctx context.Context, teamSlug, username string) error {
	args := m.Called(ctx, teamSlug, username)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Get(ctx context.Context, username string) (*repository.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *repository.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(ctx context.Context, project *repository.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Get(ctx context.Context, teamSlug, slug string) (*repository.Project, error) {
	args := m.Called(ctx, teamSlug, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Project), args.Error(1)
}

func (m *MockProjectRepository) List(ctx context.Context, teamSlug string) ([]*repository.Project, error) {
	args := m.Called(ctx, teamSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Project), args.Error(1)
}

func (m *MockProjectRepository) Patch(ctx context.Context, patch *repository.ProjectPatch) (*repository.Project, error) {
	args := m.Called(ctx, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Project), args.Error(1)
}

func (m *MockProjectRepository) Delete(ctx context.Context, teamSlug, slug string) error {
	args := m.Called(ctx, teamSlug, slug)
	return args.Error(0)
}

type MockInviteRepository struct {
	mock.Mock
}

func (m *MockInviteRepository) Create(ctx context.Context, invite *repository.Invite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func (m *MockInviteRepository) Get(ctx context.Context, id uuid.UUID) (*repository.Invite, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Invite), args.Error(1)
}

func (m *MockInviteRepository) List(ctx context.Context, filter *repository.InviteFilter) ([]*repository.Invite, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Invite), args.Error(1)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) ListTasks(ctx context.Context, filter *repository.TaskFilter) ([]*repository.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Task), args.Error(1)
}

func (m *MockReportRepository) ListBillingRecords(ctx context.Context, filter *repository.BillingRecordFilter) ([]*repository.BillingRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.BillingRecord), args.Error(1)
}

// MockGate stubs the permission predicates so service behavior is testable
// without a membership table behind the gate.
type MockGate struct {
	mock.Mock
}

func (m *MockGate) CanCreateTeam(ctx context.Context, user *model.User) bool {
	args := m.Called(ctx, user)
	return args.Bool(0)
}

func (m *MockGate) CanChangeTeamSettings(ctx context.Context, team *model.Team, user *model.User) bool {
	args := m.Called(ctx, team, user)
	return args.Bool(0)
}

func (m *MockGate) CanDeleteTeam(ctx context.Context, team *model.Team, user *model.User) bool {
	args := m.Called(ctx, team, user)
	return args.Bool(0)
}

func (m *MockGate) CanAddMember(ctx context.Context, team *model.Team, user *model.User) bool {
	args := m.Called(ctx, team, user)
	return args.Bool(0)
}

func (m *MockGate) CanAssignRole(ctx context.Context, team *model.Team, user *model.User, role model.Role, target *model.TeamMember) bool {
	args := m.Called(ctx, team, user, role, target)
	return args.Bool(0)
}

func (m *MockGate) CanRemoveMember(ctx context.Context, team *model.Team, user *model.User) bool {
	args := m.Called(ctx, team, user)
	return args.Bool(0)
}

func (m *MockGate) CanCreateProject(ctx context.Context, user *model.User, team *model.Team) bool {
	args := m.Called(ctx, user, team)
	return args.Bool(0)
}

func (m *MockGate) CanEditProject(ctx context.Context, team *model.Team, user *model.User, project *model.Project) bool {
	args := m.Called(ctx, team, user, project)
	return args.Bool(0)
}

func (m *MockGate) CanDeleteProject(ctx context.Context, user *model.User, team *model.Team, project *model.Project) bool {
	args := m.Called(ctx, user, team, project)
	return args.Bool(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendTeamInvitation(inviteID uuid.UUID) {
	m.Called(inviteID)
}
