package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/subtitly/teams-service/internal/model"
	"github.com/subtitly/teams-service/internal/repository"
)

var testCreated = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestTeamService_GetTeam(t *testing.T) {
	tests := []struct {
		name          string
		slug          string
		setupMocks    func(*MockTeamRepository)
		expectedError bool
		errorCode     ErrorCode
		expectedTeam  *model.Team
	}{
		{
			name: "success",
			slug: "acme",
			setupMocks: func(tr *MockTeamRepository) {
				tr.On("Get", mock.Anything, "acme").Return(&repository.Team{
					Slug:             "acme",
					Name:             "Acme",
					IsVisible:        true,
					MembershipPolicy: "open",
					VideoPolicy:      "any-member",
					Created:          testCreated,
				}, nil)
			},
			expectedError: false,
			expectedTeam: &model.Team{
				Slug:             "acme",
				Name:             "Acme",
				IsVisible:        true,
				MembershipPolicy: model.MembershipOpen,
				VideoPolicy:      model.VideoAnyMember,
				Created:          &testCreated,
			},
		},
		{
			name: "team not found",
			slug: "missing",
			setupMocks: func(tr *MockTeamRepository) {
				tr.On("Get", mock.Anything, "missing").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name: "get team failure",
			slug: "acme",
			setupMocks: func(tr *MockTeamRepository) {
				tr.On("Get", mock.Anything, "acme").Return(nil, errors.New("db error"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTx := new(MockTransactor)
			mockTeamRepo := new(MockTeamRepository)

			tt.setupMocks(mockTeamRepo)

			service := NewTeamService(mockTx).
				WithTeamRepo(mockTeamRepo)

			got, err := service.GetTeam(context.Background(), tt.slug)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, tt.expectedTeam, got)
			}

			mockTeamRepo.AssertExpectations(t)
		})
	}
}

func TestTeamService_CreateTeam(t *testing.T) {
	actor := &model.User{Username: "alice"}

	tests := []struct {
		name          string
		create        *TeamCreate
		setupMocks    func(*MockTeamRepository, *MockMemberRepository, *MockGate)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name: "success: creator becomes owner",
			create: &TeamCreate{
				Slug: "test-team",
				Name: "Test Team",
			},
			setupMocks: func(tr *MockTeamRepository, mr *MockMemberRepository, g *MockGate) {
				g.On("CanCreateTeam", mock.Anything, actor).Return(true)
				tr.On("Create", mock.Anything, mock.MatchedBy(func(team *repository.Team) bool {
					return team.Slug == "test-team" && team.MembershipPolicy == "open"
				})).Return(nil)
				mr.On("Create", mock.Anything, mock.MatchedBy(func(member *repository.TeamMember) bool {
					return member.TeamSlug == "test-team" &&
						member.Username == "alice" &&
						member.Role == "owner"
				})).Return(nil)
				tr.On("Get", mock.Anything, "test-team").Return(&repository.Team{
					Slug:             "test-team",
					Name:             "Test Team",
					MembershipPolicy: "open",
					VideoPolicy:      "any-member",
					Created:          testCreated,
				}, nil)
			},
			expectedError: false,
		},
		{
			name: "success: explicit policies",
			create: &TeamCreate{
				Slug:             "test-team",
				Name:             "Test Team",
				MembershipPolicy: "invitation-by-any-member",
				VideoPolicy:      "managers-and-admins",
			},
			setupMocks: func(tr *MockTeamRepository, mr *MockMemberRepository, g *MockGate) {
				g.On("CanCreateTeam", mock.Anything, actor).Return(true)
				tr.On("Create", mock.Anything, mock.MatchedBy(func(team *repository.Team) bool {
					return team.MembershipPolicy == "invitation-by-any-member" &&
						team.VideoPolicy == "managers-and-admins"
				})).Return(nil)
				mr.On("Create", mock.Anything, mock.Anything).Return(nil)
				tr.On("Get", mock.Anything, "test-team").Return(&repository.Team{
					Slug:             "test-team",
					Name:             "Test Team",
					MembershipPolicy: "invitation-by-any-member",
					VideoPolicy:      "managers-and-admins",
					Created:          testCreated,
				}, nil)
			},
			expectedError: false,
		},
		{
			name: "slug collision",
			create: &TeamCreate{
				Slug: "taken",
				Name: "Name",
			},
			setupMocks: func(tr *MockTeamRepository, mr *MockMemberRepository, g *MockGate) {
				g.On("CanCreateTeam", mock.Anything, actor).Return(true)
				tr.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists)
			},
			expectedError: true,
			errorCode:     ErrorCodeTeamExists,
		},
		{
			name: "invalid membership policy choice",
			create: &TeamCreate{
				Slug:             "test-team",
				Name:             "Name",
				MembershipPolicy: "invalid-choice",
			},
			setupMocks: func(tr *MockTeamRepository, mr *MockMemberRepository, g *MockGate) {
				g.On("CanCreateTeam", mock.Anything, actor).Return(true)
			},
			expectedError: true,
			errorCode:     ErrorCodeInvalidPolicy,
		},
		{
			name: "invalid video policy choice",
			create: &TeamCreate{
				Slug:        "test-team",
				Name:        "Name",
				VideoPolicy: "invalid-choice",
			},
			setupMocks: func(tr *MockTeamRepository, mr *MockMemberRepository, g *MockGate) {
				g.On("CanCreateTeam", mock.Anything, actor).Return(true)
			},
			expectedError: true,
			errorCode:     ErrorCodeInvalidPolicy,
		},
		{
			name: "permission denied",
			create: &TeamCreate{
				Slug: "test-team",
				Name: "Name",
			},
			setupMocks: func(tr *MockTeamRepository, mr *MockMemberRepository, g *MockGate) {
				g.On("CanCreateTeam", mock.Anything, actor).Return(false)
			},
			expectedError: true,
			errorCode:     ErrorCodePermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTx := new(MockTransactor)
			mockTeamRepo := new(MockTeamRepository)
			mockMemberRepo := new(MockMemberRepository)
			mockGate := new(MockGate)

			tt.setupMocks(mockTeamRepo, mockMemberRepo, mockGate)

			service := NewTeamService(mockTx).
				WithTeamRepo(mockTeamRepo).
				WithMemberRepo(mockMemberRepo).
				WithGate(mockGate)

			got, err := service.CreateTeam(context.Background(), actor, tt.create)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, tt.create.Slug, got.Slug)
			}

			mockTeamRepo.AssertExpectations(t)
			mockMemberRepo.AssertExpectations(t)
			mockGate.AssertExpectations(t)
		})
	}
}

func TestTeamService_UpdateTeam(t *testing.T) {
	actor := &model.User{Username: "alice"}
	newName := "New Name"

	existing := &repository.Team{
		Slug:             "acme",
		Name:             "Acme",
		MembershipPolicy: "open",
		VideoPolicy:      "any-member",
		Created:          testCreated,
	}

	tests := []struct {
		name          string
		update        *TeamUpdate
		setupMocks    func(*MockTeamRepository, *MockGate)
		expectedError bool
		errorCode     ErrorCode
		expectedName  string
	}{
		{
			name:   "success",
			update: &TeamUpdate{Name: &newName},
			setupMocks: func(tr *MockTeamRepository, g *MockGate) {
				tr.On("Get", mock.Anything, "acme").Return(existing, nil)
				g.On("CanChangeTeamSettings", mock.Anything, mock.Anything, actor).Return(true)
				tr.On("Patch", mock.Anything, mock.MatchedBy(func(patch *repository.TeamPatch) bool {
					return patch.Slug == "acme" && patch.Name != nil && *patch.Name == newName
				})).Return(&repository.Team{
					Slug:             "acme",
					Name:             newName,
					MembershipPolicy: "open",
					VideoPolicy:      "any-member",
					Created:          testCreated,
				}, nil)
			},
			expectedError: false,
			expectedName:  newName,
		},
		{
			name:   "empty update leaves the team unchanged",
			update: &TeamUpdate{},
			setupMocks: func(tr *MockTeamRepository, g *MockGate) {
				tr.On("Get", mock.Anything, "acme").Return(existing, nil)
				g.On("CanChangeTeamSettings", mock.Anything, mock.Anything, actor).Return(true)
			},
			expectedError: false,
			expectedName:  "Acme",
		},
		{
			name:   "permission denied",
			update: &TeamUpdate{Name: &newName},
			setupMocks: func(tr *MockTeamRepository, g *MockGate) {
				tr.On("Get", mock.Anything, "acme").Return(existing, nil)
				g.On("CanChangeTeamSettings", mock.Anything, mock.Anything, actor).Return(false)
			},
			expectedError: true,
			errorCode:     ErrorCodePermissionDenied,
		},
		{
			name: "invalid policy choice",
			update: func() *TeamUpdate {
				bad := "invalid-choice"
				return &TeamUpdate{MembershipPolicy: &bad}
			}(),
			setupMocks: func(tr *MockTeamRepository, g *MockGate) {
				tr.On("Get", mock.Anything, "acme").Return(existing, nil)
				g.On("CanChangeTeamSettings", mock.Anything, mock.Anything, actor).Return(true)
			},
			expectedError: true,
			errorCode:     ErrorCodeInvalidPolicy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTx := new(MockTransactor)
			mockTeamRepo := new(MockTeamRepository)
			mockGate := new(MockGate)

			tt.setupMocks(mockTeamRepo, mockGate)

			service := NewTeamService(mockTx).
				WithTeamRepo(mockTeamRepo).
				WithGate(mockGate)

			got, err := service.UpdateTeam(context.Background(), actor, "acme", tt.update)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, tt.expectedName, got.Name)
			}

			mockTeamRepo.AssertExpectations(t)
			mockGate.AssertExpectations(t)
		})
	}
}

func TestTeamService_DeleteTeam(t *testing.T) {
	actor := &model.User{Username: "alice"}

	existing := &repository.Team{
		Slug:             "acme",
		Name:             "Acme",
		MembershipPolicy: "open",
		VideoPolicy:      "any-member",
		Created:          testCreated,
	}

	tests := []struct {
		name          string
		setupMocks    func(*MockTeamRepository, *MockGate)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name: "success",
			setupMocks: func(tr *MockTeamRepository, g *MockGate) {
				tr.On("Get", mock.Anything, "acme").Return(existing, nil)
				g.On("CanDeleteTeam", mock.Anything, mock.Anything, actor).Return(true)
				tr.On("Delete", mock.Anything, "acme").Return(nil)
			},
			expectedError: false,
		},
		{
			name: "permission denied",
			setupMocks: func(tr *MockTeamRepository, g *MockGate) {
				tr.On("Get", mock.Anything, "acme").Return(existing, nil)
				g.On("CanDeleteTeam", mock.Anything, mock.Anything, actor).Return(false)
			},
			expectedError: true,
			errorCode:     ErrorCodePermissionDenied,
		},
		{
			name: "team not found",
			setupMocks: func(tr *MockTeamRepository, g *MockGate) {
				tr.On("Get", mock.Anything, "acme").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTx := new(MockTransactor)
			mockTeamRepo := new(MockTeamRepository)
			mockGate := new(MockGate)

			tt.setupMocks(mockTeamRepo, mockGate)

			service := NewTeamService(mockTx).
				WithTeamRepo(mockTeamRepo).
				WithGate(mockGate)

			err := service.DeleteTeam(context.Background(), actor, "acme")

			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				assert.Nil(t, err)
			}

			mockTeamRepo.AssertExpectations(t)
			mockGate.AssertExpectations(t)
		})
	}
}
