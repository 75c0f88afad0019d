package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/subtitly/teams-service/internal/model"
	"github.com/subtitly/teams-service/internal/repository"
)

func TestInviteService_InviteMember(t *testing.T) {
	actor := &model.User{Username: "alice"}

	tests := []struct {
		name           string
		username       string
		email          string
		role           string
		setupMocks     func(*MockTeamRepository, *MockMemberRepository, *MockUserRepository, *MockInviteRepository, *MockGate, *MockNotifier)
		expectedError  bool
		errorCode      ErrorCode
		expectedNotice int
	}{
		{
			name:     "success: existing user gets a pending invite, no membership",
			username: "bob",
			role:     "contributor",
			setupMocks: func(tr *MockTeamRepository, mr *MockMemberRepository, ur *MockUserRepository, ir *MockInviteRepository, g *MockGate, n *MockNotifier) {
				tr.On("Get", mock.Anything, "acme").Return(acmeTeamRow(), nil)
				g.On("CanAddMember", mock.Anything, mock.Anything, actor).Return(true)
				ur.On("Get", mock.Anything, "bob").Return(&repository.User{Username: "bob"}, nil)
				mr.On("Get", mock.Anything, "acme", "bob").Return(nil, repository.ErrNotFound)
				ir.On("Create", mock.Anything, mock.MatchedBy(func(invite *repository.Invite) bool {
					return invite.TeamSlug == "acme" &&
						invite.Username == "bob" &&
						invite.Role == "contributor" &&
						invite.ID != uuid.Nil
				})).Return(nil)
				ir.On("Get", mock.Anything, mock.Anything).Return(&repository.Invite{
					ID:       uuid.New(),
					TeamSlug: "acme",
					Username: "bob",
					Role:     "contributor",
					Created:  testCreated,
				}, nil)
				n.On("SendTeamInvitation", mock.Anything).Return()
			},
			expectedError:  false,
			expectedNotice: 1,
		},
		{
			name:     "success: unknown invitee with email gets provisioned",
			username: "carol",
			email:    "carol@example.com",
			role:     "contributor",
			setupMocks: func(tr *MockTeamRepository, mr *MockMemberRepository, ur *MockUserRepository, ir *MockInviteRepository, g *MockGate, n *MockNotifier) {
				tr.On("Get", mock.Anything, "acme").Return(acmeTeamRow(), nil)
				g.On("CanAddMember", mock.Anything, mock.Anything, actor).Return(true)
				ur.On("Get", mock.Anything, "carol").Return(nil, repository.ErrNotFound)
				ur.On("Create", mock.Anything, mock.MatchedBy(func(user *repository.User) bool {
					return user.Username == "carol" && user.Email == "carol@example.com"
				})).Return(nil)
				mr.On("Get", mock.Anything, "acme", "carol").Return(nil, repository.ErrNotFound)
				ir.On("Create", mock.Anything, mock.Anything).Return(nil)
				ir.On("Get", mock.Anything, mock.Anything).Return(&repository.Invite{
					ID:       uuid.New(),
					TeamSlug: "acme",
					Username: "carol",
					Role:     "contributor",
					Created:  testCreated,
				}, nil)
				n.On("SendTeamInvitation", mock.Anything).Return()
			},
			expectedError:  false,
			expectedNotice: 1,
		},
		{
			name:     "unknown invitee without email is rejected",
			username: "carol",
			role:     "contributor",
			setupMocks: func(tr *MockTeamRepository, mr *MockMemberRepository, ur *MockUserRepository, ir *MockInviteRepository, g *MockGate, n *MockNotifier) {
				tr.On("Get", mock.Anything, "acme").Return(acmeTeamRow(), nil)
				g.On("CanAddMember", mock.Anything, mock.Anything, actor).Return(true)
				ur.On("Get", mock.Anything, "carol").Return(nil, repository.ErrNotFound)
			},
			expectedError:  true,
			errorCode:      ErrorCodeEmailRequired,
			expectedNotice: 0,
		},
		{
			name:     "already a member",
			username: "bob",
			role:     "contributor",
			setupMocks: func(tr *MockTeamRepository, mr *MockMemberRepository, ur *MockUserRepository, ir *MockInviteRepository, g *MockGate, n *MockNotifier) {
				tr.On("Get", mock.Anything, "acme").Return(acmeTeamRow(), nil)
				g.On("CanAddMember", mock.Anything, mock.Anything, actor).Return(true)
				ur.On("Get", mock.Anything, "bob").Return(&repository.User{Username: "bob"}, nil)
				mr.On("Get", mock.Anything, "acme", "bob").Return(&repository.TeamMember{
					TeamSlug: "acme", Username: "bob", Role: "contributor",
				}, nil)
			},
			expectedError:  true,
			errorCode:      ErrorCodeAlreadyMember,
			expectedNotice: 0,
		},
		{
			name:     "permission denied",
			username: "bob",
			role:     "contributor",
			setupMocks: func(tr *MockTeamRepository, mr *MockMemberRepository, ur *MockUserRepository, ir *MockInviteRepository, g *MockGate, n *MockNotifier) {
				tr.On("Get", mock.Anything, "acme").Return(acmeTeamRow(), nil)
				g.On("CanAddMember", mock.Anything, mock.Anything, actor).Return(false)
			},
			expectedError:  true,
			errorCode:      ErrorCodePermissionDenied,
			expectedNotice: 0,
		},
		{
			name:     "invalid role choice",
			username: "bob",
			role:     "superuser",
			setupMocks: func(tr *MockTeamRepository, mr *MockMemberRepository, ur *MockUserRepository, ir *MockInviteRepository, g *MockGate, n *MockNotifier) {
				tr.On("Get", mock.Anything, "acme").Return(acmeTeamRow(), nil)
			},
			expectedError:  true,
			errorCode:      ErrorCodeInvalidRole,
			expectedNotice: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTx := new(MockTransactor)
			mockTeamRepo := new(MockTeamRepository)
			mockMemberRepo := new(MockMemberRepository)
			mockUserRepo := new(MockUserRepository)
			mockInviteRepo := new(MockInviteRepository)
			mockGate := new(MockGate)
			mockNotifier := new(MockNotifier)

			tt.setupMocks(mockTeamRepo, mockMemberRepo, mockUserRepo, mockInviteRepo, mockGate, mockNotifier)

			service := NewInviteService(mockTx).
				WithTeamRepo(mockTeamRepo).
				WithMemberRepo(mockMemberRepo).
				WithUserRepo(mockUserRepo).
				WithInviteRepo(mockInviteRepo).
				WithGate(mockGate).
				WithNotifier(mockNotifier)

			got, err := service.InviteMember(context.Background(), actor, "acme", tt.username, tt.email, tt.role)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, tt.username, got.Username)
				assert.Nil(t, got.Approved)
			}

			mockNotifier.AssertNumberOfCalls(t, "SendTeamInvitation", tt.expectedNotice)

			mockTeamRepo.AssertExpectations(t)
			mockMemberRepo.AssertExpectations(t)
			mockUserRepo.AssertExpectations(t)
			mockInviteRepo.AssertExpectations(t)
			mockGate.AssertExpectations(t)
			mockNotifier.AssertExpectations(t)
		})
	}
}
