package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/subtitly/teams-service/internal/db"
	"github.com/subtitly/teams-service/internal/model"
	"github.com/subtitly/teams-service/internal/permissions"
	"github.com/subtitly/teams-service/internal/repository"
	"github.com/subtitly/teams-service/pkg/logger"
	"go.uber.org/zap"
)

type MemberService struct {
	tx   db.Transactor
	gate permissions.Gate

	teams   repository.TeamRepository
	members repository.MemberRepository
	users   repository.UserRepository
}

func NewMemberService(tx db.Transactor) *MemberService {
	return &MemberService{
		tx: tx,
	}
}

// ListMembers returns the roster ordered by role privilege descending, then
// by membership age. Only members may view it.
func (m *MemberService) ListMembers(ctx context.Context, actor *model.User, teamSlug string) ([]*model.TeamMember, *Error) {
	l := logger.FromContext(ctx)

	team, svcErr := m.getTeam(ctx, teamSlug)
	if svcErr != nil {
		return nil, svcErr
	}
	if svcErr = m.requireMember(ctx, team, actor); svcErr != nil {
		return nil, svcErr
	}

	membersRepo, err := m.members.List(ctx, teamSlug)
	if err != nil {
		l.Error("failed to list members", zap.String("team_slug", teamSlug), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list members")
	}

	members := make([]*model.TeamMember, 0, len(membersRepo))
	for _, member := range membersRepo {
		members = append(members, memberToModel(member))
	}
	return members, nil
}

func (m *MemberService) GetMember(ctx context.Context, actor *model.User, teamSlug, username string) (*model.TeamMember, *Error) {
	team, svcErr := m.getTeam(ctx, teamSlug)
	if svcErr != nil {
		return nil, svcErr
	}
	if svcErr = m.requireMember(ctx, team, actor); svcErr != nil {
		return nil, svcErr
	}

	member, err := m.members.Get(ctx, teamSlug, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "member not found")
	}
	if err != nil {
		return nil, NewError(ErrorCodeUnspecified, "failed to get member")
	}
	return memberToModel(member), nil
}

// AddMember directly creates a membership for an existing user.
func (m *MemberService) AddMember(ctx context.Context, actor *model.User, teamSlug, username, role string) (*model.TeamMember, *Error) {
	l := logger.FromContext(ctx)
	l.Info("adding team member",
		zap.String("team_slug", teamSlug),
		zap.String("username", username),
		zap.String("role", role))

	team, svcErr := m.getTeam(ctx, teamSlug)
	if svcErr != nil {
		return nil, svcErr
	}

	parsedRole, err := model.ParseRole(role)
	if err != nil {
		return nil, NewError(ErrorCodeInvalidRole, "invalid role choice")
	}

	if !m.gate.CanAddMember(ctx, team, actor) {
		l.Warn("member addition denied", zap.String("team_slug", teamSlug), zap.String("actor", actor.Username))
		return nil, NewError(ErrorCodePermissionDenied, "not allowed to add members")
	}

	var added *repository.TeamMember

	txErr := m.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := m.users.Get(txCtx, username); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewError(ErrorCodeNotFound, "user not found")
			}
			return NewError(ErrorCodeUnspecified, "failed to look up user")
		}

		err := m.members.Create(txCtx, &repository.TeamMember{
			TeamSlug: teamSlug,
			Username: username,
			Role:     string(parsedRole),
		})
		if errors.Is(err, repository.ErrAlreadyExists) {
			l.Warn("already a member", zap.String("team_slug", teamSlug), zap.String("username", username))
			return NewError(ErrorCodeAlreadyMember, "user is already a member of this team")
		}
		if err != nil {
			l.Error("failed to add member", zap.String("team_slug", teamSlug), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to add member")
		}

		got, err := m.members.Get(txCtx, teamSlug, username)
		if err != nil {
			return NewError(ErrorCodeUnspecified, "failed to read created membership")
		}
		added = got

		return nil
	})
	if txErr != nil {
		return nil, asServiceError(txErr)
	}

	return memberToModel(added), nil
}

// ChangeRole updates a member's role in place. The target's row is re-read
// inside the transaction via the update's RETURNING clause.
func (m *MemberService) ChangeRole(ctx context.Context, actor *model.User, teamSlug, username, role string) (*model.TeamMember, *Error) {
	l := logger.FromContext(ctx)

	team, svcErr := m.getTeam(ctx, teamSlug)
	if svcErr != nil {
		return nil, svcErr
	}

	parsedRole, err := model.ParseRole(role)
	if err != nil {
		return nil, NewError(ErrorCodeInvalidRole, "invalid role choice")
	}

	var updated *repository.TeamMember

	txErr := m.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		target, err := m.members.Get(txCtx, teamSlug, username)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeNotFound, "member not found")
		}
		if err != nil {
			return NewError(ErrorCodeUnspecified, "failed to get member")
		}

		if !m.gate.CanAssignRole(ctx, team, actor, parsedRole, memberToModel(target)) {
			l.Warn("role assignment denied",
				zap.String("team_slug", teamSlug),
				zap.String("actor", actor.Username),
				zap.String("target", username),
				zap.String("role", role))
			return NewError(ErrorCodePermissionDenied, "not allowed to assign this role")
		}

		got, err := m.members.UpdateRole(txCtx, teamSlug, username, string(parsedRole))
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeNotFound, "member not found")
		}
		if err != nil {
			l.Error("failed to change role", zap.String("team_slug", teamSlug), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to change role")
		}
		updated = got

		return nil
	})
	if txErr != nil {
		return nil, asServiceError(txErr)
	}

	l.Info("role changed",
		zap.String("team_slug", teamSlug),
		zap.String("username", username),
		zap.String("role", string(parsedRole)))

	return memberToModel(updated), nil
}

// RemoveMember deletes a membership. Owners can never be removed through
// this path, and neither can the acting user remove itself; both rejections
// are unconditional.
func (m *MemberService) RemoveMember(ctx context.Context, actor *model.User, teamSlug, username string) *Error {
	l := logger.FromContext(ctx)

	team, svcErr := m.getTeam(ctx, teamSlug)
	if svcErr != nil {
		return svcErr
	}

	if !m.gate.CanRemoveMember(ctx, team, actor) {
		l.Warn("member removal denied", zap.String("team_slug", teamSlug), zap.String("actor", actor.Username))
		return NewError(ErrorCodePermissionDenied, "not allowed to remove members")
	}

	if actor.Username == username {
		return NewError(ErrorCodeCannotRemoveSelf, "cannot remove yourself from the team")
	}

	txErr := m.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		target, err := m.members.Get(txCtx, teamSlug, username)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeNotFound, "member not found")
		}
		if err != nil {
			return NewError(ErrorCodeUnspecified, "failed to get member")
		}

		if model.Role(target.Role) == model.RoleOwner {
			return NewError(ErrorCodeCannotRemoveOwner, "team owners cannot be removed")
		}

		if err = m.members.Delete(txCtx, teamSlug, username); err != nil {
			l.Error("failed to remove member", zap.String("team_slug", teamSlug), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to remove member")
		}
		return nil
	})
	if txErr != nil {
		return asServiceError(txErr)
	}

	l.Info("member removed", zap.String("team_slug", teamSlug), zap.String("username", username))
	return nil
}

func (m *MemberService) getTeam(ctx context.Context, slug string) (*model.Team, *Error) {
	team, err := m.teams.Get(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		return nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}
	return teamToModel(team), nil
}

func (m *MemberService) requireMember(ctx context.Context, team *model.Team, actor *model.User) *Error {
	_, err := m.members.Get(ctx, team.Slug, actor.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodePermissionDenied, "only team members may view the roster")
	}
	if err != nil {
		return NewError(ErrorCodeUnspecified, "failed to check membership")
	}
	return nil
}

func (m *MemberService) WithTeamRepo(r repository.TeamRepository) *MemberService {
	m.teams = r
	return m
}

func (m *MemberService) WithMemberRepo(r repository.MemberRepository) *MemberService {
	m.members = r
	return m
}

func (m *MemberService) WithUserRepo(r repository.UserRepository) *MemberService {
	m.users = r
	return m
}

func (m *MemberService) WithGate(g permissions.Gate) *MemberService {
	m.gate = g
	return m
}

func memberToModel(member *repository.TeamMember) *model.TeamMember {
	created := member.Created
	return &model.TeamMember{
		Username: member.Username,
		Role:     model.Role(member.Role),
		Created:  &created,
	}
}
