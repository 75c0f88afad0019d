package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/subtitly/teams-service/internal/db"
	"github.com/subtitly/teams-service/internal/model"
	"github.com/subtitly/teams-service/internal/notify"
	"github.com/subtitly/teams-service/internal/permissions"
	"github.com/subtitly/teams-service/internal/repository"
	"github.com/subtitly/teams-service/pkg/logger"
	"go.uber.org/zap"
)

// InviteService implements the "safe" member-addition path: instead of
// creating a membership outright it records a pending invitation and
// triggers a notification. The membership appears only when the invite is
// accepted, which happens outside this service.
type InviteService struct {
	tx   db.Transactor
	gate permissions.Gate

	teams    repository.TeamRepository
	members  repository.MemberRepository
	users    repository.UserRepository
	invites  repository.InviteRepository
	notifier notify.Notifier
}

func NewInviteService(tx db.Transactor) *InviteService {
	return &InviteService{
		tx: tx,
	}
}

// InviteMember creates a pending invitation for the named user. When the
// user does not exist yet, an account is provisioned first — this path
// requires an email address, since without one the new user could never
// recover a login.
func (i *InviteService) InviteMember(ctx context.Context, actor *model.User, teamSlug, username, email, role string) (*model.Invite, *Error) {
	l := logger.FromContext(ctx)
	l.Info("inviting team member",
		zap.String("team_slug", teamSlug),
		zap.String("username", username),
		zap.String("role", role))

	teamRepo, err := i.teams.Get(ctx, teamSlug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		return nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}
	team := teamToModel(teamRepo)

	parsedRole, err := model.ParseRole(role)
	if err != nil {
		return nil, NewError(ErrorCodeInvalidRole, "invalid role choice")
	}

	if !i.gate.CanAddMember(ctx, team, actor) {
		l.Warn("invitation denied", zap.String("team_slug", teamSlug), zap.String("actor", actor.Username))
		return nil, NewError(ErrorCodePermissionDenied, "not allowed to invite members")
	}

	inviteID := uuid.New()
	var created *repository.Invite

	txErr := i.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		_, err := i.users.Get(txCtx, username)
		if errors.Is(err, repository.ErrNotFound) {
			if email == "" {
				l.Warn("invitee does not exist and no email given", zap.String("username", username))
				return NewError(ErrorCodeEmailRequired, "email is required when inviting a new user")
			}
			if err = i.users.Create(txCtx, &repository.User{
				Username: username,
				Email:    email,
			}); err != nil {
				l.Error("failed to provision user", zap.String("username", username), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to provision user")
			}
		} else if err != nil {
			return NewError(ErrorCodeUnspecified, "failed to look up user")
		}

		if _, err = i.members.Get(txCtx, teamSlug, username); err == nil {
			l.Warn("already a member", zap.String("team_slug", teamSlug), zap.String("username", username))
			return NewError(ErrorCodeAlreadyMember, "user is already a member of this team")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeUnspecified, "failed to check membership")
		}

		invite := &repository.Invite{
			ID:       inviteID,
			TeamSlug: teamSlug,
			Username: username,
			Role:     string(parsedRole),
		}
		if err = i.invites.Create(txCtx, invite); err != nil {
			l.Error("failed to create invite", zap.String("team_slug", teamSlug), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create invite")
		}

		got, err := i.invites.Get(txCtx, inviteID)
		if err != nil {
			return NewError(ErrorCodeUnspecified, "failed to read created invite")
		}
		created = got

		return nil
	})
	if txErr != nil {
		return nil, asServiceError(txErr)
	}

	// Queued after the transaction commits, so an invite notice never goes
	// out for a rolled-back invite.
	i.notifier.SendTeamInvitation(inviteID)

	l.Info("invitation created",
		zap.String("team_slug", teamSlug),
		zap.String("username", username),
		zap.String("invite_id", inviteID.String()))

	return inviteToModel(created), nil
}

func (i *InviteService) WithTeamRepo(r repository.TeamRepository) *InviteService {
	i.teams = r
	return i
}

func (i *InviteService) WithMemberRepo(r repository.MemberRepository) *InviteService {
	i.members = r
	return i
}

func (i *InviteService) WithUserRepo(r repository.UserRepository) *InviteService {
	i.users = r
	return i
}

func (i *InviteService) WithInviteRepo(r repository.InviteRepository) *InviteService {
	i.invites = r
	return i
}

func (i *InviteService) WithGate(g permissions.Gate) *InviteService {
	i.gate = g
	return i
}

func (i *InviteService) WithNotifier(n notify.Notifier) *InviteService {
	i.notifier = n
	return i
}

func inviteToModel(invite *repository.Invite) *model.Invite {
	created := invite.Created
	return &model.Invite{
		ID:       invite.ID,
		TeamSlug: invite.TeamSlug,
		Username: invite.Username,
		Role:     model.Role(invite.Role),
		Approved: invite.Approved,
		Created:  &created,
	}
}
