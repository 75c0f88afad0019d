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

type TeamCreate struct {
	Slug             string
	Name             string
	Description      string
	IsVisible        bool
	MembershipPolicy string
	VideoPolicy      string
}

type TeamUpdate struct {
	Name             *string
	Description      *string
	IsVisible        *bool
	MembershipPolicy *string
	VideoPolicy      *string
}

type TeamService struct {
	tx   db.Transactor
	gate permissions.Gate

	teams   repository.TeamRepository
	members repository.MemberRepository
}

func NewTeamService(tx db.Transactor) *TeamService {
	return &TeamService{
		tx: tx,
	}
}

func (t *TeamService) ListTeams(ctx context.Context, actor *model.User) ([]*model.Team, *Error) {
	l := logger.FromContext(ctx)

	teamsRepo, err := t.teams.ListVisible(ctx, actor.Username)
	if err != nil {
		l.Error("failed to list teams", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list teams")
	}

	teams := make([]*model.Team, 0, len(teamsRepo))
	for _, team := range teamsRepo {
		teams = append(teams, teamToModel(team))
	}
	return teams, nil
}

func (t *TeamService) GetTeam(ctx context.Context, slug string) (*model.Team, *Error) {
	l := logger.FromContext(ctx)

	teamRepo, err := t.teams.Get(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("team not found", zap.String("team_slug", slug))
		return nil, NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		l.Error("failed to get team", zap.String("team_slug", slug), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}

	return teamToModel(teamRepo), nil
}

// CreateTeam creates a team and makes the acting user its owner in the same
// transaction.
func (t *TeamService) CreateTeam(ctx context.Context, actor *model.User, create *TeamCreate) (*model.Team, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating team", zap.String("team_slug", create.Slug), zap.String("actor", actor.Username))

	if !t.gate.CanCreateTeam(ctx, actor) {
		l.Warn("team creation denied", zap.String("actor", actor.Username))
		return nil, NewError(ErrorCodePermissionDenied, "not allowed to create teams")
	}

	membershipPolicy := model.MembershipOpen
	if create.MembershipPolicy != "" {
		parsed, err := model.ParseMembershipPolicy(create.MembershipPolicy)
		if err != nil {
			return nil, NewError(ErrorCodeInvalidPolicy, "invalid membership_policy choice")
		}
		membershipPolicy = parsed
	}

	videoPolicy := model.VideoAnyMember
	if create.VideoPolicy != "" {
		parsed, err := model.ParseVideoPolicy(create.VideoPolicy)
		if err != nil {
			return nil, NewError(ErrorCodeInvalidPolicy, "invalid video_policy choice")
		}
		videoPolicy = parsed
	}

	var created *repository.Team

	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		team := &repository.Team{
			Slug:             create.Slug,
			Name:             create.Name,
			Description:      create.Description,
			IsVisible:        create.IsVisible,
			MembershipPolicy: string(membershipPolicy),
			VideoPolicy:      string(videoPolicy),
		}

		err := t.teams.Create(txCtx, team)
		if errors.Is(err, repository.ErrAlreadyExists) {
			l.Warn("team slug already exists", zap.String("team_slug", create.Slug))
			return NewError(ErrorCodeTeamExists, "slug already exists")
		}
		if err != nil {
			l.Error("failed to create team", zap.String("team_slug", create.Slug), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create team")
		}

		if err = t.members.Create(txCtx, &repository.TeamMember{
			TeamSlug: create.Slug,
			Username: actor.Username,
			Role:     string(model.RoleOwner),
		}); err != nil {
			l.Error("failed to create owner membership",
				zap.String("team_slug", create.Slug),
				zap.String("actor", actor.Username),
				zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create owner membership")
		}

		got, err := t.teams.Get(txCtx, create.Slug)
		if err != nil {
			return NewError(ErrorCodeUnspecified, "failed to read created team")
		}
		created = got

		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	return teamToModel(created), nil
}

func (t *TeamService) UpdateTeam(ctx context.Context, actor *model.User, slug string, update *TeamUpdate) (*model.Team, *Error) {
	l := logger.FromContext(ctx)

	team, svcErr := t.GetTeam(ctx, slug)
	if svcErr != nil {
		return nil, svcErr
	}

	if !t.gate.CanChangeTeamSettings(ctx, team, actor) {
		l.Warn("team update denied", zap.String("team_slug", slug), zap.String("actor", actor.Username))
		return nil, NewError(ErrorCodePermissionDenied, "not allowed to change team settings")
	}

	patch := &repository.TeamPatch{
		Slug:        slug,
		Name:        update.Name,
		Description: update.Description,
		IsVisible:   update.IsVisible,
	}
	if update.MembershipPolicy != nil {
		parsed, err := model.ParseMembershipPolicy(*update.MembershipPolicy)
		if err != nil {
			return nil, NewError(ErrorCodeInvalidPolicy, "invalid membership_policy choice")
		}
		s := string(parsed)
		patch.MembershipPolicy = &s
	}
	if update.VideoPolicy != nil {
		parsed, err := model.ParseVideoPolicy(*update.VideoPolicy)
		if err != nil {
			return nil, NewError(ErrorCodeInvalidPolicy, "invalid video_policy choice")
		}
		s := string(parsed)
		patch.VideoPolicy = &s
	}

	if patch.Name == nil && patch.Description == nil && patch.IsVisible == nil &&
		patch.MembershipPolicy == nil && patch.VideoPolicy == nil {
		return team, nil
	}

	updated, err := t.teams.Patch(ctx, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		l.Error("failed to update team", zap.String("team_slug", slug), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to update team")
	}

	return teamToModel(updated), nil
}

// DeleteTeam removes the team; members, projects and invites go with it.
func (t *TeamService) DeleteTeam(ctx context.Context, actor *model.User, slug string) *Error {
	l := logger.FromContext(ctx)

	team, svcErr := t.GetTeam(ctx, slug)
	if svcErr != nil {
		return svcErr
	}

	if !t.gate.CanDeleteTeam(ctx, team, actor) {
		l.Warn("team deletion denied", zap.String("team_slug", slug), zap.String("actor", actor.Username))
		return NewError(ErrorCodePermissionDenied, "not allowed to delete team")
	}

	if err := t.teams.Delete(ctx, slug); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeNotFound, "team not found")
		}
		l.Error("failed to delete team", zap.String("team_slug", slug), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to delete team")
	}

	l.Info("team deleted", zap.String("team_slug", slug))
	return nil
}

func (t *TeamService) WithTeamRepo(r repository.TeamRepository) *TeamService {
	t.teams = r
	return t
}

func (t *TeamService) WithMemberRepo(r repository.MemberRepository) *TeamService {
	t.members = r
	return t
}

func (t *TeamService) WithGate(g permissions.Gate) *TeamService {
	t.gate = g
	return t
}

func teamToModel(team *repository.Team) *model.Team {
	created := team.Created
	return &model.Team{
		Slug:             team.Slug,
		Name:             team.Name,
		Description:      team.Description,
		IsVisible:        team.IsVisible,
		MembershipPolicy: model.MembershipPolicy(team.MembershipPolicy),
		VideoPolicy:      model.VideoPolicy(team.VideoPolicy),
		Created:          &created,
	}
}

// asServiceError unwraps the typed error returned out of a transaction
// closure, falling back to UNSPECIFIED.
func asServiceError(err error) *Error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return NewError(ErrorCodeUnspecified, err.Error())
}
