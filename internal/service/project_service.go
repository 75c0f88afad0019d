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

type ProjectCreate struct {
	Slug            string
	Name            string
	Description     string
	Guidelines      string
	WorkflowEnabled bool
}

type ProjectUpdate struct {
	Name            *string
	Description     *string
	Guidelines      *string
	WorkflowEnabled *bool
}

type ProjectService struct {
	tx   db.Transactor
	gate permissions.Gate

	teams    repository.TeamRepository
	members  repository.MemberRepository
	projects repository.ProjectRepository
}

func NewProjectService(tx db.Transactor) *ProjectService {
	return &ProjectService{
		tx: tx,
	}
}

// ListProjects returns a team's projects. Only members may view them.
func (p *ProjectService) ListProjects(ctx context.Context, actor *model.User, teamSlug string) ([]*model.Project, *Error) {
	l := logger.FromContext(ctx)

	if _, svcErr := p.getTeamAsMember(ctx, actor, teamSlug); svcErr != nil {
		return nil, svcErr
	}

	projectsRepo, err := p.projects.List(ctx, teamSlug)
	if err != nil {
		l.Error("failed to list projects", zap.String("team_slug", teamSlug), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list projects")
	}

	projects := make([]*model.Project, 0, len(projectsRepo))
	for _, project := range projectsRepo {
		projects = append(projects, projectToModel(project))
	}
	return projects, nil
}

func (p *ProjectService) GetProject(ctx context.Context, actor *model.User, teamSlug, slug string) (*model.Project, *Error) {
	if _, svcErr := p.getTeamAsMember(ctx, actor, teamSlug); svcErr != nil {
		return nil, svcErr
	}

	project, err := p.projects.Get(ctx, teamSlug, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "project not found")
	}
	if err != nil {
		return nil, NewError(ErrorCodeUnspecified, "failed to get project")
	}
	return projectToModel(project), nil
}

func (p *ProjectService) CreateProject(ctx context.Context, actor *model.User, teamSlug string, create *ProjectCreate) (*model.Project, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating project",
		zap.String("team_slug", teamSlug),
		zap.String("project_slug", create.Slug))

	team, svcErr := p.getTeam(ctx, teamSlug)
	if svcErr != nil {
		return nil, svcErr
	}

	if !p.gate.CanCreateProject(ctx, actor, team) {
		l.Warn("project creation denied", zap.String("team_slug", teamSlug), zap.String("actor", actor.Username))
		return nil, NewError(ErrorCodePermissionDenied, "not allowed to create projects")
	}

	var created *repository.Project

	txErr := p.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		err := p.projects.Create(txCtx, &repository.Project{
			TeamSlug:        teamSlug,
			Slug:            create.Slug,
			Name:            create.Name,
			Description:     create.Description,
			Guidelines:      create.Guidelines,
			WorkflowEnabled: create.WorkflowEnabled,
		})
		if errors.Is(err, repository.ErrAlreadyExists) {
			l.Warn("project slug already exists",
				zap.String("team_slug", teamSlug),
				zap.String("project_slug", create.Slug))
			return NewError(ErrorCodeProjectExists, "project slug already exists in this team")
		}
		if err != nil {
			l.Error("failed to create project", zap.String("team_slug", teamSlug), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create project")
		}

		got, err := p.projects.Get(txCtx, teamSlug, create.Slug)
		if err != nil {
			return NewError(ErrorCodeUnspecified, "failed to read created project")
		}
		created = got

		return nil
	})
	if txErr != nil {
		return nil, asServiceError(txErr)
	}

	return projectToModel(created), nil
}

func (p *ProjectService) UpdateProject(ctx context.Context, actor *model.User, teamSlug, slug string, update *ProjectUpdate) (*model.Project, *Error) {
	l := logger.FromContext(ctx)

	team, svcErr := p.getTeam(ctx, teamSlug)
	if svcErr != nil {
		return nil, svcErr
	}

	projectRepo, err := p.projects.Get(ctx, teamSlug, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "project not found")
	}
	if err != nil {
		return nil, NewError(ErrorCodeUnspecified, "failed to get project")
	}

	if !p.gate.CanEditProject(ctx, team, actor, projectToModel(projectRepo)) {
		l.Warn("project update denied",
			zap.String("team_slug", teamSlug),
			zap.String("project_slug", slug),
			zap.String("actor", actor.Username))
		return nil, NewError(ErrorCodePermissionDenied, "not allowed to edit this project")
	}

	updated, err := p.projects.Patch(ctx, &repository.ProjectPatch{
		TeamSlug:        teamSlug,
		Slug:            slug,
		Name:            update.Name,
		Description:     update.Description,
		Guidelines:      update.Guidelines,
		WorkflowEnabled: update.WorkflowEnabled,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "project not found")
	}
	if err != nil {
		l.Error("failed to update project", zap.String("team_slug", teamSlug), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to update project")
	}

	return projectToModel(updated), nil
}

func (p *ProjectService) DeleteProject(ctx context.Context, actor *model.User, teamSlug, slug string) *Error {
	l := logger.FromContext(ctx)

	team, svcErr := p.getTeam(ctx, teamSlug)
	if svcErr != nil {
		return svcErr
	}

	projectRepo, err := p.projects.Get(ctx, teamSlug, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "project not found")
	}
	if err != nil {
		return NewError(ErrorCodeUnspecified, "failed to get project")
	}

	if !p.gate.CanDeleteProject(ctx, actor, team, projectToModel(projectRepo)) {
		l.Warn("project deletion denied",
			zap.String("team_slug", teamSlug),
			zap.String("project_slug", slug),
			zap.String("actor", actor.Username))
		return NewError(ErrorCodePermissionDenied, "not allowed to delete this project")
	}

	if err = p.projects.Delete(ctx, teamSlug, slug); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeNotFound, "project not found")
		}
		l.Error("failed to delete project", zap.String("team_slug", teamSlug), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to delete project")
	}

	l.Info("project deleted", zap.String("team_slug", teamSlug), zap.String("project_slug", slug))
	return nil
}

func (p *ProjectService) getTeam(ctx context.Context, slug string) (*model.Team, *Error) {
	team, err := p.teams.Get(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		return nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}
	return teamToModel(team), nil
}

func (p *ProjectService) getTeamAsMember(ctx context.Context, actor *model.User, teamSlug string) (*model.Team, *Error) {
	team, svcErr := p.getTeam(ctx, teamSlug)
	if svcErr != nil {
		return nil, svcErr
	}
	if _, err := p.members.Get(ctx, teamSlug, actor.Username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewError(ErrorCodePermissionDenied, "only team members may view projects")
		}
		return nil, NewError(ErrorCodeUnspecified, "failed to check membership")
	}
	return team, nil
}

func (p *ProjectService) WithTeamRepo(r repository.TeamRepository) *ProjectService {
	p.teams = r
	return p
}

func (p *ProjectService) WithMemberRepo(r repository.MemberRepository) *ProjectService {
	p.members = r
	return p
}

func (p *ProjectService) WithProjectRepo(r repository.ProjectRepository) *ProjectService {
	p.projects = r
	return p
}

func (p *ProjectService) WithGate(g permissions.Gate) *ProjectService {
	p.gate = g
	return p
}

func projectToModel(project *repository.Project) *model.Project {
	created := project.Created
	modified := project.Modified
	return &model.Project{
		Slug:            project.Slug,
		Name:            project.Name,
		Description:     project.Description,
		Guidelines:      project.Guidelines,
		WorkflowEnabled: project.WorkflowEnabled,
		Created:         &created,
		Modified:        &modified,
	}
}
