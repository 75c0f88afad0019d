package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/subtitly/teams-service/internal/db"
)

type Project struct {
	TeamSlug        string    `db:"team_slug"`
	Slug            string    `db:"slug"`
	Name            string    `db:"name"`
	Description     string    `db:"description"`
	Guidelines      string    `db:"guidelines"`
	WorkflowEnabled bool      `db:"workflow_enabled"`
	Created         time.Time `db:"created"`
	Modified        time.Time `db:"modified"`
}

type ProjectPatch struct {
	TeamSlug        string  `db:"team_slug"`
	Slug            string  `db:"slug"`
	Name            *string `db:"name"`
	Description     *string `db:"description"`
	Guidelines      *string `db:"guidelines"`
	WorkflowEnabled *bool   `db:"workflow_enabled"`
}

type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	Get(ctx context.Context, teamSlug, slug string) (*Project, error)
	List(ctx context.Context, teamSlug string) ([]*Project, error)
	Patch(ctx context.Context, patch *ProjectPatch) (*Project, error)
	Delete(ctx context.Context, teamSlug, slug string) error
}

type pgxProjectRepository struct {
	pool *pgxpool.Pool
}

func NewPgxProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &pgxProjectRepository{pool: pool}
}

func (p *pgxProjectRepository) Create(ctx context.Context, project *Project) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("projects", "team_slug", "slug", "name", "description", "guidelines", "workflow_enabled"),
		im.Values(
			psql.Arg(project.TeamSlug),
			psql.Arg(project.Slug),
			psql.Arg(project.Name),
			psql.Arg(project.Description),
			psql.Arg(project.Guidelines),
			psql.Arg(project.WorkflowEnabled),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}

	return err
}

func (p *pgxProjectRepository) Get(ctx context.Context, teamSlug, slug string) (*Project, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("team_slug", "slug", "name", "description", "guidelines", "workflow_enabled", "created", "modified"),
		sm.From("projects"),
		sm.Where(psql.Quote("team_slug").EQ(psql.Arg(teamSlug))),
		sm.Where(psql.Quote("slug").EQ(psql.Arg(slug))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	project := &Project{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&project.TeamSlug,
		&project.Slug,
		&project.Name,
		&project.Description,
		&project.Guidelines,
		&project.WorkflowEnabled,
		&project.Created,
		&project.Modified,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return project, nil
}

func (p *pgxProjectRepository) List(ctx context.Context, teamSlug string) ([]*Project, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("team_slug", "slug", "name", "description", "guidelines", "workflow_enabled", "created", "modified"),
		sm.From("projects"),
		sm.Where(psql.Quote("team_slug").EQ(psql.Arg(teamSlug))),
		sm.OrderBy("created"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, scanProjectRow)
}

func (p *pgxProjectRepository) Patch(ctx context.Context, patch *ProjectPatch) (*Project, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sets := make([]bob.Mod[*dialect.UpdateQuery], 0, 5)

	if patch.Name != nil {
		sets = append(sets, um.SetCol("name").ToArg(*patch.Name))
	}
	if patch.Description != nil {
		sets = append(sets, um.SetCol("description").ToArg(*patch.Description))
	}
	if patch.Guidelines != nil {
		sets = append(sets, um.SetCol("guidelines").ToArg(*patch.Guidelines))
	}
	if patch.WorkflowEnabled != nil {
		sets = append(sets, um.SetCol("workflow_enabled").ToArg(*patch.WorkflowEnabled))
	}
	sets = append(sets, um.SetCol("modified").To(psql.Raw("now()")))

	q := psql.Update(
		um.Table("projects"),
		um.Where(psql.Quote("team_slug").EQ(psql.Arg(patch.TeamSlug))),
		um.Where(psql.Quote("slug").EQ(psql.Arg(patch.Slug))),
		um.Returning("team_slug", "slug", "name", "description", "guidelines", "workflow_enabled", "created", "modified"),
	)

	q.Apply(sets...)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	project := &Project{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&project.TeamSlug,
		&project.Slug,
		&project.Name,
		&project.Description,
		&project.Guidelines,
		&project.WorkflowEnabled,
		&project.Created,
		&project.Modified,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return project, nil
}

func (p *pgxProjectRepository) Delete(ctx context.Context, teamSlug, slug string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("projects"),
		dm.Where(psql.Quote("team_slug").EQ(psql.Arg(teamSlug))),
		dm.Where(psql.Quote("slug").EQ(psql.Arg(slug))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	tag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProjectRow(row pgx.CollectableRow) (*Project, error) {
	project := &Project{}
	if err := row.Scan(
		&project.TeamSlug,
		&project.Slug,
		&project.Name,
		&project.Description,
		&project.Guidelines,
		&project.WorkflowEnabled,
		&project.Created,
		&project.Modified,
	); err != nil {
		return nil, err
	}
	return project, nil
}
