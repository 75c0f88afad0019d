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

type Team struct {
	Slug             string    `db:"slug"`
	Name             string    `db:"name"`
	Description      string    `db:"description"`
	IsVisible        bool      `db:"is_visible"`
	MembershipPolicy string    `db:"membership_policy"`
	VideoPolicy      string    `db:"video_policy"`
	Created          time.Time `db:"created"`
}

type TeamPatch struct {
	Slug             string  `db:"slug"`
	Name             *string `db:"name"`
	Description      *string `db:"description"`
	IsVisible        *bool   `db:"is_visible"`
	MembershipPolicy *string `db:"membership_policy"`
	VideoPolicy      *string `db:"video_policy"`
}

type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	Get(ctx context.Context, slug string) (*Team, error)
	// ListVisible returns teams that are visible, joinable without an
	// invitation, or that the given user is a member of.
	ListVisible(ctx context.Context, username string) ([]*Team, error)
	Patch(ctx context.Context, patch *TeamPatch) (*Team, error)
	Delete(ctx context.Context, slug string) error
}

type pgxTeamRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &pgxTeamRepository{pool: pool}
}

func (p *pgxTeamRepository) Create(ctx context.Context, team *Team) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("teams", "slug", "name", "description", "is_visible", "membership_policy", "video_policy"),
		im.Values(
			psql.Arg(team.Slug),
			psql.Arg(team.Name),
			psql.Arg(team.Description),
			psql.Arg(team.IsVisible),
			psql.Arg(team.MembershipPolicy),
			psql.Arg(team.VideoPolicy),
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

func (p *pgxTeamRepository) Get(ctx context.Context, slug string) (*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("slug", "name", "description", "is_visible", "membership_policy", "video_policy", "created"),
		sm.From("teams"),
		sm.Where(psql.Quote("slug").EQ(psql.Arg(slug))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	team := &Team{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&team.Slug,
		&team.Name,
		&team.Description,
		&team.IsVisible,
		&team.MembershipPolicy,
		&team.VideoPolicy,
		&team.Created,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return team, nil
}

func (p *pgxTeamRepository) ListVisible(ctx context.Context, username string) ([]*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("slug", "name", "description", "is_visible", "membership_policy", "video_policy", "created"),
		sm.From("teams"),
		sm.Where(psql.Raw(
			`is_visible
			OR membership_policy IN ('open', 'application')
			OR EXISTS (
				SELECT 1 FROM team_members m
				WHERE m.team_slug = teams.slug AND m.username = ?
			)`,
			psql.Arg(username),
		)),
		sm.OrderBy("slug"),
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

	return pgx.CollectRows(rows, scanTeamRow)
}

func (p *pgxTeamRepository) Patch(ctx context.Context, patch *TeamPatch) (*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sets := make([]bob.Mod[*dialect.UpdateQuery], 0, 5)

	if patch.Name != nil {
		sets = append(sets, um.SetCol("name").ToArg(*patch.Name))
	}
	if patch.Description != nil {
		sets = append(sets, um.SetCol("description").ToArg(*patch.Description))
	}
	if patch.IsVisible != nil {
		sets = append(sets, um.SetCol("is_visible").ToArg(*patch.IsVisible))
	}
	if patch.MembershipPolicy != nil {
		sets = append(sets, um.SetCol("membership_policy").ToArg(*patch.MembershipPolicy))
	}
	if patch.VideoPolicy != nil {
		sets = append(sets, um.SetCol("video_policy").ToArg(*patch.VideoPolicy))
	}

	// An UPDATE without a SET clause is a syntax error.
	if len(sets) == 0 {
		return p.Get(ctx, patch.Slug)
	}

	q := psql.Update(
		um.Table("teams"),
		um.Where(psql.Quote("slug").EQ(psql.Arg(patch.Slug))),
		um.Returning("slug", "name", "description", "is_visible", "membership_policy", "video_policy", "created"),
	)

	q.Apply(sets...)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	team := &Team{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&team.Slug,
		&team.Name,
		&team.Description,
		&team.IsVisible,
		&team.MembershipPolicy,
		&team.VideoPolicy,
		&team.Created,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return team, nil
}

func (p *pgxTeamRepository) Delete(ctx context.Context, slug string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("teams"),
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

func scanTeamRow(row pgx.CollectableRow) (*Team, error) {
	team := &Team{}
	if err := row.Scan(
		&team.Slug,
		&team.Name,
		&team.Description,
		&team.IsVisible,
		&team.MembershipPolicy,
		&team.VideoPolicy,
		&team.Created,
	); err != nil {
		return nil, err
	}
	return team, nil
}
