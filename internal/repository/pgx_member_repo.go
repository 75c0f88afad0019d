package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/subtitly/teams-service/internal/db"
)

type TeamMember struct {
	TeamSlug string    `db:"team_slug"`
	Username string    `db:"username"`
	Role     string    `db:"role"`
	Created  time.Time `db:"created"`
}

type MemberRepository interface {
	Create(ctx context.Context, member *TeamMember) error
	Get(ctx context.Context, teamSlug, username string) (*TeamMember, error)
	// List returns the team roster ordered by role privilege descending,
	// then by membership creation time.
	List(ctx context.Context, teamSlug string) ([]*TeamMember, error)
	UpdateRole(ctx context.Context, teamSlug, username, role string) (*TeamMember, error)
	Delete(ctx context.Context, teamSlug, username string) error
}

type pgxMemberRepository struct {
	pool *pgxpool.Pool
}

func NewPgxMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &pgxMemberRepository{pool: pool}
}

func (p *pgxMemberRepository) Create(ctx context.Context, member *TeamMember) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("team_members", "team_slug", "username", "role"),
		im.Values(psql.Arg(member.TeamSlug), psql.Arg(member.Username), psql.Arg(member.Role)),
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

func (p *pgxMemberRepository) Get(ctx context.Context, teamSlug, username string) (*TeamMember, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("team_slug", "username", "role", "created"),
		sm.From("team_members"),
		sm.Where(psql.Quote("team_slug").EQ(psql.Arg(teamSlug))),
		sm.Where(psql.Quote("username").EQ(psql.Arg(username))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	member := &TeamMember{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&member.TeamSlug,
		&member.Username,
		&member.Role,
		&member.Created,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

func (p *pgxMemberRepository) List(ctx context.Context, teamSlug string) ([]*TeamMember, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("team_slug", "username", "role", "created"),
		sm.From("team_members"),
		sm.Where(psql.Quote("team_slug").EQ(psql.Arg(teamSlug))),
		sm.OrderBy(psql.Raw(
			"CASE role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 WHEN 'manager' THEN 2 ELSE 3 END",
		)),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*TeamMember, error) {
		member := &TeamMember{}
		if err = row.Scan(&member.TeamSlug, &member.Username, &member.Role, &member.Created); err != nil {
			return nil, err
		}
		return member, nil
	})
}

func (p *pgxMemberRepository) UpdateRole(ctx context.Context, teamSlug, username, role string) (*TeamMember, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("team_members"),
		um.SetCol("role").ToArg(role),
		um.Where(psql.Quote("team_slug").EQ(psql.Arg(teamSlug))),
		um.Where(psql.Quote("username").EQ(psql.Arg(username))),
		um.Returning("team_slug", "username", "role", "created"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	member := &TeamMember{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&member.TeamSlug,
		&member.Username,
		&member.Role,
		&member.Created,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

func (p *pgxMemberRepository) Delete(ctx context.Context, teamSlug, username string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("team_members"),
		dm.Where(psql.Quote("team_slug").EQ(psql.Arg(teamSlug))),
		dm.Where(psql.Quote("username").EQ(psql.Arg(username))),
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
