package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/subtitly/teams-service/internal/db"
)

type Invite struct {
	ID       uuid.UUID `db:"id"`
	TeamSlug string    `db:"team_slug"`
	Username string    `db:"username"`
	Role     string    `db:"role"`
	Approved *bool     `db:"approved"`
	Created  time.Time `db:"created"`
}

type InviteFilter struct {
	TeamSlug string
	Approved *bool
}

type InviteRepository interface {
	Create(ctx context.Context, invite *Invite) error
	Get(ctx context.Context, id uuid.UUID) (*Invite, error)
	List(ctx context.Context, filter *InviteFilter) ([]*Invite, error)
}

type pgxInviteRepository struct {
	pool *pgxpool.Pool
}

func NewPgxInviteRepository(pool *pgxpool.Pool) InviteRepository {
	return &pgxInviteRepository{pool: pool}
}

func (p *pgxInviteRepository) Create(ctx context.Context, invite *Invite) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("invites", "id", "team_slug", "username", "role"),
		im.Values(
			psql.Arg(invite.ID),
			psql.Arg(invite.TeamSlug),
			psql.Arg(invite.Username),
			psql.Arg(invite.Role),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return err
}

func (p *pgxInviteRepository) Get(ctx context.Context, id uuid.UUID) (*Invite, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "team_slug", "username", "role", "approved", "created"),
		sm.From("invites"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	invite := &Invite{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&invite.ID,
		&invite.TeamSlug,
		&invite.Username,
		&invite.Role,
		&invite.Approved,
		&invite.Created,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return invite, nil
}

func (p *pgxInviteRepository) List(ctx context.Context, filter *InviteFilter) ([]*Invite, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	mods := make([]bob.Mod[*dialect.SelectQuery], 0, 2)
	if filter.TeamSlug != "" {
		mods = append(mods, sm.Where(psql.Quote("team_slug").EQ(psql.Arg(filter.TeamSlug))))
	}
	if filter.Approved != nil {
		mods = append(mods, sm.Where(psql.Quote("approved").EQ(psql.Arg(*filter.Approved))))
	}

	q := psql.Select(
		sm.Columns("id", "team_slug", "username", "role", "approved", "created"),
		sm.From("invites"),
		sm.OrderBy("created").Desc(),
	)

	q.Apply(mods...)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Invite, error) {
		invite := &Invite{}
		if err = row.Scan(
			&invite.ID,
			&invite.TeamSlug,
			&invite.Username,
			&invite.Role,
			&invite.Approved,
			&invite.Created,
		); err != nil {
			return nil, err
		}
		return invite, nil
	})
}
