package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/subtitly/teams-service/internal/db"
)

// Tasks and billing records are produced elsewhere in the platform; this
// repository only serves the read-only report listings.

type Task struct {
	ID        int64      `db:"id"`
	TeamSlug  string     `db:"team_slug"`
	Type      string     `db:"type"`
	Assignee  string     `db:"assignee"`
	Language  string     `db:"language"`
	Completed *time.Time `db:"completed"`
	Deleted   bool       `db:"deleted"`
	Created   time.Time  `db:"created"`
	Modified  time.Time  `db:"modified"`
}

type TaskFilter struct {
	TeamSlug string
	Type     string
	Deleted  *bool
	Complete *bool
}

type BillingRecord struct {
	ID         int64     `db:"id"`
	TeamSlug   string    `db:"team_slug"`
	Username   string    `db:"username"`
	Video      string    `db:"video"`
	Language   string    `db:"language"`
	Minutes    float64   `db:"minutes"`
	IsOriginal bool      `db:"is_original"`
	Source     string    `db:"source"`
	Created    time.Time `db:"created"`
}

type BillingRecordFilter struct {
	TeamSlug   string
	Source     string
	IsOriginal *bool
}

type ReportRepository interface {
	ListTasks(ctx context.Context, filter *TaskFilter) ([]*Task, error)
	ListBillingRecords(ctx context.Context, filter *BillingRecordFilter) ([]*BillingRecord, error)
}

type pgxReportRepository struct {
	pool *pgxpool.Pool
}

func NewPgxReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &pgxReportRepository{pool: pool}
}

func (p *pgxReportRepository) ListTasks(ctx context.Context, filter *TaskFilter) ([]*Task, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	mods := make([]bob.Mod[*dialect.SelectQuery], 0, 4)
	if filter.TeamSlug != "" {
		mods = append(mods, sm.Where(psql.Quote("team_slug").EQ(psql.Arg(filter.TeamSlug))))
	}
	if filter.Type != "" {
		mods = append(mods, sm.Where(psql.Quote("type").EQ(psql.Arg(filter.Type))))
	}
	if filter.Deleted != nil {
		mods = append(mods, sm.Where(psql.Quote("deleted").EQ(psql.Arg(*filter.Deleted))))
	}
	if filter.Complete != nil {
		if *filter.Complete {
			mods = append(mods, sm.Where(psql.Raw("completed IS NOT NULL")))
		} else {
			mods = append(mods, sm.Where(psql.Raw("completed IS NULL")))
		}
	}

	q := psql.Select(
		sm.Columns("id", "team_slug", "type", "assignee", "language", "completed", "deleted", "created", "modified"),
		sm.From("tasks"),
		sm.OrderBy("id").Desc(),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Task, error) {
		task := &Task{}
		if err = row.Scan(
			&task.ID,
			&task.TeamSlug,
			&task.Type,
			&task.Assignee,
			&task.Language,
			&task.Completed,
			&task.Deleted,
			&task.Created,
			&task.Modified,
		); err != nil {
			return nil, err
		}
		return task, nil
	})
}

func (p *pgxReportRepository) ListBillingRecords(ctx context.Context, filter *BillingRecordFilter) ([]*BillingRecord, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	mods := make([]bob.Mod[*dialect.SelectQuery], 0, 3)
	if filter.TeamSlug != "" {
		mods = append(mods, sm.Where(psql.Quote("team_slug").EQ(psql.Arg(filter.TeamSlug))))
	}
	if filter.Source != "" {
		mods = append(mods, sm.Where(psql.Quote("source").EQ(psql.Arg(filter.Source))))
	}
	if filter.IsOriginal != nil {
		mods = append(mods, sm.Where(psql.Quote("is_original").EQ(psql.Arg(*filter.IsOriginal))))
	}

	q := psql.Select(
		sm.Columns("id", "team_slug", "username", "video", "language", "minutes", "is_original", "source", "created"),
		sm.From("billing_records"),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*BillingRecord, error) {
		record := &BillingRecord{}
		if err = row.Scan(
			&record.ID,
			&record.TeamSlug,
			&record.Username,
			&record.Video,
			&record.Language,
			&record.Minutes,
			&record.IsOriginal,
			&record.Source,
			&record.Created,
		); err != nil {
			return nil, err
		}
		return record, nil
	})
}
