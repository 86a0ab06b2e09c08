package caseevent_repo

import (
	"context"
	"fmt"
	"strconv"

	"arbitron/internal/domain/arbitration"
	"arbitron/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const defaultPageSize = 100

// PgCaseEventSink is the append-only case history. Writes happen inside the
// arbitration transaction, reads on the pool.
type PgCaseEventSink struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

var (
	_ arbitration.EventStore  = (*PgCaseEventSink)(nil)
	_ arbitration.EventReader = (*PgCaseEventSink)(nil)
)

func NewPgCaseEventSink(pg *postgres.Postgres) *PgCaseEventSink {
	return &PgCaseEventSink{db: pg.Pool, builder: pg.Builder}
}

func NewTx(db postgres.Executor, builder squirrel.StatementBuilderType) *PgCaseEventSink {
	return &PgCaseEventSink{db: db, builder: builder}
}

func (r *PgCaseEventSink) CreateCaseEvent(ctx context.Context, event arbitration.NewCaseEvent) (*arbitration.CaseEvent, error) {
	id := uuid.NewString()

	sql, args, err := r.builder.Insert("case_events").
		Columns("event_id", "case_id", "kind", "data", "created_at").
		Values(id, event.CaseID, event.Kind, event.Data, event.CreatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert event query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("create case event: %w", err)
	}

	return &arbitration.CaseEvent{EventID: id, NewCaseEvent: event}, nil
}

func (r *PgCaseEventSink) GetCaseEvents(ctx context.Context, q arbitration.CaseEventQuery) (arbitration.CaseEventPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	query := r.builder.Select("seq", "event_id", "case_id", "kind", "data", "created_at").
		From("case_events")

	if len(q.CaseIDs) > 0 {
		query = query.Where(squirrel.Eq{"case_id": q.CaseIDs})
	}
	if len(q.Kinds) > 0 {
		query = query.Where(squirrel.Eq{"kind": q.Kinds})
	}
	if q.TimeFrom != nil {
		query = query.Where(squirrel.GtOrEq{"created_at": *q.TimeFrom})
	}
	if q.TimeTo != nil {
		query = query.Where(squirrel.LtOrEq{"created_at": *q.TimeTo})
	}

	// Keyset pagination on the insert sequence; the cursor is the seq of the
	// last event of the previous page.
	cursor, err := parseCursor(q.Cursor)
	if err != nil {
		return arbitration.CaseEventPage{}, err
	}
	if q.SortAsc {
		query = query.OrderBy("seq ASC")
		if cursor > 0 {
			query = query.Where(squirrel.Gt{"seq": cursor})
		}
	} else {
		query = query.OrderBy("seq DESC")
		if cursor > 0 {
			query = query.Where(squirrel.Lt{"seq": cursor})
		}
	}
	query = query.Limit(uint64(limit + 1))

	sql, args, err := query.ToSql()
	if err != nil {
		return arbitration.CaseEventPage{}, fmt.Errorf("build events query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return arbitration.CaseEventPage{}, fmt.Errorf("query case events: %w", err)
	}
	defer rows.Close()

	var (
		items []arbitration.CaseEvent
		seqs  []int64
	)
	for rows.Next() {
		var e arbitration.CaseEvent
		var seq int64
		if err := rows.Scan(&seq, &e.EventID, &e.CaseID, &e.Kind, &e.Data, &e.CreatedAt); err != nil {
			return arbitration.CaseEventPage{}, fmt.Errorf("scan case event row: %w", err)
		}
		items = append(items, e)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return arbitration.CaseEventPage{}, fmt.Errorf("iterate case event rows: %w", err)
	}

	page := arbitration.CaseEventPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
		page.NextCursor = strconv.FormatInt(seqs[limit-1], 10)
	}
	return page, nil
}

func parseCursor(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor %q: %w", s, err)
	}
	return v, nil
}
