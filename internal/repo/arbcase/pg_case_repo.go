package case_repo

import (
	"context"
	"fmt"

	"arbitron/internal/domain/arbitration"
	"arbitron/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var caseColumns = []string{
	"id", "service_id", "appeal_id", "method", "step", "deadline",
	"required_jurors", "applicants", "juror_accounts", "is_respondent_provider",
	"final_result", "final_winner", "last_round_id", "created_at", "updated_at",
}

var roundColumns = []string{
	"id", "case_id", "seq", "required_jurors", "responders", "invited",
	"jurors", "result", "created_at", "updated_at",
}

// PgCaseRepo serves case reads outside a transaction.
type PgCaseRepo struct {
	repo
}

var _ arbitration.Reader = (*PgCaseRepo)(nil)

func NewPgCaseRepo(pg *postgres.Postgres) *PgCaseRepo {
	return &PgCaseRepo{
		repo: repo{db: pg.Pool, builder: pg.Builder},
	}
}

// NewTx returns the case store bound to a running transaction. GetCase takes
// the row lock there.
func NewTx(db postgres.Executor, builder squirrel.StatementBuilderType) arbitration.TxCaseRepo {
	return &repo{db: db, builder: builder, forUpdate: true}
}

type repo struct {
	db        postgres.Executor
	builder   squirrel.StatementBuilderType
	forUpdate bool
}

func (r *repo) GetCase(ctx context.Context, caseID string) (*arbitration.Case, error) {
	query := r.builder.Select(caseColumns...).
		From("arb_cases").
		Where(squirrel.Eq{"id": caseID})
	if r.forUpdate {
		query = query.Suffix("FOR UPDATE")
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get case query: %w", err)
	}

	return r.oneCase(ctx, sql, args)
}

func (r *repo) GetOpenCaseByService(ctx context.Context, serviceID string) (*arbitration.Case, error) {
	query := r.builder.Select(caseColumns...).
		From("arb_cases").
		Where(squirrel.Eq{"service_id": serviceID}).
		Where(squirrel.NotEq{"step": []arbitration.Step{
			arbitration.StepEnded, arbitration.StepReappealTimeoutEnded,
		}}).
		OrderBy("created_at").
		Limit(1)
	if r.forUpdate {
		query = query.Suffix("FOR UPDATE")
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build open case query: %w", err)
	}

	return r.oneCase(ctx, sql, args)
}

func (r *repo) CreateCase(ctx context.Context, c arbitration.Case) error {
	sql, args, err := r.builder.Insert("arb_cases").
		Columns(caseColumns...).
		Values(c.ID, c.ServiceID, c.AppealID, c.Method, c.Step, c.Deadline,
			c.RequiredJurors, c.Applicants, c.JurorAccounts, c.IsRespondentProvider,
			c.FinalResult, nullable(string(c.FinalWinner)), nullable(c.LastRoundID),
			c.CreatedAt, c.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert case query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	return nil
}

func (r *repo) UpdateCase(ctx context.Context, c arbitration.Case) error {
	sql, args, err := r.builder.Update("arb_cases").
		Set("method", c.Method).
		Set("step", c.Step).
		Set("deadline", c.Deadline).
		Set("required_jurors", c.RequiredJurors).
		Set("applicants", c.Applicants).
		Set("juror_accounts", c.JurorAccounts).
		Set("final_result", c.FinalResult).
		Set("final_winner", nullable(string(c.FinalWinner))).
		Set("last_round_id", nullable(c.LastRoundID)).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update case query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	return nil
}

func (r *repo) ListCases(ctx context.Context, q arbitration.CasesQuery) ([]arbitration.Case, error) {
	query := r.builder.Select(caseColumns...).From("arb_cases")

	if len(q.ServiceIDs) > 0 {
		query = query.Where(squirrel.Eq{"service_id": q.ServiceIDs})
	}
	if len(q.Steps) > 0 {
		query = query.Where(squirrel.Eq{"step": q.Steps})
	}

	// Keyset pagination on the primary key: the cursor is the last case id
	// of the previous page.
	if q.SortAsc {
		query = query.OrderBy("id ASC")
		if q.Cursor != "" {
			query = query.Where(squirrel.Gt{"id": q.Cursor})
		}
	} else {
		query = query.OrderBy("id DESC")
		if q.Cursor != "" {
			query = query.Where(squirrel.Lt{"id": q.Cursor})
		}
	}
	if q.Limit > 0 {
		query = query.Limit(uint64(q.Limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list cases query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	return parseCaseRows(rows)
}

func (r *repo) GetRound(ctx context.Context, roundID string) (*arbitration.Round, error) {
	sql, args, err := r.builder.Select(roundColumns...).
		From("arb_rounds").
		Where(squirrel.Eq{"id": roundID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get round query: %w", err)
	}

	return r.oneRound(ctx, sql, args)
}

func (r *repo) CurrentRound(ctx context.Context, caseID string) (*arbitration.Round, error) {
	sql, args, err := r.builder.Select(roundColumns...).
		From("arb_rounds").
		Where(squirrel.Eq{"case_id": caseID}).
		OrderBy("seq DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build current round query: %w", err)
	}

	return r.oneRound(ctx, sql, args)
}

func (r *repo) RoundsByCase(ctx context.Context, caseID string) ([]arbitration.Round, error) {
	sql, args, err := r.builder.Select(roundColumns...).
		From("arb_rounds").
		Where(squirrel.Eq{"case_id": caseID}).
		OrderBy("seq").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build rounds query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	return parseRoundRows(rows)
}

func (r *repo) CreateRound(ctx context.Context, round arbitration.Round) error {
	sql, args, err := r.builder.Insert("arb_rounds").
		Columns(roundColumns...).
		Values(round.ID, round.CaseID, round.Seq, round.RequiredJurors,
			round.Responders, round.Invited, round.Jurors, round.Result,
			round.CreatedAt, round.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert round query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("create round: %w", err)
	}
	return nil
}

func (r *repo) UpdateRound(ctx context.Context, round arbitration.Round) error {
	sql, args, err := r.builder.Update("arb_rounds").
		Set("responders", round.Responders).
		Set("invited", round.Invited).
		Set("jurors", round.Jurors).
		Set("result", round.Result).
		Set("updated_at", round.UpdatedAt).
		Where(squirrel.Eq{"id": round.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update round query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update round: %w", err)
	}
	return nil
}

func (r *repo) CreateVote(ctx context.Context, v arbitration.Vote) error {
	sql, args, err := r.builder.Insert("arb_votes").
		Columns("id", "case_id", "round_id", "juror", "vote", "created_at").
		Values(v.ID, v.CaseID, v.RoundID, v.Juror, v.Vote, v.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert vote query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if postgres.IsPgErrorUniqueViolation(err) {
		return fmt.Errorf("vote of %s in round %s: %w", v.Juror, v.RoundID, arbitration.ErrDuplicateVote)
	}
	if err != nil {
		return fmt.Errorf("create vote: %w", err)
	}
	return nil
}

func (r *repo) VotesByRound(ctx context.Context, roundID string) ([]arbitration.Vote, error) {
	return r.votes(ctx, squirrel.Eq{"round_id": roundID})
}

func (r *repo) VotesByCase(ctx context.Context, caseID string) ([]arbitration.Vote, error) {
	return r.votes(ctx, squirrel.Eq{"case_id": caseID})
}

func (r *repo) votes(ctx context.Context, where squirrel.Eq) ([]arbitration.Vote, error) {
	sql, args, err := r.builder.Select("id", "case_id", "round_id", "juror", "vote", "created_at").
		From("arb_votes").
		Where(where).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build votes query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	var votes []arbitration.Vote
	for rows.Next() {
		var v arbitration.Vote
		if err := rows.Scan(&v.ID, &v.CaseID, &v.RoundID, &v.Juror, &v.Vote, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vote row: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vote rows: %w", err)
	}
	return votes, nil
}

func (r *repo) CreateEvidence(ctx context.Context, e arbitration.Evidence) error {
	sql, args, err := r.builder.Insert("arb_evidence").
		Columns("id", "case_id", "round_id", "account", "body", "created_at").
		Values(e.ID, e.CaseID, e.RoundID, e.Account, e.Text, e.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert evidence query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("create evidence: %w", err)
	}
	return nil
}

func (r *repo) GetOpenAppealByService(ctx context.Context, serviceID string) (*arbitration.Appeal, error) {
	sql, args, err := r.builder.Select("id", "service_id", "case_id", "status", "is_sponsor", "applicant", "reason", "filed_at").
		From("arb_appeals").
		Where(squirrel.Eq{"service_id": serviceID, "status": arbitration.AppealAwaitingResponse}).
		OrderBy("filed_at").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build open appeal query: %w", err)
	}

	var a arbitration.Appeal
	var caseID *string
	err = r.db.QueryRow(ctx, sql, args...).
		Scan(&a.ID, &a.ServiceID, &caseID, &a.Status, &a.IsSponsor, &a.Applicant, &a.Reason, &a.FiledAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open appeal: %w", err)
	}
	if caseID != nil {
		a.CaseID = *caseID
	}
	return &a, nil
}

func (r *repo) CreateAppeal(ctx context.Context, a arbitration.Appeal) error {
	sql, args, err := r.builder.Insert("arb_appeals").
		Columns("id", "service_id", "case_id", "status", "is_sponsor", "applicant", "reason", "filed_at").
		Values(a.ID, a.ServiceID, nullable(a.CaseID), a.Status, a.IsSponsor, a.Applicant, a.Reason, a.FiledAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert appeal query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if postgres.IsPgErrorUniqueViolation(err) {
		return fmt.Errorf("open appeal for service %s: %w", a.ServiceID, arbitration.ErrAppealPending)
	}
	if err != nil {
		return fmt.Errorf("create appeal: %w", err)
	}
	return nil
}

func (r *repo) UpdateAppeal(ctx context.Context, a arbitration.Appeal) error {
	sql, args, err := r.builder.Update("arb_appeals").
		Set("case_id", nullable(a.CaseID)).
		Set("status", a.Status).
		Where(squirrel.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update appeal query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update appeal: %w", err)
	}
	return nil
}

func (r *repo) oneCase(ctx context.Context, sql string, args []interface{}) (*arbitration.Case, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query case: %w", err)
	}
	defer rows.Close()

	cases, err := parseCaseRows(rows)
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, nil
	}
	return &cases[0], nil
}

func (r *repo) oneRound(ctx context.Context, sql string, args []interface{}) (*arbitration.Round, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query round: %w", err)
	}
	defer rows.Close()

	rounds, err := parseRoundRows(rows)
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return nil, nil
	}
	return &rounds[0], nil
}

func parseCaseRows(rows pgx.Rows) ([]arbitration.Case, error) {
	var cases []arbitration.Case
	for rows.Next() {
		var c arbitration.Case
		var winner, lastRound *string
		err := rows.Scan(&c.ID, &c.ServiceID, &c.AppealID, &c.Method, &c.Step,
			&c.Deadline, &c.RequiredJurors, &c.Applicants, &c.JurorAccounts,
			&c.IsRespondentProvider, &c.FinalResult, &winner, &lastRound,
			&c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan case row: %w", err)
		}
		if winner != nil {
			c.FinalWinner = arbitration.WinnerSide(*winner)
		}
		if lastRound != nil {
			c.LastRoundID = *lastRound
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case rows: %w", err)
	}
	return cases, nil
}

func parseRoundRows(rows pgx.Rows) ([]arbitration.Round, error) {
	var rounds []arbitration.Round
	for rows.Next() {
		var r arbitration.Round
		err := rows.Scan(&r.ID, &r.CaseID, &r.Seq, &r.RequiredJurors,
			&r.Responders, &r.Invited, &r.Jurors, &r.Result,
			&r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan round row: %w", err)
		}
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate round rows: %w", err)
	}
	return rounds, nil
}

// nullable maps the zero string to NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
