package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

// SQLStore implements ProposalStore over database/sql. It supports both
// Postgres (lib/pq) and SQLite (modernc.org/sqlite): the $n placeholder
// form works with either driver, and the id column uses the driver's
// native auto-increment so concurrent inserts never collide.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore wraps an open database handle. The driver name selects the
// schema dialect: "postgres" for lib/pq, anything else is treated as
// SQLite.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Id generation is delegated to the database. BIGSERIAL and AUTOINCREMENT
// both allocate monotonically and never reuse a value, which holds even
// without the rows-are-never-deleted invariant.
const proposalSchemaPostgres = `
CREATE TABLE IF NOT EXISTS proposals (
	id BIGSERIAL PRIMARY KEY,
	subject_id TEXT NOT NULL,
	proposer TEXT NOT NULL,
	params TEXT NOT NULL,
	call_context TEXT NOT NULL,
	state TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

const proposalSchemaSQLite = `
CREATE TABLE IF NOT EXISTS proposals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	subject_id TEXT NOT NULL,
	proposer TEXT NOT NULL,
	params TEXT NOT NULL,
	call_context TEXT NOT NULL,
	state TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// Init creates the schema if missing.
func (s *SQLStore) Init(ctx context.Context) error {
	schema := proposalSchemaSQLite
	if s.driver == "postgres" {
		schema = proposalSchemaPostgres
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Create inserts the record and returns the database-allocated id.
func (s *SQLStore) Create(ctx context.Context, record contracts.Proposal) (uint64, error) {
	params, err := json.Marshal(record.Params)
	if err != nil {
		return 0, fmt.Errorf("marshal params: %w", err)
	}
	callCtx, err := json.Marshal(record.Context)
	if err != nil {
		return 0, fmt.Errorf("marshal call context: %w", err)
	}

	var id uint64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO proposals (subject_id, proposer, params, call_context, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, record.SubjectID, string(record.Proposer), string(params), string(callCtx), string(contracts.StatePending), record.CreatedAt.UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert proposal: %w", err)
	}
	return id, nil
}

// Get returns the record under id.
func (s *SQLStore) Get(ctx context.Context, id uint64) (contracts.Proposal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject_id, proposer, params, call_context, state, created_at
		FROM proposals WHERE id = $1
	`, id)

	var (
		record     contracts.Proposal
		proposer   string
		paramsRaw  string
		callCtxRaw string
		state      string
		createdAt  time.Time
	)
	err := row.Scan(&record.ID, &record.SubjectID, &proposer, &paramsRaw, &callCtxRaw, &state, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return contracts.Proposal{}, contracts.ErrNotFound
	}
	if err != nil {
		return contracts.Proposal{}, fmt.Errorf("get proposal: %w", err)
	}

	if err := json.Unmarshal([]byte(paramsRaw), &record.Params); err != nil {
		return contracts.Proposal{}, fmt.Errorf("unmarshal params: %w", err)
	}
	if err := json.Unmarshal([]byte(callCtxRaw), &record.Context); err != nil {
		return contracts.Proposal{}, fmt.Errorf("unmarshal call context: %w", err)
	}
	record.Proposer = contracts.Identity(proposer)
	record.State = contracts.ProposalState(state)
	record.CreatedAt = createdAt.UTC()
	return record, nil
}

// SetState transitions id from Pending to next using a guarded update, so
// concurrent transitions on the same id cannot both succeed.
func (s *SQLStore) SetState(ctx context.Context, id uint64, next contracts.ProposalState) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE proposals SET state = $1 WHERE id = $2 AND state = $3
	`, string(next), id, string(contracts.StatePending))
	if err != nil {
		return fmt.Errorf("set proposal state: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set proposal state: %w", err)
	}
	if rows == 1 {
		return nil
	}

	// Distinguish a missing record from a lost race.
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}
