package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN      string        `envconfig:"DSN" required:"true" validate:"required"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
	MaxTurns int           `envconfig:"MAX_TURNS" split_words:"true" default:"50" validate:"gte=0"`
}

type turnRow struct {
	bun.BaseModel `bun:"table:support_turns,alias:st"`

	ID             int64     `bun:"id,pk,autoincrement"`
	SessionID      string    `bun:"session_id,notnull"`
	Query          string    `bun:"query,notnull"`
	AccountContext string    `bun:"account_context"`
	Intent         string    `bun:"intent,notnull"`
	Outcome        string    `bun:"outcome,notnull"`
	Answer         string    `bun:"answer"`
	Evidence       []string  `bun:"evidence,array"`
	Errors         []string  `bun:"errors,array"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

// PostgresStore keeps session history in a support_turns table.
type PostgresStore struct {
	db       *bun.DB
	maxTurns int
}

func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	store := NewPostgresStoreFromDB(db, cfg.MaxTurns)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func NewPostgresStoreFromDB(db *bun.DB, maxTurns int) *PostgresStore {
	return &PostgresStore{db: db, maxTurns: maxTurns}
}

// Migrate creates the turns table and its session index when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*turnRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create support_turns table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*turnRow)(nil)).
		Index("support_turns_session_idx").
		Column("session_id", "id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create support_turns index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, turn *Turn) error {
	if err := turn.Validate(); err != nil {
		return err
	}

	row := toTurnRow(turn)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := insertTurnQuery(tx, row).Exec(ctx); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
		if s.maxTurns <= 0 {
			return nil
		}
		if _, err := trimTurnsQuery(tx, turn.SessionID, s.maxTurns).Exec(ctx); err != nil {
			return fmt.Errorf("trim turns: %w", err)
		}
		return nil
	})
}

func insertTurnQuery(db bun.IDB, row *turnRow) *bun.InsertQuery {
	return db.NewInsert().Model(row)
}

// trimTurnsQuery deletes every turn of the session except the newest keep.
func trimTurnsQuery(db bun.IDB, sessionID string, keep int) *bun.DeleteQuery {
	newest := db.NewSelect().
		Model((*turnRow)(nil)).
		Column("id").
		Where("session_id = ?", sessionID).
		OrderExpr("id DESC").
		Limit(keep)

	return db.NewDelete().
		Model((*turnRow)(nil)).
		Where("session_id = ?", sessionID).
		Where("id NOT IN (?)", newest)
}

func (s *PostgresStore) History(ctx context.Context, sessionID string) ([]Turn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	var rows []turnRow
	if err := s.db.NewSelect().
		Model(&rows).
		Where("session_id = ?", sessionID).
		OrderExpr("id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("select turns: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrSessionNotFound
	}

	turns := make([]Turn, 0, len(rows))
	for i := range rows {
		turns = append(turns, rows[i].toTurn())
	}
	return turns, nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	if _, err := s.db.NewDelete().
		Model((*turnRow)(nil)).
		Where("session_id = ?", sessionID).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func toTurnRow(t *Turn) *turnRow {
	return &turnRow{
		SessionID:      t.SessionID,
		Query:          t.Query,
		AccountContext: t.AccountContext,
		Intent:         string(t.Intent),
		Outcome:        t.Outcome,
		Answer:         t.Answer,
		Evidence:       append([]string(nil), t.Evidence...),
		Errors:         append([]string(nil), t.Errors...),
		CreatedAt:      t.CreatedAt.UTC(),
	}
}

func (r *turnRow) toTurn() Turn {
	return Turn{
		SessionID:      r.SessionID,
		Query:          r.Query,
		AccountContext: r.AccountContext,
		Intent:         Intent(r.Intent),
		Outcome:        r.Outcome,
		Answer:         r.Answer,
		Evidence:       append([]string(nil), r.Evidence...),
		Errors:         append([]string(nil), r.Errors...),
		CreatedAt:      r.CreatedAt.UTC(),
	}
}
