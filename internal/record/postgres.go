package record

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ent0n29/botgate/internal/protocol"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initRecordSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initRecordSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS message_records (
			bot_id BIGINT NOT NULL,
			message_id BIGINT NOT NULL,
			kind TEXT NOT NULL,
			target_id BIGINT NOT NULL,
			chain JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (bot_id, message_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_message_records_created ON message_records (bot_id, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init record schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec MessageRecord) error {
	chain, err := json.Marshal(rec.Chain)
	if err != nil {
		return fmt.Errorf("marshal chain: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO message_records (bot_id, message_id, kind, target_id, chain, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (bot_id, message_id) DO UPDATE SET
			kind=EXCLUDED.kind,
			target_id=EXCLUDED.target_id,
			chain=EXCLUDED.chain,
			created_at=EXCLUDED.created_at`,
		rec.BotID,
		rec.MessageID,
		rec.Kind,
		rec.TargetID,
		chain,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert message record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ByID(ctx context.Context, botID, messageID int64) (MessageRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT bot_id, message_id, kind, target_id, chain, created_at
		   FROM message_records WHERE bot_id=$1 AND message_id=$2`,
		botID, messageID,
	)
	var (
		rec   MessageRecord
		chain []byte
	)
	err := row.Scan(&rec.BotID, &rec.MessageID, &rec.Kind, &rec.TargetID, &chain, &rec.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return MessageRecord{}, ErrNotFound
		}
		return MessageRecord{}, fmt.Errorf("get message record: %w", err)
	}
	if err := json.Unmarshal(chain, &rec.Chain); err != nil {
		return MessageRecord{}, fmt.Errorf("unmarshal chain: %w", err)
	}
	if rec.Chain == nil {
		rec.Chain = protocol.MessageChain{}
	}
	return rec, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
