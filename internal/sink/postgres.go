package sink

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// PostgresMetadataSink records filing metadata in a Postgres table via
// pgx, while delegating artifact bytes to a wrapped Sink (typically a
// LocalSink or an object-store adapter), splitting artifact storage
// from metadata storage.
type PostgresMetadataSink struct {
	Artifacts Sink
	Pool      *pgxpool.Pool
	Logger    *zap.Logger
}

// NewPostgresMetadataSink wraps artifacts with a Postgres-backed
// metadata store.
func NewPostgresMetadataSink(artifacts Sink, pool *pgxpool.Pool, logger *zap.Logger) *PostgresMetadataSink {
	return &PostgresMetadataSink{Artifacts: artifacts, Pool: pool, Logger: logger}
}

func (s *PostgresMetadataSink) Put(ctx context.Context, path string, data []byte) error {
	return s.Artifacts.Put(ctx, path, data)
}

func (s *PostgresMetadataSink) Exists(ctx context.Context, path string) (bool, error) {
	return s.Artifacts.Exists(ctx, path)
}

// RecordMetadata upserts attrs into edgar_ingest.filing_metadata, keyed
// by filing_id.
func (s *PostgresMetadataSink) RecordMetadata(ctx context.Context, filingID string, attrs map[string]string) error {
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return eris.Wrapf(err, "sink: marshal metadata for %s", filingID)
	}

	_, err = s.Pool.Exec(ctx, `
		INSERT INTO edgar_ingest.filing_metadata (filing_id, attrs, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (filing_id) DO UPDATE
		SET attrs = EXCLUDED.attrs, updated_at = EXCLUDED.updated_at
	`, filingID, encoded)
	if err != nil {
		return eris.Wrapf(err, "sink: upsert metadata for %s", filingID)
	}

	if s.Logger != nil {
		s.Logger.Debug("sink: recorded filing metadata", zap.String("filing_id", filingID))
	}
	return nil
}
