package vecstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DefaultPgTable is the table used when PgVectorOptions.Table is empty.
const DefaultPgTable = "transcript_segments"

var pgTableRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// PgVectorOptions configures a PgVector index.
type PgVectorOptions struct {
	// DSN is a PostgreSQL connection string. Required.
	DSN string

	// Table holds the records. Created on first use.
	Table string

	// Dimension is the size of the vector column. Required.
	Dimension int
}

// PgVector is an Index stored in PostgreSQL with the pgvector extension.
//
// Each record is one row (id, embedding, metadata jsonb). Queries order by
// cosine distance and filter with jsonb containment.
type PgVector struct {
	pool  *pgxpool.Pool
	table string // quoted identifier
	dim   int
}

var _ Index = (*PgVector)(nil)

// NewPgVector connects to PostgreSQL and creates the extension, table and
// HNSW index if they do not exist.
func NewPgVector(ctx context.Context, opts PgVectorOptions) (*PgVector, error) {
	if opts.DSN == "" {
		return nil, errors.New("vecstore: PgVectorOptions.DSN is required")
	}
	if opts.Dimension <= 0 {
		return nil, errors.New("vecstore: PgVectorOptions.Dimension is required")
	}
	table, err := pgTableName(opts.Table)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, opts.DSN)
	if err != nil {
		return nil, unavailable("pgvector", "open", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("pgvector", "open", err)
	}

	p := &PgVector{pool: pool, table: table, dim: opts.Dimension}
	if err := p.ensureSchema(ctx, opts.Table); err != nil {
		pool.Close()
		return nil, unavailable("pgvector", "open", err)
	}
	return p, nil
}

func pgTableName(name string) (string, error) {
	if name == "" {
		name = DefaultPgTable
	}
	if !pgTableRe.MatchString(name) {
		return "", fmt.Errorf("vecstore: invalid table name %q", name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

func (p *PgVector) ensureSchema(ctx context.Context, rawTable string) error {
	if rawTable == "" {
		rawTable = DefaultPgTable
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			embedding  vector(%d) NOT NULL,
			metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, p.table, p.dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			pgx.Identifier{rawTable + "_embedding_idx"}.Sanitize(), p.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING gin (metadata jsonb_path_ops)`,
			pgx.Identifier{rawTable + "_metadata_idx"}.Sanitize(), p.table),
	}
	for _, s := range stmts {
		if _, err := p.pool.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Upsert writes records in one transaction.
func (p *PgVector) Upsert(ctx context.Context, records []Record) error {
	if err := ValidateRecords(records, p.dim); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	sql := fmt.Sprintf(`INSERT INTO %s (id, embedding, metadata, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET
			embedding  = EXCLUDED.embedding,
			metadata   = EXCLUDED.metadata,
			updated_at = now()`, p.table)

	batch := &pgx.Batch{}
	for _, r := range records {
		md, err := metadataJSON(r.Metadata)
		if err != nil {
			return fmt.Errorf("vecstore: encode metadata of %q: %w", r.ID, err)
		}
		batch.Queue(sql, r.ID, pgvector.NewVector(r.Vector), md)
	}

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	return unavailable("pgvector", "upsert", err)
}

// Query orders by cosine distance; Score is 1 - distance.
func (p *PgVector) Query(ctx context.Context, q Query) ([]Match, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	filter, err := metadataJSON(q.Filter)
	if err != nil {
		return nil, fmt.Errorf("vecstore: encode filter: %w", err)
	}

	sql := fmt.Sprintf(`SELECT id, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE metadata @> $2::jsonb
		ORDER BY embedding <=> $1, id
		LIMIT $3`, p.table)

	rows, err := p.pool.Query(ctx, sql, pgvector.NewVector(q.Vector), filter, q.TopK)
	if err != nil {
		return nil, unavailable("pgvector", "query", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m     Match
			raw   []byte
			score float64
		)
		if err := rows.Scan(&m.ID, &raw, &score); err != nil {
			return nil, unavailable("pgvector", "query", err)
		}
		m.Score = float32(score)
		if q.IncludeMetadata {
			if err := json.Unmarshal(raw, &m.Metadata); err != nil {
				return nil, fmt.Errorf("vecstore: decode metadata of %q: %w", m.ID, err)
			}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("pgvector", "query", err)
	}
	return matches, nil
}

// Delete removes rows by id.
func (p *PgVector) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, p.table), ids)
	return unavailable("pgvector", "delete", err)
}

// Count returns the number of rows.
func (p *PgVector) Count(ctx context.Context) (int, error) {
	var n int64
	err := p.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, p.table)).Scan(&n)
	if err != nil {
		return 0, unavailable("pgvector", "count", err)
	}
	return int(n), nil
}

// Close closes the connection pool.
func (p *PgVector) Close() error {
	p.pool.Close()
	return nil
}

// metadataJSON encodes md as a JSON object; nil encodes as {}.
func metadataJSON(md map[string]any) (string, error) {
	if len(md) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
