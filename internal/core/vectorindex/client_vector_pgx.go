package vectorindex

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/efsora/ai-service/internal/core"
)

// PgVectorIndex implements core.VectorIndex on Postgres with the pgvector
// extension. Each collection is one table holding (content, source, embedding)
// records with cosine distance.
type PgVectorIndex struct {
	db *sql.DB
}

var collectionNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func NewPgVectorIndex(ctx context.Context, databaseURL string) (*PgVectorIndex, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &PgVectorIndex{db: db}, nil
}

func (c *PgVectorIndex) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *PgVectorIndex) CollectionExists(ctx context.Context, name string) (bool, error) {
	if err := validateCollectionName(name); err != nil {
		return false, err
	}
	var exists bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (
		  SELECT 1 FROM information_schema.tables
		  WHERE table_name = $1
		)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("collection check failed: %w", err)
	}
	return exists, nil
}

// EnsureCollection creates the collection table and its cosine index if
// missing. Concurrent callers may race on creation; a loser that finds the
// table present afterwards succeeds.
func (c *PgVectorIndex) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if err := validateCollectionName(name); err != nil {
		return err
	}
	if dimension <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dimension)
	}

	if _, err := c.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id uuid PRIMARY KEY,
			content text NOT NULL,
			source text NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, name, dimension)
	if _, err := c.db.ExecContext(ctx, createTable); err != nil {
		// CREATE TABLE IF NOT EXISTS can still fail under a creation race;
		// re-check before reporting.
		if exists, checkErr := c.CollectionExists(ctx, name); checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("create collection %s: %w", name, err)
	}

	createIndex := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)`,
		name, name)
	if _, err := c.db.ExecContext(ctx, createIndex); err != nil {
		return fmt.Errorf("create cosine index for %s: %w", name, err)
	}
	return nil
}

func (c *PgVectorIndex) Insert(ctx context.Context, collection string, rec core.VectorRecord) (string, error) {
	if err := validateCollectionName(collection); err != nil {
		return "", err
	}
	id := uuid.NewString()
	q := fmt.Sprintf(`
		INSERT INTO %s (id, content, source, embedding)
		VALUES ($1, $2, $3, $4)`, collection)
	if _, err := c.db.ExecContext(ctx, q, id, rec.Content, rec.Source, pgvector.NewVector(rec.Vector)); err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return id, nil
}

// Search finds the top-k records nearest to the query vector by cosine
// distance.
func (c *PgVectorIndex) Search(ctx context.Context, collection string, vector []float32, limit int) ([]core.SearchHit, error) {
	if err := validateCollectionName(collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	q := fmt.Sprintf(`
		SELECT id, content, source, embedding <=> $1 AS distance
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, collection)

	rows, err := c.db.QueryContext(ctx, q, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	defer rows.Close()

	var out []core.SearchHit
	for rows.Next() {
		var h core.SearchHit
		if err := rows.Scan(&h.ID, &h.Text, &h.Source, &h.Distance); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// validateCollectionName guards the identifiers interpolated into SQL above.
func validateCollectionName(name string) error {
	if !collectionNameRe.MatchString(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}
	return nil
}

var _ core.VectorIndex = (*PgVectorIndex)(nil)
