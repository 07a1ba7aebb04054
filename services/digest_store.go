package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/al-ameen36/vcon-bubble-maps/models"
)

const digestSchema = `
CREATE TABLE IF NOT EXISTS category_digests (
    id           BIGSERIAL PRIMARY KEY,
    category     TEXT        NOT NULL,
    window_end   TIMESTAMPTZ NOT NULL,
    item_count   INTEGER     NOT NULL,
    positive     INTEGER     NOT NULL,
    neutral      INTEGER     NOT NULL,
    negative     INTEGER     NOT NULL,
    top_keywords TEXT[]      NOT NULL DEFAULT '{}',
    narrative    TEXT        NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (category, window_end)
)`

// DigestStore keeps batch category digests in postgres.
type DigestStore struct {
	db *sql.DB
}

// OpenDigestStore connects and pings. sslmode=disable is appended when the
// DSN does not choose one.
func OpenDigestStore(ctx context.Context, postgresURI string) (*DigestStore, error) {
	connStr := postgresURI
	if !strings.Contains(postgresURI, "sslmode=") {
		switch {
		case strings.Contains(postgresURI, "?"):
			connStr += "&sslmode=disable"
		case strings.Contains(postgresURI, "://"):
			connStr += "?sslmode=disable"
		default:
			connStr += " sslmode=disable"
		}
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &DigestStore{db: db}, nil
}

func (d *DigestStore) Close() error {
	return d.db.Close()
}

func (d *DigestStore) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, digestSchema); err != nil {
		return fmt.Errorf("create category_digests: %w", err)
	}
	return nil
}

func (d *DigestStore) Save(ctx context.Context, digests []models.CategoryDigest) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	const query = `
        INSERT INTO category_digests
        (category, window_end, item_count, positive, neutral, negative, top_keywords, narrative)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (category, window_end)
        DO UPDATE SET
            item_count = EXCLUDED.item_count,
            positive = EXCLUDED.positive,
            neutral = EXCLUDED.neutral,
            negative = EXCLUDED.negative,
            top_keywords = EXCLUDED.top_keywords,
            narrative = EXCLUDED.narrative
    `
	for _, dg := range digests {
		keywords := dg.TopKeywords
		if keywords == nil {
			// a nil array encodes as NULL
			keywords = pq.StringArray{}
		}
		_, err := tx.ExecContext(ctx, query,
			dg.Category, dg.WindowEnd, dg.ItemCount,
			dg.Sentiment.Positive, dg.Sentiment.Neutral, dg.Sentiment.Negative,
			keywords, dg.Narrative,
		)
		if err != nil {
			return fmt.Errorf("save digest %q: %w", dg.Category, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit digests: %w", err)
	}
	return nil
}

// Latest returns the digests of the most recent run.
func (d *DigestStore) Latest(ctx context.Context) ([]models.CategoryDigest, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT id, category, window_end, item_count, positive, neutral, negative, top_keywords, narrative, created_at
        FROM category_digests
        WHERE window_end = (SELECT MAX(window_end) FROM category_digests)
        ORDER BY item_count DESC, category
    `)
	if err != nil {
		return nil, fmt.Errorf("query digests: %w", err)
	}
	defer rows.Close()

	var out []models.CategoryDigest
	for rows.Next() {
		var dg models.CategoryDigest
		err := rows.Scan(
			&dg.ID,
			&dg.Category,
			&dg.WindowEnd,
			&dg.ItemCount,
			&dg.Sentiment.Positive,
			&dg.Sentiment.Neutral,
			&dg.Sentiment.Negative,
			&dg.TopKeywords,
			&dg.Narrative,
			&dg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("row scan failed: %w", err)
		}
		out = append(out, dg)
	}
	return out, rows.Err()
}
