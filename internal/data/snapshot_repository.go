package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/vantage/internal/contracts"
)

// SnapshotRepository implements contracts.SnapshotRepository. Snapshots are
// self-describing flat records, stored whole as jsonb with the queryable
// keys lifted into columns.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new snapshot repository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Save inserts one snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *contracts.MarketSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snapshot.RunID, err)
	}
	query := `
		INSERT INTO market.snapshots (run_id, symbol, generated_at, schema_version, degraded, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.pool.Exec(ctx, query,
		snapshot.RunID, snapshot.Symbol, snapshot.GeneratedAt,
		snapshot.SchemaVersion, snapshot.Degraded(), payload,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snapshot.RunID, err)
	}
	return nil
}

// Latest returns the most recent snapshot for symbol, or nil when none has
// been produced yet.
func (r *SnapshotRepository) Latest(ctx context.Context, symbol string) (*contracts.MarketSnapshot, error) {
	query := `
		SELECT payload
		FROM market.snapshots
		WHERE symbol = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`
	var payload []byte
	err := r.pool.QueryRow(ctx, query, symbol).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot for %s: %w", symbol, err)
	}

	var snapshot contracts.MarketSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", symbol, err)
	}
	if snapshot.SchemaVersion != contracts.SnapshotSchemaVersion {
		return nil, fmt.Errorf("snapshot for %s has schema version %d, want %d",
			symbol, snapshot.SchemaVersion, contracts.SnapshotSchemaVersion)
	}
	return &snapshot, nil
}
