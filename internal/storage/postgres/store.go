package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapScope/internal/model"
	"swapScope/internal/storage"
)

// Store provides Postgres persistence for pool snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables the store relies on.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pool_snapshots (
			chain_id   BIGINT      NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL,
			pool_count INT         NOT NULL,
			pools      JSONB       NOT NULL,
			PRIMARY KEY (chain_id, fetched_at)
		);
		CREATE TABLE IF NOT EXISTS pools (
			chain_id      BIGINT           NOT NULL,
			pool_address  TEXT             NOT NULL,
			token0        TEXT             NOT NULL,
			token1        TEXT             NOT NULL,
			token0_symbol TEXT             NOT NULL DEFAULT '',
			token1_symbol TEXT             NOT NULL DEFAULT '',
			reserve0      TEXT             NOT NULL DEFAULT '0',
			reserve1      TEXT             NOT NULL DEFAULT '0',
			liquidity_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at    TIMESTAMPTZ      NOT NULL DEFAULT now(),
			PRIMARY KEY (chain_id, pool_address)
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveSnapshot stores the raw snapshot and upserts the per-pool rows.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.PoolSnapshot) error {
	encoded, err := json.Marshal(snap.Pools)
	if err != nil {
		return fmt.Errorf("marshal pools: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO pool_snapshots (chain_id, fetched_at, pool_count, pools)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chain_id, fetched_at) DO UPDATE SET
			pool_count = EXCLUDED.pool_count,
			pools = EXCLUDED.pools
	`,
		int64(snap.ChainID),
		snap.FetchedAt,
		len(snap.Pools),
		encoded,
	)

	for _, pool := range snap.Pools {
		batch.Queue(`
			INSERT INTO pools (
				chain_id, pool_address, token0, token1, token0_symbol, token1_symbol,
				reserve0, reserve1, liquidity_usd, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (chain_id, pool_address)
			DO UPDATE SET
				reserve0 = EXCLUDED.reserve0,
				reserve1 = EXCLUDED.reserve1,
				liquidity_usd = EXCLUDED.liquidity_usd,
				updated_at = now()
		`,
			int64(snap.ChainID),
			pool.Address,
			pool.Token0.Key(),
			pool.Token1.Key(),
			pool.Token0.Symbol,
			pool.Token1.Symbol,
			pool.Reserve0,
			pool.Reserve1,
			pool.LiquidityUSD,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(snap.Pools)+1; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot for the chain.
func (s *Store) LatestSnapshot(ctx context.Context, chainID uint64) (model.PoolSnapshot, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT fetched_at, pools
		FROM pool_snapshots
		WHERE chain_id = $1
		ORDER BY fetched_at DESC
		LIMIT 1
	`, int64(chainID))

	snap := model.PoolSnapshot{ChainID: chainID}
	var encoded []byte
	if err := row.Scan(&snap.FetchedAt, &encoded); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolSnapshot{}, storage.ErrNoSnapshot
		}
		return model.PoolSnapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	if err := json.Unmarshal(encoded, &snap.Pools); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("decode pools: %w", err)
	}

	return snap, nil
}

var _ storage.SnapshotStore = (*Store)(nil)
