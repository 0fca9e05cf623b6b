package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jitvault/internal/model"
)

// Store provides Postgres persistence for swap cycles and vault snapshots.
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

// InsertCycles appends swap-cycle records.
func (s *Store) InsertCycles(ctx context.Context, records []model.CycleRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO swap_cycles (
				pool_id, currency0, currency1, fee, tick_lower, tick_upper,
				liquidity, supplied0, supplied1, borrowed0, borrowed1, returned0, returned1, settled_at, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now())
		`,
			r.PoolID,
			r.Currency0,
			r.Currency1,
			r.Fee,
			r.TickLower,
			r.TickUpper,
			r.Liquidity,
			r.Supplied0,
			r.Supplied1,
			r.Borrowed0,
			r.Borrowed1,
			r.Returned0,
			r.Returned1,
			r.SettledAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertSnapshots inserts or updates vault snapshots keyed by timestamp.
func (s *Store) UpsertSnapshots(ctx context.Context, snapshots []model.VaultSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO vault_snapshots (taken_at, share_supply, total_assets, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			ON CONFLICT (taken_at) DO UPDATE SET
				share_supply = EXCLUDED.share_supply,
				total_assets = EXCLUDED.total_assets,
				updated_at = now()
		`,
			snap.TakenAt,
			snap.ShareSupply,
			snap.TotalAssets,
		)
		for _, bal := range snap.Balances {
			batch.Queue(`
				INSERT INTO vault_snapshot_balances (taken_at, asset, supplied, borrowed)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (taken_at, asset) DO UPDATE SET
					supplied = EXCLUDED.supplied,
					borrowed = EXCLUDED.borrowed
			`,
				snap.TakenAt,
				bal.Asset,
				bal.Supplied,
				bal.Borrowed,
			)
		}
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	total := 0
	for _, snap := range snapshots {
		total += 1 + len(snap.Balances)
	}
	for i := 0; i < total; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
