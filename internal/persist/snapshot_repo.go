package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/valewood/simcore/internal/core/ecs"
	"github.com/valewood/simcore/internal/ecology"
	"github.com/valewood/simcore/internal/sim"
)

// ErrNoSnapshot means the database holds no saved world yet.
var ErrNoSnapshot = errors.New("no world snapshot")

// SnapshotRepo persists whole-world snapshots: seed, sim clock, active
// entities, virtual agents, faction standings. One snapshot per database;
// Save replaces atomically in a single transaction.
type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

func (r *SnapshotRepo) Save(ctx context.Context, snap sim.WorldSnapshot) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM world_meta`); err != nil {
		return fmt.Errorf("clear world_meta: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO world_meta (seed, elapsed_ns, last_planned_day, saved_at)
		 VALUES ($1, $2, $3, $4)`,
		snap.Seed, int64(snap.Elapsed), snap.LastPlannedDay, time.Now(),
	); err != nil {
		return fmt.Errorf("insert world_meta: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM entity_snapshot`); err != nil {
		return fmt.Errorf("clear entity_snapshot: %w", err)
	}
	for _, e := range snap.Entities {
		if _, err := tx.Exec(ctx,
			`INSERT INTO entity_snapshot
			   (kind, definition_id, x, y, rotation, health, max_health, hunger, thirst, state, faction_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			e.Kind, e.DefinitionID, e.X, e.Y, e.Rotation,
			e.Stats.Health, e.Stats.MaxHealth, e.Stats.Hunger, e.Stats.Thirst,
			e.State, e.FactionID,
		); err != nil {
			return fmt.Errorf("insert entity_snapshot: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM virtual_agents`); err != nil {
		return fmt.Errorf("clear virtual_agents: %w", err)
	}
	for _, a := range snap.Virtual {
		if _, err := tx.Exec(ctx,
			`INSERT INTO virtual_agents
			   (kind, definition_id, x, y, rotation, health, max_health, hunger, thirst, state, faction_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			a.Kind.String(), a.DefinitionID, a.Position.X, a.Position.Y, a.Rotation,
			a.Stats.Health, a.Stats.MaxHealth, a.Stats.Hunger, a.Stats.Thirst,
			a.State, a.FactionID,
		); err != nil {
			return fmt.Errorf("insert virtual_agents: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM faction_standing`); err != nil {
		return fmt.Errorf("clear faction_standing: %w", err)
	}
	for pair, standing := range snap.Relations {
		if _, err := tx.Exec(ctx,
			`INSERT INTO faction_standing (faction_a, faction_b, standing) VALUES ($1, $2, $3)`,
			pair[0], pair[1], standing,
		); err != nil {
			return fmt.Errorf("insert faction_standing: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *SnapshotRepo) Load(ctx context.Context) (sim.WorldSnapshot, error) {
	var snap sim.WorldSnapshot

	var elapsedNS int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT seed, elapsed_ns, last_planned_day FROM world_meta LIMIT 1`,
	).Scan(&snap.Seed, &elapsedNS, &snap.LastPlannedDay)
	if errors.Is(err, pgx.ErrNoRows) {
		return snap, ErrNoSnapshot
	}
	if err != nil {
		return snap, fmt.Errorf("load world_meta: %w", err)
	}
	snap.Elapsed = time.Duration(elapsedNS)

	rows, err := r.db.Pool.Query(ctx,
		`SELECT kind, definition_id, x, y, rotation, health, max_health, hunger, thirst, state, faction_id
		 FROM entity_snapshot ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("load entity_snapshot: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e sim.EntitySnapshot
		if err := rows.Scan(&e.Kind, &e.DefinitionID, &e.X, &e.Y, &e.Rotation,
			&e.Stats.Health, &e.Stats.MaxHealth, &e.Stats.Hunger, &e.Stats.Thirst,
			&e.State, &e.FactionID); err != nil {
			return snap, fmt.Errorf("scan entity_snapshot: %w", err)
		}
		snap.Entities = append(snap.Entities, e)
	}

	vrows, err := r.db.Pool.Query(ctx,
		`SELECT kind, definition_id, x, y, rotation, health, max_health, hunger, thirst, state, faction_id
		 FROM virtual_agents ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("load virtual_agents: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var (
			a    ecology.VirtualAgent
			kind string
		)
		if err := vrows.Scan(&kind, &a.DefinitionID, &a.Position.X, &a.Position.Y, &a.Rotation,
			&a.Stats.Health, &a.Stats.MaxHealth, &a.Stats.Hunger, &a.Stats.Thirst,
			&a.State, &a.FactionID); err != nil {
			return snap, fmt.Errorf("scan virtual_agents: %w", err)
		}
		if k, ok := ecs.KindFromString(kind); ok {
			a.Kind = k
		}
		snap.Virtual = append(snap.Virtual, a)
	}

	srows, err := r.db.Pool.Query(ctx,
		`SELECT faction_a, faction_b, standing FROM faction_standing`)
	if err != nil {
		return snap, fmt.Errorf("load faction_standing: %w", err)
	}
	defer srows.Close()
	snap.Relations = make(map[[2]int32]int)
	for srows.Next() {
		var (
			a, b     int32
			standing int
		)
		if err := srows.Scan(&a, &b, &standing); err != nil {
			return snap, fmt.Errorf("scan faction_standing: %w", err)
		}
		snap.Relations[[2]int32{a, b}] = standing
	}

	return snap, nil
}
