package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Observation is one train seen in a poll
type Observation struct {
	TrainCode     string            `json:"train_code"`
	DepartureTime string            `json:"departure_time"`
	ArrivalTime   string            `json:"arrival_time"`
	Duration      string            `json:"duration"`
	Seats         map[string]string `json:"seats"`
	Available     bool              `json:"available"`
}

// Poll is one evaluated query cycle
type Poll struct {
	SnapshotID     string        `json:"snapshot_id"`
	PolledAt       time.Time     `json:"polled_at"`
	FromStation    string        `json:"from_station"`
	ToStation      string        `json:"to_station"`
	TrainDate      string        `json:"train_date"`
	TrainCount     int           `json:"train_count"`
	AvailableCount int           `json:"available_count"`
	QueryDuration  time.Duration `json:"query_duration_ns"`
	Observations   []Observation `json:"observations"`
}

// RecordPoll stores a poll and its observations, returning the new snapshot ID
func (db *DB) RecordPoll(ctx context.Context, p Poll) (string, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	snapshotID := uuid.New().String()
	polledAt := p.PolledAt.UTC().Format(timeLayout)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO poll_snapshots (
			snapshot_id, polled_at_utc, from_station, to_station, train_date,
			train_count, available_count, query_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshotID, polledAt, p.FromStation, p.ToStation, p.TrainDate,
		p.TrainCount, p.AvailableCount, p.QueryDuration.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ticket_observations (
			snapshot_id, train_code, departure_time, arrival_time, duration,
			seats_json, available
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare observation statement: %w", err)
	}
	defer stmt.Close()

	for _, o := range p.Observations {
		seats, err := json.Marshal(o.Seats)
		if err != nil {
			return "", fmt.Errorf("failed to encode seats for %s: %w", o.TrainCode, err)
		}
		if _, err := stmt.ExecContext(ctx,
			snapshotID, o.TrainCode, o.DepartureTime, o.ArrivalTime, o.Duration,
			string(seats), o.Available,
		); err != nil {
			return "", fmt.Errorf("failed to insert observation %s: %w", o.TrainCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit poll: %w", err)
	}
	return snapshotID, nil
}
