package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RecentPolls returns up to limit polls, newest first, with their observations
func (db *DB) RecentPolls(ctx context.Context, limit int) ([]Poll, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT snapshot_id, polled_at_utc, from_station, to_station, train_date,
		       train_count, available_count, query_ms
		FROM poll_snapshots
		ORDER BY polled_at_utc DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}

	var polls []Poll
	for rows.Next() {
		var p Poll
		var polledAt string
		var queryMS int64
		if err := rows.Scan(&p.SnapshotID, &polledAt, &p.FromStation, &p.ToStation, &p.TrainDate,
			&p.TrainCount, &p.AvailableCount, &queryMS); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		p.PolledAt, _ = time.Parse(timeLayout, polledAt)
		p.QueryDuration = time.Duration(queryMS) * time.Millisecond
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read polls: %w", err)
	}
	rows.Close()

	// The single connection must be free before the per-poll queries
	for i := range polls {
		obs, err := db.observations(ctx, polls[i].SnapshotID)
		if err != nil {
			return nil, err
		}
		polls[i].Observations = obs
	}

	return polls, nil
}

func (db *DB) observations(ctx context.Context, snapshotID string) ([]Observation, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT train_code, departure_time, arrival_time, duration, seats_json, available
		FROM ticket_observations
		WHERE snapshot_id = ?
		ORDER BY observation_id`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	obs := []Observation{}
	for rows.Next() {
		var o Observation
		var seats string
		if err := rows.Scan(&o.TrainCode, &o.DepartureTime, &o.ArrivalTime, &o.Duration, &seats, &o.Available); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		if err := json.Unmarshal([]byte(seats), &o.Seats); err != nil {
			return nil, fmt.Errorf("failed to decode seats for %s: %w", o.TrainCode, err)
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}
