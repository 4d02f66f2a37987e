package db

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Cleanup deletes polls older than the retention duration
func (db *DB) Cleanup(ctx context.Context, retention time.Duration) error {
	if retention < time.Hour {
		retention = time.Hour
	}
	cutoff := time.Now().Add(-retention).UTC().Format(timeLayout)

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	queries := []struct {
		name  string
		query string
	}{
		{
			name: "observations",
			query: `DELETE FROM ticket_observations WHERE snapshot_id IN (
				SELECT snapshot_id FROM poll_snapshots WHERE polled_at_utc < ?)`,
		},
		{
			name:  "snapshots",
			query: "DELETE FROM poll_snapshots WHERE polled_at_utc < ?",
		},
	}

	totalDeleted := 0
	for _, q := range queries {
		result, err := db.conn.ExecContext(ctx, q.query, cutoff)
		if err != nil {
			return fmt.Errorf("failed to cleanup %s: %w", q.name, err)
		}
		rows, _ := result.RowsAffected()
		totalDeleted += int(rows)
	}

	if totalDeleted > 0 {
		log.Printf("History: deleted %d records older than %v", totalDeleted, retention)
	}
	return nil
}
