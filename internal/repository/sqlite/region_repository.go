package sqlite

import (
	"fmt"

	"motiondetector/internal/model"
)

// RegionRepository implements repository.RegionRepository for SQLite.
type RegionRepository struct {
	db *DB
}

// NewRegionRepository creates a new SQLite region repository.
func NewRegionRepository(db *DB) *RegionRepository {
	return &RegionRepository{db: db}
}

// InsertBatch adds multiple regions in a single transaction.
func (r *RegionRepository) InsertBatch(regions []model.Region) error {
	if len(regions) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO regions (event_id, x, y, width, height, area)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, reg := range regions {
		if _, err := stmt.Exec(reg.EventID, reg.X, reg.Y, reg.Width, reg.Height, reg.Area); err != nil {
			return fmt.Errorf("failed to insert region: %w", err)
		}
	}

	return tx.Commit()
}

// GetByEventID retrieves all regions of an event.
func (r *RegionRepository) GetByEventID(eventID string) ([]model.Region, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, event_id, x, y, width, height, area
		FROM regions WHERE event_id = ? ORDER BY id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer rows.Close()

	var regions []model.Region
	for rows.Next() {
		var reg model.Region
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.X, &reg.Y, &reg.Width, &reg.Height, &reg.Area); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, reg)
	}

	return regions, rows.Err()
}

// DeleteByEventID removes all regions of an event.
func (r *RegionRepository) DeleteByEventID(eventID string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM regions WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("failed to delete regions: %w", err)
	}
	return nil
}
