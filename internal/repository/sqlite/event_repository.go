package sqlite

import (
	"database/sql"
	"fmt"

	"motiondetector/internal/dto"
	"motiondetector/internal/model"
)

const (
	dayLayout       = "2006-01-02"
	timeOfDayLayout = "15:04:05"
)

// EventRepository implements repository.EventRepository for SQLite.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

const insertEventSQL = `
	INSERT OR IGNORE INTO events (id, detected_at, day, time_of_day, recorded_at, snapshot_path, video_path, video_frames, region_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Insert adds an event record. It reports false when an event with the same ID already exists.
func (r *EventRepository) Insert(ev *model.Event) (bool, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(insertEventSQL, eventArgs(ev)...)
	if err != nil {
		return false, fmt.Errorf("failed to insert event: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// InsertBatch adds multiple events in a single transaction and returns how many were new.
func (r *EventRepository) InsertBatch(events []model.Event) (int, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertEventSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range events {
		result, err := stmt.Exec(eventArgs(&events[i])...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert event %s: %w", events[i].ID, err)
		}
		if n, err := result.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

func eventArgs(ev *model.Event) []interface{} {
	return []interface{}{
		ev.ID,
		ev.DetectedAt,
		ev.DetectedAt.Format(dayLayout),
		ev.DetectedAt.Format(timeOfDayLayout),
		ev.RecordedAt,
		ev.SnapshotPath,
		ev.VideoPath,
		ev.VideoFrames,
		ev.RegionCount,
	}
}

const selectEventColumns = `id, detected_at, recorded_at, snapshot_path, video_path, video_frames, region_count`

func scanEvent(scanner interface{ Scan(dest ...interface{}) error }) (model.Event, error) {
	var ev model.Event
	err := scanner.Scan(&ev.ID, &ev.DetectedAt, &ev.RecordedAt, &ev.SnapshotPath, &ev.VideoPath, &ev.VideoFrames, &ev.RegionCount)
	return ev, err
}

// GetByID retrieves an event by its ID.
func (r *EventRepository) GetByID(id string) (*model.Event, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+selectEventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &ev, nil
}

// whereClause builds the filter part of event queries.
func whereClause(filter *dto.EventFilters) (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}

	if filter == nil {
		return query, args
	}

	if !filter.DateAfter.IsZero() {
		query += " AND day >= ?"
		args = append(args, filter.DateAfter.Format(dayLayout))
	}

	if !filter.DateBefore.IsZero() {
		query += " AND day <= ?"
		args = append(args, filter.DateBefore.Format(dayLayout))
	}

	if !filter.TimeAfter.IsZero() {
		query += " AND time_of_day >= ?"
		args = append(args, filter.TimeAfter.Format(timeOfDayLayout))
	}

	if !filter.TimeBefore.IsZero() {
		query += " AND time_of_day <= ?"
		args = append(args, filter.TimeBefore.Format(timeOfDayLayout))
	}

	if filter.WithVideo {
		query += " AND video_path != ''"
	}

	return query, args
}

// GetAll retrieves events based on filter criteria, newest first.
func (r *EventRepository) GetAll(filter *dto.EventFilters) ([]model.Event, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	query := `SELECT ` + selectEventColumns + ` FROM events` + where + ` ORDER BY day DESC, time_of_day DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

// GetTotalCount returns the total count of events matching the filter (without limit/offset).
func (r *EventRepository) GetTotalCount(filter *dto.EventFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM events`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// GetDays returns every day that has at least one event, newest first.
func (r *EventRepository) GetDays() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT day FROM events ORDER BY day DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// GetStats returns statistics about catalogued events.
func (r *EventRepository) GetStats() (*model.EventStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.EventStats{
		PerDay: make(map[string]int),
	}

	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN snapshot_path != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN video_path != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(video_frames), 0)
		FROM events
	`).Scan(&stats.TotalEvents, &stats.TotalSnapshots, &stats.TotalVideos, &stats.TotalFrames)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	if err := r.db.Conn().QueryRow(`SELECT COALESCE(MAX(area), 0) FROM regions`).Scan(&stats.LargestArea); err != nil {
		return nil, fmt.Errorf("failed to read largest area: %w", err)
	}

	rows, err := r.db.Conn().Query(`SELECT day, COUNT(*) FROM events GROUP BY day`)
	if err != nil {
		return nil, fmt.Errorf("failed to group events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		stats.PerDay[day] = count
	}

	return stats, rows.Err()
}

// Delete removes an event and its regions.
func (r *EventRepository) Delete(id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	// First delete related regions
	if _, err := r.db.Conn().Exec(`DELETE FROM regions WHERE event_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete regions: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// DeleteAll removes all events and their regions.
func (r *EventRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM regions`); err != nil {
		return fmt.Errorf("failed to delete regions: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM events`); err != nil {
		return fmt.Errorf("failed to delete events: %w", err)
	}

	return nil
}
