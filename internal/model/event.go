package model

import "time"

// Event represents one catalogued motion event.
type Event struct {
	ID           string    `json:"id"`
	DetectedAt   time.Time `json:"detected_at"`
	RecordedAt   time.Time `json:"recorded_at"`
	SnapshotPath string    `json:"snapshot_path"`
	VideoPath    string    `json:"video_path"`
	VideoFrames  int       `json:"video_frames"`
	RegionCount  int       `json:"region_count"`
}

// Region represents a motion region stored with its event.
type Region struct {
	ID      int64   `json:"id"`
	EventID string  `json:"event_id"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Area    float64 `json:"area"`
}

// EventStats contains statistics about catalogued events.
type EventStats struct {
	TotalEvents    int            `json:"total_events"`
	TotalSnapshots int            `json:"total_snapshots"`
	TotalVideos    int            `json:"total_videos"`
	TotalFrames    int64          `json:"total_frames"`
	PerDay         map[string]int `json:"per_day"`
	LargestArea    float64        `json:"largest_area"`
}
