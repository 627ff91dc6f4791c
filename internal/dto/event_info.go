package dto

import (
	"encoding/json"
	"time"
)

// EventInfo represents one motion event as shown by the event browser.
type EventInfo struct {
	ID        string       `json:"id"`
	Date      time.Time    `json:"date"`
	TimeOfDay time.Time    `json:"timeOfDay"`
	Snapshot  string       `json:"snapshot"`
	Video     string       `json:"video"`
	Frames    int          `json:"frames"`
	Regions   []RegionInfo `json:"regions"`
}

// RegionInfo is a motion rectangle inside an EventInfo.
type RegionInfo struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Area   float64 `json:"area"`
}

// MarshalJSON customizes JSON output for EventInfo to format date and time-of-day.
func (e EventInfo) MarshalJSON() ([]byte, error) {
	type Alias EventInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      e.Date.Format("2006-01-02"),
		TimeOfDay: e.TimeOfDay.Format("15:04:05"),
		Alias:     (Alias)(e),
	})
}
