// EventFilters describe user-provided filters to narrow the event list.
package dto

import "time"

type EventFilters struct {
	DateAfter  time.Time
	DateBefore time.Time
	TimeAfter  time.Time
	TimeBefore time.Time
	WithVideo  bool
	Limit      int
	Offset     int
}
