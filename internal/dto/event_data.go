// EventsData is a paginated response payload for the event browser.
package dto

type EventsData struct {
	Events      []EventInfo `json:"events"`
	OutputDir   string      `json:"outputDir"`
	Length      int         `json:"length"`
	TotalPages  int         `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
	Limit       int         `json:"pageSize"`
}
