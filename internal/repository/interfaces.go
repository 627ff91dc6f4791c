package repository

import (
	"motiondetector/internal/dto"
	"motiondetector/internal/model"
)

// EventRepository defines the interface for motion event catalog operations.
type EventRepository interface {
	// Create operations
	Insert(ev *model.Event) (bool, error)
	InsertBatch(events []model.Event) (int, error)

	// Read operations
	GetByID(id string) (*model.Event, error)
	GetAll(filter *dto.EventFilters) ([]model.Event, error)
	GetTotalCount(filter *dto.EventFilters) (int, error)
	GetDays() ([]string, error)
	GetStats() (*model.EventStats, error)

	// Delete operations
	Delete(id string) error
	DeleteAll() error
}

// RegionRepository defines the interface for motion region operations.
type RegionRepository interface {
	// Create operations
	InsertBatch(regions []model.Region) error

	// Read operations
	GetByEventID(eventID string) ([]model.Region, error)

	// Delete operations
	DeleteByEventID(eventID string) error
}
