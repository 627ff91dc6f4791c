package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"motiondetector/internal/config"
	"motiondetector/internal/logger"
	"motiondetector/internal/model"
	"motiondetector/internal/repository"
	"motiondetector/internal/service"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

const (
	// DayLayout names the per-day event directories.
	DayLayout = "2006-01-02"
	// ClockLayout is the time part of snapshot and video file names.
	ClockLayout = "150405"
	// LogTimeLayout is the timestamp format of the motion log.
	LogTimeLayout = "2006-01-02 15:04:05"
	// LogLinePrefix starts every motion log line.
	LogLinePrefix = "Movimiento detectado - "

	SnapshotPrefix = "captura_"
	SnapshotExt    = ".jpg"
	VideoPrefix    = "video_"
	VideoExt       = ".avi"
)

// eventNamespace scopes the name-based event IDs.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("motiondetector/events"))

// EventID returns the catalog ID of an event detected at t.
// Files are named with second precision, so the ID is derived from the same value.
func EventID(t time.Time) string {
	return uuid.NewSHA1(eventNamespace, []byte(t.Format(DayLayout+"T"+ClockLayout))).String()
}

// EventStore owns the on-disk layout of motion events: the shared motion log,
// the per-day directories and the snapshot and video files inside them.
// When repositories are given, events are also indexed in the catalog.
type EventStore struct {
	baseDir    string
	logPath    string
	logger     *logger.Logger
	eventRepo  repository.EventRepository
	regionRepo repository.RegionRepository
}

// NewEventStore creates an EventStore rooted at the configured output directory.
// Repositories may be nil, in which case nothing is catalogued.
func NewEventStore(config *config.Config, logger *logger.Logger, eventRepo repository.EventRepository, regionRepo repository.RegionRepository) *EventStore {
	return &EventStore{
		baseDir:    config.OutputDirectory,
		logPath:    config.MotionLogPath(),
		logger:     logger,
		eventRepo:  eventRepo,
		regionRepo: regionRepo,
	}
}

// BaseDir returns the root of the event tree.
func (s *EventStore) BaseDir() string {
	return s.baseDir
}

// LogPath returns the location of the motion log.
func (s *EventStore) LogPath() string {
	return s.logPath
}

// DayDir returns the directory holding the events of t's day.
func (s *EventStore) DayDir(t time.Time) string {
	return filepath.Join(s.baseDir, t.Format(DayLayout))
}

// SnapshotPath returns the snapshot file of an event detected at t.
func (s *EventStore) SnapshotPath(t time.Time) string {
	return filepath.Join(s.DayDir(t), SnapshotPrefix+t.Format(ClockLayout)+SnapshotExt)
}

// VideoPath returns the video file of an event detected at t.
func (s *EventStore) VideoPath(t time.Time) string {
	return filepath.Join(s.DayDir(t), VideoPrefix+t.Format(ClockLayout)+VideoExt)
}

// EnsureDayDir creates the directory of t's day if it does not exist yet.
func (s *EventStore) EnsureDayDir(t time.Time) (string, error) {
	dir := s.DayDir(t)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &service.StorageError{Op: "mkdir", Path: dir, Err: err}
	}
	return dir, nil
}

// AppendLog adds one line for an event detected at t to the motion log.
func (s *EventStore) AppendLog(t time.Time) error {
	if dir := filepath.Dir(s.logPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &service.StorageError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	file, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return &service.StorageError{Op: "open", Path: s.logPath, Err: err}
	}

	if _, err := fmt.Fprintf(file, "%s%s\n", LogLinePrefix, t.Format(LogTimeLayout)); err != nil {
		file.Close()
		return &service.StorageError{Op: "append", Path: s.logPath, Err: err}
	}

	if err := file.Close(); err != nil {
		return &service.StorageError{Op: "close", Path: s.logPath, Err: err}
	}
	return nil
}

// SaveSnapshot encodes frame as JPEG into the snapshot file of t.
// The day directory must already exist.
func (s *EventStore) SaveSnapshot(t time.Time, frame gocv.Mat) (string, error) {
	path := s.SnapshotPath(t)

	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		return "", &service.StorageError{Op: "encode", Path: path, Err: err}
	}
	defer buf.Close()

	if err := os.WriteFile(path, buf.GetBytes(), 0644); err != nil {
		return "", &service.StorageError{Op: "write", Path: path, Err: err}
	}

	s.logger.Info("Snapshot saved: %s", path)
	return path, nil
}

// Relative returns path relative to the event tree root, as stored in the catalog.
func (s *EventStore) Relative(path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil {
		return path
	}
	return rel
}

// Catalog indexes an event and its regions. It does nothing without repositories.
func (s *EventStore) Catalog(ev *model.Event, regions []model.Region) error {
	if s.eventRepo == nil {
		return nil
	}

	record := *ev
	record.SnapshotPath = s.Relative(ev.SnapshotPath)
	record.VideoPath = s.Relative(ev.VideoPath)

	inserted, err := s.eventRepo.Insert(&record)
	if err != nil {
		return fmt.Errorf("failed to catalog event %s: %w", ev.ID, err)
	}
	if !inserted || s.regionRepo == nil {
		return nil
	}

	if err := s.regionRepo.InsertBatch(regions); err != nil {
		return fmt.Errorf("failed to catalog regions of event %s: %w", ev.ID, err)
	}
	return nil
}
