// Package capture runs the detect/record loop over a single camera.
package capture

import (
	"context"
	"errors"
	"time"

	"motiondetector/internal/config"
	"motiondetector/internal/logger"
	"motiondetector/internal/model"
	"motiondetector/internal/service"
	"motiondetector/internal/service/motion"
	"motiondetector/internal/service/storage"

	"gocv.io/x/gocv"
)

// Source delivers camera frames.
type Source interface {
	Read(dst *gocv.Mat) error
	Close() error
}

// Display shows frames and reports key presses.
type Display interface {
	Show(img gocv.Mat)
	WaitKey(delay time.Duration) int
	Close() error
}

// VideoWriter receives the frames of one clip.
type VideoWriter interface {
	Write(frame gocv.Mat) error
	Frames() int
	Close() error
}

// WriterOpener opens a VideoWriter for the file at path.
type WriterOpener func(path string) (VideoWriter, error)

// State is the phase of the capture loop.
type State int

const (
	Watching State = iota
	Recording
)

func (s State) String() string {
	switch s {
	case Watching:
		return "watching"
	case Recording:
		return "recording"
	default:
		return "unknown"
	}
}

// Event describes one handled motion event.
type Event struct {
	ID           string
	DetectedAt   time.Time
	RecordedAt   time.Time // end of event handling, start of the cooldown
	Regions      []motion.Region
	SnapshotPath string
	VideoPath    string
	VideoFrames  int
}

// Session owns the camera, the display, the previous frame and, while
// recording, the video writer. All of them are released when Run returns.
type Session struct {
	config     *config.Config
	logger     *logger.Logger
	source     Source
	display    Display
	detector   *motion.Detector
	store      *storage.EventStore
	openWriter WriterOpener
	now        func() time.Time
	onEvent    func(Event)

	state          State
	previous       gocv.Mat
	hasPrevious    bool
	regions        []motion.Region
	lastRecordedAt time.Time
}

// NewSession creates a session. openWriter may be nil when video recording is disabled.
func NewSession(config *config.Config, logger *logger.Logger, source Source, display Display, detector *motion.Detector, store *storage.EventStore, openWriter WriterOpener) *Session {
	return &Session{
		config:     config,
		logger:     logger,
		source:     source,
		display:    display,
		detector:   detector,
		store:      store,
		openWriter: openWriter,
		now:        time.Now,
		state:      Watching,
	}
}

// SetClock replaces the time source used for timestamps, the cooldown and clip length.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

// OnEvent registers a callback invoked after every completed motion event.
func (s *Session) OnEvent(fn func(Event)) {
	s.onEvent = fn
}

// State returns the current phase of the loop.
func (s *Session) State() State {
	return s.state
}

// Regions returns the motion regions found in the latest iteration.
func (s *Session) Regions() []motion.Region {
	return s.regions
}

// LastRecordedAt returns when the latest event finished, or the zero time.
func (s *Session) LastRecordedAt() time.Time {
	return s.lastRecordedAt
}

// Run loops until the quit key is pressed, ctx is cancelled or a capture error occurs.
// Only capture errors are returned; failed events are logged and skipped.
func (s *Session) Run(ctx context.Context) error {
	defer s.release()

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if ctx.Err() != nil {
			s.logger.Info("Capture stopped: %v", ctx.Err())
			return nil
		}

		quit, err := s.step(ctx, &frame)
		if err != nil {
			s.logger.Error("Capture failed: %v", err)
			return err
		}
		if quit {
			if ctx.Err() != nil {
				s.logger.Info("Capture stopped: %v", ctx.Err())
			} else {
				s.logger.Info("Quit key pressed")
			}
			return nil
		}
	}
}

// step runs one Watching iteration and reports whether the user asked to quit.
func (s *Session) step(ctx context.Context, frame *gocv.Mat) (bool, error) {
	s.regions = s.regions[:0]

	if err := s.read(frame); err != nil {
		return false, err
	}

	current, err := s.detector.Preprocess(*frame)
	if err != nil {
		return false, &service.CaptureError{Op: "preprocess", Err: err}
	}

	if !s.hasPrevious {
		s.previous = current
		s.hasPrevious = true
		s.display.Show(*frame)
		return s.pollQuit(), nil
	}

	regions, err := s.detector.Detect(s.previous, current)
	if err != nil {
		current.Close()
		return false, &service.CaptureError{Op: "detect", Err: err}
	}
	s.regions = regions

	annotated := frame.Clone()
	defer annotated.Close()
	if err := motion.DrawRegions(&annotated, regions, motion.RegionColor, 2); err != nil {
		s.logger.Warning("Failed to outline regions: %v", err)
	}

	quit := false
	if len(regions) > 0 && s.config.EventsEnabled() && s.cooldownElapsed() {
		quit, err = s.handleEvent(ctx, annotated, regions)
		if err != nil && service.IsFatal(err) {
			current.Close()
			return false, err
		}
	}

	s.previous.Close()
	s.previous = current

	if quit {
		return true, nil
	}

	s.display.Show(annotated)
	return s.pollQuit(), nil
}

func (s *Session) cooldownElapsed() bool {
	return s.lastRecordedAt.IsZero() || s.now().Sub(s.lastRecordedAt) >= s.config.VideoDuration
}

// handleEvent logs, snapshots and records one motion event. Storage and
// encoding failures abort the event and are returned after being logged.
func (s *Session) handleEvent(ctx context.Context, annotated gocv.Mat, regions []motion.Region) (quit bool, err error) {
	detectedAt := s.now()
	ev := Event{
		ID:         storage.EventID(detectedAt),
		DetectedAt: detectedAt,
		Regions:    append([]motion.Region(nil), regions...),
	}
	s.logger.Info("Motion detected: %d regions", len(regions))

	defer func() {
		// The cooldown restarts when handling ends, even for aborted events.
		s.lastRecordedAt = s.now()
		if err != nil {
			if !service.IsFatal(err) {
				s.logger.Warning("Motion event aborted: %v", err)
			}
			return
		}
		ev.RecordedAt = s.lastRecordedAt
		s.finish(ev)
	}()

	if s.config.LogEvents {
		if err := s.store.AppendLog(detectedAt); err != nil {
			return false, err
		}
	}

	if s.config.SaveSnapshots || s.config.RecordVideo {
		if _, err := s.store.EnsureDayDir(detectedAt); err != nil {
			return false, err
		}
	}

	if s.config.SaveSnapshots {
		path, err := s.store.SaveSnapshot(detectedAt, annotated)
		if err != nil {
			return false, err
		}
		ev.SnapshotPath = path
	}

	if s.config.RecordVideo && s.openWriter != nil {
		return s.record(ctx, &ev)
	}
	return false, nil
}

// record writes raw frames for VideoDuration, showing each one and polling the
// quit key between writes.
func (s *Session) record(ctx context.Context, ev *Event) (quit bool, err error) {
	path := s.store.VideoPath(ev.DetectedAt)

	writer, err := s.openWriter(path)
	if err != nil {
		return false, err
	}

	s.state = Recording
	defer func() {
		s.state = Watching
		frames := writer.Frames()
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err == nil {
			ev.VideoPath = path
			ev.VideoFrames = frames
			s.logger.Info("Video saved: %s (%d frames)", path, frames)
		}
	}()

	frame := gocv.NewMat()
	defer frame.Close()

	start := s.now()
	for s.now().Sub(start) < s.config.VideoDuration {
		if ctx.Err() != nil {
			return true, nil
		}

		if err := s.read(&frame); err != nil {
			return false, err
		}
		if err := writer.Write(frame); err != nil {
			var encErr *service.EncodingError
			if !errors.As(err, &encErr) {
				err = &service.EncodingError{Op: "write", Path: path, Err: err}
			}
			return false, err
		}

		s.display.Show(frame)
		if s.pollQuit() {
			return true, nil
		}
	}

	return false, nil
}

func (s *Session) finish(ev Event) {
	if err := s.store.Catalog(toModel(ev), toModelRegions(ev)); err != nil {
		s.logger.Warning("Failed to catalog event %s: %v", ev.ID, err)
	}
	if s.onEvent != nil {
		s.onEvent(ev)
	}
}

func (s *Session) read(frame *gocv.Mat) error {
	err := s.source.Read(frame)
	if err == nil {
		return nil
	}
	if !service.IsFatal(err) {
		err = &service.CaptureError{Op: "read", Err: err}
	}
	return err
}

func (s *Session) pollQuit() bool {
	key := s.display.WaitKey(s.config.DisplayDelay)
	return key >= 0 && rune(key&0xFF) == s.config.QuitKey
}

// release closes every resource owned by the session.
func (s *Session) release() {
	if s.hasPrevious {
		s.previous.Close()
		s.hasPrevious = false
	}
	if err := s.display.Close(); err != nil {
		s.logger.Warning("Failed to close display: %v", err)
	}
	if err := s.source.Close(); err != nil {
		s.logger.Warning("Failed to release camera: %v", err)
	}
	s.state = Watching
}

func toModel(ev Event) *model.Event {
	return &model.Event{
		ID:           ev.ID,
		DetectedAt:   ev.DetectedAt,
		RecordedAt:   ev.RecordedAt,
		SnapshotPath: ev.SnapshotPath,
		VideoPath:    ev.VideoPath,
		VideoFrames:  ev.VideoFrames,
		RegionCount:  len(ev.Regions),
	}
}

func toModelRegions(ev Event) []model.Region {
	regions := make([]model.Region, 0, len(ev.Regions))
	for _, r := range ev.Regions {
		regions = append(regions, model.Region{
			EventID: ev.ID,
			X:       r.X,
			Y:       r.Y,
			Width:   r.Width,
			Height:  r.Height,
			Area:    r.Area,
		})
	}
	return regions
}
