package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"motiondetector/internal/model"
)

// FileKind tells snapshot files from video files.
type FileKind int

const (
	KindUnknown FileKind = iota
	KindSnapshot
	KindVideo
)

// ParseEventFilename extracts the detection time from a snapshot or video name
// inside the directory of day. Times are interpreted in loc.
func ParseEventFilename(day, name string, loc *time.Location) (time.Time, FileKind, error) {
	var kind FileKind
	var clock string

	switch {
	case strings.HasPrefix(name, SnapshotPrefix) && strings.HasSuffix(name, SnapshotExt):
		kind = KindSnapshot
		clock = strings.TrimSuffix(strings.TrimPrefix(name, SnapshotPrefix), SnapshotExt)
	case strings.HasPrefix(name, VideoPrefix) && strings.HasSuffix(name, VideoExt):
		kind = KindVideo
		clock = strings.TrimSuffix(strings.TrimPrefix(name, VideoPrefix), VideoExt)
	default:
		return time.Time{}, KindUnknown, fmt.Errorf("not an event file: %s", name)
	}

	t, err := time.ParseInLocation(DayLayout+ClockLayout, day+clock, loc)
	if err != nil {
		return time.Time{}, KindUnknown, fmt.Errorf("invalid event file %s/%s: %w", day, name, err)
	}
	return t, kind, nil
}

// ScanEvents walks the day directories under baseDir and rebuilds one event per
// detection time from the snapshot and video files found there. Paths in the
// returned events are relative to baseDir. Unrecognised entries are skipped.
func ScanEvents(baseDir string, loc *time.Location) ([]model.Event, error) {
	days, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", baseDir, err)
	}

	byTime := make(map[time.Time]*model.Event)

	for _, day := range days {
		if !day.IsDir() {
			continue
		}
		if _, err := time.Parse(DayLayout, day.Name()); err != nil {
			continue
		}

		entries, err := os.ReadDir(filepath.Join(baseDir, day.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", day.Name(), err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			at, kind, err := ParseEventFilename(day.Name(), entry.Name(), loc)
			if err != nil {
				continue
			}

			ev, ok := byTime[at]
			if !ok {
				ev = &model.Event{ID: EventID(at), DetectedAt: at, RecordedAt: at}
				byTime[at] = ev
			}

			rel := filepath.Join(day.Name(), entry.Name())
			switch kind {
			case KindSnapshot:
				ev.SnapshotPath = rel
			case KindVideo:
				ev.VideoPath = rel
				if info, err := entry.Info(); err == nil && info.ModTime().After(ev.RecordedAt) {
					ev.RecordedAt = info.ModTime()
				}
			}
		}
	}

	events := make([]model.Event, 0, len(byTime))
	for _, ev := range byTime {
		events = append(events, *ev)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].DetectedAt.Before(events[j].DetectedAt)
	})

	return events, nil
}

// ReadLog returns the detection times recorded in the motion log at path.
// Malformed lines are skipped.
func ReadLog(path string, loc *time.Location) ([]time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var times []time.Time
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, LogLinePrefix) {
			continue
		}
		t, err := time.ParseInLocation(LogTimeLayout, strings.TrimSpace(strings.TrimPrefix(line, LogLinePrefix)), loc)
		if err != nil {
			continue
		}
		times = append(times, t)
	}
	return times, nil
}
