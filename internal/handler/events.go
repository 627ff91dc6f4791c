package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"motiondetector/internal/config"
	"motiondetector/internal/dto"
	"motiondetector/internal/logger"
	"motiondetector/internal/model"
	"motiondetector/internal/repository"
	"motiondetector/internal/service/storage"
)

// DefaultPageSize is the number of events per page when the request does not say.
const DefaultPageSize = 24

// GetEventsHandler returns a filtered, paginated list of catalogued events.
func GetEventsHandler(cfg *config.Config, logger *logger.Logger,
	eventRepo repository.EventRepository, regionRepo repository.RegionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), DefaultPageSize)

		filter := &dto.EventFilters{
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
			TimeAfter:  parseTimeOfDay(q.Get("timeAfter")),
			TimeBefore: parseTimeOfDay(q.Get("timeBefore")),
			WithVideo:  q.Get("withVideo") == "true",
		}

		totalCount, err := eventRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting events: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		filter.Limit = limit
		filter.Offset = (page - 1) * limit

		events, err := eventRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying events from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		infos := make([]dto.EventInfo, 0, len(events))
		for _, ev := range events {
			regions := []dto.RegionInfo{}
			if regionRepo != nil {
				stored, err := regionRepo.GetByEventID(ev.ID)
				if err != nil {
					logger.Error("Error getting regions for event %s: %v", ev.ID, err)
				}
				for _, reg := range stored {
					regions = append(regions, dto.RegionInfo{X: reg.X, Y: reg.Y, Width: reg.Width, Height: reg.Height, Area: reg.Area})
				}
			}

			infos = append(infos, dto.EventInfo{
				ID:        ev.ID,
				Date:      ev.DetectedAt,
				TimeOfDay: ev.DetectedAt,
				Snapshot:  filepath.ToSlash(ev.SnapshotPath),
				Video:     filepath.ToSlash(ev.VideoPath),
				Frames:    ev.VideoFrames,
				Regions:   regions,
			})
		}

		data := dto.EventsData{
			Events:      infos,
			OutputDir:   cfg.OutputDirectory,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		writeJSON(w, logger, http.StatusOK, data)
	}
}

// GetEventStatsHandler returns catalog statistics.
func GetEventStatsHandler(logger *logger.Logger, eventRepo repository.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := eventRepo.GetStats()
		if err != nil {
			logger.Error("Error reading event statistics: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, http.StatusOK, stats)
	}
}

// GetEventDaysHandler returns every day that has recorded events, newest first.
func GetEventDaysHandler(logger *logger.Logger, eventRepo repository.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := eventRepo.GetDays()
		if err != nil {
			logger.Error("Error listing event days: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if days == nil {
			days = []string{}
		}
		writeJSON(w, logger, http.StatusOK, days)
	}
}

// ViewEventFileHandler serves a snapshot or video given by the "path" query
// parameter, relative to the output directory.
func ViewEventFileHandler(config *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rel := r.URL.Query().Get("path")
		if rel == "" {
			http.Error(w, "Path parameter is required", http.StatusBadRequest)
			return
		}

		filePath, ok := resolveEventFile(config.OutputDirectory, rel)
		if !ok {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, filePath)
	}
}

// DeleteEventHandler removes an event's files from disk and its catalog entry.
func DeleteEventHandler(cfg *config.Config, logger *logger.Logger, eventRepo repository.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "Event id required", http.StatusBadRequest)
			return
		}

		ev, err := eventRepo.GetByID(id)
		if err != nil {
			logger.Error("Error reading event %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if ev == nil {
			http.Error(w, "Event not found", http.StatusNotFound)
			return
		}

		removeEventFiles(cfg, logger, ev)

		if err := eventRepo.Delete(id); err != nil {
			logger.Error("Failed to delete event %s from database: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted event: %s", id)
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "deleted", "id": id})
	}
}

func removeEventFiles(cfg *config.Config, logger *logger.Logger, ev *model.Event) {
	for _, rel := range []string{ev.SnapshotPath, ev.VideoPath} {
		if rel == "" {
			continue
		}
		filePath, ok := resolveEventFile(cfg.OutputDirectory, rel)
		if !ok {
			logger.Warning("Refusing to delete non-event file: %s", rel)
			continue
		}
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to delete file %s: %v", filePath, err)
		}
	}
}

// resolveEventFile maps rel to a file under baseDir. Only snapshots and videos
// inside a day directory are accepted: <YYYY-MM-DD>/captura_HHMMSS.jpg and
// <YYYY-MM-DD>/video_HHMMSS.avi.
func resolveEventFile(baseDir, rel string) (string, bool) {
	rel = filepath.FromSlash(rel)
	if !filepath.IsLocal(rel) {
		return "", false
	}

	day, name := filepath.Split(rel)
	day = filepath.Clean(day)
	if _, err := time.Parse(storage.DayLayout, day); err != nil {
		return "", false
	}
	if _, _, err := storage.ParseEventFilename(day, name, time.UTC); err != nil {
		return "", false
	}
	return filepath.Join(baseDir, day, name), true
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseTimeOfDay parses a time-of-day string in the format "15:04" from the request (HTML input format).
func parseTimeOfDay(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
