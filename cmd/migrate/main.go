package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"motiondetector/internal/config"
	"motiondetector/internal/model"
	"motiondetector/internal/repository/sqlite"
	"motiondetector/internal/service/storage"

	"gocv.io/x/gocv"
)

func main() {
	cfg := config.Load()

	defaultDB := cfg.EventDatabase
	if defaultDB == "" {
		defaultDB = "data/events.db"
	}

	outputDir := flag.String("output", cfg.OutputDirectory, "Directory containing the day folders")
	dbPath := flag.String("db", defaultDB, "Database path")
	reset := flag.Bool("reset", false, "Remove every catalogued event before indexing")
	countFrames := flag.Bool("frames", true, "Read frame counts from video files")
	flag.Parse()

	fmt.Printf("Indexing events from %s into database %s\n", *outputDir, *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	eventRepo := sqlite.NewEventRepository(db)

	if *reset {
		if err := eventRepo.DeleteAll(); err != nil {
			log.Fatalf("Failed to reset catalog: %v", err)
		}
		fmt.Println("Catalog cleared")
	}

	events, err := storage.ScanEvents(*outputDir, time.Local)
	if err != nil {
		log.Fatalf("Failed to scan output directory: %v", err)
	}

	if len(events) == 0 {
		fmt.Println("No events found to index")
		return
	}

	if *countFrames {
		fillFrameCounts(*outputDir, events)
	}

	fmt.Printf("Inserting %d events into database...\n", len(events))
	inserted, err := eventRepo.InsertBatch(events)
	if err != nil {
		log.Fatalf("Failed to insert events: %v", err)
	}

	fmt.Printf("✅ Indexed %d new events\n", inserted)
	if skipped := len(events) - inserted; skipped > 0 {
		fmt.Printf("⚠️  %d events were already catalogued\n", skipped)
	}

	if logged, err := storage.ReadLog(cfg.MotionLogPath(), time.Local); err == nil {
		fmt.Printf("   Motion log entries: %d\n", len(logged))
	}

	stats, err := eventRepo.GetStats()
	if err == nil {
		fmt.Printf("\n📊 Catalog Statistics:\n")
		fmt.Printf("   Total events: %d\n", stats.TotalEvents)
		fmt.Printf("   Snapshots: %d\n", stats.TotalSnapshots)
		fmt.Printf("   Videos: %d (%d frames)\n", stats.TotalVideos, stats.TotalFrames)
		fmt.Printf("   Per day:\n")
		for day, count := range stats.PerDay {
			fmt.Printf("      - %s: %d events\n", day, count)
		}
	}
}

// fillFrameCounts opens every video of events and stores its frame count.
func fillFrameCounts(outputDir string, events []model.Event) {
	for i := range events {
		if events[i].VideoPath == "" {
			continue
		}

		path := filepath.Join(outputDir, events[i].VideoPath)
		video, err := gocv.VideoCaptureFile(path)
		if err != nil {
			log.Printf("⚠️  Skipping frame count of %s: %v", events[i].VideoPath, err)
			continue
		}
		events[i].VideoFrames = int(video.Get(gocv.VideoCaptureFrameCount))
		video.Close()
	}
}
