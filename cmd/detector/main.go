package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"motiondetector/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to start detector: %v", err)
	}

	err = application.RunDetector(ctx)
	application.Close()
	if err != nil {
		log.Printf("Detector stopped: %v", err)
		os.Exit(1)
	}
}
