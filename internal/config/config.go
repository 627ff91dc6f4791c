package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Detector profiles. Each one mirrors one of the historical variants of the detector.
const (
	ProfileMinimal = "minimal" // draw rectangles only
	ProfileBasic   = "basic"   // log + video
	ProfileFull    = "full"    // log + snapshot + video
)

// DefaultPassword protects the event browser when PASSWORD is not set.
const DefaultPassword = "motion"

type Config struct {
	// Capture
	CameraDevice string
	WindowTitle  string
	ShowWindow   bool
	QuitKey      rune
	DisplayDelay time.Duration // How long each key poll waits

	// Detection
	Profile          string
	ThresholdValue   int
	MinArea          float64
	BlurSize         int
	DilateIterations int

	// Event handling
	LogEvents     bool
	SaveSnapshots bool
	RecordVideo   bool
	VideoDuration time.Duration
	FrameRate     int
	VideoWidth    int
	VideoHeight   int
	VideoCodec    string

	// Storage
	OutputDirectory string
	MotionLogFile   string
	EventDatabase   string // Empty disables the event catalog
	LogDirectory    string

	// Event browser
	Port     int
	Password string
}

// Load reads an optional .env file and builds the configuration from the environment.
// Values already present in the environment take precedence over the .env file.
func Load() *Config {
	_ = godotenv.Load()

	cfg := Defaults(getEnv("DETECTOR_PROFILE", ProfileFull))

	cfg.CameraDevice = getEnv("CAMERA_DEVICE", cfg.CameraDevice)
	cfg.WindowTitle = getEnv("WINDOW_TITLE", cfg.WindowTitle)
	cfg.ShowWindow = getEnvAsBool("SHOW_WINDOW", cfg.ShowWindow)
	cfg.QuitKey = getEnvAsRune("QUIT_KEY", cfg.QuitKey)
	cfg.DisplayDelay = time.Duration(getEnvAsInt("DISPLAY_DELAY_MS", int(cfg.DisplayDelay/time.Millisecond))) * time.Millisecond

	cfg.ThresholdValue = getEnvAsInt("THRESHOLD_VALUE", cfg.ThresholdValue)
	cfg.MinArea = getEnvAsFloat("MIN_AREA", cfg.MinArea)
	cfg.BlurSize = getEnvAsInt("BLUR_SIZE", cfg.BlurSize)
	cfg.DilateIterations = getEnvAsInt("DILATE_ITERATIONS", cfg.DilateIterations)

	cfg.LogEvents = getEnvAsBool("LOG_EVENTS", cfg.LogEvents)
	cfg.SaveSnapshots = getEnvAsBool("SAVE_SNAPSHOTS", cfg.SaveSnapshots)
	cfg.RecordVideo = getEnvAsBool("RECORD_VIDEO", cfg.RecordVideo)
	cfg.VideoDuration = time.Duration(getEnvAsInt("VIDEO_DURATION", int(cfg.VideoDuration/time.Second))) * time.Second
	cfg.FrameRate = getEnvAsInt("FRAME_RATE", cfg.FrameRate)
	cfg.VideoWidth = getEnvAsInt("VIDEO_WIDTH", cfg.VideoWidth)
	cfg.VideoHeight = getEnvAsInt("VIDEO_HEIGHT", cfg.VideoHeight)
	cfg.VideoCodec = getEnv("VIDEO_CODEC", cfg.VideoCodec)

	cfg.OutputDirectory = getEnv("OUTPUT_DIR", cfg.OutputDirectory)
	cfg.MotionLogFile = getEnv("MOTION_LOG_FILE", cfg.MotionLogFile)
	cfg.EventDatabase = getEnv("EVENT_DB", cfg.EventDatabase)
	cfg.LogDirectory = getEnv("LOG_DIR", cfg.LogDirectory)

	cfg.Port = getEnvAsInt("PORT", cfg.Port)
	cfg.Password = getEnv("PASSWORD", cfg.Password)

	return cfg
}

// Defaults returns the configuration of the given profile without looking at the environment.
// Unknown profiles fall back to ProfileFull.
func Defaults(profile string) *Config {
	cfg := &Config{
		CameraDevice: "0",
		WindowTitle:  "Deteccion de Movimiento",
		ShowWindow:   true,
		QuitKey:      'q',
		DisplayDelay: time.Millisecond,

		Profile:          ProfileFull,
		ThresholdValue:   12,
		MinArea:          100,
		BlurSize:         21,
		DilateIterations: 2,

		LogEvents:     true,
		SaveSnapshots: true,
		RecordVideo:   true,
		VideoDuration: 10 * time.Second,
		FrameRate:     30,
		VideoWidth:    640,
		VideoHeight:   480,
		VideoCodec:    "XVID",

		OutputDirectory: ".",
		MotionLogFile:   "log.txt",
		EventDatabase:   "",
		LogDirectory:    filepath.Join(".", "logs"),

		Port:     8080,
		Password: DefaultPassword,
	}

	switch strings.ToLower(strings.TrimSpace(profile)) {
	case ProfileMinimal:
		cfg.Profile = ProfileMinimal
		cfg.ThresholdValue = 25
		cfg.MinArea = 1000
		cfg.DisplayDelay = 30 * time.Millisecond
		cfg.LogEvents = false
		cfg.SaveSnapshots = false
		cfg.RecordVideo = false
	case ProfileBasic:
		cfg.Profile = ProfileBasic
		cfg.SaveSnapshots = false
	}

	return cfg
}

// MotionLogPath returns the location of the shared motion log.
func (c *Config) MotionLogPath() string {
	if filepath.IsAbs(c.MotionLogFile) {
		return c.MotionLogFile
	}
	return filepath.Join(c.OutputDirectory, c.MotionLogFile)
}

// EventsEnabled reports whether a detection can produce a MotionEvent at all.
func (c *Config) EventsEnabled() bool {
	return c.LogEvents || c.SaveSnapshots || c.RecordVideo
}

// Validate checks that every tunable is in a usable range.
func (c *Config) Validate() error {
	var problems []string

	if c.ThresholdValue < 1 || c.ThresholdValue > 255 {
		problems = append(problems, "THRESHOLD_VALUE must be between 1 and 255")
	}
	if c.MinArea < 0 {
		problems = append(problems, "MIN_AREA must not be negative")
	}
	if c.BlurSize < 1 || c.BlurSize%2 == 0 {
		problems = append(problems, "BLUR_SIZE must be a positive odd number")
	}
	if c.DilateIterations < 0 {
		problems = append(problems, "DILATE_ITERATIONS must not be negative")
	}
	if c.VideoDuration < time.Second {
		problems = append(problems, "VIDEO_DURATION must be at least 1 second")
	}
	if c.FrameRate < 1 || c.FrameRate > 120 {
		problems = append(problems, "FRAME_RATE must be between 1 and 120")
	}
	if c.VideoWidth < 16 || c.VideoHeight < 16 {
		problems = append(problems, "VIDEO_WIDTH and VIDEO_HEIGHT must be at least 16")
	}
	if len(c.VideoCodec) != 4 {
		problems = append(problems, "VIDEO_CODEC must be a four character code")
	}
	if c.CameraDevice == "" {
		problems = append(problems, "CAMERA_DEVICE must not be empty")
	}
	if c.OutputDirectory == "" {
		problems = append(problems, "OUTPUT_DIR must not be empty")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// String renders the settings that matter when starting the detector.
func (c *Config) String() string {
	return fmt.Sprintf("profile=%s threshold=%d minArea=%.0f video=%s@%dfps %dx%d output=%s",
		c.Profile, c.ThresholdValue, c.MinArea, c.VideoDuration, c.FrameRate, c.VideoWidth, c.VideoHeight, c.OutputDirectory)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsRune(key string, defaultValue rune) rune {
	if value := os.Getenv(key); value != "" {
		return []rune(value)[0]
	}
	return defaultValue
}
