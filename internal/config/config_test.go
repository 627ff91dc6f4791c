package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults_Profiles(t *testing.T) {
	tests := []struct {
		profile   string
		threshold int
		minArea   float64
		snapshots bool
		video     bool
		logEvents bool
		delay     time.Duration
	}{
		{ProfileFull, 12, 100, true, true, true, time.Millisecond},
		{ProfileBasic, 12, 100, false, true, true, time.Millisecond},
		{ProfileMinimal, 25, 1000, false, false, false, 30 * time.Millisecond},
		{"", 12, 100, true, true, true, time.Millisecond},
		{"unknown", 12, 100, true, true, true, time.Millisecond},
		{" MINIMAL ", 25, 1000, false, false, false, 30 * time.Millisecond},
	}

	for _, tt := range tests {
		cfg := Defaults(tt.profile)
		if cfg.ThresholdValue != tt.threshold {
			t.Errorf("Defaults(%q).ThresholdValue = %d, expected %d", tt.profile, cfg.ThresholdValue, tt.threshold)
		}
		if cfg.MinArea != tt.minArea {
			t.Errorf("Defaults(%q).MinArea = %v, expected %v", tt.profile, cfg.MinArea, tt.minArea)
		}
		if cfg.SaveSnapshots != tt.snapshots {
			t.Errorf("Defaults(%q).SaveSnapshots = %v, expected %v", tt.profile, cfg.SaveSnapshots, tt.snapshots)
		}
		if cfg.RecordVideo != tt.video {
			t.Errorf("Defaults(%q).RecordVideo = %v, expected %v", tt.profile, cfg.RecordVideo, tt.video)
		}
		if cfg.LogEvents != tt.logEvents {
			t.Errorf("Defaults(%q).LogEvents = %v, expected %v", tt.profile, cfg.LogEvents, tt.logEvents)
		}
		if cfg.DisplayDelay != tt.delay {
			t.Errorf("Defaults(%q).DisplayDelay = %v, expected %v", tt.profile, cfg.DisplayDelay, tt.delay)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Defaults(%q) should be valid, got %v", tt.profile, err)
		}
	}
}

func TestDefaults_FixedRecordingParameters(t *testing.T) {
	cfg := Defaults(ProfileFull)

	if cfg.FrameRate != 30 {
		t.Errorf("Expected frame rate 30, got %d", cfg.FrameRate)
	}
	if cfg.VideoWidth != 640 || cfg.VideoHeight != 480 {
		t.Errorf("Expected 640x480, got %dx%d", cfg.VideoWidth, cfg.VideoHeight)
	}
	if cfg.VideoCodec != "XVID" {
		t.Errorf("Expected XVID codec, got %s", cfg.VideoCodec)
	}
	if cfg.BlurSize != 21 || cfg.DilateIterations != 2 {
		t.Errorf("Expected blur 21 and 2 dilations, got %d and %d", cfg.BlurSize, cfg.DilateIterations)
	}
	if cfg.QuitKey != 'q' {
		t.Errorf("Expected quit key 'q', got %q", cfg.QuitKey)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DETECTOR_PROFILE", "basic")
	t.Setenv("THRESHOLD_VALUE", "40")
	t.Setenv("MIN_AREA", "250.5")
	t.Setenv("VIDEO_DURATION", "3")
	t.Setenv("SAVE_SNAPSHOTS", "true")
	t.Setenv("SHOW_WINDOW", "false")
	t.Setenv("QUIT_KEY", "x")
	t.Setenv("OUTPUT_DIR", "/tmp/motion")
	t.Setenv("EVENT_DB", "/tmp/motion/events.db")

	cfg := Load()

	if cfg.Profile != ProfileBasic {
		t.Errorf("Expected profile basic, got %s", cfg.Profile)
	}
	if cfg.ThresholdValue != 40 {
		t.Errorf("Expected threshold 40, got %d", cfg.ThresholdValue)
	}
	if cfg.MinArea != 250.5 {
		t.Errorf("Expected min area 250.5, got %v", cfg.MinArea)
	}
	if cfg.VideoDuration != 3*time.Second {
		t.Errorf("Expected 3s video, got %v", cfg.VideoDuration)
	}
	if !cfg.SaveSnapshots {
		t.Error("SAVE_SNAPSHOTS should override the basic profile")
	}
	if cfg.ShowWindow {
		t.Error("SHOW_WINDOW=false should disable the window")
	}
	if cfg.QuitKey != 'x' {
		t.Errorf("Expected quit key 'x', got %q", cfg.QuitKey)
	}
	if cfg.EventDatabase != "/tmp/motion/events.db" {
		t.Errorf("Unexpected event database %s", cfg.EventDatabase)
	}
	if got := cfg.MotionLogPath(); got != filepath.Join("/tmp/motion", "log.txt") {
		t.Errorf("Unexpected motion log path %s", got)
	}
}

func TestLoad_InvalidNumbersKeepDefaults(t *testing.T) {
	t.Setenv("DETECTOR_PROFILE", "full")
	t.Setenv("THRESHOLD_VALUE", "abc")
	t.Setenv("MIN_AREA", "lots")
	t.Setenv("RECORD_VIDEO", "maybe")
	t.Setenv("FRAME_RATE", "12.5")

	cfg := Load()

	if cfg.ThresholdValue != 12 {
		t.Errorf("Expected default threshold, got %d", cfg.ThresholdValue)
	}
	if cfg.MinArea != 100 {
		t.Errorf("Expected default min area, got %v", cfg.MinArea)
	}
	if !cfg.RecordVideo {
		t.Error("Expected default RecordVideo=true")
	}
	if cfg.FrameRate != 30 {
		t.Errorf("Expected default frame rate, got %d", cfg.FrameRate)
	}
}

func TestMotionLogPath_Absolute(t *testing.T) {
	cfg := Defaults(ProfileFull)
	cfg.OutputDirectory = "/data"
	cfg.MotionLogFile = "/var/log/motion.txt"

	if got := cfg.MotionLogPath(); got != "/var/log/motion.txt" {
		t.Errorf("Expected absolute log path to be kept, got %s", got)
	}
}

func TestEventsEnabled(t *testing.T) {
	if Defaults(ProfileMinimal).EventsEnabled() {
		t.Error("Minimal profile should not raise events")
	}
	if !Defaults(ProfileBasic).EventsEnabled() {
		t.Error("Basic profile should raise events")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"threshold zero", func(c *Config) { c.ThresholdValue = 0 }, "THRESHOLD_VALUE"},
		{"threshold too big", func(c *Config) { c.ThresholdValue = 300 }, "THRESHOLD_VALUE"},
		{"negative area", func(c *Config) { c.MinArea = -1 }, "MIN_AREA"},
		{"even blur", func(c *Config) { c.BlurSize = 20 }, "BLUR_SIZE"},
		{"short video", func(c *Config) { c.VideoDuration = 500 * time.Millisecond }, "VIDEO_DURATION"},
		{"zero fps", func(c *Config) { c.FrameRate = 0 }, "FRAME_RATE"},
		{"tiny frame", func(c *Config) { c.VideoWidth = 8 }, "VIDEO_WIDTH"},
		{"bad codec", func(c *Config) { c.VideoCodec = "H264X" }, "VIDEO_CODEC"},
		{"no camera", func(c *Config) { c.CameraDevice = "" }, "CAMERA_DEVICE"},
	}

	for _, tt := range tests {
		cfg := Defaults(ProfileFull)
		tt.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected error mentioning %s, got %v", tt.name, tt.want, err)
		}
	}
}
