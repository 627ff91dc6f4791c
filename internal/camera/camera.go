// Package camera wraps the OpenCV capture device and display window used by the detector.
package camera

import (
	"fmt"
	"strconv"

	"motiondetector/internal/config"
	"motiondetector/internal/service"

	"gocv.io/x/gocv"
)

// Camera is an opened video source.
type Camera struct {
	capture *gocv.VideoCapture
	device  string
}

// Open opens the device named by the configuration and requests the configured
// resolution and frame rate. The device is either a numeric index or a file/URL.
func Open(config *config.Config) (*Camera, error) {
	var device interface{} = config.CameraDevice
	if id, err := strconv.Atoi(config.CameraDevice); err == nil {
		device = id
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, &service.CaptureError{Op: "open", Err: fmt.Errorf("device %s: %w", config.CameraDevice, err)}
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, &service.CaptureError{Op: "open", Err: fmt.Errorf("device %s could not be opened", config.CameraDevice)}
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(config.VideoWidth))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(config.VideoHeight))
	capture.Set(gocv.VideoCaptureFPS, float64(config.FrameRate))

	return &Camera{capture: capture, device: config.CameraDevice}, nil
}

// Read grabs the next frame into dst.
func (c *Camera) Read(dst *gocv.Mat) error {
	if c.capture == nil {
		return &service.CaptureError{Op: "read", Err: service.ErrCameraClosed}
	}
	if ok := c.capture.Read(dst); !ok || dst.Empty() {
		return &service.CaptureError{Op: "read", Err: fmt.Errorf("device %s: %w", c.device, service.ErrNoFrame)}
	}
	return nil
}

// Size reports the resolution the device actually delivers.
func (c *Camera) Size() (int, int) {
	if c.capture == nil {
		return 0, 0
	}
	return int(c.capture.Get(gocv.VideoCaptureFrameWidth)), int(c.capture.Get(gocv.VideoCaptureFrameHeight))
}

// Close releases the device. It is safe to call more than once.
func (c *Camera) Close() error {
	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}
