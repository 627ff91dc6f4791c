package camera

import (
	"time"

	"gocv.io/x/gocv"
)

// Window shows frames in a titled OpenCV window and reads the keyboard.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	return &Window{window: gocv.NewWindow(title)}
}

// Show draws img in the window.
func (w *Window) Show(img gocv.Mat) {
	if w.window == nil {
		return
	}
	w.window.IMShow(img)
}

// WaitKey waits up to delay for a key press and returns its code, or -1.
func (w *Window) WaitKey(delay time.Duration) int {
	if w.window == nil {
		return -1
	}
	ms := int(delay / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return w.window.WaitKey(ms)
}

// Close destroys the window. It is safe to call more than once.
func (w *Window) Close() error {
	if w.window == nil {
		return nil
	}
	err := w.window.Close()
	w.window = nil
	return err
}

// Headless is a display without a screen. It never reports a key press,
// so only context cancellation stops a headless session.
type Headless struct{}

// Show discards the frame.
func (Headless) Show(gocv.Mat) {}

// WaitKey returns -1 immediately.
func (Headless) WaitKey(time.Duration) int { return -1 }

// Close does nothing.
func (Headless) Close() error { return nil }
