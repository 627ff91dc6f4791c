// Package recorder writes fixed-size, fixed-rate video clips of motion events.
package recorder

import (
	"image"

	"motiondetector/internal/config"
	"motiondetector/internal/service"

	"gocv.io/x/gocv"
)

// Recorder owns one open video file. Frames of a different size are scaled
// to the recorder size before being written.
type Recorder struct {
	writer  *gocv.VideoWriter
	path    string
	size    image.Point
	resized gocv.Mat
	frames  int
}

// Open creates the video file at path. The codec is a four character code such as XVID.
func Open(path, codec string, fps float64, width, height int) (*Recorder, error) {
	writer, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, &service.EncodingError{Op: "open", Path: path, Err: err}
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, &service.EncodingError{Op: "open", Path: path, Err: service.ErrWriterNotOpened}
	}

	return &Recorder{
		writer:  writer,
		path:    path,
		size:    image.Pt(width, height),
		resized: gocv.NewMat(),
	}, nil
}

// Opener returns a function that opens recorders with the configured codec, rate and size.
func Opener(config *config.Config) func(path string) (*Recorder, error) {
	return func(path string) (*Recorder, error) {
		return Open(path, config.VideoCodec, float64(config.FrameRate), config.VideoWidth, config.VideoHeight)
	}
}

// Write appends one frame to the clip.
func (r *Recorder) Write(frame gocv.Mat) error {
	if frame.Empty() {
		return &service.EncodingError{Op: "write", Path: r.path, Err: service.ErrNoFrame}
	}

	img := frame
	if frame.Cols() != r.size.X || frame.Rows() != r.size.Y {
		gocv.Resize(frame, &r.resized, r.size, 0, 0, gocv.InterpolationLinear)
		img = r.resized
	}

	if err := r.writer.Write(img); err != nil {
		return &service.EncodingError{Op: "write", Path: r.path, Err: err}
	}
	r.frames++
	return nil
}

// Frames returns how many frames have been written.
func (r *Recorder) Frames() int {
	return r.frames
}

// Path returns the file being written.
func (r *Recorder) Path() string {
	return r.path
}

// Close finalizes the file. It is safe to call more than once.
func (r *Recorder) Close() error {
	if r.writer == nil {
		return nil
	}

	err := r.writer.Close()
	r.writer = nil
	r.resized.Close()

	if err != nil {
		return &service.EncodingError{Op: "close", Path: r.path, Err: err}
	}
	return nil
}
