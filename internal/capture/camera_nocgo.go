//go:build !cgo

package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"
)

// ErrNoOpenCV is returned by every device and window operation in builds
// without cgo.
var ErrNoOpenCV = errors.New("capture: built without cgo, OpenCV is unavailable")

// Camera is unusable without cgo; OpenCamera always fails.
type Camera struct{}

// OpenCamera validates opts and then reports ErrNoOpenCV.
func OpenCamera(opts CameraOptions) (*Camera, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("failed to open camera %d: %w", opts.Device, ErrNoOpenCV)
}

func (c *Camera) Read(context.Context) (image.Image, error) { return nil, ErrNoOpenCV }

func (c *Camera) Properties() (width, height int, fps float64) { return 0, 0, 0 }

func (c *Camera) Close() error { return nil }

func probeDevice(_ context.Context, index int, backend Backend) DeviceInfo {
	return DeviceInfo{
		Index:   index,
		Backend: backend,
		Name:    deviceName(index, backend),
		Error:   ErrNoOpenCV.Error(),
	}
}

func previewDevice(context.Context, DeviceInfo, time.Duration) (int, error) {
	return -1, ErrNoOpenCV
}

// Version reports that no OpenCV is linked.
func Version() string {
	return "none"
}

// Window is a no-op stand-in; Show always fails.
type Window struct {
	name string
}

func NewWindow(name string) *Window { return &Window{name: name} }

func (w *Window) Name() string { return w.name }

func (w *Window) Show(image.Image) error { return ErrNoOpenCV }

func (w *Window) WaitKey(int) int { return -1 }

func (w *Window) Close() error { return nil }
