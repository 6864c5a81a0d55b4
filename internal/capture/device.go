package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrFrameRead is returned by Camera.Read when the device yields no frame.
var ErrFrameRead = errors.New("failed to read frame")

// Backend names a capture API.
type Backend string

const (
	BackendAny          Backend = "any"
	BackendV4L2         Backend = "v4l2"
	BackendDShow        Backend = "dshow"
	BackendMSMF         Backend = "msmf"
	BackendAVFoundation Backend = "avfoundation"
)

// known reports whether b is one of the named backends. The empty string
// means any.
func (b Backend) known() bool {
	switch b {
	case "", BackendAny, BackendV4L2, BackendDShow, BackendMSMF, BackendAVFoundation:
		return true
	}
	return false
}

// CameraOptions selects and configures a capture device. Zero Width, Height
// and FPS leave the driver defaults in place.
type CameraOptions struct {
	Device  int     `yaml:"device" json:"device"`
	Backend Backend `yaml:"backend" json:"backend"`
	Width   int     `yaml:"width" json:"width"`
	Height  int     `yaml:"height" json:"height"`
	FPS     float64 `yaml:"fps" json:"fps"`
}

// DefaultCameraOptions opens device 0 with whatever backend OpenCV picks.
func DefaultCameraOptions() CameraOptions {
	return CameraOptions{Device: 0, Backend: BackendAny}
}

// Validate checks the options without touching any device.
func (o CameraOptions) Validate() error {
	if o.Device < 0 {
		return fmt.Errorf("camera device must be >= 0, got %d", o.Device)
	}
	if !o.Backend.known() {
		return fmt.Errorf("unknown capture backend %q", o.Backend)
	}
	if o.Width < 0 || o.Height < 0 || o.FPS < 0 {
		return fmt.Errorf("camera width, height and fps must be >= 0")
	}
	return nil
}

// DeviceInfo describes one probed capture device.
type DeviceInfo struct {
	Index   int     `json:"index"`
	Backend Backend `json:"backend"`
	Name    string  `json:"name"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
	FPS     float64 `json:"fps,omitempty"`
	OK      bool    `json:"ok"`
	Error   string  `json:"error,omitempty"`
}

// ProbeDevices tries indices 0..maxIndex-1 with the given backend and reads
// one frame from each. Devices that fail to open are reported with OK false
// rather than skipped, so callers can show the whole scan.
func ProbeDevices(ctx context.Context, maxIndex int, backend Backend) []DeviceInfo {
	devices := make([]DeviceInfo, 0, maxIndex)
	for i := 0; i < maxIndex; i++ {
		if ctx.Err() != nil {
			break
		}
		devices = append(devices, probeDevice(ctx, i, backend))
	}
	return devices
}

func deviceName(index int, backend Backend) string {
	if backend == "" {
		backend = BackendAny
	}
	return fmt.Sprintf("%s:%d", backend, index)
}

// Preview opens each usable device in turn and shows a single frame in a
// window titled "Device=<name>", waiting up to wait for a key. Pressing q
// stops the preview early.
func Preview(ctx context.Context, devices []DeviceInfo, wait time.Duration) error {
	for _, d := range devices {
		if !d.OK {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		key, err := previewDevice(ctx, d, wait)
		if err != nil {
			slog.Warn("preview failed", "device", d.Name, "error", err)
			continue
		}
		if IsQuitKey(key) {
			return nil
		}
	}
	return nil
}

// IsQuitKey reports whether key (as returned by WaitKey) asks the loop to
// stop: q, Q or Esc.
func IsQuitKey(key int) bool {
	if key < 0 {
		return false
	}
	switch key & 0xFF {
	case 'q', 'Q', 27:
		return true
	}
	return false
}
