//go:build cgo

package capture

import (
	"context"
	"log/slog"
	"time"

	"gocv.io/x/gocv"
)

func probeDevice(ctx context.Context, index int, backend Backend) DeviceInfo {
	info := DeviceInfo{Index: index, Backend: backend, Name: deviceName(index, backend)}

	cam, err := OpenCamera(CameraOptions{Device: index, Backend: backend})
	if err != nil {
		info.Error = err.Error()
		slog.Debug("probe: device unavailable", "index", index, "error", err)
		return info
	}
	defer cam.Close()

	if _, err := cam.Read(ctx); err != nil {
		info.Error = err.Error()
		return info
	}
	info.Width, info.Height, info.FPS = cam.Properties()
	info.OK = true
	return info
}

func previewDevice(ctx context.Context, d DeviceInfo, wait time.Duration) (int, error) {
	cam, err := OpenCamera(CameraOptions{Device: d.Index, Backend: d.Backend})
	if err != nil {
		return -1, err
	}
	defer cam.Close()

	img, err := cam.Read(ctx)
	if err != nil {
		return -1, err
	}

	win := NewWindow("Device=" + d.Name)
	defer win.Close()
	if err := win.Show(img); err != nil {
		return -1, err
	}
	return win.WaitKey(int(wait / time.Millisecond)), nil
}

// Version returns the OpenCV version gocv was built against.
func Version() string {
	return gocv.OpenCVVersion()
}
