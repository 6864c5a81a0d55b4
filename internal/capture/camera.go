//go:build cgo

package capture

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"gocv.io/x/gocv"
)

// api maps the backend to its OpenCV preference. The empty string means any.
func (b Backend) api() (gocv.VideoCaptureAPI, error) {
	switch b {
	case BackendAny, "":
		return gocv.VideoCaptureAny, nil
	case BackendV4L2:
		return gocv.VideoCaptureV4L2, nil
	case BackendDShow:
		return gocv.VideoCaptureDshow, nil
	case BackendMSMF:
		return gocv.VideoCaptureMSMF, nil
	case BackendAVFoundation:
		return gocv.VideoCaptureAVFoundation, nil
	default:
		return 0, fmt.Errorf("unknown capture backend %q", b)
	}
}

// Camera reads frames from a capture device.
type Camera struct {
	opts  CameraOptions
	vc    *gocv.VideoCapture
	frame gocv.Mat
}

// OpenCamera opens the device and applies any requested resolution and frame
// rate. The driver may ignore the requests; Properties reports what it chose.
func OpenCamera(opts CameraOptions) (*Camera, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	api, _ := opts.Backend.api()

	vc, err := gocv.OpenVideoCaptureWithAPI(opts.Device, api)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", opts.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("failed to open camera %d: device not available", opts.Device)
	}

	if opts.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
	}
	if opts.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	}
	if opts.FPS > 0 {
		vc.Set(gocv.VideoCaptureFPS, opts.FPS)
	}

	c := &Camera{opts: opts, vc: vc, frame: gocv.NewMat()}
	w, h, fps := c.Properties()
	slog.Info("camera opened", "device", opts.Device, "backend", string(opts.Backend),
		"width", w, "height", h, "fps", fps)
	return c, nil
}

// Read grabs the next frame. An empty or failed read returns ErrFrameRead.
func (c *Camera) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := c.vc.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, fmt.Errorf("camera %d: %w", c.opts.Device, ErrFrameRead)
	}
	img, err := c.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, nil
}

// Properties reports the resolution and frame rate the driver settled on.
func (c *Camera) Properties() (width, height int, fps float64) {
	return int(c.vc.Get(gocv.VideoCaptureFrameWidth)),
		int(c.vc.Get(gocv.VideoCaptureFrameHeight)),
		c.vc.Get(gocv.VideoCaptureFPS)
}

// Close releases the device.
func (c *Camera) Close() error {
	c.frame.Close()
	return c.vc.Close()
}
