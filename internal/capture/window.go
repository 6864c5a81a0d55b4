//go:build cgo

package capture

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Window is a named on-screen window.
type Window struct {
	name string
	win  *gocv.Window
}

// NewWindow opens a window titled name.
func NewWindow(name string) *Window {
	return &Window{name: name, win: gocv.NewWindow(name)}
}

// Name returns the window title.
func (w *Window) Name() string {
	return w.name
}

// Show displays img. Grayscale images are shown as single-channel mats.
func (w *Window) Show(img image.Image) error {
	var (
		mat gocv.Mat
		err error
	)
	if gray, ok := img.(*image.Gray); ok {
		mat, err = gocv.ImageGrayToMatGray(gray)
	} else {
		mat, err = gocv.ImageToMatRGB(img)
	}
	if err != nil {
		return fmt.Errorf("failed to convert image for window %q: %w", w.name, err)
	}
	defer mat.Close()

	w.win.IMShow(mat)
	return nil
}

// WaitKey pumps the window event loop for up to delay milliseconds and
// returns the pressed key code, or -1 when no key was pressed.
func (w *Window) WaitKey(delay int) int {
	return w.win.WaitKey(delay)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
