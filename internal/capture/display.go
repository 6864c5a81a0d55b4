package capture

import "image"

// Display shows the annotated frame and the threshold mask side by side in
// two windows, the way the live loop presents them.
type Display struct {
	frame     *Window
	threshold *Window
}

// NewDisplay opens the "Frame" and "Threshold" windows.
func NewDisplay(frameTitle, thresholdTitle string) *Display {
	return &Display{
		frame:     NewWindow(frameTitle),
		threshold: NewWindow(thresholdTitle),
	}
}

// Show updates both windows and waits up to delay milliseconds for a key.
// quit is true for q, Q or Esc.
func (d *Display) Show(frame image.Image, mask *image.Gray, delay int) (quit bool, err error) {
	if err := d.frame.Show(frame); err != nil {
		return false, err
	}
	if err := d.threshold.Show(mask); err != nil {
		return false, err
	}
	return IsQuitKey(d.frame.WaitKey(delay)), nil
}

// Close destroys both windows.
func (d *Display) Close() error {
	err1 := d.frame.Close()
	err2 := d.threshold.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
