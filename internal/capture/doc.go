// Package capture wraps OpenCV (through gocv) for the parts of the shape
// watcher that touch hardware: opening a webcam, probing which device
// indices work, and showing frames in on-screen windows.
//
// Everything else in the module works on image.Image values, so this is the
// only package that needs OpenCV installed. Frames leave Camera.Read already
// converted to image.Image, and windows accept image.Image on the way back.
//
// The option, backend and device-info types carry no OpenCV dependency, so
// config and the MCP server build with CGO_ENABLED=0. In such builds the
// device and window operations fail with ErrNoOpenCV.
//
// Windows must be created and pumped from the same goroutine (OpenCV's
// HighGUI is not thread-safe); the frame loop does both.
package capture
