// Package imaging provides the frame preprocessing and rendering used by the
// shape watcher.
//
// It turns camera frames into binary masks (grayscale, blur, threshold,
// morphology), draws annotations back onto frames, and caches still frames
// loaded from disk. All operations work with standard Go image.Image types
// and use a coordinate system where (0,0) is at the top-left corner, X
// increases rightward, and Y increases downward.
//
// # Thresholding
//
// The mask is what contour finding sees, so the threshold method is the main
// tuning knob:
//   - binary: fixed level; works under controlled lighting with a bright
//     object on a dark background
//   - binary_inv: fixed level for dark objects on a bright background
//   - otsu: level picked per frame from the histogram; adapts to exposure
//   - adaptive: local mean comparison; tolerates uneven lighting
//   - edges: Canny edges; outlines rather than filled regions
//
// # Thread Safety
//
// FrameCache is safe for concurrent use. Preprocess and Annotate are
// stateless and allocate their outputs, so they can run concurrently on
// different frames.
package imaging
