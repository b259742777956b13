package detection

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// HOGDetector is the software fallback when no ONNX model is present: the
// classic OpenCV HOG pedestrian detector. Slower and noisier than YOLO, but
// it needs no model file.
type HOGDetector struct {
	hog gocv.HOGDescriptor
	mu  sync.Mutex
}

// NewHOG creates the fallback pedestrian detector.
func NewHOG() (*HOGDetector, error) {
	hog := gocv.NewHOGDescriptor()
	if err := hog.SetSVMDetector(gocv.HOGDefaultPeopleDetector()); err != nil {
		hog.Close()
		return nil, fmt.Errorf("set HOG people detector: %w", err)
	}
	return &HOGDetector{hog: hog}, nil
}

// Detect finds people in the JPEG image. HOG reports no confidence, so every
// hit carries a fixed mid-range score; SelectBest then effectively picks the
// largest box.
func (d *HOGDetector) Detect(jpeg []byte) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	rects := d.hog.DetectMultiScale(img)

	detections := make([]Detection, 0, len(rects))
	for _, r := range rects {
		detections = append(detections, Detection{
			X:          float64(r.Min.X) / imgW,
			Y:          float64(r.Min.Y) / imgH,
			W:          float64(r.Dx()) / imgW,
			H:          float64(r.Dy()) / imgH,
			Confidence: 0.5,
		})
	}

	return detections, nil
}

// Close releases the detector resources.
func (d *HOGDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hog.Close()
}
