package vision

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/your-org/gradgate/internal/config"
	"github.com/your-org/gradgate/internal/models"
	"github.com/your-org/gradgate/internal/observability"
)

// Extractor turns a face photo into a 512-d embedding. Both ONNX sessions
// are created once, at process start, and reused for every call; reloading
// the models per request is what made the previous system slow.
//
// The sessions bind fixed input/output tensors, so inference is serialized
// behind a mutex. Callers share one Extractor across all requests.
type Extractor struct {
	mu       sync.Mutex
	detector *Detector
	embedder *Embedder
}

// NewExtractor loads the detection and embedding models from cfg.ModelsDir.
// The ONNX runtime environment must already be initialized.
func NewExtractor(cfg config.VisionConfig) (*Extractor, error) {
	detPath := filepath.Join(cfg.ModelsDir, "det_10g.onnx")
	embPath := filepath.Join(cfg.ModelsDir, "w600k_r50.onnx")

	slog.Info("loading detection model", "path", detPath)
	det, err := NewDetector(detPath, float32(cfg.DetectionThreshold))
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	slog.Info("loading embedding model", "path", embPath)
	emb, err := NewEmbedder(embPath)
	if err != nil {
		det.Close()
		return nil, fmt.Errorf("load embedder: %w", err)
	}

	return &Extractor{detector: det, embedder: emb}, nil
}

// Extract detects the face in img and returns its embedding together with
// the detection confidence. When the image contains more than one face, the
// highest-confidence detection is used; there is no disambiguation upstream,
// so that policy is fixed here and covered by tests.
func (e *Extractor) Extract(img image.Image) ([]float32, float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	bounds := img.Bounds()
	origW := bounds.Dx()
	origH := bounds.Dy()

	start := time.Now()
	detInput := preprocessForDetection(img, e.detector.inputW, e.detector.inputH)
	detections, err := e.detector.Detect(detInput, origW, origH)
	if err != nil {
		return nil, 0, fmt.Errorf("detect: %w", err)
	}
	observability.InferenceDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())

	if len(detections) == 0 {
		return nil, 0, models.ErrNoFaceDetected
	}
	best := bestDetection(detections)

	faceCrop := cropFace(img, best.BBox)
	if faceCrop == nil {
		return nil, 0, models.ErrNoFaceDetected
	}

	start = time.Now()
	embInput := preprocessForEmbedding(faceCrop, e.embedder.inputW, e.embedder.inputH)
	embedding, err := e.embedder.Extract(embInput)
	if err != nil {
		return nil, 0, fmt.Errorf("embed: %w", err)
	}
	observability.InferenceDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())

	return embedding, best.Confidence, nil
}

// bestDetection returns the detection with the highest confidence.
func bestDetection(detections []Detection) Detection {
	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return best
}

// Close releases both ONNX sessions.
func (e *Extractor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detector != nil {
		e.detector.Close()
	}
	if e.embedder != nil {
		e.embedder.Close()
	}
}
