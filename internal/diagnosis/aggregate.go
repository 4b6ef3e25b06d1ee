package diagnosis

import (
	"fmt"
	"image"

	"github.com/melonguard/melonguard-go/internal/detector"
)

// Result is the finalized, threshold-applied outcome for one image or frame.
type Result struct {
	// Diseases is the ordered list of human readable findings. It is either
	// the formatted disease detections, or a single sentinel entry
	// (HealthyLabel or NotDetectedSentinel).
	Diseases []string

	// AverageConfidence is the arithmetic mean over the retained disease
	// detections, or the healthy detection's score on the healthy branch, or
	// 0.0 when nothing met the threshold.
	AverageConfidence float64

	// Advisory is the label-keyed guidance text, empty on the healthy branch.
	Advisory string

	// Annotated is a copy of the input with boxes and labels drawn for
	// disease detections only. Healthy and sub-threshold detections are
	// never drawn. Nil for error-shaped results.
	Annotated image.Image

	// ThresholdUsed is the confidence threshold this result was computed
	// with. A cached result is only valid for display while it matches the
	// currently configured threshold.
	ThresholdUsed float64
}

// Healthy reports whether the result is the healthy-leaf diagnosis.
func (r *Result) Healthy() bool {
	return len(r.Diseases) == 1 && r.Diseases[0] == HealthyLabel
}

// healthyInfo records the best healthy detection seen during aggregation.
type healthyInfo struct {
	box   image.Rectangle
	score float64
}

// Aggregate applies the user threshold to the raw detections and produces the
// final diagnosis. Disease detections always take priority over a
// simultaneous healthy detection: a single positive disease signal anywhere
// in the frame overrides a healthy classification.
func Aggregate(img image.Image, detections []detector.Detection, threshold float64) Result {
	annotated := cloneImage(img)

	var (
		diseases  []string
		seen      = make(map[Disease]bool)
		seenAny   = false
		confSum   float64
		confCount int
		healthy   *healthyInfo
	)

	for _, det := range detections {
		if det.Label == HealthyLabel {
			// Keep only the single highest confidence healthy detection that
			// meets the threshold. It is never drawn.
			if det.Confidence >= threshold && (healthy == nil || det.Confidence > healthy.score) {
				healthy = &healthyInfo{box: det.Box, score: det.Confidence}
			}
			continue
		}

		if det.Confidence < threshold {
			continue
		}

		drawDetection(annotated, det)
		diseases = append(diseases, fmt.Sprintf("%s (%.1f%%)", det.Label, det.Confidence*100))
		seen[ParseLabel(det.Label)] = true
		seenAny = true
		confSum += det.Confidence
		confCount++
	}

	switch {
	case seenAny:
		return Result{
			Diseases:          diseases,
			AverageConfidence: confSum / float64(confCount),
			Advisory:          advisoryFor(seen),
			Annotated:         annotated,
			ThresholdUsed:     threshold,
		}
	case healthy != nil:
		return Result{
			Diseases:          []string{HealthyLabel},
			AverageConfidence: healthy.score,
			Advisory:          "",
			Annotated:         annotated,
			ThresholdUsed:     threshold,
		}
	default:
		return Result{
			Diseases:          []string{NotDetectedSentinel},
			AverageConfidence: 0.0,
			Advisory:          advisoryNotDetected,
			Annotated:         annotated,
			ThresholdUsed:     threshold,
		}
	}
}

// advisoryFor concatenates the advisory sentence for each seen disease in
// fixed enumeration order, falling back to the consult-an-expert message if
// no seen disease has a dedicated sentence.
func advisoryFor(seen map[Disease]bool) string {
	var advisory string
	for _, d := range advisoryOrder {
		if seen[d] {
			advisory += advisoryTable[d]
		}
	}
	if advisory == "" {
		advisory = advisoryConsultExpert
	}
	return advisory
}

// ErrorResult builds the well-formed error-shaped result used when the
// detection engine is unavailable, so the rendering layer always has a
// complete object to display.
func ErrorResult(threshold float64, msg string) Result {
	return Result{
		Diseases:          []string{},
		AverageConfidence: 0.0,
		Advisory:          msg,
		Annotated:         nil,
		ThresholdUsed:     threshold,
	}
}
