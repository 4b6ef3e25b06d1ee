package detector

import (
	"image"
	"sort"
)

// decodeOutput converts the raw YOLO style output tensor into detections.
// The tensor layout is [1][4+numClasses][numBoxes] where the first four
// channels are center x, center y, width and height in input pixels, followed
// by per-class scores. Only detections at or above floor are returned.
func decodeOutput(output []float32, numChannels, numBoxes int, labels []string, floor float64) []Detection {
	numClasses := numChannels - 4
	if numClasses <= 0 || len(output) < numChannels*numBoxes {
		return nil
	}

	var detections []Detection
	for i := 0; i < numBoxes; i++ {
		bestClass := -1
		bestScore := float32(0)
		for c := 0; c < numClasses; c++ {
			score := output[(4+c)*numBoxes+i]
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if bestClass < 0 || float64(bestScore) < floor {
			continue
		}

		cx := output[0*numBoxes+i]
		cy := output[1*numBoxes+i]
		w := output[2*numBoxes+i]
		h := output[3*numBoxes+i]

		label := "unknown"
		if bestClass < len(labels) {
			label = labels[bestClass]
		}

		detections = append(detections, Detection{
			Box: image.Rect(
				int(cx-w/2), int(cy-h/2),
				int(cx+w/2), int(cy+h/2),
			),
			Label:      label,
			Confidence: float64(bestScore),
		})
	}
	return detections
}

// nonMaxSuppression applies greedy per-class NMS with the given IoU
// threshold, keeping the highest confidence detection in each overlap group.
func nonMaxSuppression(detections []Detection, iouThreshold float64) []Detection {
	if len(detections) <= 1 {
		return detections
	}

	sorted := make([]Detection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	suppressed := make([]bool, len(sorted))
	var kept []Detection
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].Label != sorted[i].Label {
				continue
			}
			if iou(sorted[i].Box, sorted[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

// iou computes intersection over union of two boxes.
func iou(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}

// scaleToSource maps detection boxes from letterboxed input coordinates back
// to source image pixel coordinates, clamped to the image bounds.
func scaleToSource(detections []Detection, tf letterboxTransform, bounds image.Rectangle) []Detection {
	if tf.scale == 0 {
		return detections
	}
	for i := range detections {
		box := detections[i].Box
		x1 := int(float64(box.Min.X-tf.padX) / tf.scale)
		y1 := int(float64(box.Min.Y-tf.padY) / tf.scale)
		x2 := int(float64(box.Max.X-tf.padX) / tf.scale)
		y2 := int(float64(box.Max.Y-tf.padY) / tf.scale)
		detections[i].Box = image.Rect(x1, y1, x2, y2).Intersect(bounds)
	}
	return detections
}
