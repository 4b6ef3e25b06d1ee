// Package detector wraps the TensorFlow Lite leaf disease detection model.
// It exposes raw detections at a fixed internal floor confidence so that the
// diagnosis package can apply the user-facing threshold itself.
package detector

import "image"

// FloorConfidence is the fixed minimum confidence the engine runs at,
// independent of the user-facing threshold. Running low here keeps the raw
// candidate set near-complete so a threshold change never requires the caller
// to guess which detections were suppressed inside the engine.
const FloorConfidence = 0.01

// Detection is one raw model output: bounding box in source image pixel
// coordinates, class label and confidence score in [0,1].
type Detection struct {
	Box        image.Rectangle
	Label      string
	Confidence float64
}
