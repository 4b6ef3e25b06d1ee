// Package session manages per-user detection state across repeated
// interactions: re-running aggregation on threshold changes, discarding state
// when the input or source changes, and guaranteeing at most one history save
// per uploaded image. State is driven by discrete events (new image,
// threshold change, live frame, stream stop) rather than implicit re-renders.
package session

import (
	"image"

	"github.com/melonguard/melonguard-go/internal/detector"
)

// Source tags where the current input came from.
type Source string

const (
	SourceNone       Source = ""
	SourceUpload     Source = "upload"
	SourceWebcamLive Source = "webcam_live"
)

// State is the controller's position in the detection lifecycle for the
// current input.
type State int

const (
	// StateIdle means no image or frame has been submitted yet.
	StateIdle State = iota
	// StatePending means a new image arrived and aggregation has not yet run
	// for the current threshold.
	StatePending
	// StateDisplayed means a result exists and was computed with the current
	// threshold.
	StateDisplayed
	// StateStale means a result exists but the threshold has changed since
	// it was computed, so it must not be shown before recomputation.
	StateStale
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateDisplayed:
		return "displayed"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Engine abstracts the detection engine for the controller. A nil engine or
// one returning detector.ErrEngineUnavailable means the detection capability
// is permanently disabled for this process.
type Engine interface {
	Detect(img image.Image) ([]detector.Detection, error)
}

// EngineUnavailableMessage is shown in place of an advisory when the model
// failed to load.
const EngineUnavailableMessage = "Model deteksi tidak tersedia. Silakan hubungi administrator."
