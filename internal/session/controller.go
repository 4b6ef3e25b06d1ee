package session

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"sync"

	// Register the image formats uploads may arrive in.
	_ "image/jpeg"
	_ "image/png"

	"github.com/melonguard/melonguard-go/internal/detector"
	"github.com/melonguard/melonguard-go/internal/diagnosis"
	"github.com/melonguard/melonguard-go/internal/errors"
	"github.com/melonguard/melonguard-go/internal/logging"
)

// Controller owns one user's detection state. All fields are guarded by mu;
// requests for the same session may arrive on different goroutines.
type Controller struct {
	engine Engine
	log    *slog.Logger

	mu        sync.Mutex
	threshold float64
	state     State
	source    Source

	// Upload mode state
	imageBytes  []byte
	imageName   string
	img         image.Image
	current     *diagnosis.Result
	pendingSave bool

	// Live mode state, written by the stream callback and read by renders
	live *Cell
}

// NewController creates a controller with the given engine and starting
// threshold. A nil engine is allowed and makes every detection produce an
// error-shaped result.
func NewController(engine Engine, threshold float64) *Controller {
	return &Controller{
		engine:    engine,
		threshold: threshold,
		state:     StateIdle,
		live:      NewCell(),
		log:       logging.ForModule("session"),
	}
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Threshold returns the currently configured confidence threshold.
func (c *Controller) Threshold() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threshold
}

// SubmitImage handles a new uploaded image. If the identity (name) and source
// match the stored input, the existing result is reused, recomputed first if
// the threshold changed. A genuinely new image discards the previous result
// and arms the one-shot pending-save flag.
func (c *Controller) SubmitImage(name string, data []byte) (*diagnosis.Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(fmt.Errorf("cannot decode uploaded image: %w", err)).
			Component("session").
			Category(errors.CategoryImageDecode).
			Context("image_name", name).
			Build()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sameIdentity := c.source == SourceUpload && c.imageName == name && c.imageBytes != nil
	if sameIdentity {
		c.refreshLocked()
		return c.current, nil
	}

	// New image or source switch: previous result is invalid.
	c.source = SourceUpload
	c.imageBytes = data
	c.imageName = name
	c.img = img
	c.current = nil
	c.live.Clear()
	c.state = StatePending

	c.runLocked()
	c.pendingSave = true

	c.log.Debug("new image submitted",
		"name", name,
		"threshold", c.threshold,
		"state", c.state.String())

	return c.current, nil
}

// SetThreshold updates the configured threshold. When an upload result is
// displayed for a different threshold it becomes stale and is immediately
// recomputed by re-invoking the engine on the stored image. Re-scores never
// re-arm the pending-save flag. The returned result is nil while idle.
func (c *Controller) SetThreshold(threshold float64) *diagnosis.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.threshold = threshold
	c.refreshLocked()
	return c.current
}

// refreshLocked recomputes the current upload result if it was produced with
// a different threshold. Caller must hold mu.
func (c *Controller) refreshLocked() {
	if c.source != SourceUpload || c.img == nil {
		return
	}
	if c.current != nil && c.current.ThresholdUsed == c.threshold {
		c.state = StateDisplayed
		return
	}
	if c.current != nil {
		c.state = StateStale
	} else {
		c.state = StatePending
	}
	c.runLocked()
}

// runLocked invokes the engine on the stored image and stores the aggregated
// result. Engine unavailability becomes an error-shaped result so rendering
// always has a well-formed object. Caller must hold mu.
func (c *Controller) runLocked() {
	result := c.detect(c.img, c.threshold)
	c.current = &result
	c.state = StateDisplayed
}

// detect runs one image through the engine and the aggregation policy.
func (c *Controller) detect(img image.Image, threshold float64) diagnosis.Result {
	if c.engine == nil {
		return diagnosis.ErrorResult(threshold, EngineUnavailableMessage)
	}
	detections, err := c.engine.Detect(img)
	if err != nil {
		if errors.Is(err, detector.ErrEngineUnavailable) {
			return diagnosis.ErrorResult(threshold, EngineUnavailableMessage)
		}
		c.log.Error("detection failed", "error", err)
		return diagnosis.ErrorResult(threshold, EngineUnavailableMessage)
	}
	return diagnosis.Aggregate(img, detections, threshold)
}

// Current returns the result for display, refreshing it first if the
// threshold changed since it was computed. Nil while idle or in live mode.
func (c *Controller) Current() *diagnosis.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()
	return c.current
}

// ImageInput returns the stored upload input, or ok=false when none is held.
func (c *Controller) ImageInput() (name string, data []byte, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source != SourceUpload || c.imageBytes == nil {
		return "", nil, false
	}
	return c.imageName, c.imageBytes, true
}

// ConsumePendingSave returns true exactly once after each new image
// submission. Subsequent threshold changes on the same image never re-arm it,
// which guarantees at most one history record per uploaded image.
func (c *Controller) ConsumePendingSave() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pendingSave {
		return false
	}
	c.pendingSave = false
	return true
}

// HandleFrame processes one live video frame at the current threshold and
// publishes the result to the session's live cell. Switching into live mode
// invalidates any upload-mode result. Frames are never persisted.
func (c *Controller) HandleFrame(frame image.Image) diagnosis.Result {
	c.mu.Lock()
	if c.source != SourceWebcamLive {
		c.source = SourceWebcamLive
		c.imageBytes = nil
		c.imageName = ""
		c.img = nil
		c.current = nil
		c.pendingSave = false
		c.state = StateIdle
	}
	threshold := c.threshold
	c.mu.Unlock()

	// Inference runs outside the state lock, only the frame cell is shared
	// with concurrent renders.
	result := c.detect(frame, threshold)
	c.live.Set(result)
	return result
}

// LiveInfo returns the latest live-frame result, ok=false when no stream is
// active.
func (c *Controller) LiveInfo() (diagnosis.Result, bool) {
	return c.live.Get()
}

// StopStream clears the live result so a render after the stream ends never
// shows stale info.
func (c *Controller) StopStream() {
	c.live.Clear()
	c.log.Debug("live stream stopped")
}
