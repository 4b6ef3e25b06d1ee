package api

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/melonguard/melonguard-go/internal/diagnosis"
	"github.com/melonguard/melonguard-go/internal/security"
	"github.com/melonguard/melonguard-go/internal/session"
)

// initLiveRoutes registers the live stream endpoint, behind auth.
func (c *Controller) initLiveRoutes() {
	g := c.Group.Group("", c.Sessions.RequireAuth)
	g.GET("/live", c.LiveDetection)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 << 10,
	WriteBufferSize: 64 << 10,
	// The session cookie already authenticated the request.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveFrameResponse is the per-frame reply on the live websocket.
type LiveFrameResponse struct {
	Diseases          []string `json:"diseases"`
	AverageConfidence float64  `json:"averageConfidence"`
	Advisory          string   `json:"advisory"`
	AnnotatedFrame    string   `json:"annotatedFrame,omitempty"` // base64 JPEG
	Healthy           bool     `json:"healthy"`
}

// LiveDetection upgrades to a websocket and runs detection on each received
// frame. The client sends binary JPEG frames; the server replies with the
// diagnosis and the annotated frame. Frames are never persisted; closing the
// socket clears the session's live info so renders after the stream ends do
// not show stale data.
func (c *Controller) LiveDetection(ctx echo.Context) error {
	identity := security.IdentityFrom(ctx)
	ctrl := c.controllerFor(identity)

	ws, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "websocket upgrade failed")
	}
	defer ws.Close()
	defer ctrl.StopStream()

	c.log.Debug("live stream started", "user", identity.Username)

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			// Normal closure or transport failure, either way the stream is
			// over.
			c.log.Debug("live stream ended", "user", identity.Username)
			return nil
		}
		if messageType != websocket.BinaryMessage {
			continue
		}

		frame, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			if writeErr := ws.WriteJSON(map[string]string{"error": "unreadable frame"}); writeErr != nil {
				return nil
			}
			continue
		}

		start := time.Now()
		result := ctrl.HandleFrame(frame)
		c.metrics.ObserveDetection(string(session.SourceWebcamLive), time.Since(start))

		if err := ws.WriteJSON(toLiveFrameResponse(&result)); err != nil {
			return nil
		}
	}
}

// toLiveFrameResponse converts a frame result for the wire. JPEG keeps the
// per-frame payload small.
func toLiveFrameResponse(result *diagnosis.Result) LiveFrameResponse {
	resp := LiveFrameResponse{
		Diseases:          result.Diseases,
		AverageConfidence: result.AverageConfidence,
		Advisory:          result.Advisory,
		Healthy:           result.Healthy(),
	}
	if result.Annotated != nil {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, result.Annotated, &jpeg.Options{Quality: 80}); err == nil {
			resp.AnnotatedFrame = base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}
	return resp
}
