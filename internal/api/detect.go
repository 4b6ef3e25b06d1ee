package api

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/melonguard/melonguard-go/internal/datastore"
	"github.com/melonguard/melonguard-go/internal/diagnosis"
	"github.com/melonguard/melonguard-go/internal/security"
	"github.com/melonguard/melonguard-go/internal/session"
)

// maxUploadBytes caps uploaded image size at 20 MiB.
const maxUploadBytes = 20 << 20

// initDetectionRoutes registers the detection endpoints, all behind auth.
func (c *Controller) initDetectionRoutes() {
	g := c.Group.Group("", c.Sessions.RequireAuth)
	g.POST("/detect", c.DetectUpload)
	g.PUT("/threshold", c.SetThreshold)
	g.GET("/result", c.CurrentResult)
}

// DiagnosisResponse is the JSON shape of a finalized diagnosis.
type DiagnosisResponse struct {
	Diseases          []string `json:"diseases"`
	AverageConfidence float64  `json:"averageConfidence"`
	Advisory          string   `json:"advisory"`
	AnnotatedImage    string   `json:"annotatedImage,omitempty"` // base64 PNG
	ThresholdUsed     float64  `json:"thresholdUsed"`
	Healthy           bool     `json:"healthy"`
	ImageName         string   `json:"imageName,omitempty"`
	Saved             bool     `json:"saved,omitempty"`
	Warning           string   `json:"warning,omitempty"`
}

// ThresholdRequest is the payload for threshold changes.
type ThresholdRequest struct {
	Threshold float64 `json:"threshold"`
}

// toDiagnosisResponse converts a Result for the wire, encoding the annotated
// image as base64 PNG.
func toDiagnosisResponse(result *diagnosis.Result, imageName string) DiagnosisResponse {
	resp := DiagnosisResponse{
		Diseases:          result.Diseases,
		AverageConfidence: result.AverageConfidence,
		Advisory:          result.Advisory,
		ThresholdUsed:     result.ThresholdUsed,
		Healthy:           result.Healthy(),
		ImageName:         imageName,
	}
	if result.Annotated != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, result.Annotated); err == nil {
			resp.AnnotatedImage = base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}
	return resp
}

// DetectUpload accepts a multipart image upload, runs the detection pipeline
// and automatically saves the result to history exactly once per new image.
func (c *Controller) DetectUpload(ctx echo.Context) error {
	identity := security.IdentityFrom(ctx)
	ctrl := c.controllerFor(identity)

	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing image file")
	}
	if fileHeader.Size > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read image file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read image file")
	}

	// SubmitImage decodes the upload itself; a decode failure below is the
	// single malformed-image path.
	start := time.Now()
	result, err := ctrl.SubmitImage(fileHeader.Filename, data)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable or unsupported image")
	}
	c.metrics.ObserveDetection(string(session.SourceUpload), time.Since(start))

	resp := toDiagnosisResponse(result, fileHeader.Filename)
	if result.Annotated == nil {
		resp.Warning = result.Advisory
	}

	// One-shot save: re-scores of the same image never reach this branch
	// again. A failed save is reported but leaves the displayed result
	// intact, and is not retried.
	if ctrl.ConsumePendingSave() {
		if err := c.saveToHistory(identity, fileHeader.Filename, data, result); err != nil {
			c.log.Warn("failed to save detection to history",
				"user", identity.Username, "error", err)
			c.metrics.CountSaveFailure()
			resp.Warning = "detection result could not be saved to history"
		} else {
			resp.Saved = true
		}
	}

	return ctx.JSON(http.StatusOK, resp)
}

// saveToHistory persists the uploaded image and its diagnosis.
func (c *Controller) saveToHistory(identity *security.Identity, imageName string,
	data []byte, result *diagnosis.Result) error {

	path, err := c.Images.Save(identity.Username, imageName, data)
	if err != nil {
		return err
	}

	rec := &datastore.Detection{
		UserID:          identity.UserID,
		ImagePath:       path,
		Confidence:      result.AverageConfidence,
		Recommendations: result.Advisory,
	}
	if err := rec.SetDiseases(result.Diseases); err != nil {
		return err
	}
	return c.DS.SaveDetection(rec)
}

// SetThreshold updates the session threshold, recomputing the displayed
// result when needed. This gives the re-score-without-re-uploading behavior
// of the threshold slider.
func (c *Controller) SetThreshold(ctx echo.Context) error {
	identity := security.IdentityFrom(ctx)
	ctrl := c.controllerFor(identity)

	var req ThresholdRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "threshold must be between 0 and 1")
	}

	result := ctrl.SetThreshold(req.Threshold)
	if result == nil {
		// No image submitted yet, nothing to recompute.
		return ctx.JSON(http.StatusOK, map[string]float64{"threshold": req.Threshold})
	}

	name, _, _ := ctrl.ImageInput()
	return ctx.JSON(http.StatusOK, toDiagnosisResponse(result, name))
}

// CurrentResult returns the session's current diagnosis for display,
// refreshed against the current threshold.
func (c *Controller) CurrentResult(ctx echo.Context) error {
	identity := security.IdentityFrom(ctx)
	ctrl := c.controllerFor(identity)

	if live, ok := ctrl.LiveInfo(); ok {
		return ctx.JSON(http.StatusOK, toDiagnosisResponse(&live, ""))
	}

	result := ctrl.Current()
	if result == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	name, _, _ := ctrl.ImageInput()
	return ctx.JSON(http.StatusOK, toDiagnosisResponse(result, name))
}
