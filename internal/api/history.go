package api

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/melonguard/melonguard-go/internal/errors"
	"github.com/melonguard/melonguard-go/internal/security"
)

// initHistoryRoutes registers detection history endpoints, behind auth.
func (c *Controller) initHistoryRoutes() {
	g := c.Group.Group("", c.Sessions.RequireAuth)
	g.GET("/history", c.GetHistory)
	g.GET("/history/images/:name", c.GetHistoryImage)
}

// HistoryRecordResponse is one history entry in the API response.
type HistoryRecordResponse struct {
	ID              uint      `json:"id"`
	DetectionDate   time.Time `json:"detectionDate"`
	ImageName       string    `json:"imageName"`
	Diseases        []string  `json:"diseases"`
	Confidence      float64   `json:"confidence"`
	Recommendations string    `json:"recommendations"`
}

// GetHistory returns the authenticated user's detection history, newest
// first. No history is an empty list, not an error.
func (c *Controller) GetHistory(ctx echo.Context) error {
	identity := security.IdentityFrom(ctx)

	records, err := c.DS.GetUserDetections(identity.UserID)
	if err != nil {
		c.log.Error("failed to load history", "user", identity.Username, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load history")
	}

	resp := make([]HistoryRecordResponse, 0, len(records))
	for i := range records {
		rec := &records[i]
		resp = append(resp, HistoryRecordResponse{
			ID:              rec.ID,
			DetectionDate:   rec.DetectionDate,
			ImageName:       filepath.Base(rec.ImagePath),
			Diseases:        rec.DiseaseList(),
			Confidence:      rec.Confidence,
			Recommendations: rec.Recommendations,
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}

// GetHistoryImage serves a stored detection image by file name. The name
// must belong to one of the requesting user's own detection records; other
// users' images are indistinguishable from missing ones.
func (c *Controller) GetHistoryImage(ctx echo.Context) error {
	identity := security.IdentityFrom(ctx)
	name := ctx.Param("name")

	records, err := c.DS.GetUserDetections(identity.UserID)
	if err != nil {
		c.log.Error("failed to load history", "user", identity.Username, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read image")
	}
	owned := false
	for i := range records {
		if filepath.Base(records[i].ImagePath) == name {
			owned = true
			break
		}
	}
	if !owned {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}

	data, err := c.Images.Open(name)
	if err != nil {
		if errors.CategoryOf(err) == errors.CategoryNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "image not found")
		}
		if errors.CategoryOf(err) == errors.CategoryValidation {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid image name")
		}
		c.log.Error("failed to read history image", "name", name, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read image")
	}

	contentType := http.DetectContentType(data)
	return ctx.Blob(http.StatusOK, contentType, data)
}
