// Package api exposes the detection pipeline over HTTP: account handling,
// image upload detection, threshold changes, live frame streaming over
// websockets, and detection history.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/melonguard/melonguard-go/internal/conf"
	"github.com/melonguard/melonguard-go/internal/datastore"
	"github.com/melonguard/melonguard-go/internal/imagestore"
	"github.com/melonguard/melonguard-go/internal/logging"
	"github.com/melonguard/melonguard-go/internal/security"
	"github.com/melonguard/melonguard-go/internal/session"
)

// Controller wires the HTTP routes to the application components.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings

	DS       datastore.Interface
	Images   *imagestore.Store
	Sessions *security.Manager
	Registry *session.Registry

	metrics *Metrics
	log     *slog.Logger
}

// New creates the echo server and registers all routes.
func New(settings *conf.Settings, ds datastore.Interface, images *imagestore.Store,
	sessions *security.Manager, registry *session.Registry) *Controller {

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	if settings.WebServer.Debug {
		e.Use(middleware.Logger())
	}

	c := &Controller{
		Echo:     e,
		Group:    e.Group("/api/v1"),
		Settings: settings,
		DS:       ds,
		Images:   images,
		Sessions: sessions,
		Registry: registry,
		metrics:  NewMetrics(),
		log:      logging.ForModule("api"),
	}

	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints.
func (c *Controller) initRoutes() {
	c.Echo.GET("/healthz", c.Healthz)
	c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))

	c.initAuthRoutes()
	c.initDetectionRoutes()
	c.initHistoryRoutes()
	c.initLiveRoutes()
}

// Start runs the HTTP server until it fails or is shut down.
func (c *Controller) Start() error {
	addr := fmt.Sprintf("%s:%s", c.Settings.WebServer.Address, c.Settings.WebServer.Port)
	c.log.Info("starting HTTP server", "addr", addr)
	return c.Echo.Start(addr)
}

// Healthz reports process liveness.
func (c *Controller) Healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// controllerFor returns the detection session controller owned by the
// authenticated request.
func (c *Controller) controllerFor(identity *security.Identity) *session.Controller {
	return c.Registry.Get(identity.SessionID)
}
