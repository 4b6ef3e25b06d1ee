package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/melonguard/melonguard-go/internal/datastore"
	"github.com/melonguard/melonguard-go/internal/errors"
	"github.com/melonguard/melonguard-go/internal/security"
)

// initAuthRoutes registers account endpoints.
func (c *Controller) initAuthRoutes() {
	c.Group.POST("/auth/register", c.Register)
	c.Group.POST("/auth/login", c.Login)
	c.Group.POST("/auth/logout", c.Logout)
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Fullname        string `json:"fullname"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest is the payload for logging in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the account information returned after login.
type UserResponse struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

// Register creates a new account. A taken username is an expected validation
// failure, not an error path.
func (c *Controller) Register(ctx echo.Context) error {
	var req RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req.Fullname = strings.TrimSpace(req.Fullname)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Fullname == "" || req.Username == "" || req.Email == "" ||
		req.Password == "" || req.ConfirmPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "all fields are required")
	}
	if req.Password != req.ConfirmPassword {
		return echo.NewHTTPError(http.StatusBadRequest, "password and confirmation do not match")
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process password")
	}

	user := &datastore.User{
		Username:     req.Username,
		PasswordHash: hash,
		Fullname:     req.Fullname,
		Email:        req.Email,
	}
	if err := c.DS.CreateUser(user); err != nil {
		if errors.Is(err, datastore.ErrUsernameTaken) {
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		}
		c.log.Error("failed to create user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create account")
	}

	return ctx.JSON(http.StatusCreated, UserResponse{
		Username: user.Username,
		Fullname: user.Fullname,
		Email:    user.Email,
	})
}

// Login checks credentials and establishes a session cookie.
func (c *Controller) Login(ctx echo.Context) error {
	var req LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := c.DS.GetUser(strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, datastore.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		c.log.Error("failed to look up user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	if !security.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}

	if _, err := c.Sessions.Login(ctx, user); err != nil {
		c.log.Error("failed to create session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	return ctx.JSON(http.StatusOK, UserResponse{
		Username: user.Username,
		Fullname: user.Fullname,
		Email:    user.Email,
	})
}

// Logout invalidates the session cookie and drops per-session detection
// state.
func (c *Controller) Logout(ctx echo.Context) error {
	sessionID, err := c.Sessions.Logout(ctx)
	if err != nil {
		c.log.Warn("failed to clear session cookie", "error", err)
	}
	if sessionID != "" {
		c.Registry.Drop(sessionID)
	}
	return ctx.NoContent(http.StatusNoContent)
}
