package security

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/melonguard/melonguard-go/internal/conf"
	"github.com/melonguard/melonguard-go/internal/datastore"
	"github.com/melonguard/melonguard-go/internal/errors"
)

const (
	sessionName = "melonguard-session"

	keySessionID = "session_id"
	keyUserID    = "user_id"
	keyUsername  = "username"
	keyFullname  = "fullname"
)

// ErrNotAuthenticated is returned when no valid login session is present.
var ErrNotAuthenticated = errors.NewStd("not authenticated")

// Identity describes the logged in user attached to a request.
type Identity struct {
	SessionID string
	UserID    uint
	Username  string
	Fullname  string
}

// Manager issues and validates cookie based login sessions.
type Manager struct {
	store *sessions.CookieStore
}

// NewManager creates a session manager from the security settings.
func NewManager(settings *conf.Settings) *Manager {
	store := sessions.NewCookieStore([]byte(settings.Security.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(settings.Security.SessionDuration.Seconds()),
		Secure:   settings.Security.RedirectToHTTPS,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store}
}

// Login establishes a session for the user and returns its session ID.
func (m *Manager) Login(c echo.Context, user *datastore.User) (string, error) {
	sess, err := m.store.Get(c.Request(), sessionName)
	if err != nil {
		// A stale or tampered cookie decodes with an error but still yields
		// a fresh session, which is what login wants.
		sess, _ = m.store.New(c.Request(), sessionName)
	}

	sessionID := uuid.NewString()
	sess.Values[keySessionID] = sessionID
	sess.Values[keyUserID] = user.ID
	sess.Values[keyUsername] = user.Username
	sess.Values[keyFullname] = user.Fullname

	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return "", errors.New(err).
			Component("security").
			Category(errors.CategoryHTTP).
			Build()
	}
	return sessionID, nil
}

// Logout invalidates the session cookie. The returned session ID lets the
// caller drop any per-session state.
func (m *Manager) Logout(c echo.Context) (string, error) {
	sess, err := m.store.Get(c.Request(), sessionName)
	if err != nil {
		return "", nil
	}
	sessionID, _ := sess.Values[keySessionID].(string)

	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return sessionID, errors.New(err).
			Component("security").
			Category(errors.CategoryHTTP).
			Build()
	}
	return sessionID, nil
}

// CurrentIdentity returns the identity attached to the request, or
// ErrNotAuthenticated when no valid session exists.
func (m *Manager) CurrentIdentity(c echo.Context) (*Identity, error) {
	sess, err := m.store.Get(c.Request(), sessionName)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	userID, okID := sess.Values[keyUserID].(uint)
	username, okName := sess.Values[keyUsername].(string)
	sessionID, okSess := sess.Values[keySessionID].(string)
	if !okID || !okName || !okSess || username == "" {
		return nil, ErrNotAuthenticated
	}
	fullname, _ := sess.Values[keyFullname].(string)

	return &Identity{
		SessionID: sessionID,
		UserID:    userID,
		Username:  username,
		Fullname:  fullname,
	}, nil
}
