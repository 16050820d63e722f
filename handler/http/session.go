package http

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const DefaultCookieName = "evalviewer_session"

const sessionIDKey = "id"

// NewSessionMiddleware returns the middleware carrying the opaque session id
// in a signed cookie. Navigation state itself stays server side.
func NewSessionMiddleware(name string, secret []byte) (gin.HandlerFunc, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if name == "" {
		name = DefaultCookieName
	}

	store := cookie.NewStore(secret)
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(name, store), nil
}

// sessionID returns the id of the request's session, starting a new one
// when the cookie is missing or does not verify.
func sessionID(c *gin.Context) string {
	s := sessions.Default(c)
	if id, ok := s.Get(sessionIDKey).(string); ok {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}

	id := uuid.NewString()
	s.Set(sessionIDKey, id)
	return id
}

func saveSession(c *gin.Context) error {
	return sessions.Default(c).Save()
}
