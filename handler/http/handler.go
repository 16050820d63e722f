package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"evalviewer/src/core/browser"
	"evalviewer/src/core/navigation"
)

// Browser is the part of browser.Service the handlers depend on
type Browser interface {
	BrowseSubDir(ctx context.Context, state navigation.State, req browser.Request) (browser.Page, navigation.State)
	BrowseEval(ctx context.Context, state navigation.State, req browser.Request) (browser.Page, navigation.State)
}

type Handler struct {
	browser  Browser
	sessions navigation.SessionStore
	session  gin.HandlerFunc
}

// NewHandler creates the handler set. session is the cookie middleware
// from NewSessionMiddleware.
func NewHandler(b Browser, sessions navigation.SessionStore, session gin.HandlerFunc) *Handler {
	return &Handler{
		browser:  b,
		sessions: sessions,
		session:  session,
	}
}

// RegisterRoutes registers the browse and system routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	browse := r.Group("/", h.session)
	{
		// Browse by data sub-directory
		browse.GET("/", h.BrowseSubDir)
		browse.POST("/", h.BrowseSubDir)

		// Browse by registry eval
		browse.GET("/evals", h.BrowseEval)
		browse.POST("/evals", h.BrowseEval)
	}

	// System routes
	r.GET("/health", h.CheckHealth)
}

// Common error response structure
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func sendError(c *gin.Context, status int, err error) {
	var code string
	switch {
	case status == http.StatusBadRequest:
		code = "BAD_REQUEST"
	default:
		code = "INTERNAL_ERROR"
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
