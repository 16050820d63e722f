package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"evalviewer/src/core/browser"
	"evalviewer/src/core/navigation"
	"evalviewer/src/log"
)

type browseSubDirRequest struct {
	SubDir   string `form:"sub_dir"`
	Sample   string `form:"sample"`
	Complete string `form:"complete"`
}

type browseEvalRequest struct {
	Eval     string `form:"eval"`
	Sample   string `form:"sample"`
	Complete string `form:"complete"`
}

type browseFunc func(ctx context.Context, state navigation.State, req browser.Request) (browser.Page, navigation.State)

// BrowseSubDir godoc
// @Summary Browse the samples of a data sub-directory
// @Tags browse
// @Accept x-www-form-urlencoded
// @Produce json
// @Param sub_dir formData string false "Sub-directory, defaults to the first one"
// @Param sample formData string false "Sample index, kept only while the sub-directory is unchanged"
// @Param complete formData string false "1 to submit the sample to the model"
// @Success 200 {object} browser.Page
// @Failure 500 {object} ErrorResponse
// @Router / [get]
// @Router / [post]
func (h *Handler) BrowseSubDir(c *gin.Context) {
	var req browseSubDirRequest
	if err := c.ShouldBind(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	h.browse(c, h.browser.BrowseSubDir, browser.Request{
		Selection: req.SubDir,
		Index:     defaultIndex(req.Sample),
		Complete:  req.Complete == "1",
	})
}

// BrowseEval godoc
// @Summary Browse the samples of a registry eval
// @Tags browse
// @Accept x-www-form-urlencoded
// @Produce json
// @Param eval formData string false "Eval name, defaults to the first one"
// @Param sample formData string false "Sample index, kept only while the eval is unchanged"
// @Param complete formData string false "1 to submit the sample to the model"
// @Success 200 {object} browser.Page
// @Failure 500 {object} ErrorResponse
// @Router /evals [get]
// @Router /evals [post]
func (h *Handler) BrowseEval(c *gin.Context) {
	var req browseEvalRequest
	if err := c.ShouldBind(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	h.browse(c, h.browser.BrowseEval, browser.Request{
		Selection: req.Eval,
		Index:     defaultIndex(req.Sample),
		Complete:  req.Complete == "1",
	})
}

func (h *Handler) browse(c *gin.Context, fn browseFunc, req browser.Request) {
	ctx := c.Request.Context()
	sessionID := sessionID(c)

	state, _, err := h.sessions.Get(ctx, sessionID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, fmt.Errorf("failed to load session: %w", err))
		return
	}

	page, next := fn(ctx, state, req)

	if err := h.sessions.Set(ctx, sessionID, next); err != nil {
		log.Error(err, "Failed to save session", "session_id", sessionID)
	}
	if err := saveSession(c); err != nil {
		log.Error(err, "Failed to write session cookie", "session_id", sessionID)
	}

	sendJSON(c, http.StatusOK, page)
}

func defaultIndex(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
