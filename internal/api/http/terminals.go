package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/shellgate/internal/domain/find"
	"github.com/GriffinCanCode/shellgate/internal/providers/terminal"
)

// CreateRequest is the body of POST /terminals
type CreateRequest struct {
	WorkspaceRoot string            `json:"workspace_root"`
	Cwd           string            `json:"cwd"`
	Name          string            `json:"name"`
	Cols          int               `json:"cols" binding:"omitempty,min=1"`
	Rows          int               `json:"rows" binding:"omitempty,min=1"`
	Env           map[string]string `json:"env"`
}

// ListTerminals lists terminals in focus order
func (h *Handlers) ListTerminals(c *gin.Context) {
	h.run(c, terminal.KindList, nil, http.StatusOK)
}

// CreateTerminal resolves and launches a shell
func (h *Handlers) CreateTerminal(c *gin.Context) {
	var req CreateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	params := map[string]interface{}{
		"workspace_root": req.WorkspaceRoot,
		"cwd":            req.Cwd,
		"name":           req.Name,
		"env":            req.Env,
	}
	if req.Cols > 0 {
		params["cols"] = req.Cols
	}
	if req.Rows > 0 {
		params["rows"] = req.Rows
	}
	h.run(c, terminal.KindCreate, params, http.StatusCreated)
}

// GetTerminal describes one terminal
func (h *Handlers) GetTerminal(c *gin.Context) {
	h.onTerminal(c, terminal.KindGet, nil)
}

// RemoveTerminal kills and drops a terminal
func (h *Handlers) RemoveTerminal(c *gin.Context) {
	h.onTerminal(c, terminal.KindRemove, nil)
}

// KillTerminal terminates the shell but keeps the terminal listed
func (h *Handlers) KillTerminal(c *gin.Context) {
	h.onTerminal(c, terminal.KindKill, nil)
}

// FocusTerminal focuses a terminal
func (h *Handlers) FocusTerminal(c *gin.Context) {
	h.onTerminal(c, terminal.KindFocus, nil)
}

// WriteTerminal sends input to the shell
func (h *Handlers) WriteTerminal(c *gin.Context) {
	var req struct {
		Data string `json:"data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.onTerminal(c, terminal.KindWrite, map[string]interface{}{"data": req.Data})
}

// ResizeTerminal changes terminal dimensions
func (h *Handlers) ResizeTerminal(c *gin.Context) {
	var req struct {
		Cols int `json:"cols" binding:"required"`
		Rows int `json:"rows" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.onTerminal(c, terminal.KindResize, map[string]interface{}{"cols": req.Cols, "rows": req.Rows})
}

// TerminalLines returns the scrollback, or the viewport with ?view=true
func (h *Handlers) TerminalLines(c *gin.Context) {
	terminalID, ok := h.terminalID(c)
	if !ok {
		return
	}
	s, err := h.registry.Get(terminalID)
	if err != nil {
		h.fail(c, err)
		return
	}

	lines := s.Lines()
	if c.Query("view") == "true" {
		lines = s.View()
	}
	c.JSON(http.StatusOK, gin.H{"terminal_id": terminalID, "lines": lines, "count": len(lines)})
}

// SearchTerminal finds a term in the scrollback
func (h *Handlers) SearchTerminal(c *gin.Context) {
	var req struct {
		Term      string `json:"term" binding:"required"`
		Direction string `json:"direction"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := terminal.KindFindNext
	if req.Direction != "" {
		dir, ok := find.ParseDirection(req.Direction)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be forward or backward"})
			return
		}
		if dir == find.Backward {
			kind = terminal.KindFindPrevious
		}
	}
	h.onTerminal(c, kind, map[string]interface{}{"term": req.Term})
}

// onTerminal runs a command against the :id terminal
func (h *Handlers) onTerminal(c *gin.Context, kind terminal.Kind, params map[string]interface{}) {
	terminalID, ok := h.terminalID(c)
	if !ok {
		return
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	params["terminal_id"] = terminalID
	h.run(c, kind, params, http.StatusOK)
}
