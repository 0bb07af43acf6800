package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/shellgate/internal/providers/terminal"
)

// TrustRequest selects a workspace by root folder or identity
type TrustRequest struct {
	WorkspaceRoot string `json:"workspace_root" form:"workspace_root"`
	WorkspaceID   string `json:"workspace_id" form:"workspace_id"`
}

func (r TrustRequest) params() map[string]interface{} {
	return map[string]interface{}{
		"workspace_root": r.WorkspaceRoot,
		"workspace_id":   r.WorkspaceID,
	}
}

// QueryTrust reports the decision for ?workspace_root= or ?workspace_id=
func (h *Handlers) QueryTrust(c *gin.Context) {
	var req TrustRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.run(c, terminal.KindQueryWorkspaceShell, req.params(), http.StatusOK)
}

// ListTrust returns every recorded decision
func (h *Handlers) ListTrust(c *gin.Context) {
	decisions := h.gate.Snapshot()
	c.JSON(http.StatusOK, gin.H{"decisions": decisions, "count": len(decisions)})
}

// AllowTrust lets the workspace shell setting launch
func (h *Handlers) AllowTrust(c *gin.Context) {
	h.decide(c, terminal.KindAllowWorkspaceShell)
}

// DisallowTrust ignores the workspace shell setting
func (h *Handlers) DisallowTrust(c *gin.Context) {
	h.decide(c, terminal.KindDisallowWorkspaceShell)
}

func (h *Handlers) decide(c *gin.Context, kind terminal.Kind) {
	var req TrustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.run(c, kind, req.params(), http.StatusOK)
}
