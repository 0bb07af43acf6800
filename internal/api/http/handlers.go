package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	sessions "github.com/GriffinCanCode/shellgate/internal/domain/terminal"
	"github.com/GriffinCanCode/shellgate/internal/domain/trust"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/shellgate/internal/providers/terminal"
	"github.com/GriffinCanCode/shellgate/internal/shared/id"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Options carries the settings handlers report but do not enforce
type Options struct {
	ConfirmOnExit bool
}

// Handlers contains all HTTP handlers
type Handlers struct {
	provider *terminal.Provider
	registry *sessions.Registry
	gate     *trust.Gate
	metrics  *monitoring.Metrics
	opts     Options
	logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	provider *terminal.Provider,
	registry *sessions.Registry,
	gate *trust.Gate,
	metrics *monitoring.Metrics,
	opts Options,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		provider: provider,
		registry: registry,
		gate:     gate,
		metrics:  metrics,
		opts:     opts,
		logger:   logger,
	}
}

// Register mounts every route on router
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	terminals := router.Group("/terminals")
	terminals.GET("", h.ListTerminals)
	terminals.POST("", h.CreateTerminal)
	terminals.GET("/:id", h.GetTerminal)
	terminals.DELETE("/:id", h.RemoveTerminal)
	terminals.POST("/:id/kill", h.KillTerminal)
	terminals.POST("/:id/focus", h.FocusTerminal)
	terminals.POST("/:id/input", h.WriteTerminal)
	terminals.POST("/:id/resize", h.ResizeTerminal)
	terminals.GET("/:id/lines", h.TerminalLines)
	terminals.POST("/:id/search", h.SearchTerminal)

	trusts := router.Group("/trust")
	trusts.GET("", h.QueryTrust)
	trusts.GET("/decisions", h.ListTrust)
	trusts.POST("/allow", h.AllowTrust)
	trusts.POST("/disallow", h.DisallowTrust)

	router.GET("/commands", h.ListCommands)
	router.POST("/commands/execute", h.ExecuteCommand)
}

// Root handles the liveness probe
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "shellgate",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	running := h.registry.HasRunning()

	body := gin.H{
		"status":                "healthy",
		"terminals":             h.registry.Len(),
		"running":               running,
		"confirm_exit_required": h.opts.ConfirmOnExit && running,
		"subscribers":           h.registry.Events().Subscribers(),
	}
	if h.metrics != nil {
		snap := h.metrics.Snapshot()
		body["metrics"] = snap
		body["avg_latency_ms"] = snap.AverageLatency()
		body["error_rate"] = snap.ErrorRate()
	}
	c.JSON(http.StatusOK, body)
}

// ListCommands returns the command table
func (h *Handlers) ListCommands(c *gin.Context) {
	c.JSON(http.StatusOK, h.provider.Definition())
}

// ExecuteRequest names a command and its parameters
type ExecuteRequest struct {
	Command string                 `json:"command" binding:"required"`
	Params  map[string]interface{} `json:"params"`
}

// ExecuteCommand runs one entry of the command table
func (h *Handlers) ExecuteCommand(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.run(c, terminal.Kind(req.Command), req.Params, http.StatusOK)
}

// run executes a command and writes its result or mapped error
func (h *Handlers) run(c *gin.Context, kind terminal.Kind, params map[string]interface{}, status int) {
	result, err := h.provider.Execute(c.Request.Context(), kind, params)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, result)
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)

	msg := err.Error()
	c.JSON(status, terminal.Result{Success: false, Error: &msg})
}

// StatusFor maps domain errors onto HTTP status codes
func StatusFor(err error) int {
	var launch *sessions.LaunchError
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, terminal.ErrSpawnLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &launch), errors.Is(err, sessions.ErrLaunch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, terminal.ErrInvalidParams),
		errors.Is(err, terminal.ErrUnknownCommand),
		errors.Is(err, sessions.ErrInvalidSize):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// terminalID validates the :id path parameter
func (h *Handlers) terminalID(c *gin.Context) (string, bool) {
	raw := c.Param("id")
	if !id.IsTerminalID(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid terminal id"})
		return "", false
	}
	return raw, true
}
