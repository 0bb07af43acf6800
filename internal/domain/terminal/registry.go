package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/shellgate/internal/domain/find"
	"github.com/GriffinCanCode/shellgate/internal/domain/settings"
	"github.com/GriffinCanCode/shellgate/internal/domain/shell"
	"github.com/GriffinCanCode/shellgate/internal/domain/trust"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/spawn"
	"github.com/GriffinCanCode/shellgate/internal/shared/id"
)

// SettingsLoader reads the User and Workspace settings layers
type SettingsLoader interface {
	Load(workspaceRoot string, platform shell.Platform) (settings.Layers, error)
}

// TrustQuerier reports the trust decision for a workspace
type TrustQuerier interface {
	Query(workspaceID string) trust.State
	// Check returns trust.ErrTrustRequired when an override awaits a decision
	Check(workspaceID string, hasOverride bool) error
}

// Config controls how sessions are launched and kept
type Config struct {
	Platform           shell.Platform
	Options            Options
	KillGrace          time.Duration
	DefaultCols        int
	DefaultRows        int
	HistorySize        int
	SetLocaleVariables bool
	Locale             string
	// BaseEnv is the environment every shell starts from; nil means os.Environ()
	BaseEnv []string
}

// DefaultConfig returns the stock launch settings for the running platform
func DefaultConfig() Config {
	return Config{
		Platform:    shell.Current(),
		Options:     Options{Scrollback: DefaultScrollback},
		KillGrace:   3 * time.Second,
		DefaultCols: 80,
		DefaultRows: 24,
		HistorySize: find.DefaultHistorySize,
		Locale:      "en_US.UTF-8",
	}
}

// LaunchRequest asks for a new session
type LaunchRequest struct {
	WorkspaceRoot string            `json:"workspace_root,omitempty"`
	Cwd           string            `json:"cwd,omitempty"`
	Name          string            `json:"name,omitempty"`
	Cols          int               `json:"cols,omitempty"`
	Rows          int               `json:"rows,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
}

// CreateResult describes a launched session. TrustRequired is set when the
// workspace carries a shell override that has not been allowed or
// disallowed yet; the session runs the non-workspace shell meanwhile.
type CreateResult struct {
	Terminal      Info           `json:"terminal"`
	WorkspaceID   id.WorkspaceID `json:"workspace_id,omitempty"`
	TrustRequired bool           `json:"trust_required"`
	WorkspaceFile string         `json:"workspace_file,omitempty"`
}

// Registry owns the ordered set of sessions and the active pointer.
// Every mutation of the order or the pointer happens under mu; spawning and
// killing happen outside it.
type Registry struct {
	mu          sync.RWMutex
	sessions    []*Session // Protected by mu
	active      int        // Protected by mu, -1 when empty
	nextOrdinal int        // Protected by mu

	cfg      Config
	loader   SettingsLoader
	gate     TrustQuerier
	resolver *shell.Resolver
	spawner  spawn.Spawner
	history  *find.History
	bus      *Bus
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewRegistry creates an empty registry
func NewRegistry(cfg Config, resolver *shell.Resolver, loader SettingsLoader, gate TrustQuerier, spawner spawn.Spawner, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultCols <= 0 {
		cfg.DefaultCols = 80
	}
	if cfg.DefaultRows <= 0 {
		cfg.DefaultRows = 24
	}
	if cfg.Platform == "" {
		cfg.Platform = shell.Current()
	}

	return &Registry{
		active:   -1,
		cfg:      cfg,
		loader:   loader,
		gate:     gate,
		resolver: resolver,
		spawner:  spawner,
		history:  find.NewHistory(cfg.HistorySize),
		bus:      NewBus(),
		logger:   logger,
	}
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	r.bus.WithMetrics(metrics)
	return r
}

// Events returns the bus carrying every session notification
func (r *Registry) Events() *Bus {
	return r.bus
}

// Config returns the registry configuration
func (r *Registry) Config() Config {
	return r.cfg
}

// Create resolves the shell for the request, spawns it and focuses the new
// session. A spawn failure returns a *LaunchError and leaves the registry
// unchanged.
func (r *Registry) Create(ctx context.Context, req LaunchRequest) (*CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cols, rows := req.Cols, req.Rows
	if cols == 0 {
		cols = r.cfg.DefaultCols
	}
	if rows == 0 {
		rows = r.cfg.DefaultRows
	}
	if cols <= 0 || rows <= 0 || cols > MaxSize || rows > MaxSize {
		return nil, ErrInvalidSize
	}

	var workspaceID id.WorkspaceID
	if req.WorkspaceRoot != "" {
		var err error
		if workspaceID, err = id.WorkspaceIDFor(req.WorkspaceRoot); err != nil {
			return nil, err
		}
	}

	layers, err := r.loader.Load(req.WorkspaceRoot, r.cfg.Platform)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	state := trust.Unknown
	if workspaceID != "" {
		state = r.gate.Query(string(workspaceID))
	}
	config := r.resolver.Resolve(r.cfg.Platform, layers.User, layers.Workspace, state)

	trustRequired := false
	if err := r.gate.Check(string(workspaceID), !layers.Workspace.IsZero()); err != nil {
		if !errors.Is(err, trust.ErrTrustRequired) {
			return nil, err
		}
		trustRequired = true
	}

	cwd := req.Cwd
	if cwd == "" {
		cwd = layers.Cwd()
	}
	if cwd == "" {
		cwd = req.WorkspaceRoot
	}

	session := newSession(sessionParams{
		config:      config,
		workspaceID: workspaceID,
		cwd:         cwd,
		name:        req.Name,
		cols:        cols,
		rows:        rows,
		opts:        r.cfg.Options,
		bus:         r.bus,
		logger:      r.logger,
		metrics:     r.metrics,
	})

	proc, err := r.spawner.Spawn(ctx, spawn.Spec{
		Path: config.Path,
		Args: config.Args,
		Dir:  cwd,
		Env:  r.environment(req.Env),
		Cols: cols,
		Rows: rows,
	})
	if err != nil {
		session.failLaunch()
		if r.metrics != nil {
			r.metrics.IncLaunchFailures()
		}
		r.logger.Error("Failed to launch shell",
			zap.String("path", config.Path),
			zap.Stringer("source", config.Source),
			zap.Error(err))
		return nil, &LaunchError{Path: config.Path, Args: config.Args, Source: config.Source, Err: err}
	}
	session.attach(proc)

	r.mu.Lock()
	session.ordinal = r.nextOrdinal
	r.nextOrdinal++
	r.sessions = append(r.sessions, session)
	r.active = len(r.sessions) - 1
	count := len(r.sessions)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.IncSessionsCreated(config.Source.String())
		r.metrics.SetSessionsActive(count)
	}
	r.logger.Info("Terminal created",
		zap.String("terminal_id", string(session.id)),
		zap.String("path", config.Path),
		zap.Stringer("source", config.Source),
		zap.Int("pid", proc.Pid()))

	r.bus.Publish(Event{Kind: EventCreated, TerminalID: session.id, WorkspaceID: workspaceID, Title: session.Title()})
	if trustRequired {
		if r.metrics != nil {
			r.metrics.IncTrustPrompts()
		}
		r.logger.Warn("Workspace shell override awaits a trust decision",
			zap.String("workspace_id", string(workspaceID)),
			zap.String("settings", layers.WorkspaceFile))
		r.bus.Publish(Event{Kind: EventTrustRequired, TerminalID: session.id, WorkspaceID: workspaceID, Text: layers.WorkspaceFile})
	}
	session.start()

	info := session.Info()
	info.Active = true
	return &CreateResult{
		Terminal:      info,
		WorkspaceID:   workspaceID,
		TrustRequired: trustRequired,
		WorkspaceFile: layers.WorkspaceFile,
	}, nil
}

func (r *Registry) environment(extra map[string]string) []string {
	base := r.cfg.BaseEnv
	if base == nil {
		base = os.Environ()
	}

	env := make([]string, 0, len(base)+len(extra)+4)
	env = append(env, base...)
	env = append(env, "TERM=xterm-256color", "COLORTERM=truecolor")
	if r.cfg.SetLocaleVariables && r.cfg.Locale != "" {
		env = append(env, "LANG="+r.cfg.Locale, "LC_ALL="+r.cfg.Locale)
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

// Get returns a live session
func (r *Registry) Get(terminalID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexLocked(terminalID); i >= 0 {
		return r.sessions[i], nil
	}
	return nil, notFound(terminalID)
}

// Active returns the focused session
func (r *Registry) Active() (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.active < 0 {
		return nil, false
	}
	return r.sessions[r.active], true
}

// ActiveIndex returns the position of the focused session, or -1
func (r *Registry) ActiveIndex() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active
}

// Len returns the number of sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// List returns every session in focus order
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, len(r.sessions))
	for i, s := range r.sessions {
		infos[i] = s.Info()
		infos[i].Active = i == r.active
	}
	return infos
}

// HasRunning reports whether any shell process is still running
func (r *Registry) HasRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.State() == StateRunning {
			return true
		}
	}
	return false
}

// FocusNext moves focus to the next session, wrapping to the first.
// It returns the focused session, if any, and whether focus moved.
func (r *Registry) FocusNext() (Info, bool) {
	return r.moveFocus(1)
}

// FocusPrevious moves focus to the previous session, wrapping to the last
func (r *Registry) FocusPrevious() (Info, bool) {
	return r.moveFocus(-1)
}

// moveFocus does nothing, and publishes nothing, with fewer than two sessions
func (r *Registry) moveFocus(delta int) (Info, bool) {
	r.mu.Lock()
	n := len(r.sessions)
	if n < 2 {
		var info Info
		if n == 1 {
			info = r.sessions[0].Info()
			info.Active = true
		}
		r.mu.Unlock()
		return info, false
	}
	r.active = ((r.active+delta)%n + n) % n
	s := r.sessions[r.active]
	r.mu.Unlock()

	return r.focused(s), true
}

// FocusAt focuses the session at a zero-based position
func (r *Registry) FocusAt(index int) (Info, error) {
	r.mu.Lock()
	if index < 0 || index >= len(r.sessions) {
		r.mu.Unlock()
		return Info{}, fmt.Errorf("%w: no terminal at index %d", ErrNotFound, index)
	}
	r.active = index
	s := r.sessions[index]
	r.mu.Unlock()

	return r.focused(s), nil
}

// Focus focuses a session by ID
func (r *Registry) Focus(terminalID string) (Info, error) {
	r.mu.Lock()
	i := r.indexLocked(terminalID)
	if i < 0 {
		r.mu.Unlock()
		return Info{}, notFound(terminalID)
	}
	r.active = i
	s := r.sessions[i]
	r.mu.Unlock()

	return r.focused(s), nil
}

// FocusByTitle focuses the first session whose title matches exactly,
// else the first whose title starts with title, ignoring case
func (r *Registry) FocusByTitle(title string) (Info, error) {
	if title == "" {
		return Info{}, fmt.Errorf("%w: empty title", ErrNotFound)
	}

	r.mu.Lock()
	match := -1
	for i, s := range r.sessions {
		t := s.Title()
		if t == title {
			match = i
			break
		}
		if match < 0 && strings.HasPrefix(strings.ToLower(t), strings.ToLower(title)) {
			match = i
		}
	}
	if match < 0 {
		r.mu.Unlock()
		return Info{}, fmt.Errorf("%w: no terminal titled %q", ErrNotFound, title)
	}
	r.active = match
	s := r.sessions[match]
	r.mu.Unlock()

	return r.focused(s), nil
}

func (r *Registry) focused(s *Session) Info {
	r.bus.Publish(Event{Kind: EventFocus, TerminalID: s.id})
	info := s.Info()
	info.Active = true
	return info
}

// Kill terminates a session's process; the session stays listed as Exited
func (r *Registry) Kill(terminalID string) error {
	s, err := r.Get(terminalID)
	if err != nil {
		return err
	}
	s.Kill(r.cfg.KillGrace)
	return nil
}

// Remove kills a session if needed, disposes it and drops it from the
// order. Focus moves to the next-lower position, wrapping to the highest.
func (r *Registry) Remove(terminalID string) error {
	r.mu.Lock()
	i := r.indexLocked(terminalID)
	if i < 0 {
		r.mu.Unlock()
		return notFound(terminalID)
	}
	s := r.sessions[i]

	sessions := make([]*Session, 0, len(r.sessions)-1)
	sessions = append(sessions, r.sessions[:i]...)
	sessions = append(sessions, r.sessions[i+1:]...)
	r.sessions = sessions

	focusChanged := i == r.active
	switch {
	case len(r.sessions) == 0:
		r.active = -1
	case i < r.active:
		r.active--
	case i == r.active:
		r.active = i - 1
		if r.active < 0 {
			r.active = len(r.sessions) - 1
		}
	}
	var next *Session
	if focusChanged && r.active >= 0 {
		next = r.sessions[r.active]
	}
	count := len(r.sessions)
	r.mu.Unlock()

	s.Kill(r.cfg.KillGrace)
	s.Dispose()

	if r.metrics != nil {
		r.metrics.SetSessionsActive(count)
	}
	r.logger.Info("Terminal removed", zap.String("terminal_id", terminalID))
	r.bus.Publish(Event{Kind: EventRemoved, TerminalID: s.id})
	if next != nil {
		r.bus.Publish(Event{Kind: EventFocus, TerminalID: next.id})
	}
	return nil
}

// KillAll terminates every session, waits for them to exit until ctx is
// done, force-kills the rest and empties the registry
func (r *Registry) KillAll(ctx context.Context) error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = nil
	r.active = -1
	r.mu.Unlock()

	for _, s := range sessions {
		s.Kill(r.cfg.KillGrace)
	}

	var waitErr error
	for _, s := range sessions {
		select {
		case <-s.Done():
		case <-ctx.Done():
			waitErr = ctx.Err()
		}
		if waitErr != nil {
			break
		}
	}

	for _, s := range sessions {
		s.killNow()
		s.Dispose()
	}

	if r.metrics != nil {
		r.metrics.SetSessionsActive(0)
	}
	r.logger.Info("All terminals stopped", zap.Int("count", len(sessions)), zap.Error(waitErr))

	if waitErr != nil {
		return fmt.Errorf("terminals did not exit in time: %w", waitErr)
	}
	return nil
}

// Search finds term in a session's scrollback. A new term is recorded in the
// shared find history.
func (r *Registry) Search(terminalID, term string, dir find.Direction) (find.Match, bool, error) {
	s, err := r.Get(terminalID)
	if err != nil {
		return find.Match{}, false, err
	}

	previous := s.FindTerm()
	m, ok := s.Find(term, dir)
	if term != previous {
		r.history.Push(term)
	}
	return m, ok, nil
}

// NextHistoryTerm steps to a newer search term
func (r *Registry) NextHistoryTerm() (string, bool) {
	return r.history.Next()
}

// PreviousHistoryTerm steps to an older search term
func (r *Registry) PreviousHistoryTerm() (string, bool) {
	return r.history.Previous()
}

// History returns the search history, most recent first
func (r *Registry) History() []string {
	return r.history.Terms()
}

func (r *Registry) indexLocked(terminalID string) int {
	for i, s := range r.sessions {
		if string(s.id) == terminalID {
			return i
		}
	}
	return -1
}
