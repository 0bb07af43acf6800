package terminal

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/shellgate/internal/domain/find"
	"github.com/GriffinCanCode/shellgate/internal/domain/shell"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/spawn"
	"github.com/GriffinCanCode/shellgate/internal/shared/id"
)

// State is the lifecycle state of a session
type State int

const (
	StateStarting State = iota
	StateRunning
	StateExited
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Exit reasons
const (
	ReasonExited       = "exited"
	ReasonKilled       = "killed"
	ReasonLaunchFailed = "launch_failed"
)

// drainTimeout bounds how long an exit waits for trailing output
const drainTimeout = time.Second

// Options are the per-session behaviour toggles
type Options struct {
	Scrollback      int
	EnableBell      bool
	CopyOnSelection bool
}

// Selection is a range of the buffer in visible-rune coordinates.
// The end column is exclusive.
type Selection struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// Info is the public representation of a session
type Info struct {
	ID          id.TerminalID       `json:"id"`
	Ordinal     int                 `json:"ordinal"`
	Title       string              `json:"title"`
	State       State               `json:"state"`
	Active      bool                `json:"active"`
	Shell       shell.Configuration `json:"shell"`
	WorkspaceID id.WorkspaceID      `json:"workspace_id,omitempty"`
	Cwd         string              `json:"cwd,omitempty"`
	Cols        int                 `json:"cols"`
	Rows        int                 `json:"rows"`
	Pid         int                 `json:"pid,omitempty"`
	ExitCode    *int                `json:"exit_code,omitempty"`
	ExitReason  string              `json:"exit_reason,omitempty"`
	Lines       int                 `json:"lines"`
	FindVisible bool                `json:"find_visible"`
	FindInput   string              `json:"find_input,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Session owns one shell process, its scrollback and its find state
type Session struct {
	id          id.TerminalID
	ordinal     int
	config      shell.Configuration
	workspaceID id.WorkspaceID
	cwd         string
	createdAt   time.Time
	opts        Options

	buffer *Scrollback
	osc    oscScanner // reader goroutine only

	// Lifecycle
	mu         sync.RWMutex
	state      State
	proc       spawn.Process
	name       string
	title      string
	cols       int
	rows       int
	exitCode   *int
	exitReason string
	selection  *Selection
	viewport   int // lines scrolled up from the bottom
	find       *find.State
	findInput  *find.Input

	done       chan struct{}
	readerDone chan struct{}

	bus     *Bus
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

type sessionParams struct {
	ordinal     int
	config      shell.Configuration
	workspaceID id.WorkspaceID
	cwd         string
	name        string
	cols        int
	rows        int
	opts        Options
	bus         *Bus
	logger      *zap.Logger
	metrics     *monitoring.Metrics
}

func newSession(p sessionParams) *Session {
	logger := p.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := p.bus
	if bus == nil {
		bus = NewBus()
	}

	s := &Session{
		id:          id.NewTerminalID(),
		ordinal:     p.ordinal,
		config:      p.config,
		workspaceID: p.workspaceID,
		cwd:         p.cwd,
		createdAt:   time.Now(),
		opts:        p.opts,
		buffer:      NewScrollback(p.opts.Scrollback),
		state:       StateStarting,
		name:        sanitizeTitle(p.name),
		cols:        p.cols,
		rows:        p.rows,
		find:        find.NewState(),
		findInput:   find.NewInput(""),
		done:        make(chan struct{}),
		readerDone:  make(chan struct{}),
		bus:         bus,
		metrics:     p.metrics,
	}
	s.logger = logger.With(zap.String("terminal_id", string(s.id)))
	return s
}

// attach binds a spawned process; output is not read until start
func (s *Session) attach(proc spawn.Process) {
	s.mu.Lock()
	s.proc = proc
	s.state = StateRunning
	s.mu.Unlock()
}

// start launches the reader and the exit monitor
func (s *Session) start() {
	go s.readOutput()
	go s.monitorProcess()
}

// failLaunch records a spawn failure; the session never runs
func (s *Session) failLaunch() {
	s.mu.Lock()
	s.state = StateExited
	s.exitReason = ReasonLaunchFailed
	s.mu.Unlock()

	close(s.readerDone)
	close(s.done)
}

// readOutput continuously reads from the process and appends to scrollback
func (s *Session) readOutput() {
	defer close(s.readerDone)

	buf := make([]byte, 4096)
	for {
		n, err := s.proc.Read(buf)
		if n > 0 {
			s.onOutput(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				s.logger.Debug("Terminal read ended", zap.Error(err))
			}
			return
		}
	}
}

func (s *Session) onOutput(p []byte) {
	chunk := make([]byte, len(p))
	copy(chunk, p)

	// Output racing a Dispose is dropped
	s.mu.RLock()
	if s.state == StateDisposed {
		s.mu.RUnlock()
		return
	}
	s.buffer.Write(chunk)
	s.mu.RUnlock()

	if s.metrics != nil {
		s.metrics.AddOutputBytes(len(chunk))
	}
	s.bus.Publish(Event{Kind: EventOutput, TerminalID: s.id, Data: chunk})

	titles, bells := s.osc.scan(chunk)
	for _, raw := range titles {
		title := sanitizeTitle(raw)
		s.mu.Lock()
		s.title = title
		s.mu.Unlock()
		s.bus.Publish(Event{Kind: EventTitle, TerminalID: s.id, Title: s.Title()})
	}
	if bells > 0 && s.opts.EnableBell {
		s.bus.Publish(Event{Kind: EventBell, TerminalID: s.id})
	}
}

// monitorProcess waits for the process to exit and records the result
func (s *Session) monitorProcess() {
	code, err := s.proc.Wait()
	if err != nil {
		s.logger.Debug("Terminal wait failed", zap.Error(err))
	}

	// Let trailing output land before the exit is announced
	select {
	case <-s.readerDone:
	case <-time.After(drainTimeout):
		s.proc.Close()
		<-s.readerDone
	}

	s.mu.Lock()
	if s.state == StateRunning {
		s.state = StateExited
		s.exitReason = ReasonExited
	}
	s.exitCode = &code
	reason := s.exitReason
	s.mu.Unlock()

	s.proc.Close()
	close(s.done)

	if s.metrics != nil {
		s.metrics.IncSessionExits(reason)
	}
	s.logger.Info("Terminal exited", zap.Int("exit_code", code), zap.String("reason", reason))

	exitCode := code
	s.bus.Publish(Event{Kind: EventExit, TerminalID: s.id, ExitCode: &exitCode, Reason: reason})
}

// ID returns the session's identifier
func (s *Session) ID() id.TerminalID {
	return s.id
}

// Ordinal returns the creation order of the session
func (s *Session) Ordinal() int {
	return s.ordinal
}

// Config returns the launch configuration
func (s *Session) Config() shell.Configuration {
	cfg := s.config
	cfg.Args = append([]string{}, s.config.Args...)
	return cfg
}

// State returns the lifecycle state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Done is closed once the process has exited and its output is drained
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Title returns the user-given name, else the process title, else the shell
func (s *Session) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.titleLocked()
}

func (s *Session) titleLocked() string {
	switch {
	case s.name != "":
		return s.name
	case s.title != "":
		return s.title
	default:
		return filepath.Base(s.config.Path)
	}
}

// Rename sets a user-chosen title. An empty name restores the process title.
func (s *Session) Rename(name string) {
	s.mu.Lock()
	s.name = sanitizeTitle(name)
	title := s.titleLocked()
	s.mu.Unlock()

	s.bus.Publish(Event{Kind: EventTitle, TerminalID: s.id, Title: title})
}

// Write sends user input to the process. It is a no-op unless Running.
func (s *Session) Write(p []byte) error {
	s.mu.RLock()
	running, proc := s.state == StateRunning, s.proc
	s.mu.RUnlock()

	if !running || len(p) == 0 {
		return nil
	}
	_, err := proc.Write(p)
	return err
}

// Resize changes the terminal dimensions
func (s *Session) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 || cols > MaxSize || rows > MaxSize {
		return ErrInvalidSize
	}

	s.mu.Lock()
	s.cols, s.rows = cols, rows
	s.viewport = min(s.viewport, s.maxViewportLocked())
	var err error
	if s.state == StateRunning {
		err = s.proc.Resize(cols, rows)
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.bus.Publish(Event{Kind: EventResize, TerminalID: s.id, Cols: cols, Rows: rows})
	return nil
}

// Kill asks the process to terminate and returns immediately. The session
// is Exited from this point; if the process outlives grace it is killed.
func (s *Session) Kill(grace time.Duration) {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StateExited
	s.exitReason = ReasonKilled
	proc := s.proc
	s.mu.Unlock()

	if grace <= 0 {
		s.forceKill(proc)
		return
	}

	if err := proc.Terminate(); err != nil {
		s.logger.Debug("Terminate failed, killing", zap.Error(err))
		s.forceKill(proc)
		return
	}

	go func() {
		timer := time.NewTimer(grace)
		defer timer.Stop()

		select {
		case <-s.done:
		case <-timer.C:
			s.logger.Warn("Terminal ignored hangup, killing", zap.Duration("grace", grace))
			s.forceKill(proc)
		}
	}()
}

func (s *Session) forceKill(proc spawn.Process) {
	if err := proc.Kill(); err != nil {
		s.logger.Debug("Kill failed", zap.Error(err))
	}
}

// killNow force-kills a process that has not exited yet
func (s *Session) killNow() {
	s.mu.RLock()
	proc := s.proc
	s.mu.RUnlock()

	if proc == nil {
		return
	}
	select {
	case <-s.done:
	default:
		s.forceKill(proc)
	}
}

// Dispose releases the process and the scrollback and marks the session
// Disposed
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return
	}
	running := s.state == StateRunning
	s.state = StateDisposed
	proc := s.proc
	s.buffer.Clear()
	s.find.Reset()
	s.selection = nil
	s.viewport = 0
	s.mu.Unlock()

	if proc == nil {
		return
	}
	if running {
		s.forceKill(proc)
	}
	proc.Close()
}

// Clear empties the scrollback and resets the find state
func (s *Session) Clear() {
	s.buffer.Clear()

	s.mu.Lock()
	s.find.Reset()
	s.selection = nil
	s.viewport = 0
	s.mu.Unlock()
}

// Lines returns a snapshot of the scrollback
func (s *Session) Lines() []string {
	return s.buffer.Snapshot()
}

// SelectAll selects the whole buffer
func (s *Session) SelectAll() Selection {
	lines := s.buffer.Snapshot()
	sel := Selection{}
	if n := len(lines); n > 0 {
		sel.EndLine = n - 1
		sel.EndCol = len([]rune(ansi.Strip(lines[n-1])))
	}
	s.setSelection(sel, lines)
	return sel
}

// SetSelection selects a range; copy-on-selection publishes its text
func (s *Session) SetSelection(sel Selection) {
	s.setSelection(sel, s.buffer.Snapshot())
}

func (s *Session) setSelection(sel Selection, lines []string) {
	s.mu.Lock()
	s.selection = &sel
	s.mu.Unlock()

	if s.opts.CopyOnSelection {
		if text := selectionText(lines, sel); text != "" {
			s.bus.Publish(Event{Kind: EventCopy, TerminalID: s.id, Text: text})
		}
	}
}

// ClearSelection drops the selection
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selection = nil
	s.mu.Unlock()
}

// Copy returns the selected text without escape sequences
func (s *Session) Copy() (string, bool) {
	s.mu.RLock()
	sel := s.selection
	s.mu.RUnlock()

	if sel == nil {
		return "", false
	}
	return selectionText(s.buffer.Snapshot(), *sel), true
}

// Paste sends clipboard text to the process as typed input
func (s *Session) Paste(text string) error {
	return s.Write([]byte(text))
}

// RunSelectedText sends the selection to the process followed by Enter
func (s *Session) RunSelectedText() (string, error) {
	text, ok := s.Copy()
	if !ok || text == "" {
		return "", nil
	}
	return text, s.RunText(text)
}

// RunText types text followed by Enter
func (s *Session) RunText(text string) error {
	return s.Write([]byte(text + "\r"))
}

// selectionText extracts the selected range from lines
func selectionText(lines []string, sel Selection) string {
	if len(lines) == 0 {
		return ""
	}
	if sel.EndLine < sel.StartLine || (sel.EndLine == sel.StartLine && sel.EndCol < sel.StartCol) {
		sel.StartLine, sel.EndLine = sel.EndLine, sel.StartLine
		sel.StartCol, sel.EndCol = sel.EndCol, sel.StartCol
	}
	first := max(0, sel.StartLine)
	last := min(len(lines)-1, sel.EndLine)

	var parts []string
	for i := first; i <= last; i++ {
		line := []rune(ansi.Strip(lines[i]))
		from, to := 0, len(line)
		if i == sel.StartLine {
			from = clamp(sel.StartCol, 0, len(line))
		}
		if i == sel.EndLine {
			to = clamp(sel.EndCol, from, len(line))
		}
		parts = append(parts, string(line[from:to]))
	}
	return strings.Join(parts, "\n")
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// ScrollLines moves the viewport by delta lines; negative scrolls back
// into history
func (s *Session) ScrollLines(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewport = clamp(s.viewport-delta, 0, s.maxViewportLocked())
	return s.viewport
}

// ScrollPages moves the viewport by whole screens
func (s *Session) ScrollPages(delta int) int {
	s.mu.RLock()
	rows := s.rows
	s.mu.RUnlock()

	return s.ScrollLines(delta * rows)
}

// ScrollToTop shows the oldest output
func (s *Session) ScrollToTop() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewport = s.maxViewportLocked()
	return s.viewport
}

// ScrollToBottom follows the newest output
func (s *Session) ScrollToBottom() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewport = 0
	return s.viewport
}

func (s *Session) maxViewportLocked() int {
	return max(0, s.buffer.Len()-s.rows)
}

// View returns the lines currently visible in the viewport
func (s *Session) View() []string {
	lines := s.buffer.Snapshot()

	s.mu.RLock()
	rows, offset := s.rows, s.viewport
	s.mu.RUnlock()

	end := max(0, len(lines)-offset)
	start := max(0, end-rows)
	return lines[start:end]
}

// Find searches the current scrollback snapshot
func (s *Session) Find(term string, dir find.Direction) (find.Match, bool) {
	lines := s.buffer.Snapshot()

	s.mu.Lock()
	m, ok := s.find.Search(lines, term, dir)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordFind(ok)
	}
	return m, ok
}

// ShowFind opens the find widget
func (s *Session) ShowFind() {
	s.mu.Lock()
	s.find.Show()
	s.mu.Unlock()
}

// HideFind closes the find widget
func (s *Session) HideFind() {
	s.mu.Lock()
	s.find.Hide()
	s.mu.Unlock()
}

// FindInput returns the text typed into the find widget
func (s *Session) FindInput() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findInput.String()
}

// EditFindInput applies edit to the find widget text and returns the result
func (s *Session) EditFindInput(edit func(in *find.Input)) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	edit(s.findInput)
	return s.findInput.String()
}

// FindTerm returns the term of the last search
func (s *Session) FindTerm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.find.Term()
}

// Info returns a snapshot of the session
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{
		ID:          s.id,
		Ordinal:     s.ordinal,
		Title:       s.titleLocked(),
		State:       s.state,
		Shell:       s.Config(),
		WorkspaceID: s.workspaceID,
		Cwd:         s.cwd,
		Cols:        s.cols,
		Rows:        s.rows,
		ExitReason:  s.exitReason,
		Lines:       s.buffer.Len(),
		FindVisible: s.find.Visible(),
		FindInput:   s.findInput.String(),
		CreatedAt:   s.createdAt,
	}
	if s.exitCode != nil {
		code := *s.exitCode
		info.ExitCode = &code
	}
	if s.proc != nil {
		info.Pid = s.proc.Pid()
	}
	return info
}
