package terminal

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	sessions "github.com/GriffinCanCode/shellgate/internal/domain/terminal"
	"github.com/GriffinCanCode/shellgate/internal/domain/find"
	"github.com/GriffinCanCode/shellgate/internal/domain/trust"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/shellgate/internal/shared/id"
)

// TrustDecider records workspace shell decisions
type TrustDecider interface {
	Query(workspaceID string) trust.State
	Allow(ctx context.Context, workspaceID string) error
	Disallow(ctx context.Context, workspaceID string) error
}

// Provider maps commands onto registry, session, find and trust operations
type Provider struct {
	registry *sessions.Registry
	trust    TrustDecider
	commands map[Kind]Command
	order    []Command
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	spawns   *rate.Limiter
	logger   *zap.Logger
}

// NewProvider creates a terminal command provider
func NewProvider(registry *sessions.Registry, decider TrustDecider, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}

	order := commandTable()
	commands := make(map[Kind]Command, len(order))
	for _, c := range order {
		commands[c.ID] = c
	}

	return &Provider{
		registry: registry,
		trust:    decider,
		commands: commands,
		order:    order,
		logger:   logger,
	}
}

// WithMetrics records per-command latency and status
func (p *Provider) WithMetrics(metrics *monitoring.Metrics) *Provider {
	p.metrics = metrics
	return p
}

// WithSpawnLimit bounds terminal.create across every caller, whichever
// route the command arrives on
func (p *Provider) WithSpawnLimit(perSecond, burst int) *Provider {
	p.spawns = rate.NewLimiter(rate.Limit(perSecond), burst)
	return p
}

// WithTracer opens a span per command under the caller's trace
func (p *Provider) WithTracer(tracer *tracing.Tracer) *Provider {
	p.tracer = tracer
	return p
}

// Definition returns service metadata
func (p *Provider) Definition() Service {
	return Service{
		ID:          "terminal",
		Name:        "Terminal Service",
		Description: "Terminal session multiplexer with a workspace shell trust gate",
		Capabilities: []string{
			"pty",
			"sessions",
			"focus",
			"scrollback",
			"find",
			"clipboard",
			"workspace_trust",
		},
		Commands: p.Commands(),
	}
}

// Commands returns the command table in display order
func (p *Provider) Commands() []Command {
	out := make([]Command, len(p.order))
	copy(out, p.order)
	return out
}

// Lookup returns a command definition
func (p *Provider) Lookup(kind Kind) (Command, bool) {
	c, ok := p.commands[kind]
	return c, ok
}

// Execute routes to appropriate operation
func (p *Provider) Execute(ctx context.Context, kind Kind, params map[string]interface{}) (*Result, error) {
	if _, known := p.commands[kind]; !known {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, kind)
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	span, ctx := p.tracer.StartSpan(ctx, string(kind))
	defer p.tracer.Finish(span)
	if terminalID, _ := stringParam(params, "terminal_id"); terminalID != "" {
		span.SetTag("terminal_id", terminalID)
	}

	timer := monitoring.NewTimer(p.metrics, string(kind))
	result, err := p.dispatch(ctx, kind, params)
	if err != nil {
		span.SetError(err)
		timer.Stop("error")
		p.logger.Debug("Command failed", zap.String("command", string(kind)), zap.Error(err))
		return nil, err
	}
	timer.Stop("success")
	return result, nil
}

func (p *Provider) dispatch(ctx context.Context, kind Kind, params map[string]interface{}) (*Result, error) {
	switch kind {
	case KindCreate:
		return p.create(ctx, params)
	case KindList:
		return p.list()
	case KindGet:
		return p.withSession(params, func(s *sessions.Session) (*Result, error) {
			return ok(map[string]interface{}{"terminal": p.info(s)}), nil
		})
	case KindKill:
		return p.withSession(params, func(s *sessions.Session) (*Result, error) {
			return done(p.registry.Kill(s.ID().String()))
		})
	case KindRemove:
		return p.withSession(params, func(s *sessions.Session) (*Result, error) {
			return done(p.registry.Remove(s.ID().String()))
		})
	case KindWrite:
		return p.write(params)
	case KindResize:
		return p.resize(params)
	case KindRename:
		return p.rename(params)
	case KindClear:
		return p.withSession(params, func(s *sessions.Session) (*Result, error) {
			s.Clear()
			return done(nil)
		})
	case KindViewport:
		return p.withSession(params, func(s *sessions.Session) (*Result, error) {
			return ok(map[string]interface{}{"lines": s.View()}), nil
		})

	case KindFocus:
		terminalID, err := requireString(params, "terminal_id")
		if err != nil {
			return nil, err
		}
		return focused(p.registry.Focus(terminalID))
	case KindFocusNext:
		return moved(p.registry.FocusNext())
	case KindFocusPrevious:
		return moved(p.registry.FocusPrevious())
	case KindFocusAt:
		return p.focusAt(params)
	case KindFocusByName:
		name, err := requireString(params, "name")
		if err != nil {
			return nil, err
		}
		return focused(p.registry.FocusByTitle(name))

	case KindScrollLine, KindScrollPage, KindScrollToTop, KindScrollToBottom:
		return p.scroll(kind, params)

	case KindCopy:
		return p.withSession(params, func(s *sessions.Session) (*Result, error) {
			text, copied := s.Copy()
			return ok(map[string]interface{}{"text": text, "copied": copied}), nil
		})
	case KindPaste:
		return p.paste(params)
	case KindSelectAll:
		return p.withSession(params, func(s *sessions.Session) (*Result, error) {
			return ok(map[string]interface{}{"selection": s.SelectAll()}), nil
		})
	case KindClearSelection:
		return p.withSession(params, func(s *sessions.Session) (*Result, error) {
			s.ClearSelection()
			return done(nil)
		})
	case KindRunSelectedText:
		return p.withSession(params, func(s *sessions.Session) (*Result, error) {
			text, err := s.RunSelectedText()
			if err != nil {
				return nil, err
			}
			return ok(map[string]interface{}{"text": text}), nil
		})
	case KindRunFile:
		path, err := requireString(params, "path")
		if err != nil {
			return nil, err
		}
		return p.withSession(params, func(s *sessions.Session) (*Result, error) {
			if err := s.RunText(path); err != nil {
				return nil, err
			}
			return ok(map[string]interface{}{"text": path}), nil
		})

	case KindFindShow:
		return p.withSession(params, func(s *sessions.Session) (*Result, error) {
			s.ShowFind()
			return done(nil)
		})
	case KindFindHide:
		return p.withSession(params, func(s *sessions.Session) (*Result, error) {
			s.HideFind()
			return done(nil)
		})
	case KindFindNext:
		return p.search(params, find.Forward)
	case KindFindPrevious:
		return p.search(params, find.Backward)
	case KindFindNextTerm:
		return p.historyTerm(params, p.registry.NextHistoryTerm)
	case KindFindPreviousTerm:
		return p.historyTerm(params, p.registry.PreviousHistoryTerm)
	case KindFindInput:
		text, err := requireString(params, "text")
		if err != nil {
			return nil, err
		}
		cursor, hasCursor, err := intParam(params, "cursor")
		if err != nil {
			return nil, err
		}
		return p.editFind(params, func(in *find.Input) {
			in.Set(text)
			if hasCursor {
				in.MoveTo(cursor)
			}
		})
	case KindFindCursorLeft:
		return p.editFind(params, (*find.Input).Left)
	case KindFindCursorRight:
		return p.editFind(params, (*find.Input).Right)
	case KindFindDeleteWordLeft:
		return p.editFind(params, (*find.Input).DeleteWordLeft)
	case KindFindDeleteWordRight:
		return p.editFind(params, (*find.Input).DeleteWordRight)

	case KindAllowWorkspaceShell:
		return p.decide(ctx, params, trust.Allowed)
	case KindDisallowWorkspaceShell:
		return p.decide(ctx, params, trust.Disallowed)
	case KindQueryWorkspaceShell:
		workspaceID, err := p.workspaceID(params)
		if err != nil {
			return nil, err
		}
		return trustResult(workspaceID, p.trust.Query(workspaceID.String())), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, kind)
	}
}

// target resolves terminal_id, falling back to the focused session
func (p *Provider) target(params map[string]interface{}) (*sessions.Session, error) {
	if terminalID, given := stringParam(params, "terminal_id"); given && terminalID != "" {
		return p.registry.Get(terminalID)
	}
	s, found := p.registry.Active()
	if !found {
		return nil, fmt.Errorf("no focused terminal: %w", sessions.ErrNotFound)
	}
	return s, nil
}

func (p *Provider) withSession(params map[string]interface{}, fn func(s *sessions.Session) (*Result, error)) (*Result, error) {
	s, err := p.target(params)
	if err != nil {
		return nil, err
	}
	return fn(s)
}

// info marks the focused session, which Session.Info cannot know
func (p *Provider) info(s *sessions.Session) sessions.Info {
	info := s.Info()
	if active, found := p.registry.Active(); found && active == s {
		info.Active = true
	}
	return info
}

func (p *Provider) create(ctx context.Context, params map[string]interface{}) (*Result, error) {
	if p.spawns != nil && !p.spawns.Allow() {
		return nil, ErrSpawnLimited
	}

	req := sessions.LaunchRequest{}
	req.WorkspaceRoot, _ = stringParam(params, "workspace_root")
	req.Cwd, _ = stringParam(params, "cwd")
	req.Name, _ = stringParam(params, "name")

	var err error
	if req.Cols, _, err = intParam(params, "cols"); err != nil {
		return nil, err
	}
	if req.Rows, _, err = intParam(params, "rows"); err != nil {
		return nil, err
	}
	if req.Env, err = stringMapParam(params, "env"); err != nil {
		return nil, err
	}

	res, err := p.registry.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	return ok(map[string]interface{}{
		"terminal":       res.Terminal,
		"workspace_id":   res.WorkspaceID,
		"trust_required": res.TrustRequired,
		"workspace_file": res.WorkspaceFile,
	}), nil
}

func (p *Provider) list() (*Result, error) {
	terminals := p.registry.List()
	return ok(map[string]interface{}{
		"terminals":    terminals,
		"count":        len(terminals),
		"active_index": p.registry.ActiveIndex(),
	}), nil
}

func (p *Provider) write(params map[string]interface{}) (*Result, error) {
	data, err := requireString(params, "data")
	if err != nil {
		return nil, err
	}
	return p.withSession(params, func(s *sessions.Session) (*Result, error) {
		return done(s.Write([]byte(data)))
	})
}

func (p *Provider) resize(params map[string]interface{}) (*Result, error) {
	cols, err := requireInt(params, "cols")
	if err != nil {
		return nil, err
	}
	rows, err := requireInt(params, "rows")
	if err != nil {
		return nil, err
	}
	return p.withSession(params, func(s *sessions.Session) (*Result, error) {
		return done(s.Resize(cols, rows))
	})
}

func (p *Provider) rename(params map[string]interface{}) (*Result, error) {
	name, err := requireString(params, "name")
	if err != nil {
		return nil, err
	}
	return p.withSession(params, func(s *sessions.Session) (*Result, error) {
		s.Rename(name)
		return ok(map[string]interface{}{"title": s.Title()}), nil
	})
}

func (p *Provider) paste(params map[string]interface{}) (*Result, error) {
	text, err := requireString(params, "text")
	if err != nil {
		return nil, err
	}
	return p.withSession(params, func(s *sessions.Session) (*Result, error) {
		return done(s.Paste(text))
	})
}

// focusAt takes a one-based position, matching the numbered keybindings
func (p *Provider) focusAt(params map[string]interface{}) (*Result, error) {
	position, err := requireInt(params, "index")
	if err != nil {
		return nil, err
	}
	if position < 1 {
		return nil, fmt.Errorf("%w: index starts at 1", ErrInvalidParams)
	}
	return focused(p.registry.FocusAt(position - 1))
}

func (p *Provider) scroll(kind Kind, params map[string]interface{}) (*Result, error) {
	delta := 0
	if kind == KindScrollLine || kind == KindScrollPage {
		var err error
		if delta, err = requireInt(params, "delta"); err != nil {
			return nil, err
		}
	}

	return p.withSession(params, func(s *sessions.Session) (*Result, error) {
		var offset int
		switch kind {
		case KindScrollLine:
			offset = s.ScrollLines(delta)
		case KindScrollPage:
			offset = s.ScrollPages(delta)
		case KindScrollToTop:
			offset = s.ScrollToTop()
		default:
			offset = s.ScrollToBottom()
		}
		return ok(map[string]interface{}{"offset": offset}), nil
	})
}

// search uses the term parameter, then the find input, then the last term
func (p *Provider) search(params map[string]interface{}, dir find.Direction) (*Result, error) {
	return p.withSession(params, func(s *sessions.Session) (*Result, error) {
		term, given := stringParam(params, "term")
		if !given {
			term = s.FindInput()
		}
		if term == "" {
			term = s.FindTerm()
		}
		if term == "" {
			return nil, fmt.Errorf("%w: term is required", ErrInvalidParams)
		}
		s.EditFindInput(func(in *find.Input) { in.Set(term) })

		m, found, err := p.registry.Search(s.ID().String(), term, dir)
		if err != nil {
			return nil, err
		}
		data := map[string]interface{}{"term": term, "found": found}
		if found {
			data["match"] = m
		}
		return ok(data), nil
	})
}

// historyTerm steps the shared find history and loads the term into the
// focused find input when there is one
func (p *Provider) historyTerm(params map[string]interface{}, step func() (string, bool)) (*Result, error) {
	term, found := step()
	if found {
		if s, err := p.target(params); err == nil {
			s.EditFindInput(func(in *find.Input) { in.Set(term) })
		}
	}
	return ok(map[string]interface{}{"term": term, "found": found}), nil
}

func (p *Provider) editFind(params map[string]interface{}, edit func(in *find.Input)) (*Result, error) {
	return p.withSession(params, func(s *sessions.Session) (*Result, error) {
		cursor := 0
		text := s.EditFindInput(func(in *find.Input) {
			edit(in)
			cursor = in.Cursor()
		})
		return ok(map[string]interface{}{"input": text, "cursor": cursor}), nil
	})
}

// workspaceID accepts either workspace_id or workspace_root
func (p *Provider) workspaceID(params map[string]interface{}) (id.WorkspaceID, error) {
	if raw, given := stringParam(params, "workspace_id"); given && raw != "" {
		return id.WorkspaceID(raw), nil
	}
	root, given := stringParam(params, "workspace_root")
	if !given || root == "" {
		return "", fmt.Errorf("%w: workspace_root or workspace_id is required", ErrInvalidParams)
	}
	workspaceID, err := id.WorkspaceIDFor(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return workspaceID, nil
}

func (p *Provider) decide(ctx context.Context, params map[string]interface{}, state trust.State) (*Result, error) {
	workspaceID, err := p.workspaceID(params)
	if err != nil {
		return nil, err
	}

	switch state {
	case trust.Allowed:
		err = p.trust.Allow(ctx, workspaceID.String())
	default:
		err = p.trust.Disallow(ctx, workspaceID.String())
	}
	if err != nil {
		return nil, err
	}
	return trustResult(workspaceID, p.trust.Query(workspaceID.String())), nil
}

func trustResult(workspaceID id.WorkspaceID, state trust.State) *Result {
	return ok(map[string]interface{}{
		"workspace_id": workspaceID,
		"state":        state,
	})
}

func focused(info sessions.Info, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	return ok(map[string]interface{}{"terminal": info}), nil
}

// moved reports a focus cycle; with fewer than two terminals nothing moves
func moved(info sessions.Info, didMove bool) (*Result, error) {
	data := map[string]interface{}{"moved": didMove}
	if info.ID != "" {
		data["terminal"] = info
	}
	return ok(data), nil
}

func done(err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	return ok(map[string]interface{}{"success": true}), nil
}
