package terminal

import "errors"

var (
	// ErrUnknownCommand is returned for a command id outside the table
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidParams is returned when a required parameter is missing or malformed
	ErrInvalidParams = errors.New("invalid parameters")
	// ErrSpawnLimited is returned when the shared launch budget is spent
	ErrSpawnLimited = errors.New("spawn rate limit exceeded")
)

// Kind identifies one entry of the fixed command table
type Kind string

const (
	KindCreate   Kind = "terminal.create"
	KindList     Kind = "terminal.list"
	KindGet      Kind = "terminal.get"
	KindKill     Kind = "terminal.kill"
	KindRemove   Kind = "terminal.remove"
	KindWrite    Kind = "terminal.write"
	KindResize   Kind = "terminal.resize"
	KindRename   Kind = "terminal.rename"
	KindClear    Kind = "terminal.clear"
	KindViewport Kind = "terminal.view"

	KindFocus         Kind = "terminal.focus"
	KindFocusNext     Kind = "terminal.focus_next"
	KindFocusPrevious Kind = "terminal.focus_previous"
	KindFocusAt       Kind = "terminal.focus_at"
	KindFocusByName   Kind = "terminal.focus_by_name"

	KindScrollLine     Kind = "terminal.scroll_line"
	KindScrollPage     Kind = "terminal.scroll_page"
	KindScrollToTop    Kind = "terminal.scroll_to_top"
	KindScrollToBottom Kind = "terminal.scroll_to_bottom"

	KindCopy            Kind = "terminal.copy"
	KindPaste           Kind = "terminal.paste"
	KindSelectAll       Kind = "terminal.select_all"
	KindClearSelection  Kind = "terminal.clear_selection"
	KindRunSelectedText Kind = "terminal.run_selected_text"
	KindRunFile         Kind = "terminal.run_file"

	KindFindShow            Kind = "terminal.find_show"
	KindFindHide            Kind = "terminal.find_hide"
	KindFindNext            Kind = "terminal.find_next"
	KindFindPrevious        Kind = "terminal.find_previous"
	KindFindNextTerm        Kind = "terminal.find_next_term"
	KindFindPreviousTerm    Kind = "terminal.find_previous_term"
	KindFindInput           Kind = "terminal.find_input"
	KindFindDeleteWordLeft  Kind = "terminal.find_delete_word_left"
	KindFindDeleteWordRight Kind = "terminal.find_delete_word_right"
	KindFindCursorLeft      Kind = "terminal.find_cursor_left"
	KindFindCursorRight     Kind = "terminal.find_cursor_right"

	KindAllowWorkspaceShell    Kind = "terminal.allow_workspace_shell"
	KindDisallowWorkspaceShell Kind = "terminal.disallow_workspace_shell"
	KindQueryWorkspaceShell    Kind = "terminal.query_workspace_shell"
)

// Service describes the command table
type Service struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Capabilities []string  `json:"capabilities"`
	Commands     []Command `json:"commands"`
}

// Command describes one command and its parameters
type Command struct {
	ID          Kind        `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
}

// Parameter represents a command parameter
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Result represents a command execution result
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *string                `json:"error,omitempty"`
}

func ok(data map[string]interface{}) *Result {
	return &Result{Success: true, Data: data}
}
