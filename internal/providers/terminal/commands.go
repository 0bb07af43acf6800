package terminal

var terminalIDParam = Parameter{
	Name:        "terminal_id",
	Type:        "string",
	Description: "Target terminal. Defaults to the focused terminal",
	Required:    false,
}

var workspaceParams = []Parameter{
	{Name: "workspace_root", Type: "string", Description: "Workspace folder whose shell setting is decided"},
	{Name: "workspace_id", Type: "string", Description: "Workspace identity, used instead of workspace_root"},
}

// targeted builds a command acting on one terminal
func targeted(kind Kind, name, description, returns string, extra ...Parameter) Command {
	params := append([]Parameter{terminalIDParam}, extra...)
	return Command{ID: kind, Name: name, Description: description, Parameters: params, Returns: returns}
}

func commandTable() []Command {
	return []Command{
		{
			ID:          KindCreate,
			Name:        "Create Terminal",
			Description: "Resolve the shell for a workspace and launch it in a new terminal",
			Parameters: []Parameter{
				{Name: "workspace_root", Type: "string", Description: "Workspace folder; selects workspace settings and trust"},
				{Name: "cwd", Type: "string", Description: "Initial working directory. Defaults to settings, then the workspace root"},
				{Name: "name", Type: "string", Description: "Display name"},
				{Name: "cols", Type: "number", Description: "Width in columns. Defaults to 80"},
				{Name: "rows", Type: "number", Description: "Height in rows. Defaults to 24"},
				{Name: "env", Type: "object", Description: "Extra environment variables"},
			},
			Returns: "create_result",
		},
		{ID: KindList, Name: "List Terminals", Description: "List terminals in focus order", Parameters: []Parameter{}, Returns: "terminals"},
		targeted(KindGet, "Get Terminal", "Describe one terminal", "terminal"),
		targeted(KindKill, "Kill Terminal", "Terminate the shell; the terminal stays listed as exited", "success"),
		targeted(KindRemove, "Remove Terminal", "Kill if needed and drop the terminal", "success"),
		targeted(KindWrite, "Write", "Send input to the shell", "success",
			Parameter{Name: "data", Type: "string", Description: "Input bytes", Required: true}),
		targeted(KindResize, "Resize", "Change terminal dimensions", "success",
			Parameter{Name: "cols", Type: "number", Description: "Width in columns", Required: true},
			Parameter{Name: "rows", Type: "number", Description: "Height in rows", Required: true}),
		targeted(KindRename, "Rename", "Set the display name; empty restores the shell title", "title",
			Parameter{Name: "name", Type: "string", Description: "New name", Required: true}),
		targeted(KindClear, "Clear", "Empty the scrollback", "success"),
		targeted(KindViewport, "View", "Lines currently visible in the viewport", "lines"),

		{
			ID:          KindFocus,
			Name:        "Focus Terminal",
			Description: "Focus a terminal by id",
			Parameters:  []Parameter{{Name: "terminal_id", Type: "string", Description: "Terminal to focus", Required: true}},
			Returns:     "terminal",
		},
		{ID: KindFocusNext, Name: "Focus Next", Description: "Focus the next terminal, wrapping to the first", Parameters: []Parameter{}, Returns: "terminal"},
		{ID: KindFocusPrevious, Name: "Focus Previous", Description: "Focus the previous terminal, wrapping to the last", Parameters: []Parameter{}, Returns: "terminal"},
		{
			ID:          KindFocusAt,
			Name:        "Focus At",
			Description: "Focus the terminal at a one-based position",
			Parameters:  []Parameter{{Name: "index", Type: "number", Description: "Position, starting at 1", Required: true}},
			Returns:     "terminal",
		},
		{
			ID:          KindFocusByName,
			Name:        "Focus By Name",
			Description: "Focus the terminal with a matching title; a prefix matches when no title is exact",
			Parameters:  []Parameter{{Name: "name", Type: "string", Description: "Terminal title", Required: true}},
			Returns:     "terminal",
		},

		targeted(KindScrollLine, "Scroll Lines", "Scroll by lines; negative scrolls up", "offset",
			Parameter{Name: "delta", Type: "number", Description: "Lines to scroll", Required: true}),
		targeted(KindScrollPage, "Scroll Pages", "Scroll by pages; negative scrolls up", "offset",
			Parameter{Name: "delta", Type: "number", Description: "Pages to scroll", Required: true}),
		targeted(KindScrollToTop, "Scroll To Top", "Show the oldest scrollback line", "offset"),
		targeted(KindScrollToBottom, "Scroll To Bottom", "Show the newest output", "offset"),

		targeted(KindCopy, "Copy Selection", "Return the selected text without ANSI sequences", "text"),
		targeted(KindPaste, "Paste", "Send text to the shell as input", "success",
			Parameter{Name: "text", Type: "string", Description: "Text to paste", Required: true}),
		targeted(KindSelectAll, "Select All", "Select the whole scrollback", "selection"),
		targeted(KindClearSelection, "Clear Selection", "Drop the selection", "success"),
		targeted(KindRunSelectedText, "Run Selected Text", "Send the selection followed by a newline", "text"),
		targeted(KindRunFile, "Run File", "Send a file path followed by a newline", "text",
			Parameter{Name: "path", Type: "string", Description: "File to run", Required: true}),

		targeted(KindFindShow, "Show Find", "Open the find widget", "success"),
		targeted(KindFindHide, "Hide Find", "Close the find widget", "success"),
		targeted(KindFindNext, "Find Next", "Select the next match", "match",
			Parameter{Name: "term", Type: "string", Description: "Search term. Defaults to the find input"}),
		targeted(KindFindPrevious, "Find Previous", "Select the previous match", "match",
			Parameter{Name: "term", Type: "string", Description: "Search term. Defaults to the find input"}),
		targeted(KindFindNextTerm, "Find Next Term", "Load the next newer search term", "term"),
		targeted(KindFindPreviousTerm, "Find Previous Term", "Load the next older search term", "term"),
		targeted(KindFindInput, "Set Find Input", "Replace the find input text", "input",
			Parameter{Name: "text", Type: "string", Description: "Find input text", Required: true},
			Parameter{Name: "cursor", Type: "number", Description: "Cursor position in characters. Defaults to the end"}),
		targeted(KindFindCursorLeft, "Find Cursor Left", "Move the find input cursor one character left", "input"),
		targeted(KindFindCursorRight, "Find Cursor Right", "Move the find input cursor one character right", "input"),
		targeted(KindFindDeleteWordLeft, "Delete Word Left", "Delete the word before the find input cursor", "input"),
		targeted(KindFindDeleteWordRight, "Delete Word Right", "Delete the word after the find input cursor", "input"),

		{
			ID:          KindAllowWorkspaceShell,
			Name:        "Allow Workspace Shell",
			Description: "Let the workspace shell setting launch",
			Parameters:  workspaceParams,
			Returns:     "trust_state",
		},
		{
			ID:          KindDisallowWorkspaceShell,
			Name:        "Disallow Workspace Shell",
			Description: "Ignore the workspace shell setting",
			Parameters:  workspaceParams,
			Returns:     "trust_state",
		},
		{
			ID:          KindQueryWorkspaceShell,
			Name:        "Query Workspace Shell",
			Description: "Report the recorded decision for a workspace",
			Parameters:  workspaceParams,
			Returns:     "trust_state",
		},
	}
}
