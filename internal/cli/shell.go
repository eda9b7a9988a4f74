package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/hession/memhub/internal/api"
	"github.com/hession/memhub/internal/app"
	"github.com/hession/memhub/internal/config"
	"github.com/hession/memhub/internal/form"
	"github.com/hession/memhub/internal/logger"
	"github.com/hession/memhub/internal/view"
)

// Shell maps typed commands onto controller operations
type Shell struct {
	ctl         *app.Controller
	cfg         *config.Config
	editor      form.Editor
	view        *view.Renderer
	out         io.Writer
	historyPath string

	shown string // banner already printed for the current line
}

// NewShell creates a shell writing to out
func NewShell(ctl *app.Controller, cfg *config.Config, editor form.Editor, r *view.Renderer, out io.Writer) *Shell {
	return &Shell{
		ctl:         ctl,
		cfg:         cfg,
		editor:      editor,
		view:        r,
		out:         out,
		historyPath: cfg.HistoryPath(),
	}
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

// Execute runs one input line. It returns false when the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}
	s.shown = ""

	if !strings.HasPrefix(input, "/") {
		s.search(ctx, input)
		s.showBanner()
		return true
	}

	cont := s.handleCommand(ctx, input)
	if cont {
		s.showBanner()
	}
	return cont
}

// splitCommand returns the lower-cased command word and its argument text.
// Quoted arguments are unquoted; a line with shell operators or unbalanced
// quotes keeps its raw argument text.
func splitCommand(line string) (string, string) {
	p := shellwords.NewParser()
	words, err := p.Parse(line)
	if err != nil || p.Position >= 0 || len(words) == 0 {
		parts := strings.Fields(line)
		return strings.ToLower(parts[0]), strings.TrimSpace(strings.TrimPrefix(line, parts[0]))
	}
	return strings.ToLower(words[0]), strings.Join(words[1:], " ")
}

// handleCommand handles slash commands, returns true to continue loop, false to exit
func (s *Shell) handleCommand(ctx context.Context, cmd string) bool {
	command, rest := splitCommand(cmd)
	logger.Debug("command: %s", command)

	switch command {
	case "/help":
		s.printHelp()

	case "/exit", "/quit", "/q":
		s.println(s.view.Muted("Goodbye!"))
		return false

	case "/list", "/home":
		s.navigate(ctx, app.PageList)

	case "/new":
		s.navigate(ctx, app.PageCreate)
		s.createFlow(ctx)

	case "/suggest":
		s.ctl.RegenerateSuggestions()
		s.println(s.view.Suggestions(s.ctl.Snapshot().Suggestions))

	case "/use":
		s.useSuggestion(ctx, rest)

	case "/show", "/open":
		s.show(ctx, rest)

	case "/edit":
		s.editFlow(ctx)

	case "/delete", "/rm":
		s.delete(ctx, rest)

	case "/close":
		s.ctl.CloseDetail()
		s.render()

	case "/search":
		s.search(ctx, rest)

	case "/mode":
		s.setMode(ctx, rest)

	case "/clear-search":
		st := s.ctl.Snapshot()
		_ = s.ctl.Search(ctx, "", st.SearchMode)
		s.render()

	case "/profile":
		s.navigate(ctx, app.PageProfile)

	case "/stats":
		s.ctl.LoadStats(ctx)
		s.println(s.view.StatsHeader(s.ctl.Snapshot().Stats))

	case "/refresh":
		if err := s.ctl.Refresh(ctx); err == nil {
			s.render()
		}

	case "/dismiss":
		s.ctl.DismissError()

	case "/config":
		cfg, err := config.Load()
		if err != nil {
			s.println(s.view.Banner(fmt.Sprintf("Failed to load config: %v", err)))
		} else {
			s.println(cfg.String())
		}

	case "/history":
		s.history(strings.Fields(rest))

	default:
		s.printf("Unknown command: %s\n", command)
		s.println("Type /help for available commands")
	}
	return true
}

// render prints the current page
func (s *Shell) render() {
	st := s.ctl.Snapshot()

	switch st.Page {
	case app.PageSearch:
		s.println(s.view.StatsHeader(st.Stats))
		s.println(s.view.SearchResults(st.SearchQuery, st.SearchMode.Label(), st.SearchResults))
	case app.PageProfile:
		s.println(s.view.Profile(st.Stats, s.ctl.TagStats(), st.Loading))
	case app.PageCreate:
		s.println(s.view.Suggestions(st.Suggestions))
	default:
		s.println(s.view.MemoryList(st.Memories))
		s.println(s.view.Suggestions(st.Suggestions))
	}
}

// showBanner prints the error banner until it is dismissed
func (s *Shell) showBanner() {
	if msg := s.ctl.Snapshot().Error; msg != "" && msg != s.shown {
		s.println(s.view.Banner(msg))
	}
}

func (s *Shell) navigate(ctx context.Context, page app.Page) {
	if err := s.ctl.Navigate(ctx, page); err != nil {
		logger.Warn("navigate to %s failed: %v", page, err)
	}
	if page != app.PageCreate {
		s.render()
	}
}

func (s *Shell) search(ctx context.Context, query string) {
	st := s.ctl.Snapshot()
	if err := s.ctl.Search(ctx, query, st.SearchMode); err != nil {
		return
	}
	s.render()
}

func (s *Shell) setMode(ctx context.Context, arg string) {
	mode, err := app.ParseSearchMode(strings.ToLower(arg))
	if err != nil {
		s.println(s.view.Banner(err.Error()))
		return
	}
	if err := s.ctl.SetSearchMode(ctx, mode); err != nil {
		return
	}
	s.println(s.view.Success("Search mode: " + mode.Label()))
	if s.ctl.Snapshot().SearchQuery != "" {
		s.render()
	}
}

// resolveTarget turns "3" (position on the current page) or "#12" (memory id) into an id
func resolveTarget(arg string, st app.State) (int64, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		if st.DetailOpen && st.SelectedID != 0 {
			return st.SelectedID, nil
		}
		return 0, app.ErrNoSelection
	}

	if strings.HasPrefix(arg, "#") {
		id, err := strconv.ParseInt(arg[1:], 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid memory id: %s", arg)
		}
		return id, nil
	}

	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("expected a list number or #id, got %q", arg)
	}
	visible := st.Visible()
	if n < 1 || n > len(visible) {
		return 0, fmt.Errorf("no memory at position %d (showing %d)", n, len(visible))
	}
	return visible[n-1].ID, nil
}

func (s *Shell) show(ctx context.Context, arg string) {
	if arg == "" {
		s.println(s.view.Muted("Usage: /show <n|#id>"))
		return
	}
	id, err := resolveTarget(arg, s.ctl.Snapshot())
	if err != nil {
		s.println(s.view.Banner(err.Error()))
		return
	}

	s.ctl.SelectForDetail(id)
	m, err := s.ctl.LoadDetail(ctx)
	if err != nil {
		if errors.Is(err, app.ErrStale) {
			return
		}
		s.println(s.view.Banner(api.Message(err, "Failed to load memory")))
		return
	}
	s.println(s.view.Detail(*m))
}

func (s *Shell) useSuggestion(ctx context.Context, arg string) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		s.println(s.view.Muted("Usage: /use <n>"))
		return
	}
	m, err := s.ctl.CreateFromSuggestion(ctx, n-1)
	if err != nil {
		var apiErr *api.Error
		if !errors.As(err, &apiErr) {
			s.println(s.view.Banner(err.Error()))
		}
		return
	}
	s.println(s.view.Success(fmt.Sprintf("Saved %q as #%d", m.Title, m.ID)))
	s.render()
}

// createFlow shows the create form until it is submitted or abandoned. A
// rejected submission reopens the form with what was entered.
func (s *Shell) createFlow(ctx context.Context) {
	s.render()

	values := form.Values{}
	for {
		v, ok := s.editValues("New memory", values)
		if !ok {
			s.navigate(ctx, app.PageList)
			return
		}
		values = v

		in, err := v.Input()
		if err != nil {
			s.println(s.view.Banner(err.Error()))
			continue
		}

		m, err := s.ctl.Create(ctx, in)
		if err == nil {
			s.println(s.view.Success(fmt.Sprintf("Created #%d %s", m.ID, m.Title)))
			s.render()
			return
		}
		if !s.retry() {
			return
		}
	}
}

// editFlow edits the memory open in the detail view
func (s *Shell) editFlow(ctx context.Context) {
	st := s.ctl.Snapshot()
	if !st.DetailOpen || st.SelectedID == 0 {
		s.println(s.view.Muted("Open a memory with /show <n|#id> first"))
		return
	}

	current := st.Detail
	if current == nil {
		m, err := s.ctl.LoadDetail(ctx)
		if err != nil {
			s.println(s.view.Banner(api.Message(err, "Failed to load memory")))
			return
		}
		current = m
	}

	values := form.FromMemory(*current)
	for {
		v, ok := s.editValues(fmt.Sprintf("Edit #%d", current.ID), values)
		if !ok {
			return
		}
		values = v

		in, err := v.Input()
		if err != nil {
			s.println(s.view.Banner(err.Error()))
			continue
		}

		m, err := s.ctl.Update(ctx, current.ID, in)
		if err == nil {
			s.println(s.view.Success("Saved"))
			s.println(s.view.Detail(*m))
			return
		}
		if !s.retry() {
			return
		}
	}
}

// editValues runs the form, reporting false when the user backed out
func (s *Shell) editValues(heading string, initial form.Values) (form.Values, bool) {
	v, err := s.editor.Edit(heading, initial)
	if errors.Is(err, form.ErrCanceled) {
		s.println(s.view.Muted("Canceled"))
		return initial, false
	}
	if err != nil {
		s.println(s.view.Banner(fmt.Sprintf("Form error: %v", err)))
		return initial, false
	}
	return v, true
}

// retry shows the banner for a failed submission and asks whether to reopen the form
func (s *Shell) retry() bool {
	if msg := s.ctl.Snapshot().Error; msg != "" {
		s.println(s.view.Banner(msg))
		s.shown = msg
	}
	again, err := s.editor.Confirm("Edit and submit again?", true)
	return err == nil && again
}

func (s *Shell) delete(ctx context.Context, arg string) {
	st := s.ctl.Snapshot()
	id, err := resolveTarget(arg, st)
	if err != nil {
		if errors.Is(err, app.ErrNoSelection) {
			s.println(s.view.Muted("Usage: /delete <n|#id>, or /show a memory first"))
			return
		}
		s.println(s.view.Banner(err.Error()))
		return
	}

	title := fmt.Sprintf("#%d", id)
	if m, ok := st.Find(id); ok {
		title = fmt.Sprintf("%q", m.Title)
	}
	ok, err := s.editor.Confirm(fmt.Sprintf("Delete %s?", title), false)
	if err != nil || !ok {
		s.println(s.view.Muted("Kept"))
		return
	}

	if err := s.ctl.Delete(ctx, id); err != nil {
		return
	}
	s.println(s.view.Success("Deleted " + title))
	s.render()
}

func (s *Shell) history(args []string) {
	if len(args) > 0 && args[0] == "clear" {
		if s.historyPath == "" {
			return
		}
		if err := os.WriteFile(s.historyPath, []byte{}, 0644); err != nil {
			s.println(s.view.Banner(fmt.Sprintf("Failed to clear history: %v", err)))
			return
		}
		s.println(s.view.Success("Command history cleared"))
		return
	}
	s.println(s.view.Muted("Use Up/Down arrow keys to browse command history"))
	s.println(s.view.Muted("Use /history clear to clear history"))
}

func (s *Shell) printHelp() {
	s.printf("%s", HelpText())
}
