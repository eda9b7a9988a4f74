package cli

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hession/memhub/internal/api"
	"github.com/hession/memhub/internal/app"
	"github.com/hession/memhub/internal/apitest"
	"github.com/hession/memhub/internal/config"
	"github.com/hession/memhub/internal/form"
	"github.com/hession/memhub/internal/suggest"
	"github.com/hession/memhub/internal/view"
)

type editResult struct {
	values form.Values
	err    error
}

// scriptedEditor replays canned form results and records what each form was opened with
type scriptedEditor struct {
	edits    []editResult
	confirms []bool
	opened   []form.Values
	asked    []string
}

func (e *scriptedEditor) Edit(heading string, initial form.Values) (form.Values, error) {
	e.opened = append(e.opened, initial)
	if len(e.edits) == 0 {
		return initial, form.ErrCanceled
	}
	r := e.edits[0]
	e.edits = e.edits[1:]
	return r.values, r.err
}

func (e *scriptedEditor) Confirm(question string, defaultYes bool) (bool, error) {
	e.asked = append(e.asked, question)
	if len(e.confirms) == 0 {
		return false, nil
	}
	ok := e.confirms[0]
	e.confirms = e.confirms[1:]
	return ok, nil
}

type fixture struct {
	srv    *apitest.Server
	ctl    *app.Controller
	editor *scriptedEditor
	out    *bytes.Buffer
	shell  *Shell
}

func newFixture(t *testing.T, seed ...api.Memory) *fixture {
	t.Helper()

	srv := apitest.New(t)
	srv.Seed(seed...)

	cfg := config.DefaultConfig()
	cfg.UI.HistoryFile = ""

	f := &fixture{
		srv:    srv,
		ctl:    app.New(api.New(srv.BaseURL(), apitest.Prefix)),
		editor: &scriptedEditor{},
		out:    &bytes.Buffer{},
	}
	f.shell = NewShell(f.ctl, cfg, f.editor, view.New(false, 80), f.out)
	require.NoError(t, f.ctl.Start(context.Background()))
	return f
}

// run executes line and returns what it printed
func (f *fixture) run(line string) string {
	f.out.Reset()
	f.shell.Execute(context.Background(), line)
	return f.out.String()
}

func TestVersion(t *testing.T) {
	if Version != "0.1.0" {
		t.Errorf("Expected Version to be '0.1.0', got '%s'", Version)
	}
}

func TestResolveTarget(t *testing.T) {
	st := app.State{
		Page:     app.PageList,
		Memories: []api.Memory{{ID: 10}, {ID: 20}},
	}
	search := st
	search.Page = app.PageSearch
	search.SearchResults = []api.Memory{{ID: 30}}
	open := st
	open.DetailOpen = true
	open.SelectedID = 20

	tests := []struct {
		name    string
		arg     string
		state   app.State
		want    int64
		wantErr bool
	}{
		{"position", "2", st, 20, false},
		{"id", "#77", st, 77, false},
		{"position on search page", "1", search, 30, false},
		{"out of range", "3", st, 0, true},
		{"zero", "0", st, 0, true},
		{"bad id", "#x", st, 0, true},
		{"garbage", "abc", st, 0, true},
		{"default to open", "", open, 20, false},
		{"nothing open", "", st, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveTarget(tt.arg, tt.state)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line, command, rest string
	}{
		{"/list", "/list", ""},
		{"/SHOW 2", "/show", "2"},
		{`/search "quick sort"`, "/search", "quick sort"},
		{"/search  heap   sort ", "/search", "heap sort"},
		{"/delete #12", "/delete", "#12"},
		{`/search it's`, "/search", "it's"},
		{"/search a | b", "/search", "a | b"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			command, rest := splitCommand(tt.line)
			assert.Equal(t, tt.command, command)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestShell_ListAndExit(t *testing.T) {
	f := newFixture(t, api.Memory{Title: "Hello", Content: "world"})

	out := f.run("/list")
	assert.Contains(t, out, "All memories (1)")
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "Quick create suggestions")

	assert.False(t, f.shell.Execute(context.Background(), "/exit"))
	assert.True(t, f.shell.Execute(context.Background(), "   "))
	assert.Contains(t, f.run("/nope"), "Unknown command: /nope")
}

func TestShell_Create(t *testing.T) {
	f := newFixture(t, api.Memory{Title: "Old", Content: "old"})
	f.editor.edits = []editResult{{values: form.Values{Title: " New ", Content: "body", Tags: "a, b"}}}

	out := f.run("/new")
	assert.Contains(t, out, "Created #2 New")

	stored := f.srv.Memories()
	require.Len(t, stored, 2)
	assert.Equal(t, "New", stored[0].Title)
	assert.Equal(t, []string{"a", "b"}, stored[0].Tags)

	st := f.ctl.Snapshot()
	assert.Equal(t, app.PageList, st.Page)
	assert.Equal(t, "New", st.Memories[0].Title)
}

func TestShell_CreateReopensAfterServerError(t *testing.T) {
	f := newFixture(t)
	f.srv.FailNext("create", http.StatusInternalServerError, `{"detail":"database is locked"}`)

	entered := form.Values{Title: "Keep me", Content: "typed text", Tags: "x"}
	f.editor.edits = []editResult{{values: entered}, {values: entered}}
	f.editor.confirms = []bool{true}

	out := f.run("/new")

	assert.Contains(t, out, "database is locked")
	require.Len(t, f.editor.opened, 2)
	assert.Equal(t, form.Values{}, f.editor.opened[0])
	assert.Equal(t, entered, f.editor.opened[1], "form must reopen with the entered values")
	assert.Contains(t, out, "Created #1 Keep me")
}

func TestShell_FailedCreateBannerPrintedOnce(t *testing.T) {
	f := newFixture(t)
	f.srv.FailNext("create", http.StatusInternalServerError, `{"detail":"database is locked"}`)

	f.editor.edits = []editResult{{values: form.Values{Title: "t", Content: "c"}}}
	f.editor.confirms = []bool{false}

	out := f.run("/new")
	assert.Equal(t, 1, strings.Count(out, "database is locked"), out)

	// the banner comes back on the next line until dismissed
	out = f.run("/help")
	assert.Equal(t, 1, strings.Count(out, "database is locked"), out)
}

func TestShell_CreateValidationNeverReachesServer(t *testing.T) {
	f := newFixture(t)
	f.editor.edits = []editResult{
		{values: form.Values{Title: "  ", Content: "c"}},
	}

	out := f.run("/new")

	assert.Contains(t, out, "title is required")
	assert.Contains(t, out, "Canceled")
	for _, call := range f.srv.Calls() {
		assert.NotEqual(t, "POST "+apitest.Prefix+"/memories/", call)
	}
	assert.Equal(t, app.PageList, f.ctl.Snapshot().Page)
}

func TestShell_UseSuggestion(t *testing.T) {
	f := newFixture(t)

	out := f.run("/use 1")
	assert.Contains(t, out, "Saved")
	assert.Equal(t, suggest.Curated()[0].Title, f.srv.Memories()[0].Title)

	assert.Contains(t, f.run("/use 99"), "out of range")
	assert.Contains(t, f.run("/use"), "Usage: /use <n>")
}

func TestShell_SearchAndMode(t *testing.T) {
	f := newFixture(t,
		api.Memory{Title: "quick sort", Content: "divide and conquer"},
		api.Memory{Title: "groceries", Content: "milk"},
	)

	out := f.run("sort")
	assert.Contains(t, out, `Search results for "sort" (1)`)
	assert.Contains(t, out, "semantic")
	assert.Contains(t, out, "100.0%")

	out = f.run("/mode sqlite")
	assert.Contains(t, out, "Search mode: text")
	assert.Contains(t, out, `Search results for "sort" (1)`)
	assert.Contains(t, f.srv.Calls(), "POST "+apitest.Prefix+"/search/sqlite")

	assert.Contains(t, f.run("/mode fuzzy"), "unknown search mode")

	f.run("/clear-search")
	st := f.ctl.Snapshot()
	assert.Equal(t, app.PageList, st.Page)
	assert.Empty(t, st.SearchResults)
}

func TestShell_ShowEditDelete(t *testing.T) {
	f := newFixture(t,
		api.Memory{Title: "first", Content: "one", Tags: []string{"a"}},
		api.Memory{Title: "second", Content: "two"},
	)

	out := f.run("/show 1")
	assert.Contains(t, out, "first  #1")
	assert.True(t, f.ctl.Snapshot().DetailOpen)

	f.editor.edits = []editResult{{values: form.Values{Title: "first!", Content: "one", Tags: "a, b"}}}
	out = f.run("/edit")
	require.NotEmpty(t, f.editor.opened)
	assert.Equal(t, form.Values{Title: "first", Content: "one", Tags: "a"}, f.editor.opened[0])
	assert.Contains(t, out, "Saved")
	assert.Equal(t, "first!", f.ctl.Snapshot().Memories[0].Title)

	f.editor.confirms = []bool{true}
	out = f.run("/delete")
	assert.Contains(t, out, `Deleted "first!"`)
	st := f.ctl.Snapshot()
	assert.False(t, st.DetailOpen)
	require.Len(t, st.Memories, 1)
	assert.Equal(t, "second", st.Memories[0].Title)
}

func TestShell_DeleteDeclined(t *testing.T) {
	f := newFixture(t, api.Memory{Title: "keep", Content: "me"})
	f.editor.confirms = []bool{false}

	out := f.run("/delete #1")
	assert.Contains(t, out, "Kept")
	assert.Len(t, f.srv.Memories(), 1)
	assert.Contains(t, f.editor.asked[0], `"keep"`)

	assert.Contains(t, f.run("/delete"), "Usage: /delete")
}

func TestShell_EditNeedsOpenMemory(t *testing.T) {
	f := newFixture(t)
	assert.Contains(t, f.run("/edit"), "Open a memory")
}

func TestShell_BannerUntilDismissed(t *testing.T) {
	f := newFixture(t, api.Memory{Title: "x", Content: "y"})
	f.srv.FailNext("delete", http.StatusNotFound, `{"detail":"Memory not found"}`)
	f.editor.confirms = []bool{true}

	assert.Contains(t, f.run("/delete #9"), "Memory not found")
	assert.Contains(t, f.run("/help"), "Memory not found")

	f.run("/dismiss")
	assert.NotContains(t, f.run("/help"), "Memory not found")
}

func TestShell_Profile(t *testing.T) {
	f := newFixture(t,
		api.Memory{Title: "a", Content: "a", Tags: []string{"go", "go", "db"}},
		api.Memory{Title: "b", Content: "b", Tags: []string{"go"}},
	)
	f.ctl.LoadStats(context.Background())

	out := f.run("/profile")
	assert.Contains(t, out, "2 memories")
	assert.Contains(t, out, "2 distinct tags")
	assert.Contains(t, out, "Top 10 tags")
}

func TestHelpText(t *testing.T) {
	help := HelpText()
	for _, c := range Commands {
		assert.Contains(t, help, c.Text)
		assert.Contains(t, help, c.Description)
	}
	assert.True(t, strings.HasPrefix(help, "\nmemhub commands"))
}
