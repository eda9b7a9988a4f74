package cli

import (
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-runewidth"
)

// CommandSuggestion is a shell command with its help text
type CommandSuggestion struct {
	Text        string
	Args        string
	Description string
}

// Commands lists the shell commands in help order
var Commands = []CommandSuggestion{
	{Text: "/list", Description: "Show all memories (also /home)"},
	{Text: "/new", Description: "Create a memory"},
	{Text: "/suggest", Description: "Draw new quick-create suggestions"},
	{Text: "/use", Args: "<n>", Description: "Save suggestion n as a memory"},
	{Text: "/show", Args: "<n|#id>", Description: "Open a memory by list position or id"},
	{Text: "/edit", Description: "Edit the open memory"},
	{Text: "/delete", Args: "[n|#id]", Description: "Delete a memory, the open one by default"},
	{Text: "/close", Description: "Close the open memory"},
	{Text: "/search", Args: "<query>", Description: "Search memories; text without a leading / also searches"},
	{Text: "/mode", Args: "vector|sqlite", Description: "Switch between semantic and text search"},
	{Text: "/clear-search", Description: "Clear the search and return to the list"},
	{Text: "/profile", Description: "Show tag statistics"},
	{Text: "/stats", Description: "Show store record counts"},
	{Text: "/refresh", Description: "Reload memories and stats"},
	{Text: "/dismiss", Description: "Hide the error message"},
	{Text: "/config", Description: "Show current configuration"},
	{Text: "/history", Args: "[clear]", Description: "Command history tips, or clear it"},
	{Text: "/help", Description: "Show this help"},
	{Text: "/exit", Description: "Exit"},
}

// HelpText renders Commands as an aligned table
func HelpText() string {
	usages := make([]string, len(Commands))
	width := 0
	for i, c := range Commands {
		usages[i] = strings.TrimSpace(c.Text + " " + c.Args)
		if w := runewidth.StringWidth(usages[i]); w > width {
			width = w
		}
	}

	var b strings.Builder
	b.WriteString("\nmemhub commands\n\n")
	for i, c := range Commands {
		b.WriteString("  ")
		b.WriteString(runewidth.FillRight(usages[i], width))
		b.WriteString("  ")
		b.WriteString(c.Description)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// completer offers command names and the fixed arguments of /mode and /history
func completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(Commands))
	for _, c := range Commands {
		switch c.Text {
		case "/mode":
			items = append(items, readline.PcItem(c.Text, readline.PcItem("vector"), readline.PcItem("sqlite")))
		case "/history":
			items = append(items, readline.PcItem(c.Text, readline.PcItem("clear")))
		default:
			items = append(items, readline.PcItem(c.Text))
		}
	}
	return readline.NewPrefixCompleter(items...)
}
