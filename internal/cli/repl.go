// Package cli provides the interactive memhub shell.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/hession/memhub/internal/config"
	"github.com/hession/memhub/internal/form"
	"github.com/hession/memhub/internal/logger"
	"github.com/hession/memhub/internal/view"
)

const Version = "0.1.0"

// Run starts the interactive shell
func Run(cfg *config.Config) error {
	ctl, err := NewController(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}

	renderer := view.New(cfg.UI.Color, terminalWidth())
	shell := NewShell(ctl, cfg, form.NewHuhEditor(), renderer, os.Stdout)

	printWelcome(renderer, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ctl.Start(ctx); err != nil {
		logger.Warn("initial load failed: %v", err)
	}
	shell.render()
	shell.showBanner()

	return runREPL(ctx, cancel, shell, cfg)
}

// printWelcome prints welcome message
func printWelcome(r *view.Renderer, cfg *config.Config) {
	fmt.Printf("\n%s\n", r.Theme().Heading.Render(fmt.Sprintf("memhub v%s", Version)))
	fmt.Println(r.Muted(fmt.Sprintf("Connected to %s%s", cfg.Server.BaseURL, cfg.Server.APIPrefix)))
	fmt.Println(r.Muted("Type /help for help, /exit to quit, or any text to search"))
	fmt.Println()
}

func terminalWidth() int {
	if w := readline.GetScreenWidth(); w > 0 {
		return w
	}
	return view.DefaultWidth
}

// runREPL runs the interactive loop with readline support
func runREPL(ctx context.Context, cancel context.CancelFunc, shell *Shell, cfg *config.Config) error {
	rlConfig := &readline.Config{
		Prompt:            "memhub> ",
		HistoryFile:       cfg.HistoryPath(),
		HistoryLimit:      1000,
		AutoComplete:      completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
			rl.Close()
		case <-ctx.Done():
		}
	}()

	for {
		rl.SetPrompt(prompt(shell))

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				fmt.Println("Press Ctrl+D or type /exit to quit")
				continue
			}
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				fmt.Println("Goodbye!")
				return nil
			}
			logger.Error("readline failed: %v", err)
			return fmt.Errorf("failed to read input: %w", err)
		}

		if !shell.Execute(ctx, line) {
			return nil
		}
	}
}

// prompt shows the current page and search mode
func prompt(shell *Shell) string {
	st := shell.ctl.Snapshot()
	label := string(st.Page)
	if st.DetailOpen {
		label = fmt.Sprintf("%s #%d", label, st.SelectedID)
	}
	return fmt.Sprintf("memhub [%s|%s]> ", label, st.SearchMode)
}
