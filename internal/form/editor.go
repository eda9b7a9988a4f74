package form

import (
	"errors"
	"io"

	"github.com/charmbracelet/huh"
)

// ErrCanceled is returned when the user leaves a form without submitting
var ErrCanceled = errors.New("form canceled")

// Editor collects memory fields and confirmations from the user
type Editor interface {
	// Edit shows the form pre-filled with initial and returns what was entered
	Edit(heading string, initial Values) (Values, error)
	// Confirm asks a yes/no question
	Confirm(question string, defaultYes bool) (bool, error)
}

// HuhEditor is an Editor drawn with huh
type HuhEditor struct {
	accessible bool
	input      io.Reader
	output     io.Writer
}

// HuhOption configures a HuhEditor
type HuhOption func(*HuhEditor)

// WithAccessible switches to huh's line-based prompts, for dumb terminals
func WithAccessible(on bool) HuhOption {
	return func(e *HuhEditor) {
		e.accessible = on
	}
}

// WithIO replaces the terminal streams
func WithIO(in io.Reader, out io.Writer) HuhOption {
	return func(e *HuhEditor) {
		e.input = in
		e.output = out
	}
}

// NewHuhEditor creates an editor on the process terminal
func NewHuhEditor(opts ...HuhOption) *HuhEditor {
	e := &HuhEditor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *HuhEditor) run(groups ...*huh.Group) error {
	f := huh.NewForm(groups...).
		WithShowHelp(true).
		WithAccessible(e.accessible)
	if e.input != nil {
		f = f.WithInput(e.input)
	}
	if e.output != nil {
		f = f.WithOutput(e.output)
	}

	err := f.Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCanceled
	}
	return err
}

// Edit implements Editor
func (e *HuhEditor) Edit(heading string, initial Values) (Values, error) {
	v := initial

	group := huh.NewGroup(
		huh.NewInput().
			Title("Title").
			Value(&v.Title).
			Validate(RequiredText("title")),
		huh.NewText().
			Title("Content").
			Lines(6).
			Value(&v.Content).
			Validate(RequiredText("content")),
		huh.NewInput().
			Title("Tags").
			Description("comma separated, optional").
			Value(&v.Tags),
	).Title(heading)

	if err := e.run(group); err != nil {
		return initial, err
	}
	return v, nil
}

// Confirm implements Editor
func (e *HuhEditor) Confirm(question string, defaultYes bool) (bool, error) {
	value := defaultYes

	c := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&value)

	if err := e.run(huh.NewGroup(c)); err != nil {
		return false, err
	}
	return value, nil
}
