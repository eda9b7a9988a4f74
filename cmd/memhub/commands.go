package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hession/memhub/internal/api"
	"github.com/hession/memhub/internal/app"
	"github.com/hession/memhub/internal/cli"
	"github.com/hession/memhub/internal/form"
	"github.com/hession/memhub/internal/suggest"
	"github.com/hession/memhub/internal/view"
)

// session is what a one-shot command needs to talk to the service
type session struct {
	ctl  *app.Controller
	view *view.Renderer
	out  io.Writer
	json bool
}

func (o *rootOptions) session(cmd *cobra.Command) (*session, error) {
	ctl, err := cli.NewController(o.cfg)
	if err != nil {
		return nil, err
	}
	return &session{
		ctl:  ctl,
		view: view.New(o.cfg.UI.Color && !o.jsonOut, view.DefaultWidth),
		out:  cmd.OutOrStdout(),
		json: o.jsonOut,
	}, nil
}

func (s *session) printJSON(v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (s *session) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

// bannerErr turns the controller's banner into the command error
func (s *session) bannerErr(err error) error {
	if msg := s.ctl.Snapshot().Error; msg != "" {
		return fmt.Errorf("%s", msg)
	}
	return err
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid memory id: %s", arg)
	}
	return id, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all memories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			if err := s.ctl.LoadAll(cmd.Context()); err != nil {
				return s.bannerErr(err)
			}

			memories := s.ctl.Snapshot().Memories
			if s.json {
				return s.printJSON(memories)
			}
			s.println(s.view.MemoryList(memories))
			return nil
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		mode  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories",
		Long: `Search memories by meaning (vector mode) or by keyword (sqlite mode).

Examples:
  memhub search "sorting algorithms"
  memhub search singleton --mode sqlite
  memhub search "design patterns" --limit 3 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit > 0 {
				opts.cfg.Search.Limit = limit
			}
			if mode == "" {
				mode = opts.cfg.Search.DefaultMode
			}
			m, err := app.ParseSearchMode(mode)
			if err != nil {
				return err
			}

			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			if err := s.ctl.Search(cmd.Context(), query, m); err != nil {
				return s.bannerErr(err)
			}

			st := s.ctl.Snapshot()
			if s.json {
				return s.printJSON(st.SearchResults)
			}
			s.println(s.view.SearchResults(st.SearchQuery, m.Label(), st.SearchResults))
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Search mode: vector or sqlite (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results to return (default from config)")
	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		title      string
		content    string
		tags       string
		suggestion int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a memory",
		Long: `Create a memory from flags, from a suggestion, or with an interactive form
when neither --title nor --content is given.

Examples:
  memhub add --title "Go maps" --content "maps are not safe for concurrent writes" --tags go,concurrency
  memhub add --suggestion 2
  memhub add`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var m *api.Memory
			switch {
			case suggestion > 0:
				m, err = s.ctl.CreateFromSuggestion(ctx, suggestion-1)
			case title == "" && content == "":
				values, ferr := form.NewHuhEditor().Edit("New memory", form.Values{})
				if ferr != nil {
					return ferr
				}
				m, err = create(ctx, s, values)
			default:
				m, err = create(ctx, s, form.Values{Title: title, Content: content, Tags: tags})
			}
			if err != nil {
				return s.bannerErr(err)
			}

			if s.json {
				return s.printJSON(m)
			}
			s.println(s.view.Success(fmt.Sprintf("Created #%d %s", m.ID, m.Title)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Memory title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "Memory content")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma separated tags")
	cmd.Flags().IntVarP(&suggestion, "suggestion", "s", 0, "Save the nth curated suggestion instead")
	return cmd
}

func create(ctx context.Context, s *session, v form.Values) (*api.Memory, error) {
	in, err := v.Input()
	if err != nil {
		return nil, err
	}
	return s.ctl.Create(ctx, in)
}

// loadOne fetches a memory through the detail view
func loadOne(ctx context.Context, s *session, arg string) (*api.Memory, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, err
	}
	s.ctl.SelectForDetail(id)
	m, err := s.ctl.LoadDetail(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load #%d: %s", id, api.Message(err, "unknown error"))
	}
	return m, nil
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			m, err := loadOne(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}

			if s.json {
				return s.printJSON(m)
			}
			s.println(s.view.Detail(*m))
			return nil
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var title, content, tags string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a memory",
		Long: `Replace a memory's fields. Fields without a flag keep their current value;
with no flags at all an interactive form opens pre-filled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			current, err := loadOne(ctx, s, args[0])
			if err != nil {
				return err
			}

			values := form.FromMemory(*current)
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("content") && !flags.Changed("tags") {
				values, err = form.NewHuhEditor().Edit(fmt.Sprintf("Edit #%d", current.ID), values)
				if err != nil {
					return err
				}
			} else {
				if flags.Changed("title") {
					values.Title = title
				}
				if flags.Changed("content") {
					values.Content = content
				}
				if flags.Changed("tags") {
					values.Tags = tags
				}
			}

			in, err := values.Input()
			if err != nil {
				return err
			}
			m, err := s.ctl.Update(ctx, current.ID, in)
			if err != nil {
				return s.bannerErr(err)
			}

			if s.json {
				return s.printJSON(m)
			}
			s.println(s.view.Detail(*m))
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "New content")
	cmd.Flags().StringVar(&tags, "tags", "", "New comma separated tags")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}

			if !yes {
				ok, err := form.NewHuhEditor().Confirm(fmt.Sprintf("Delete memory #%d?", id), false)
				if err != nil {
					return err
				}
				if !ok {
					s.println("Kept")
					return nil
				}
			}

			if err := s.ctl.Delete(cmd.Context(), id); err != nil {
				return s.bannerErr(err)
			}
			if s.json {
				return s.printJSON(map[string]any{"deleted": id})
			}
			s.println(s.view.Success(fmt.Sprintf("Deleted #%d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts of the service stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			stats, err := s.ctl.FetchStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load stats: %s", api.Message(err, "unknown error"))
			}

			if s.json {
				return s.printJSON(stats)
			}
			s.println(s.view.StatsHeader(stats))
			return nil
		},
	}
}

// profileReport is the JSON shape of the profile command
type profileReport struct {
	TotalMemories int           `json:"total_memories"`
	DistinctTags  int           `json:"distinct_tags"`
	Tags          []app.TagStat `json:"tags"`
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show tag statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s.ctl.LoadStats(ctx)
			if err := s.ctl.Navigate(ctx, app.PageProfile); err != nil {
				return s.bannerErr(err)
			}

			st := s.ctl.Snapshot()
			tags := s.ctl.TagStats()
			if s.json {
				return s.printJSON(profileReport{
					TotalMemories: st.Stats.SQLiteCount,
					DistinctTags:  len(tags),
					Tags:          tags,
				})
			}
			s.println(s.view.Profile(st.Stats, tags, st.Loading))
			return nil
		},
	}
}

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	var (
		random bool
		count  int
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Show quick-create suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := suggest.Mode(opts.cfg.Suggestions.Mode)
			if random {
				mode = suggest.ModeRandom
			}
			if count <= 0 {
				count = opts.cfg.Suggestions.Count
			}
			if seed == 0 {
				seed = opts.cfg.Suggestions.Seed
			}

			list := suggest.NewSeeded(seed).Generate(mode, count)
			if opts.jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			r := view.New(opts.cfg.UI.Color, view.DefaultWidth)
			fmt.Fprintln(cmd.OutOrStdout(), r.Suggestions(list))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&random, "random", "r", false, "Assemble random suggestions instead of the curated set")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of random suggestions (default from config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed, 0 for time based (default from config)")
	return cmd
}
