package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kasuganosora/gjtracker/tracker"
	"github.com/kasuganosora/gjtracker/ui"
)

func newItemsCmd(g *globals) *cobra.Command {
	var (
		query                            string
		types                            []string
		loose                            bool
		tierMin, tierMax, lvlMin, lvlMax int
	)
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List items, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := tracker.Filter{Query: query, LooseOnly: loose}
			for _, t := range types {
				it, err := tracker.ParseItemType(t)
				if err != nil {
					return err
				}
				f.Types = append(f.Types, it)
			}
			flags := cmd.Flags()
			if flags.Changed("tier-min") {
				f.TierMin = &tierMin
			}
			if flags.Changed("tier-max") {
				f.TierMax = &tierMax
			}
			if flags.Changed("level-min") {
				f.LevelMin = &lvlMin
			}
			if flags.Changed("level-max") {
				f.LevelMax = &lvlMax
			}

			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			items := s.Store.Search(f)
			if len(items) == 0 {
				fmt.Fprintln(out, s.theme.Muted.Render("no items"))
				return nil
			}
			for _, it := range items {
				fmt.Fprintln(out, s.theme.ItemLine(it))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "Match names and descriptions")
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Item types (skill|faculty|factor)")
	cmd.Flags().BoolVar(&loose, "loose", false, "Only loose ends")
	cmd.Flags().IntVar(&tierMin, "tier-min", 0, "Minimum tier")
	cmd.Flags().IntVar(&tierMax, "tier-max", 0, "Maximum tier")
	cmd.Flags().IntVar(&lvlMin, "level-min", 0, "Minimum level")
	cmd.Flags().IntVar(&lvlMax, "level-max", 0, "Maximum level")
	return cmd
}

func newShowCmd(g *globals) *cobra.Command {
	var charID string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an item with its parents, checklists and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			it, err := s.Store.Item(args[0])
			if err != nil {
				return err
			}
			unmet, err := s.Store.UnmetRequirements(it.ID, charID)
			if err != nil {
				return err
			}
			kids, err := s.Store.Children(it.ID)
			if err != nil {
				return err
			}
			printItem(cmd, s.theme, it, unmet, kids)
			return nil
		},
	}
	cmd.Flags().StringVar(&charID, "char", "", "Evaluate prerequisites for this character (default: global levels)")
	return cmd
}

func printItem(cmd *cobra.Command, th ui.Theme, it *tracker.Item, unmet []tracker.Requirement, kids []*tracker.Item) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, th.Heading(th.TypeIcon(it.Type), it.Name))
	fmt.Fprintln(out, th.LabelValue("ID", it.ID))
	fmt.Fprintln(out, th.LabelValue("Type", it.Type))
	fmt.Fprintln(out, th.LabelValue("Tier", it.Tier))
	fmt.Fprintln(out, th.LabelValue("Level", fmt.Sprintf("%d %s", it.Level, th.Grade(it.Level))))
	if it.Enhanced {
		fmt.Fprintln(out, th.Gold.Render("enhanced"))
	}
	if it.Description != "" {
		fmt.Fprintln(out, th.LabelValue("Description", it.Description))
	}

	if len(it.Parents) > 0 {
		missing := make(map[string]bool, len(unmet))
		for _, r := range unmet {
			missing[r.ParentID] = true
		}
		fmt.Fprintln(out, th.H2.Render("Parents"))
		for _, p := range it.Parents {
			mark := th.Good.Render("✓")
			if missing[p.ID] {
				mark = th.Bad.Render("✗")
			}
			fmt.Fprintf(out, "- %s %s needs level %d\n", mark, p.ID, p.RequiredLevel)
		}
	}
	if len(kids) > 0 {
		fmt.Fprintln(out, th.H2.Render("Children"))
		for _, k := range kids {
			fmt.Fprintf(out, "- %s\n", th.ItemLine(k))
		}
	}

	header := false
	for l := 1; l <= tracker.MaxLevel; l++ {
		tasks := it.Checklists.At(l)
		if len(tasks) == 0 {
			continue
		}
		if !header {
			fmt.Fprintln(out, th.H2.Render("Checklists"))
			header = true
		}
		fmt.Fprintf(out, "%s\n", th.Key.Render(fmt.Sprintf("Level %d (%s)", l, tracker.LevelGrade(l))))
		for i, task := range tasks {
			fmt.Fprintf(out, "  %d. %s\n", i, task)
		}
	}
	if it.Notes != "" {
		fmt.Fprintln(out, th.H2.Render("Notes"))
		fmt.Fprintln(out, it.Notes)
	}
	if len(it.History) > 0 {
		fmt.Fprintln(out, th.H2.Render("History"))
		for _, h := range it.History {
			fmt.Fprintf(out, "- %s %s\n", th.Muted.Render(h.Date), h.Change)
		}
	}
}

// parseParent reads "id" or "id:level"; a bare id needs def.
func parseParent(s string, def int) (tracker.Parent, error) {
	id, lvl, ok := strings.Cut(s, ":")
	id = strings.TrimSpace(id)
	if id == "" {
		return tracker.Parent{}, fmt.Errorf("parent %q: empty id", s)
	}
	if !ok {
		return tracker.Parent{ID: id, RequiredLevel: def}, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(lvl))
	if err != nil {
		return tracker.Parent{}, fmt.Errorf("parent %q: level: %w", s, err)
	}
	return tracker.Parent{ID: id, RequiredLevel: n}, nil
}

// parseTask reads "level:text".
func parseTask(s string) (int, string, error) {
	lvl, text, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(text) == "" {
		return 0, "", fmt.Errorf("task %q: want <level>:<text>", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(lvl))
	if err != nil || n < 1 || n > tracker.MaxLevel {
		return 0, "", fmt.Errorf("task %q: level must be 1..%d", s, tracker.MaxLevel)
	}
	return n, strings.TrimSpace(text), nil
}

func newAddCmd(g *globals) *cobra.Command {
	var (
		in      tracker.ItemInput
		typ     string
		parents []string
		tasks   []string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an item, or replace the one with the same id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := tracker.ParseItemType(typ)
			if err != nil {
				return err
			}
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			in.Name, in.Type = args[0], t
			for _, p := range parents {
				par, err := parseParent(p, s.Config.Tracker.DefaultRequiredLevel)
				if err != nil {
					return err
				}
				in.Parents = append(in.Parents, par)
			}
			for _, raw := range tasks {
				lvl, text, err := parseTask(raw)
				if err != nil {
					return err
				}
				in.Checklists.Set(lvl, append(in.Checklists.At(lvl), text))
			}

			res, err := s.Store.SaveItem(in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			verb := "updated"
			if res.Created {
				verb = "added"
			}
			fmt.Fprintf(out, "%s %s\n", s.theme.Good.Render(verb), s.theme.ItemLine(res.Item))
			for _, w := range res.Warnings {
				fmt.Fprintln(out, s.theme.Warn.Render(ui.IconWarn+" "+w))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.ID, "id", "", "Item id (default <type>_<name>)")
	f.StringVarP(&typ, "type", "t", string(tracker.TypeSkill), "Item type (skill|faculty|factor)")
	f.StringVarP(&in.Description, "desc", "d", "", "Description")
	f.StringVar(&in.Notes, "notes", "", "Notes")
	f.IntVarP(&in.Level, "level", "l", 0, "Starting level (0-7)")
	f.StringArrayVarP(&parents, "parent", "p", nil, "Parent as <id>[:<required level>] (repeatable, at most 2)")
	f.StringArrayVar(&tasks, "task", nil, "Checklist task as <level>:<text> (repeatable)")
	return cmd
}

func newRmCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Store.DeleteItem(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newLooseCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "loose",
		Short: "List loose ends: tiered items without two parents, or childless non-factors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			items := s.Store.LooseEnds()
			if len(items) == 0 {
				fmt.Fprintln(out, s.theme.Muted.Render("no loose ends"))
				return nil
			}
			fmt.Fprintln(out, s.theme.Heading(ui.IconLoose, "Loose ends"))
			for _, it := range items {
				fmt.Fprintln(out, s.theme.ItemLine(it))
			}
			return nil
		},
	}
}

func newTiersCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Recompute every tier and list items by tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Store.RecomputeAll(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, it := range s.Store.Items() {
				fmt.Fprintf(out, "%d %s\n", it.Tier, it.ID)
			}
			return nil
		},
	}
}
