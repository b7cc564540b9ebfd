package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasuganosora/gjtracker/tracker"
	"github.com/kasuganosora/gjtracker/ui"
)

func newLevelUpCmd(g *globals) *cobra.Command {
	var charID string
	cmd := &cobra.Command{
		Use:   "levelup <id>",
		Short: "Raise an item's level by one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.Store.LevelUp(args[0], charID)
			if err != nil {
				return err
			}
			it, err := s.Store.Item(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.theme.Outcome(it.Name, res))
			return nil
		},
	}
	cmd.Flags().StringVar(&charID, "char", "", "Level the character's progress instead of the global level")
	return cmd
}

func newCheckCmd(g *globals) *cobra.Command {
	var (
		charID  string
		uncheck bool
	)
	cmd := &cobra.Command{
		Use:   "check <id> <level> <task>",
		Short: "Tick a checklist task; completing a level levels the item up",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("level: %w", err)
			}
			task, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("task: %w", err)
			}
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.Store.SetChecklistItem(charID, args[0], level, task, !uncheck)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			state := "checked"
			if uncheck {
				state = "unchecked"
			}
			fmt.Fprintf(out, "%s task %d of level %d\n", state, task, level)
			it, err := s.Store.Item(args[0])
			if err != nil {
				return err
			}
			for _, lr := range res.LevelUps {
				fmt.Fprintln(out, s.theme.Outcome(it.Name, lr))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&charID, "char", "", "Character (default Me)")
	cmd.Flags().BoolVar(&uncheck, "uncheck", false, "Clear the task instead")
	return cmd
}

func newEvolveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "evolve <id>",
		Short: "Shift an item's checklists up one level, clearing level 1",
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
			out := cmd.OutOrStdout()
			if !s.confirm.Confirm(tracker.Prompt{Kind: tracker.PromptEvolution, ItemID: it.ID, ItemName: it.Name}) {
				fmt.Fprintln(out, s.theme.Muted.Render("evolution cancelled"))
				return nil
			}
			if _, err := s.Store.Evolve(it.ID); err != nil {
				return err
			}
			fmt.Fprintln(out, s.theme.Good.Render(fmt.Sprintf("%s evolved", it.Name)))
			return nil
		},
	}
}

func newAcquireCmd(g *globals) *cobra.Command {
	var charID string
	cmd := &cobra.Command{
		Use:   "acquire <id>",
		Short: "Add an item to a character once its prerequisites are met",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			err = s.Store.AcquireItem(charID, args[0])
			var gate *tracker.GateError
			if errors.As(err, &gate) {
				fmt.Fprintln(out, s.theme.Bad.Render("prerequisites not met:"))
				for _, r := range gate.Unmet {
					fmt.Fprintf(out, "- %s level %d/%d\n", r.ParentID, r.Have, r.Required)
				}
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", s.theme.Good.Render("acquired"), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&charID, "char", tracker.MeID, "Character")
	return cmd
}

func newCharsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chars",
		Short: "List characters and their items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			for _, c := range s.Store.Characters() {
				fmt.Fprintf(out, "%s %s %s\n", s.theme.Key.Render(c.Name), s.theme.Muted.Render("("+c.ID+")"), s.theme.LabelValue("XP", c.XP))
				for _, ci := range c.Items {
					eff, err := s.Store.EffectiveLevel(c.ID, ci.ItemID)
					if err != nil {
						return err
					}
					line := fmt.Sprintf("  - %s lvl %d %s", ci.ItemID, ci.Level, s.theme.Grade(ci.Level))
					if eff != ci.Level {
						line += s.theme.Gold.Render(fmt.Sprintf(" (boosted to %d)", eff))
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "new <name>",
		Short: "Create a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()
			c, err := s.Store.CreateCharacter(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", c.Name, c.ID)
			return nil
		},
	})
	return cmd
}

func newRemindersCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "List overdue goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			rs := s.Store.DueReminders(time.Now())
			if len(rs) == 0 {
				fmt.Fprintln(out, s.theme.Muted.Render("nothing overdue"))
				return nil
			}
			for _, r := range rs {
				fmt.Fprintln(out, s.theme.Warn.Render(iconed(s.theme, ui.IconBell, r.Text())))
			}
			return nil
		},
	}
}

func iconed(th ui.Theme, icon, text string) string {
	if th.Emojis {
		return icon + " " + text
	}
	return text
}
