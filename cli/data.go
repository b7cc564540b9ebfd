package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kasuganosora/gjtracker/exchange"
	"github.com/kasuganosora/gjtracker/tracker"
	"github.com/kasuganosora/gjtracker/ui"
)

const (
	formatCSV  = "csv"
	formatJSON = "json"
)

// formatOf resolves --format, falling back to the file extension.
func formatOf(flag, path string) (string, error) {
	f := strings.ToLower(flag)
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch f {
	case formatCSV, formatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want csv or json)", f)
}

func newImportCmd(g *globals) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge items from CSV, or replace the whole state from JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmtName, err := formatOf(format, args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			var cycle *tracker.CyclicGraphError
			switch fmtName {
			case formatCSV:
				rows, err := exchange.ReadCSV(f)
				if err != nil {
					return err
				}
				sum, err := s.Store.Import(rows)
				if cycle, err = tracker.SplitCycle(err); err != nil {
					return err
				}
				fmt.Fprintf(out, "%d created, %d merged, %d skipped\n", len(sum.Created), len(sum.Merged), len(sum.Skipped))
				for _, sk := range sum.Skipped {
					fmt.Fprintln(out, s.theme.Warn.Render(fmt.Sprintf("row %d: %s", sk.Row+1, sk.Reason)))
				}
			case formatJSON:
				st, err := exchange.ReadJSON(f)
				if err != nil {
					return err
				}
				if cycle, err = tracker.SplitCycle(s.Store.Replace(st)); err != nil {
					return err
				}
				fmt.Fprintf(out, "loaded %d items, %d characters\n", len(st.Items), len(st.Characters))
			}
			if cycle != nil {
				fmt.Fprintln(out, s.theme.Warn.Render(ui.IconWarn+" "+cycle.Error()))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv or json (default from the extension)")
	return cmd
}

func newExportCmd(g *globals) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write items as CSV or the whole state as JSON (stdout when no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if format == "" && path == "" {
				format = formatJSON
			}
			fmtName, err := formatOf(format, path)
			if err != nil {
				return err
			}

			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			var w io.Writer = cmd.OutOrStdout()
			if path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if fmtName == formatCSV {
				return exchange.WriteCSV(w, s.Store.Items())
			}
			return exchange.WriteJSON(w, s.Store.Snapshot())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv or json (default from the extension, json on stdout)")
	return cmd
}

func newThemeCmd(g *globals) *cobra.Command {
	var toggle bool
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the theme, or cycle light → dark → orange",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			name := s.Store.Settings().Theme
			if toggle {
				if name, err = s.Store.ToggleTheme(); err != nil {
					return err
				}
			}
			th := ui.New(s.Store.Settings())
			fmt.Fprintln(cmd.OutOrStdout(), th.LabelValue("Theme", th.Title.Render(name)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&toggle, "toggle", false, "Switch to the next theme")
	return cmd
}
