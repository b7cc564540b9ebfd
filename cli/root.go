// Package cli is the gjt command line: a terminal front end over the same
// store the HTTP server uses.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kasuganosora/gjtracker/app"
	"github.com/kasuganosora/gjtracker/config"
	"github.com/kasuganosora/gjtracker/tracker"
	"github.com/kasuganosora/gjtracker/ui"
)

const Version = "0.3.0"

// globals are the persistent flags shared by every command.
type globals struct {
	cfgPath string
	yes     bool
	no      bool
	debug   bool
}

// NewRootCmd builds the gjt command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "gjt",
		Short:         "Growth journal tracker: skills, faculties and the factors between them",
		Long:          "gjt tracks items in a prerequisite graph, their levels and checklists, and the characters that hold them.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.yes && g.no {
				return errors.New("--yes and --no are mutually exclusive")
			}
			return nil
		},
	}
	root.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&g.cfgPath, "config", "c", os.Getenv("GJT_CONFIG"), "Config file (YAML)")
	pf.BoolVarP(&g.yes, "yes", "y", false, "Answer yes to every confirmation")
	pf.BoolVar(&g.no, "no", false, "Answer no to every confirmation")
	pf.BoolVar(&g.debug, "debug", false, "Verbose logging")

	root.AddCommand(
		newServeCmd(g),
		newItemsCmd(g),
		newShowCmd(g),
		newAddCmd(g),
		newRmCmd(g),
		newLevelUpCmd(g),
		newCheckCmd(g),
		newEvolveCmd(g),
		newLooseCmd(g),
		newTiersCmd(g),
		newAcquireCmd(g),
		newCharsCmd(g),
		newImportCmd(g),
		newExportCmd(g),
		newRemindersCmd(g),
		newThemeCmd(g),
	)
	return root
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.New(tracker.Settings{}).Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}

// session is an opened app plus what a command needs to talk to the user.
type session struct {
	*app.App
	confirm tracker.Confirmer
	theme   ui.Theme
}

// confirmer picks the answer policy: flags first, then tracker.confirm,
// where "ask" prompts on the command's stdin unless serving.
func (g *globals) confirmer(cmd *cobra.Command, cfg *config.Config, serving bool) tracker.Confirmer {
	switch {
	case g.yes:
		return tracker.AlwaysYes
	case g.no:
		return tracker.AlwaysNo
	case cfg.Tracker.Confirm == config.ConfirmAsk && !serving:
		return newPromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
	default:
		return app.PolicyFor(cfg.Tracker.Confirm)
	}
}

func (g *globals) logger(cfg *config.Config, serving bool) (*zap.Logger, error) {
	if serving {
		return app.NewLogger(cfg.Server.Debug || g.debug)
	}
	if g.debug {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

// open loads the config and state. The caller must Close the session.
func (g *globals) open(cmd *cobra.Command, serving bool) (*session, error) {
	cfg, err := config.Load(g.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger, err := g.logger(cfg, serving)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	confirm := g.confirmer(cmd, cfg, serving)
	a, err := app.New(cmd.Context(), cfg, logger, tracker.WithPolicy(confirm))
	if err != nil {
		return nil, err
	}
	return &session{App: a, confirm: confirm, theme: ui.New(a.Store.Settings())}, nil
}

func (s *session) Close() {
	s.App.Close()
	_ = s.Logger.Sync()
}
