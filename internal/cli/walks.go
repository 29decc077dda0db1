package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/simpg/pkg/errors"
	"github.com/matzehuels/simpg/pkg/pipeline"
	"github.com/matzehuels/simpg/pkg/store"
)

// walksCommand creates the walks command group.
func (c *CLI) walksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walks",
		Short: "Derive and browse per-sample walks",
	}
	cmd.AddCommand(c.walksExtractCommand())
	cmd.AddCommand(c.walksBrowseCommand())
	return cmd
}

func (c *CLI) walksExtractCommand() *cobra.Command {
	var (
		opts      pipeline.Options
		graphPath string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Derive the walk of every sample into a walk store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.applyConfig(cmd.Flags(), &opts); err != nil {
				return err
			}
			opts.Logger = c.Logger
			opts.SetDefaults()
			if err := opts.Validate(); err != nil {
				return err
			}

			in, err := pipeline.LoadInputs(opts.Input)
			if err != nil {
				return err
			}
			samples, err := pipeline.LoadSamples(opts.Input)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			g, err := loadOrBuild(cmd, runner, graphPath, in, opts)
			if err != nil {
				return err
			}

			ws, err := store.Open(ctx, &opts.Store)
			if err != nil {
				return err
			}
			defer ws.Close()

			prog := newProgress(c.Logger)
			st, err := runner.ExtractWalks(ctx, g, in, samples, ws, opts)
			if err != nil {
				if fs, ok := ws.(*store.FileStore); ok {
					fs.Abort()
				}
				return err
			}
			if err := store.Flush(ws); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Extracted %d walks", st.Samples))

			printSuccess("Extracted %d walks", st.Samples)
			printWalkStats(st)
			if opts.Store.Backend == store.BackendFile {
				printFile(opts.Store.Path)
			} else {
				printKeyValue("run id", opts.Store.RunID)
			}
			return nil
		},
	}

	bindGFAFlag(cmd.Flags(), &opts.Input)
	bindBEDFlag(cmd.Flags(), &opts.Input)
	bindSampleFlags(cmd.Flags(), &opts.Input)
	bindWalkFlags(cmd.Flags(), &opts.Walks)
	bindStoreFlags(cmd.Flags(), &opts.Store)
	bindNameFlags(cmd.Flags(), &opts.Simulate)
	cmd.Flags().StringVar(&graphPath, "graph", "", "use this built graph instead of building one")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the graph cache")

	return cmd
}

func (c *CLI) walksBrowseCommand() *cobra.Command {
	var cfg store.Config

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Page through the walks of a walk store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cfg.Backend != store.BackendFile && cfg.RunID == "" {
				return errors.New(errors.ErrCodeInvalidConfig, "--run-id is required for redis and mongo stores")
			}
			ws, err := store.Open(ctx, &cfg)
			if err != nil {
				return err
			}
			defer ws.Close()

			samples, walks, err := store.Collect(ctx, ws)
			if err != nil {
				return err
			}
			if len(samples) == 0 {
				printInfo("Walk store is empty")
				return nil
			}

			_, err = tea.NewProgram(newWalkBrowser(samples, walks), tea.WithContext(ctx)).Run()
			return err
		},
	}

	bindStoreFlags(cmd.Flags(), &cfg)
	return cmd
}
