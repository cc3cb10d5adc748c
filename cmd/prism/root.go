package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Prism3D/internal/config"
	"Prism3D/internal/engine"
	"Prism3D/internal/logger"
)

const defaultConfigFile = "prism.yml"

// rootOptions holds the persistent flags and the asset overrides.
type rootOptions struct {
	configFile string
	verbose    bool
	hdri       string
	model      string
	width      int32
	height     int32
}

func newRootCmd() *cobra.Command {
	return (&rootOptions{}).command()
}

func (opts *rootOptions) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prism",
		Short: "Interactive HDRI-lit GLTF viewer",
		Long: `Prism opens a window, lights a GLTF model with a prefiltered HDRI
environment and renders it through an RGB shift post-processing pass.
The model follows the cursor.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			app, err := engine.NewApp(cfg)
			if err != nil {
				return err
			}
			logger.Log.Info("Starting viewer",
				zap.String("hdri", cfg.Assets.HDRI),
				zap.String("model", cfg.Assets.Model))
			if err := app.Run(cmd.Context()); err != nil {
				logger.Log.Error("Viewer stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", defaultConfigFile, "config file path")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	cmd.Flags().StringVar(&opts.hdri, "hdri", "", "HDRI environment URL or path")
	cmd.Flags().StringVar(&opts.model, "model", "", "GLTF model path")
	cmd.Flags().Int32Var(&opts.width, "width", 0, "window width")
	cmd.Flags().Int32Var(&opts.height, "height", 0, "window height")

	cmd.AddCommand(newInfoCmd(opts), newConfigCmd(opts), newVersionCmd())
	return cmd
}

// load initializes logging and returns the config with flag overrides applied.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("hdri") {
		cfg.Assets.HDRI = o.hdri
	}
	if flags.Changed("model") {
		cfg.Assets.Model = o.model
	}
	if flags.Changed("width") {
		cfg.Window.Width = o.width
	}
	if flags.Changed("height") {
		cfg.Window.Height = o.height
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, nil
}
