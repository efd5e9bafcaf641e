package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/imageio"
	"github.com/df07/go-tiled-raytracer/pkg/renderer"
	"github.com/df07/go-tiled-raytracer/pkg/scene"
	"github.com/df07/go-tiled-raytracer/pkg/watcher"
	"github.com/df07/go-tiled-raytracer/version"
)

// renderOptions holds the render command flags
type renderOptions struct {
	width     int
	height    int
	depth     int
	samples   int
	threads   int
	seed      int64
	partition string
	output    string
	sceneName string
	sceneFile string
	watch     bool
}

func newRootCmd() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "raytracer",
		Short: "Multithreaded tiled Monte Carlo ray tracer",
		Long: `raytracer renders a built-in or YAML-described scene by path tracing every pixel
in parallel partitions and writes the result as PNG, BMP, TIFF or PPM.`,
		Version:       version.GetFullVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	bindRenderFlags(cmd.Flags(), opts)
	cmd.AddCommand(newScenesCmd())
	return cmd
}

// bindRenderFlags registers the render flags with defaults from renderer.DefaultConfig
func bindRenderFlags(flags *pflag.FlagSet, opts *renderOptions) {
	defaults := renderer.DefaultConfig()
	flags.IntVar(&opts.width, "width", defaults.Width, "image width in pixels")
	flags.IntVar(&opts.height, "height", defaults.Height, "image height in pixels")
	flags.IntVar(&opts.depth, "depth", defaults.MaxDepth, "maximum ray bounce depth")
	flags.IntVar(&opts.samples, "samples", defaults.SamplesPerPixel, "samples per pixel")
	flags.IntVar(&opts.threads, "threads", defaults.Threads, "number of parallel partitions")
	flags.Int64Var(&opts.seed, "seed", defaults.Seed, "base random seed")
	flags.StringVar(&opts.partition, "partition", string(defaults.Partition), "partition strategy: rows or tiles")
	flags.StringVarP(&opts.output, "output", "o", "out.png", "output file; the extension selects the format, - writes PPM to stdout")
	flags.StringVar(&opts.sceneName, "scene", "default", "built-in scene name (see 'raytracer scenes')")
	flags.StringVar(&opts.sceneFile, "scene-file", "", "YAML scene file; overrides --scene")
	flags.BoolVar(&opts.watch, "watch", false, "re-render whenever --scene-file changes")
}

func newScenesCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List built-in scenes and the scene files in a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			response, err := scene.ListAllScenes(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, group := range response.Groups {
				fmt.Fprintf(out, "%s:\n", group.Name)
				for _, info := range group.Scenes {
					name := info.ID
					if info.Type == "file" {
						name = info.FilePath
					}
					fmt.Fprintf(out, "  %-28s %s\n", name, info.Description)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "scenes", "directory to scan for YAML scene files")
	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	if opts.watch && opts.sceneFile == "" {
		return errors.New("--watch requires --scene-file")
	}

	// Progress goes to stderr when the image itself is written to stdout
	logger := renderer.NewWriterLogger(cmd.OutOrStdout())
	if opts.output == imageio.Stdout {
		logger = renderer.NewWriterLogger(cmd.ErrOrStderr())
	}

	ctx := cmd.Context()
	if err := renderToFile(ctx, cmd.Flags(), opts, logger); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}
	return watchAndRender(ctx, cmd.Flags(), opts, logger)
}

// renderToFile loads the scene, renders it and writes the output image
func renderToFile(ctx context.Context, flags *pflag.FlagSet, opts *renderOptions, logger core.Logger) error {
	s, cfg, err := loadScene(flags, opts)
	if err != nil {
		return err
	}

	fb, stats, err := renderer.Render(ctx, s, cfg, logger)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	logger.Printf("Samples per pixel: %.1f across %d partitions\n", stats.AverageSamples(), stats.Partitions)

	if err := imageio.WriteFile(opts.output, fb); err != nil {
		return err
	}
	if opts.output != imageio.Stdout {
		logger.Printf("Render saved as %s\n", opts.output)
	}
	return nil
}

// loadScene builds the selected scene and the render config. Render hints
// from the scene fill any flag the user did not set explicitly.
func loadScene(flags *pflag.FlagSet, opts *renderOptions) (*scene.Scene, renderer.Config, error) {
	cfg, err := resolveConfig(flags, opts, scene.RenderHints{})
	if err != nil {
		return nil, cfg, err
	}

	s, err := scene.Load(opts.sceneName, opts.sceneFile, aspectRatio(cfg))
	if err != nil {
		return nil, cfg, err
	}

	hinted, err := resolveConfig(flags, opts, s.Render)
	if err != nil {
		return nil, cfg, err
	}

	// The camera depends on the aspect ratio, so rebuild if the hints changed it
	if hinted.Width != cfg.Width || hinted.Height != cfg.Height {
		if s, err = scene.Load(opts.sceneName, opts.sceneFile, aspectRatio(hinted)); err != nil {
			return nil, hinted, err
		}
	}
	return s, hinted, nil
}

// resolveConfig converts flags into a validated render config
func resolveConfig(flags *pflag.FlagSet, opts *renderOptions, hints scene.RenderHints) (renderer.Config, error) {
	cfg := renderer.Config{
		Width:           opts.width,
		Height:          opts.height,
		SamplesPerPixel: opts.samples,
		MaxDepth:        opts.depth,
		Threads:         opts.threads,
		Seed:            opts.seed,
		Partition:       renderer.PartitionStrategy(opts.partition),
	}

	applyHint := func(flag string, dst *int, hint int) {
		if hint > 0 && !flags.Changed(flag) {
			*dst = hint
		}
	}
	applyHint("width", &cfg.Width, hints.Width)
	applyHint("height", &cfg.Height, hints.Height)
	applyHint("samples", &cfg.SamplesPerPixel, hints.SamplesPerPixel)
	applyHint("depth", &cfg.MaxDepth, hints.MaxDepth)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	partition, _ := renderer.ParsePartitionStrategy(opts.partition)
	cfg.Partition = partition
	return cfg, nil
}

func aspectRatio(cfg renderer.Config) float64 {
	return float64(cfg.Width) / float64(cfg.Height)
}

// watchAndRender re-renders every time the scene file changes until ctx is cancelled
func watchAndRender(ctx context.Context, flags *pflag.FlagSet, opts *renderOptions, logger core.Logger) error {
	w, err := watcher.New(watcher.DefaultDebounce, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(opts.sceneFile); err != nil {
		return err
	}
	logger.Printf("Watching %s for changes (Ctrl+C to stop)\n", opts.sceneFile)

	err = w.Run(ctx, func(path string) {
		logger.Printf("\nFile changed: %s\n", path)
		// A broken edit should not end the session
		if err := renderToFile(ctx, flags, opts, logger); err != nil {
			logger.Printf("Error: %v\n", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
