// Command redact finds sensitive regions in images (faces, text, license
// plates, QR codes) and obscures them with configurable effects, one file at
// a time or as a batch.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/dotscramble/redact/internal/batch"
	"github.com/dotscramble/redact/internal/codec"
	"github.com/dotscramble/redact/internal/config"
	"github.com/dotscramble/redact/internal/detect"
	"github.com/dotscramble/redact/internal/effects"
	"github.com/dotscramble/redact/internal/history"
	"github.com/dotscramble/redact/internal/ocr"
	"github.com/dotscramble/redact/internal/pipeline"
)

func main() {
	args := defaultArgs()

	app := &cli.App{
		Name:  "redact",
		Usage: "Obscure sensitive regions in images",

		Before: func(c *cli.Context) error {
			err := args.ValidateLogLevelString()
			if err != nil {
				return err
			}

			initLogger(args.logLevel)
			return nil
		},

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       fmt.Sprintf("log level: [%s]", allLogLevels),
				Value:       args.LogLevelString,
				Destination: &args.LogLevelString,
			},
			&cli.StringFlag{
				Name:        "cascade-dir",
				Usage:       "directory holding the Haar cascade XML files",
				Destination: &args.CascadeDir,
			},
			&cli.StringFlag{
				Name:        "lang",
				Usage:       "tesseract language code for text detection",
				Value:       args.Language,
				Destination: &args.Language,
			},
		},

		Commands: []*cli.Command{
			applyCommand(args),
			batchCommand(args),
			validateCommand(args),
			presetCommand(args),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// detectionFlags are shared by apply, batch, and preset save.
func detectionFlags(args *CliArgs) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mode",
			Aliases:     []string{"m"},
			Usage:       "detection mode: face|eye|body|license_plate|qr|text|targeted_text|full_frame",
			Value:       args.ModeString,
			Destination: &args.ModeString,
		},
		&cli.StringFlag{
			Name:        "text",
			Usage:       "phrase to find (targeted_text mode)",
			Destination: &args.TargetText,
		},
		&cli.BoolFlag{
			Name:        "match-case",
			Usage:       "case-sensitive text matching",
			Destination: &args.MatchCase,
		},
		&cli.BoolFlag{
			Name:        "exact",
			Usage:       "whole-word text matching only",
			Destination: &args.ExactMatch,
		},
		&cli.StringFlag{
			Name:        "effect",
			Aliases:     []string{"e"},
			Usage:       "effect: blur|pixelate|black_bar|gradient|mosaic|glass|oil_paint",
			Value:       args.EffectString,
			Destination: &args.EffectString,
		},
		&cli.IntFlag{
			Name:        "blur-strength",
			Usage:       fmt.Sprintf("blur kernel size [%d, %d]", config.BlurRange.Min, config.BlurRange.Max),
			Value:       args.BlurStrength,
			Destination: &args.BlurStrength,
		},
		&cli.IntFlag{
			Name:        "pixel-size",
			Usage:       fmt.Sprintf("pixelation block size [%d, %d]", config.PixelRange.Min, config.PixelRange.Max),
			Value:       args.PixelSize,
			Destination: &args.PixelSize,
		},
		&cli.IntFlag{
			Name:        "tile-size",
			Usage:       fmt.Sprintf("mosaic tile size [%d, %d]", config.TileRange.Min, config.TileRange.Max),
			Value:       args.TileSize,
			Destination: &args.TileSize,
		},
		&cli.IntFlag{
			Name:        "opacity",
			Usage:       "effect opacity [0, 100]",
			Value:       args.Opacity,
			Destination: &args.Opacity,
		},
		&cli.StringFlag{
			Name:        "preset",
			Aliases:     []string{"p"},
			Usage:       "saved preset to start from; explicit flags override it",
			Destination: &args.PresetName,
		},
	}
}

// loadPreset overlays the named preset, keeping any value the user set
// explicitly on the command line.
func loadPreset(c *cli.Context, args *CliArgs) error {
	if args.PresetName == "" {
		return nil
	}
	store, err := openPresetStore()
	if err != nil {
		return err
	}
	p, err := store.Get(args.PresetName)
	if err != nil {
		return err
	}

	if !c.IsSet("mode") {
		args.ModeString = p.DetectionMode
	}
	if !c.IsSet("text") {
		args.TargetText = p.TargetText
	}
	if !c.IsSet("effect") {
		args.EffectString = p.Effect
	}
	if !c.IsSet("blur-strength") {
		args.BlurStrength = p.BlurStrength
	}
	if !c.IsSet("pixel-size") {
		args.PixelSize = p.PixelSize
	}
	if !c.IsSet("tile-size") {
		args.TileSize = p.TileSize
	}
	if !c.IsSet("opacity") {
		args.Opacity = p.Opacity
	}
	if !c.IsSet("workers") && p.Workers > 0 {
		args.Workers = p.Workers
	}
	return nil
}

func openPresetStore() (*config.PresetStore, error) {
	dir, err := config.AppDataDir()
	if err != nil {
		return nil, errors.Wrap(err, "locating app data directory")
	}
	return config.NewPresetStore(filepath.Join(dir, "presets.yaml"))
}

func newProcessor(args *CliArgs, withHistory bool) *pipeline.Processor {
	det := detect.New(detect.Config{
		CascadeDir: args.cascadeDir(),
		OCR:        ocr.NewClient(args.Language),
	}, logger)

	var hist *history.History
	if withHistory {
		hist = history.New(config.MaxHistory)
	}
	return pipeline.New(det, effects.NewEngine(logger), hist, logger)
}

func applyCommand(args *CliArgs) *cli.Command {
	return &cli.Command{
		Name:      "apply",
		Usage:     "Redact a single image",
		ArgsUsage: "INPUT",

		Flags: append(detectionFlags(args), &cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "output file; defaults to processed_<name> next to the input",
			Destination: &args.OutputPath,
		}),

		Before: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("apply needs exactly one input image")
			}
			args.InputPath = c.Args().First()
			if err := loadPreset(c, args); err != nil {
				return err
			}
			return args.Validate()
		},

		Action: func(c *cli.Context) error {
			return applyMain(c.Context, args)
		},
	}
}

func applyMain(ctx context.Context, args *CliArgs) error {
	mode, err := args.Mode()
	if err != nil {
		return err
	}
	kind, err := args.Effect()
	if err != nil {
		return err
	}

	img, err := codec.Decode(args.InputPath)
	if err != nil {
		return err
	}

	proc := newProcessor(args, true)
	out, n, err := proc.Redact(ctx, img, mode, kind, args.Params())
	if err != nil {
		return err
	}

	outPath := args.OutputPath
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(args.InputPath), codec.OutputName(args.InputPath))
	}
	if err := codec.Encode(out, outPath); err != nil {
		return err
	}

	logger.Infof("Wrote %s (%d region(s) redacted)", outPath, n)
	if n == 0 {
		logger.Warnf("No %s regions found; output is an unmodified copy", mode.Kind)
	}
	return nil
}

func batchCommand(args *CliArgs) *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Redact many images into an output directory",
		ArgsUsage: "INPUT...",

		Flags: append(detectionFlags(args),
			&cli.StringFlag{
				Name:        "out-dir",
				Aliases:     []string{"d"},
				Usage:       "directory for the processed files",
				Required:    true,
				Destination: &args.OutputDir,
			},
			&cli.IntFlag{
				Name:        "workers",
				Aliases:     []string{"w"},
				Usage:       "concurrent files",
				Value:       args.Workers,
				Destination: &args.Workers,
			},
		),

		Before: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("batch needs at least one input image")
			}
			if err := loadPreset(c, args); err != nil {
				return err
			}
			return args.Validate()
		},

		Action: func(c *cli.Context) error {
			return batchMain(c.Context, args, c.Args().Slice())
		},
	}
}

func batchMain(ctx context.Context, args *CliArgs, paths []string) error {
	mode, err := args.Mode()
	if err != nil {
		return err
	}
	kind, err := args.Effect()
	if err != nil {
		return err
	}

	engine := batch.NewEngine(newProcessor(args, false), logger)

	valid, problems := engine.ValidateInputFiles(paths)
	for _, p := range problems {
		logger.Warnf("Skipping %s", p)
	}
	if len(valid) == 0 {
		return errors.New("no processable input files")
	}

	results, err := engine.Run(ctx, valid, args.OutputDir, batch.Settings{
		Mode:    mode,
		Effect:  kind,
		Params:  args.Params(),
		Workers: args.Workers,
	},
		func(pos, total int, res batch.JobResult) {
			logger.Infof("[%d/%d] %s -> %s (%d region(s))",
				pos, total, res.InputPath, res.OutputPath, res.RegionsProcessed)
		},
		func(path string, err error) {
			logger.Errorf("Failed %s: %v", path, err)
		})
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
		}
	}
	logger.Infof("Batch finished: %d succeeded, %d failed, %d skipped",
		len(results)-failed, failed, len(problems))
	if failed > 0 {
		return errors.Errorf("%d file(s) failed", failed)
	}
	return nil
}

func validateCommand(args *CliArgs) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check which input files are processable",
		ArgsUsage: "INPUT...",

		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("validate needs at least one input file")
			}
			engine := batch.NewEngine(newProcessor(args, false), logger)
			valid, problems := engine.ValidateInputFiles(c.Args().Slice())
			for _, path := range valid {
				fmt.Printf("ok\t%s\n", path)
			}
			for _, p := range problems {
				fmt.Printf("skip\t%s\n", p)
			}
			if len(problems) > 0 {
				return errors.Errorf("%d file(s) not processable", len(problems))
			}
			return nil
		},
	}
}

func presetCommand(args *CliArgs) *cli.Command {
	return &cli.Command{
		Name:  "preset",
		Usage: "Manage saved redaction presets",

		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved presets",
				Action: func(c *cli.Context) error {
					store, err := openPresetStore()
					if err != nil {
						return err
					}
					for _, name := range store.Names() {
						p, err := store.Get(name)
						if err != nil {
							return err
						}
						fmt.Printf("%s\tmode=%s effect=%s opacity=%d\n",
							name, p.DetectionMode, p.Effect, p.Opacity)
					}
					return nil
				},
			},
			{
				Name:      "save",
				Usage:     "Save the given detection and effect flags as a preset",
				ArgsUsage: "NAME",
				Flags:     detectionFlags(args),
				Before: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("preset save needs a name")
					}
					return args.Validate()
				},
				Action: func(c *cli.Context) error {
					store, err := openPresetStore()
					if err != nil {
						return err
					}
					name := c.Args().First()
					if err := store.Save(name, args.Preset()); err != nil {
						return err
					}
					logger.Infof("Saved preset %q", name)
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a saved preset",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("preset delete needs a name")
					}
					store, err := openPresetStore()
					if err != nil {
						return err
					}
					name := c.Args().First()
					if err := store.Delete(name); err != nil {
						return err
					}
					logger.Infof("Deleted preset %q", name)
					return nil
				},
			},
		},
	}
}
