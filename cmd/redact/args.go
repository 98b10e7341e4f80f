package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dotscramble/redact/internal/config"
	"github.com/dotscramble/redact/internal/detect"
	"github.com/dotscramble/redact/internal/effects"
	"github.com/dotscramble/redact/internal/ocr"
)

// CliArgs stores the parsed command line arguments.
type CliArgs struct {
	// InputPath is the image to redact (apply command).
	InputPath string

	// OutputPath overrides the derived output file name (apply command).
	OutputPath string

	// OutputDir receives the processed files (batch command).
	OutputDir string

	// ModeString selects the detection mode; see detect.ParseKind.
	ModeString string

	// TargetText is the phrase for targeted text detection.
	TargetText string

	// MatchCase makes targeted text matching case sensitive.
	MatchCase bool

	// ExactMatch disables substring and prefix matching of the target text.
	ExactMatch bool

	// EffectString selects the effect; see effects.ParseKind.
	EffectString string

	BlurStrength int
	PixelSize    int
	TileSize     int
	Opacity      int

	// Workers bounds concurrent files in a batch run.
	Workers int

	// PresetName loads a saved preset before the explicit flags apply.
	PresetName string

	// CascadeDir overrides the Haar cascade directory.
	CascadeDir string

	// Language is the OCR language passed to tesseract.
	Language string

	// LogLevelString can be used to override the default log level.
	LogLevelString string

	// logLevel is the numeric representation of the log level.
	logLevel logrus.Level
}

func defaultArgs() *CliArgs {
	return &CliArgs{
		ModeString:     "face",
		EffectString:   "blur",
		BlurStrength:   config.BlurRange.Default,
		PixelSize:      config.PixelRange.Default,
		TileSize:       config.TileRange.Default,
		Opacity:        config.OpacityRange.Default,
		Workers:        1,
		Language:       ocr.DefaultLanguage,
		LogLevelString: "INFO",
		logLevel:       logrus.InfoLevel,
	}
}

func (args *CliArgs) Validate() error {
	if _, err := args.Mode(); err != nil {
		return err
	}
	if _, err := effects.ParseKind(args.EffectString); err != nil {
		return err
	}
	if !config.OpacityRange.Contains(args.Opacity) {
		return errors.Errorf("opacity %d outside [%d, %d]",
			args.Opacity, config.OpacityRange.Min, config.OpacityRange.Max)
	}
	return nil
}

func (args *CliArgs) ValidateLogLevelString() error {
	l, err := logrus.ParseLevel(args.LogLevelString)
	if err != nil {
		return err
	}

	args.logLevel = l
	return nil
}

// Mode builds the detection mode from the parsed arguments.
func (args *CliArgs) Mode() (detect.Mode, error) {
	kind, err := detect.ParseKind(args.ModeString)
	if err != nil {
		return detect.Mode{}, err
	}

	switch kind {
	case detect.KindFace:
		return detect.Face(), nil
	case detect.KindEye:
		return detect.Eyes(), nil
	case detect.KindBody:
		return detect.Bodies(), nil
	case detect.KindLicensePlate:
		return detect.LicensePlates(), nil
	case detect.KindQRCode:
		return detect.QRCodes(), nil
	case detect.KindFreeText:
		return detect.FreeText(), nil
	case detect.KindTargetedText:
		if strings.TrimSpace(args.TargetText) == "" {
			return detect.Mode{}, errors.New("targeted_text mode needs --text")
		}
		return detect.TargetedTextWithOptions(args.TargetText, ocr.MatchOptions{
			CaseSensitive: args.MatchCase,
			ExactMatch:    args.ExactMatch,
		}), nil
	case detect.KindFullFrame:
		return detect.FullFrame(), nil
	default:
		return detect.Mode{}, errors.Errorf("mode %q is not usable from the command line", kind)
	}
}

// Effect returns the parsed effect kind.
func (args *CliArgs) Effect() (effects.Kind, error) {
	return effects.ParseKind(args.EffectString)
}

// Params builds the effect parameters, clamped to their documented ranges.
func (args *CliArgs) Params() effects.Params {
	return effects.Params{
		BlurStrength: config.BlurRange.Clamp(args.BlurStrength),
		PixelSize:    config.PixelRange.Clamp(args.PixelSize),
		TileSize:     config.TileRange.Clamp(args.TileSize),
		Opacity:      config.OpacityRange.Clamp(args.Opacity),
	}
}

// Preset captures the current arguments as a storable preset.
func (args *CliArgs) Preset() config.Preset {
	return config.Preset{
		DetectionMode: args.ModeString,
		TargetText:    args.TargetText,
		Effect:        args.EffectString,
		BlurStrength:  args.BlurStrength,
		PixelSize:     args.PixelSize,
		TileSize:      args.TileSize,
		Opacity:       args.Opacity,
		Workers:       args.Workers,
	}
}

func (args *CliArgs) cascadeDir() string {
	if args.CascadeDir != "" {
		return args.CascadeDir
	}
	return config.CascadeDir()
}
