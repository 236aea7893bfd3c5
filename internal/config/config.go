// Package config holds the tunable parameters of a detection run.
//
// Values come from three layers, later ones winning:
//
//  1. Default(), the parameters the detection steps were tuned with
//  2. an optional YAML file (Load)
//  3. ADDRSLIPS_* environment variables, optionally read from a .env file
//     (LoadDotEnv, ApplyEnv)
//
// Validate checks the merged result before Build turns it into a pipeline.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/addrslips/internal/detection"
	"github.com/ironsheep/addrslips/internal/ocr"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "ADDRSLIPS_"

// Config is the complete set of run parameters.
type Config struct {
	Edges    EdgeConfig    `yaml:"edges"`
	Contours ContourConfig `yaml:"contours"`
	Circles  CircleConfig  `yaml:"circles"`
	White    WhiteConfig   `yaml:"white"`
	Prepare  PrepareConfig `yaml:"prepare"`
	OCR      OCRConfig     `yaml:"ocr"`
	Run      RunConfig     `yaml:"run"`
}

// EdgeConfig controls blur and Canny edge detection.
type EdgeConfig struct {
	BlurSigma float64 `yaml:"blur_sigma"`
	CannyLow  float64 `yaml:"canny_low"`
	CannyHigh float64 `yaml:"canny_high"`
	Sharpen   float64 `yaml:"sharpen"` // 0 leaves the Sharpen step out
}

// ContourConfig controls connected-component extraction.
type ContourConfig struct {
	MinArea      int `yaml:"min_area"`
	Padding      int `yaml:"padding"`
	Connectivity int `yaml:"connectivity"`
}

// CircleConfig holds the geometric circle test.
type CircleConfig struct {
	MinRadius      float64 `yaml:"min_radius"`
	MaxRadius      float64 `yaml:"max_radius"`
	MaxCircularity float64 `yaml:"max_circularity"`
	MinAspect      float64 `yaml:"min_aspect"`
	MaxAspect      float64 `yaml:"max_aspect"`
}

// WhiteConfig holds the brightness test.
type WhiteConfig struct {
	Threshold float64 `yaml:"threshold"`
	MaxChroma float64 `yaml:"max_chroma"`
}

// PrepareConfig controls background removal and upscaling before OCR.
type PrepareConfig struct {
	RingMargin    int `yaml:"ring_margin"`
	DarkThreshold int `yaml:"dark_threshold"`
	Border        int `yaml:"border"`
	UpscaleSize   int `yaml:"upscale_size"`
}

// OCRConfig configures the Tesseract engine.
type OCRConfig struct {
	Skip           bool    `yaml:"skip"`
	Language       string  `yaml:"language"`
	Whitelist      string  `yaml:"whitelist"`
	TessdataPrefix string  `yaml:"tessdata_prefix"`
	MinConfidence  float64 `yaml:"min_confidence"`
}

// RunConfig selects the execution strategy.
type RunConfig struct {
	Sequential bool `yaml:"sequential"`
	Workers    int  `yaml:"workers"`
}

// Default returns the standard parameters.
func Default() Config {
	return Config{
		Edges: EdgeConfig{
			BlurSigma: detection.DefaultBlurSigma,
			CannyLow:  detection.DefaultCannyLow,
			CannyHigh: detection.DefaultCannyHigh,
		},
		Contours: ContourConfig{
			MinArea:      detection.DefaultMinArea,
			Padding:      detection.DefaultPadding,
			Connectivity: int(detection.Eight),
		},
		Circles: CircleConfig{
			MinRadius:      detection.DefaultMinRadius,
			MaxRadius:      detection.DefaultMaxRadius,
			MaxCircularity: detection.DefaultMaxCircularity,
			MinAspect:      detection.DefaultMinAspect,
			MaxAspect:      detection.DefaultMaxAspect,
		},
		White: WhiteConfig{
			Threshold: detection.DefaultWhiteThreshold,
		},
		Prepare: PrepareConfig{
			RingMargin:    detection.DefaultRingMargin,
			DarkThreshold: detection.DefaultDarkThreshold,
			Border:        detection.DefaultBorder,
			UpscaleSize:   detection.DefaultUpscaleSize,
		},
		OCR: OCRConfig{
			Language:  "eng",
			Whitelist: ocr.DigitWhitelist,
		},
		Run: RunConfig{
			Workers: 1,
		},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files (".env" if none)
// into the process environment. Missing files are ignored; variables that
// are already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from ADDRSLIPS_* variables found by lookup
// (os.LookupEnv in production).
//
//	ADDRSLIPS_OCR_LANGUAGE      ocr.language
//	ADDRSLIPS_TESSDATA_PREFIX   ocr.tessdata_prefix
//	ADDRSLIPS_MIN_CONFIDENCE    ocr.min_confidence
//	ADDRSLIPS_SKIP_OCR          ocr.skip
//	ADDRSLIPS_WHITE_THRESHOLD   white.threshold
//	ADDRSLIPS_WORKERS           run.workers
//	ADDRSLIPS_SEQUENTIAL        run.sequential
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	float := func(name string, dst *float64) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = f
		return nil
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str("OCR_LANGUAGE", &cfg.OCR.Language)
	str("TESSDATA_PREFIX", &cfg.OCR.TessdataPrefix)
	return errors.Join(
		float("MIN_CONFIDENCE", &cfg.OCR.MinConfidence),
		boolean("SKIP_OCR", &cfg.OCR.Skip),
		float("WHITE_THRESHOLD", &cfg.White.Threshold),
		integer("WORKERS", &cfg.Run.Workers),
		boolean("SEQUENTIAL", &cfg.Run.Sequential),
	)
}

// Validate reports every out-of-range parameter at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Edges.BlurSigma >= 0, "edges.blur_sigma must not be negative, got %g", c.Edges.BlurSigma)
	check(c.Edges.CannyLow >= 0 && c.Edges.CannyLow <= c.Edges.CannyHigh,
		"edges.canny_low must be between 0 and canny_high (%g), got %g", c.Edges.CannyHigh, c.Edges.CannyLow)
	check(c.Edges.Sharpen >= 0, "edges.sharpen must not be negative, got %g", c.Edges.Sharpen)

	check(c.Contours.MinArea >= 1, "contours.min_area must be at least 1, got %d", c.Contours.MinArea)
	check(c.Contours.Padding >= 0, "contours.padding must not be negative, got %d", c.Contours.Padding)
	check(c.Contours.Connectivity == 4 || c.Contours.Connectivity == 8,
		"contours.connectivity must be 4 or 8, got %d", c.Contours.Connectivity)

	check(c.Circles.MinRadius >= 0 && c.Circles.MinRadius <= c.Circles.MaxRadius,
		"circles.min_radius must be between 0 and max_radius (%g), got %g", c.Circles.MaxRadius, c.Circles.MinRadius)
	check(c.Circles.MaxCircularity > 0, "circles.max_circularity must be positive, got %g", c.Circles.MaxCircularity)
	check(c.Circles.MinAspect > 0 && c.Circles.MinAspect <= c.Circles.MaxAspect,
		"circles.min_aspect must be between 0 and max_aspect (%g), got %g", c.Circles.MaxAspect, c.Circles.MinAspect)

	check(c.White.Threshold >= 0 && c.White.Threshold <= 255, "white.threshold must be 0-255, got %g", c.White.Threshold)
	check(c.White.MaxChroma >= 0, "white.max_chroma must not be negative, got %g", c.White.MaxChroma)

	check(c.Prepare.RingMargin >= 0, "prepare.ring_margin must not be negative, got %d", c.Prepare.RingMargin)
	check(c.Prepare.DarkThreshold >= 1 && c.Prepare.DarkThreshold <= 255,
		"prepare.dark_threshold must be 1-255, got %d", c.Prepare.DarkThreshold)
	check(c.Prepare.Border >= 0, "prepare.border must not be negative, got %d", c.Prepare.Border)
	check(c.Prepare.UpscaleSize >= 1, "prepare.upscale_size must be at least 1, got %d", c.Prepare.UpscaleSize)

	check(c.OCR.Language != "", "ocr.language must not be empty")
	check(c.OCR.MinConfidence >= 0 && c.OCR.MinConfidence <= 1,
		"ocr.min_confidence must be 0-1, got %g", c.OCR.MinConfidence)

	check(c.Run.Workers >= 1, "run.workers must be at least 1, got %d", c.Run.Workers)

	return errors.Join(errs...)
}

// OCROptions returns the engine options described by c.
func (c Config) OCROptions() ocr.Options {
	return ocr.Options{
		Language:       c.OCR.Language,
		Whitelist:      c.OCR.Whitelist,
		TessdataPrefix: c.OCR.TessdataPrefix,
		SingleLine:     true,
	}
}
