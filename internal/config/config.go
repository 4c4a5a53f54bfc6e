package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options carries every numeric threshold the isolation pipeline consumes.
// The defaults were tuned against generated symbol art on flat near-white
// canvases; they are dataset tuning, not fundamental constants, which is why
// all of them are exposed here instead of living as literals in the stages.
type Options struct {
	// Background classification.
	AlphaFloor         int `yaml:"alpha_floor"`          // below this, a pixel counts as transparent
	WhiteAvgThreshold  int `yaml:"white_avg_threshold"`  // channel average above this is near-white
	PureWhiteThreshold int `yaml:"pure_white_threshold"` // all channels at or above this is white
	DarkThreshold      int `yaml:"dark_threshold"`       // channel average below this is dark canvas
	GrayTolerance      int `yaml:"gray_tolerance"`       // max channel spread for the grayscale rule
	LightThreshold     int `yaml:"light_threshold"`      // min average for the grayscale rule

	// Adaptive skip heuristic.
	BorderWhiteRatio float64 `yaml:"border_white_ratio"` // fraction of near-white border samples required

	// Edge detection.
	EdgeThreshold float64 `yaml:"edge_threshold"` // Sobel gradient magnitude cutoff

	// Crop padding.
	CropPaddingMin  int     `yaml:"crop_padding_min"`
	CropPaddingFrac float64 `yaml:"crop_padding_frac"`

	// Alpha compositing bands.
	HardWhite     int `yaml:"hard_white"`      // all channels above this: alpha 0
	NearWhiteLuma int `yaml:"near_white_luma"` // luma above this with low variance: alpha 0
	FalloffLuma   int `yaml:"falloff_luma"`    // luma above this: smooth falloff band
	SoftLuma      int `yaml:"soft_luma"`       // luma above this: gentle attenuation band

	// Cleanup passes.
	HaloAlphaCutoff int     `yaml:"halo_alpha_cutoff"` // alpha below this is zeroed as halo residue
	DenoiseSigma    float64 `yaml:"denoise_sigma"`     // alpha-plane blur sigma, 0 disables
	SharpenAmount   float64 `yaml:"sharpen_amount"`    // unsharp amount, 0 disables (default)
}

// Default returns the tuned defaults.
func Default() Options {
	return Options{
		AlphaFloor:         128,
		WhiteAvgThreshold:  250,
		PureWhiteThreshold: 252,
		DarkThreshold:      30,
		GrayTolerance:      15,
		LightThreshold:     200,
		BorderWhiteRatio:   0.7,
		EdgeThreshold:      30,
		CropPaddingMin:     20,
		CropPaddingFrac:    0.1,
		HardWhite:          230,
		NearWhiteLuma:      220,
		FalloffLuma:        200,
		SoftLuma:           180,
		HaloAlphaCutoff:    60,
		DenoiseSigma:       0.5,
		SharpenAmount:      0,
	}
}

// Validate rejects out-of-range thresholds. This is the only error the
// pipeline surfaces to its caller, and it surfaces here, at construction,
// never mid-run.
func (o Options) Validate() error {
	channel := func(name string, v int) error {
		if v < 0 || v > 255 {
			return fmt.Errorf("%w: %s=%d outside [0,255]", ErrInvalidConfig, name, v)
		}
		return nil
	}
	checks := []error{
		channel("alpha_floor", o.AlphaFloor),
		channel("white_avg_threshold", o.WhiteAvgThreshold),
		channel("pure_white_threshold", o.PureWhiteThreshold),
		channel("dark_threshold", o.DarkThreshold),
		channel("gray_tolerance", o.GrayTolerance),
		channel("light_threshold", o.LightThreshold),
		channel("hard_white", o.HardWhite),
		channel("near_white_luma", o.NearWhiteLuma),
		channel("falloff_luma", o.FalloffLuma),
		channel("soft_luma", o.SoftLuma),
		channel("halo_alpha_cutoff", o.HaloAlphaCutoff),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if o.BorderWhiteRatio < 0 || o.BorderWhiteRatio > 1 {
		return fmt.Errorf("%w: border_white_ratio=%g outside [0,1]", ErrInvalidConfig, o.BorderWhiteRatio)
	}
	if o.EdgeThreshold < 0 {
		return fmt.Errorf("%w: edge_threshold=%g is negative", ErrInvalidConfig, o.EdgeThreshold)
	}
	if o.CropPaddingMin < 0 {
		return fmt.Errorf("%w: crop_padding_min=%d is negative", ErrInvalidConfig, o.CropPaddingMin)
	}
	if o.CropPaddingFrac < 0 || o.CropPaddingFrac > 1 {
		return fmt.Errorf("%w: crop_padding_frac=%g outside [0,1]", ErrInvalidConfig, o.CropPaddingFrac)
	}
	if o.DenoiseSigma < 0 {
		return fmt.Errorf("%w: denoise_sigma=%g is negative", ErrInvalidConfig, o.DenoiseSigma)
	}
	if o.SharpenAmount < 0 {
		return fmt.Errorf("%w: sharpen_amount=%g is negative", ErrInvalidConfig, o.SharpenAmount)
	}
	if o.SoftLuma > o.FalloffLuma || o.FalloffLuma > o.NearWhiteLuma {
		return fmt.Errorf("%w: luma bands must be ordered soft<=falloff<=near_white (got %d/%d/%d)",
			ErrInvalidConfig, o.SoftLuma, o.FalloffLuma, o.NearWhiteLuma)
	}
	return nil
}

// Load reads a YAML options file layered over the defaults, so partial files
// only override what they name.
func Load(path string) (Options, error) {
	o := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("read options file: %w", err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("parse options file %s: %w", path, err)
	}
	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}
