package pipeline

import (
	"github.com/ironsheep/gasket-measure-mcp/internal/detection"
	"github.com/ironsheep/gasket-measure-mcp/internal/imaging"
	"github.com/ironsheep/gasket-measure-mcp/internal/rectify"
)

// MaxProcessingWidth is the widest frame the detectors run on. Wider photographs are
// downsampled first so pixel thresholds and kernel sizes behave the same whatever the
// sensor resolution.
const MaxProcessingWidth = 2048

// Config groups every tunable of the pipeline.
type Config struct {
	MaxWidth int                    `json:"max_width"`
	Card     detection.CardConfig   `json:"card"`
	SubPix   detection.SubPixConfig `json:"subpix"`
	Target   rectify.Target         `json:"target"`
	CLAHE    imaging.CLAHEConfig    `json:"clahe"`
	Joint    detection.JointConfig  `json:"joint"`
	Overlay  imaging.OverlayStyle   `json:"overlay"`
}

// DefaultConfig returns the settings the measurement tolerances were established with.
func DefaultConfig() Config {
	return Config{
		MaxWidth: MaxProcessingWidth,
		Card:     detection.DefaultCardConfig(),
		SubPix:   detection.DefaultSubPixConfig(),
		Target:   rectify.CardTarget(),
		CLAHE:    imaging.DefaultCLAHEConfig(),
		Joint:    detection.DefaultJointConfig(),
		Overlay:  imaging.DefaultOverlayStyle(),
	}
}
