package iface

import "github.com/orbview-labs/geodex/pkg/plugin"

// Interface names used throughout the engine.
const (
	Algorithms         = "algorithms"
	Colormappers       = "colormappers"
	FilenameFormatters = "filename_formatters"
	Interpolators      = "interpolators"
	OutputCheckers     = "output_checkers"
	OutputFormatters   = "output_formatters"
	Procflows          = "procflows"
	Readers            = "readers"

	FeatureAnnotators  = "feature_annotators"
	GridlineAnnotators = "gridline_annotators"
	ProductDefaults    = "product_defaults"
	Products           = "products"
	Sectors            = "sectors"

	ASCIIPalettes = "ascii_palettes"
)

// Builtin returns the interface set shipped with the framework.
func Builtin() *Set {
	set, err := NewSet(
		&Spec{Name: Algorithms, Kind: plugin.KindModule},
		&Spec{Name: Colormappers, Kind: plugin.KindModule},
		&Spec{Name: FilenameFormatters, Kind: plugin.KindModule},
		&Spec{Name: Interpolators, Kind: plugin.KindModule},
		&Spec{Name: OutputCheckers, Kind: plugin.KindModule},
		&Spec{Name: OutputFormatters, Kind: plugin.KindModule},
		&Spec{Name: Procflows, Kind: plugin.KindModule},
		&Spec{Name: Readers, Kind: plugin.KindModule},

		&Spec{Name: FeatureAnnotators, Kind: plugin.KindYAML},
		&Spec{Name: GridlineAnnotators, Kind: plugin.KindYAML},
		&Spec{Name: ProductDefaults, Kind: plugin.KindYAML},
		&Spec{
			Name:              Products,
			Kind:              plugin.KindYAML,
			Composite:         true,
			DefaultsInterface: ProductDefaults,
			ListMember:        Products,
		},
		&Spec{Name: Sectors, Kind: plugin.KindYAML},

		&Spec{Name: ASCIIPalettes, Kind: plugin.KindText},
	)
	if err != nil {
		// The builtin set is static; a duplicate here is a programming error.
		panic(err)
	}

	return set
}
