package schema

import "github.com/orbview-labs/geodex/internal/iface"

// productFamilies are the families shared by products and product_defaults.
// A product resolved through a defaults reference inherits one of these from
// its defaults plugin.
func productFamilies(interfaceName string) []*FamilySchema {
	return []*FamilySchema{
		{
			Interface: interfaceName,
			Family:    "algorithm",
			Spec: []Field{
				{Name: "algorithm", Type: TypeMapping, Required: true},
			},
		},
		{
			Interface: interfaceName,
			Family:    "algorithm_colormapper",
			Spec: []Field{
				{Name: "algorithm", Type: TypeMapping, Required: true},
				{Name: "colormapper", Type: TypeMapping, Required: true},
			},
		},
		{
			Interface: interfaceName,
			Family:    "interpolator_algorithm_colormapper",
			Spec: []Field{
				{Name: "interpolator", Type: TypeMapping, Required: true},
				{Name: "algorithm", Type: TypeMapping, Required: true},
				{Name: "colormapper", Type: TypeMapping, Required: true},
			},
		},
		{
			Interface: interfaceName,
			Family:    "unmodified",
		},
	}
}

// standardModuleFamilies registers the plain "standard" family for module
// interfaces whose contract lives entirely in the entry signature.
func standardModuleFamilies() []*FamilySchema {
	var schemas []*FamilySchema

	for _, interfaceName := range []string{
		iface.FilenameFormatters,
		iface.OutputCheckers,
		iface.Procflows,
		iface.Readers,
	} {
		schemas = append(schemas, &FamilySchema{
			Interface: interfaceName,
			Family:    "standard",
		})
	}

	return schemas
}

// builtinFamilies returns every family contract shipped with the framework.
func builtinFamilies() []*FamilySchema {
	schemas := []*FamilySchema{
		{
			Interface: iface.FeatureAnnotators,
			Family:    "standard",
			Spec: []Field{
				{Name: "coastline", Type: TypeMapping, Required: true},
				{Name: "borders", Type: TypeMapping, Required: true},
				{
					Name: "rivers", Type: TypeMapping,
					Default: map[string]any{"enabled": false},
				},
				{
					Name: "states", Type: TypeMapping,
					Default: map[string]any{"enabled": false},
				},
			},
		},
		{
			Interface: iface.GridlineAnnotators,
			Family:    "standard",
			Spec: []Field{
				{Name: "labels", Type: TypeMapping, Required: true},
				{Name: "lines", Type: TypeMapping, Required: true},
				{
					Name: "spacing", Type: TypeMapping,
					Default: map[string]any{
						"latitude":  "auto",
						"longitude": "auto",
					},
				},
			},
		},
		{
			Interface: iface.Sectors,
			Family:    "area_definition",
			Spec: []Field{
				{Name: "area_id", Type: TypeString, Required: true},
				{Name: "projection", Type: TypeMapping, Required: true},
				{Name: "description", Type: TypeString},
				{Name: "resolution", Type: TypeList},
				{Name: "shape", Type: TypeMapping},
			},
		},
		{
			Interface: iface.Products,
			Family:    iface.FamilyList,
			Spec: []Field{
				{Name: iface.Products, Type: TypeList, Required: true},
			},
		},

		// Module interface families.
		{Interface: iface.Algorithms, Family: "single_channel"},
		{Interface: iface.Algorithms, Family: "channel_combination"},
		{Interface: iface.Algorithms, Family: "xarray_to_numpy"},
		{Interface: iface.Colormappers, Family: "matplotlib"},
		{Interface: iface.Colormappers, Family: "ascii"},
		{Interface: iface.Interpolators, Family: "interp_2d"},
		{Interface: iface.Interpolators, Family: "interp_grid"},
		{Interface: iface.OutputFormatters, Family: "image"},
		{Interface: iface.OutputFormatters, Family: "image_overlay"},
		{Interface: iface.OutputFormatters, Family: "unprojected"},
		{Interface: iface.OutputFormatters, Family: "xarray_data"},
	}

	schemas = append(schemas, productFamilies(iface.Products)...)
	schemas = append(schemas, productFamilies(iface.ProductDefaults)...)
	schemas = append(schemas, standardModuleFamilies()...)

	return schemas
}
