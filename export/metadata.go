package export

const (
	VAR_NIDEM       = "nidem"
	VAR_UNFILTERED  = "nidem_unfiltered"
	VAR_UNCERTAINTY = "nidem_uncertainty"
	VAR_MASK        = "nidem_mask"
	VAR_X           = "x"
	VAR_Y           = "y"

	standardNameHeight = "height_above_mean_sea_level"
)

// 变量属性
type VarMeta struct {
	Units               string
	StandardName        string
	CoverageContentType string
	LongName            string
	ValidRange          []float64
}

var varMeta = map[string]VarMeta{
	VAR_NIDEM: {
		Units:               "metres",
		StandardName:        standardNameHeight,
		CoverageContentType: "modelResult",
		LongName: "National Intertidal Digital Elevation Model (NIDEM): elevation data in metre units relative to mean sea " +
			"level for each pixel of intertidal terrain across the Australian coastline. Cleaned by masking out " +
			"non-intertidal pixels and pixels where tidal processes poorly explain patterns of inundation.",
		ValidRange: []float64{-25, 25},
	},
	VAR_UNFILTERED: {
		Units:               "metres",
		StandardName:        standardNameHeight,
		CoverageContentType: "modelResult",
		LongName: "NIDEM unfiltered: uncleaned elevation data in metre units relative to mean sea level for each pixel of " +
			"intertidal terrain across the Australian coastline. Compared to the default NIDEM product, these layers " +
			"have not been filtered to remove noise, artifacts or invalid elevation values.",
	},
	VAR_UNCERTAINTY: {
		Units:               "metres",
		StandardName:        standardNameHeight,
		CoverageContentType: "modelResult",
		LongName: "NIDEM uncertainty: provides a measure of the uncertainty (not accuracy) of NIDEM elevations in metre " +
			"units for each pixel. Represents the standard deviation of tide heights of all Landsat observations used " +
			"to produce each ITEM 2.0 ten percent tidal interval.",
	},
	VAR_MASK: {
		Units:               "1",
		CoverageContentType: "qualityInformation",
		LongName: "NIDEM mask: flags non-intertidal terrestrial pixels with elevations greater than 25 m (value = 1), " +
			"sub-tidal pixels with depths greater than -25 m (value = 2), and pixels where tidal processes poorly " +
			"explain patterns of inundation (value = 3).",
		ValidRange: []float64{1, 3},
	},
}

// 全局属性，可由配置覆盖
type Metadata struct {
	Title             string `toml:"title"`
	Institution       string `toml:"institution"`
	ProductVersion    string `toml:"product_version"`
	License           string `toml:"license"`
	TimeCoverageStart string `toml:"time_coverage_start"`
	TimeCoverageEnd   string `toml:"time_coverage_end"`
	CdmDataType       string `toml:"cdm_data_type"`
	Contact           string `toml:"contact"`
	PublisherEmail    string `toml:"publisher_email"`
	Source            string `toml:"source"`
	Keywords          string `toml:"keywords"`
	Summary           string `toml:"summary"`
}

func DefaultMetadata() Metadata {
	return Metadata{
		Title:             "National Intertidal Digital Elevation Model 25m 1.0.0",
		Institution:       "Commonwealth of Australia (Geoscience Australia)",
		ProductVersion:    "1.0.0",
		License:           "CC BY Attribution 4.0 International License",
		TimeCoverageStart: "1986-01-01",
		TimeCoverageEnd:   "2016-12-31",
		CdmDataType:       "Grid",
		Contact:           "clientservices@ga.gov.au",
		PublisherEmail:    "earth.observation@ga.gov.au",
		Source:            "ITEM v2.0",
		Keywords:          "Tidal, Topography, Landsat, Elevation, Intertidal, MSL, ITEM, NIDEM, DEM, Coastal",
		Summary: "The National Intertidal Digital Elevation Model (NIDEM) product is a continental-scale dataset " +
			"providing continuous elevation data for Australia's exposed intertidal zone. NIDEM provides the first " +
			"three-dimensional representation of Australia's intertidal zone (excluding off-shore Territories and " +
			"intertidal mangroves) at 25 m spatial resolution, addressing a key gap between the availability of " +
			"sub-tidal bathymetry and terrestrial elevation data. NIDEM was generated by combining global tidal " +
			"modelling with a 30-year time series archive of spatially and spectrally calibrated Landsat satellite " +
			"data managed within the Digital Earth Australia (DEA) platform.",
	}
}

// 按名称排序的全局属性，保证输出顺序固定
func (m Metadata) attrs() [][2]string {
	return [][2]string{
		{"cdm_data_type", m.CdmDataType},
		{"contact", m.Contact},
		{"institution", m.Institution},
		{"keywords", m.Keywords},
		{"license", m.License},
		{"product_version", m.ProductVersion},
		{"publisher_email", m.PublisherEmail},
		{"source", m.Source},
		{"summary", m.Summary},
		{"time_coverage_end", m.TimeCoverageEnd},
		{"time_coverage_start", m.TimeCoverageStart},
		{"title", m.Title},
	}
}
