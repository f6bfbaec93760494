package mapping

// Built-in classification tables, derived from
// https://github.com/gravitystorm/openstreetmap-carto/blob/master/openstreetmap-carto.lua

func defaultConfig() Config {
	return Config{
		PolygonKeys:      defaultPolygonKeys,
		PolygonValues:    defaultPolygonValues,
		LinestringValues: defaultLinestringValues,
		DeleteKeys:       defaultDeleteKeys,
		DeletePrefixes:   defaultDeletePrefixes,
		Scores:           defaultScores,
	}
}

// Objects with any of the following keys are treated as polygon.
var defaultPolygonKeys = []string{
	"abandoned:aeroway",
	"abandoned:amenity",
	"abandoned:building",
	"abandoned:landuse",
	"abandoned:power",
	"aeroway",
	"allotments",
	"amenity",
	"area:highway",
	"craft",
	"building",
	"building:part",
	"club",
	"golf",
	"emergency",
	"harbour",
	"healthcare",
	"historic",
	"landuse",
	"leisure",
	"man_made",
	"military",
	"natural",
	"office",
	"place",
	"power",
	"public_transport",
	"shop",
	"tourism",
	"water",
	"waterway",
	"wetland",
}

// Objects with any of the following key/value combinations are treated as
// polygon.
var defaultPolygonValues = map[string][]string{
	"aerialway": {"station"},
	"boundary":  {"aboriginal_lands", "national_park", "protected_area"},
	"highway":   {"services", "rest_area"},
	"junction":  {"yes"},
	"railway":   {"station"},
}

// Objects with any of the following key/value combinations are treated as
// linestring, even when the way is closed.
var defaultLinestringValues = map[string][]string{
	"golf":      {"cartpath", "hole", "path"},
	"emergency": {"designated", "destination", "no", "official", "yes"},
	"historic":  {"citywalls"},
	"leisure":   {"track", "slipway"},
	"man_made":  {"breakwater", "cutline", "embankment", "groyne", "pipeline"},
	"natural":   {"cliff", "earth_bank", "tree_row", "ridge", "arete"},
	"power":     {"cable", "line", "minor_line"},
	"tourism":   {"yes"},
	"waterway": {
		"canal",
		"derelict_canal",
		"ditch",
		"drain",
		"river",
		"stream",
		"tidal_channel",
		"wadi",
		"weir",
	},
}

// Keys stripped by CleanupTags.
var defaultDeleteKeys = []string{
	"note",
	"source",
	"source_ref",
	"attribution",
	"comment",
	"fixme",
	// Tags generally dropped by editors, not otherwise covered
	"created_by",
	"odbl",
	// Lots of import tags
	// EUROSHA (Various countries)
	"project:eurosha_2012",
	// UrbIS (Brussels, BE)
	"ref:UrbIS",
	// NHN (CA)
	"accuracy:meters",
	"waterway:type",
	// StatsCan (CA)
	"statscan:rbuid",
	// RUIAN (CZ)
	"ref:ruian:addr",
	"ref:ruian",
	"building:ruian:type",
	// DIBAVOD (CZ)
	"dibavod:id",
	// UIR-ADR (CZ)
	"uir_adr:ADRESA_KOD",
	// GST (DK)
	"gst:feat_id",
	// osak (DK)
	"osak:identifier",
	// Maa-amet (EE)
	"maaamet:ETAK",
	// FANTOIR (FR)
	"ref:FR:FANTOIR",
	// OPPDATERIN (NO)
	"OPPDATERIN",
	// Various imports (PL)
	"addr:city:simc",
	"addr:street:sym_ul",
	"building:usage:pl",
	"building:use:pl",
	// TERYT (PL)
	"teryt:simc",
	// RABA (SK)
	"raba:id",
	// LINZ (NZ)
	"linz2osm:objectid",
	// DCGIS (Washington DC, US)
	"dcgis:gis_id",
	// Building Identification Number (New York, US)
	"nycdoitt:bin",
	// Chicago Building Inport (US)
	"chicago:building_id",
	// Louisville, Kentucky/Building Outlines Import (US)
	"lojic:bgnum",
	// MassGIS (Massachusetts, US)
	"massgis:way_id",
	// misc
	"import",
	"import_uuid",
	"OBJTYPE",
	"SK53_bulk:load",
}

// Prefixes stripped by CleanupTags. A matching tag is removed entirely.
var defaultDeletePrefixes = []string{
	"note:",
	"source:",
	// Corine (CLC) (Europe)
	"CLC:",
	// Geobase (CA)
	"geobase:",
	// CanVec (CA)
	"canvec:",
	// kms (DK)
	"kms:",
	// ngbe (ES)
	"ngbe:",
	// Friuli Venezia Giulia (IT)
	"it:fvg:",
	// KSJ2 (JA)
	"KSJ2:",
	// Yahoo/ALPS (JA)
	"yh:",
	// LINZ (NZ)
	"LINZ2OSM:",
	"LINZ:",
	// WroclawGIS (PL)
	"WroclawGIS:",
	// Naptan (UK)
	"naptan:",
	// TIGER (US)
	"tiger:",
	// GNIS (US)
	"gnis:",
	// National Hydrography Dataset (US)
	"NHD:",
	"nhd:",
	// mvdgis (Montevideo, UY)
	"mvdgis:",
}

// Z-order and road flags per key/value. A zero z still counts as a table
// entry for the road flag.
var defaultScores = map[string]map[string]Score{
	"highway": {
		"motorway":       {ZOrder: 380, Road: true},
		"trunk":          {ZOrder: 370, Road: true},
		"primary":        {ZOrder: 360, Road: true},
		"secondary":      {ZOrder: 350, Road: true},
		"tertiary":       {ZOrder: 340, Road: false},
		"residential":    {ZOrder: 330, Road: false},
		"unclassified":   {ZOrder: 330, Road: false},
		"road":           {ZOrder: 330, Road: false},
		"living_street":  {ZOrder: 320, Road: false},
		"pedestrian":     {ZOrder: 310, Road: false},
		"raceway":        {ZOrder: 300, Road: false},
		"motorway_link":  {ZOrder: 240, Road: true},
		"trunk_link":     {ZOrder: 230, Road: true},
		"primary_link":   {ZOrder: 220, Road: true},
		"secondary_link": {ZOrder: 210, Road: true},
		"tertiary_link":  {ZOrder: 200, Road: false},
		"service":        {ZOrder: 150, Road: false},
		"track":          {ZOrder: 110, Road: false},
		"path":           {ZOrder: 100, Road: false},
		"footway":        {ZOrder: 100, Road: false},
		"bridleway":      {ZOrder: 100, Road: false},
		"cycleway":       {ZOrder: 100, Road: false},
		"steps":          {ZOrder: 90, Road: false},
		"platform":       {ZOrder: 90, Road: false},
	},
	"railway": {
		"rail":         {ZOrder: 440, Road: true},
		"subway":       {ZOrder: 420, Road: true},
		"narrow_gauge": {ZOrder: 420, Road: true},
		"light_rail":   {ZOrder: 420, Road: true},
		"funicular":    {ZOrder: 420, Road: true},
		"preserved":    {ZOrder: 420, Road: false},
		"monorail":     {ZOrder: 420, Road: false},
		"miniature":    {ZOrder: 420, Road: false},
		"turntable":    {ZOrder: 420, Road: false},
		"tram":         {ZOrder: 410, Road: false},
		"disused":      {ZOrder: 400, Road: false},
		"construction": {ZOrder: 400, Road: false},
		"platform":     {ZOrder: 90, Road: false},
	},
	"aeroway": {
		"runway":  {ZOrder: 60, Road: false},
		"taxiway": {ZOrder: 50, Road: false},
	},
	"boundary": {
		"administrative": {ZOrder: 0, Road: true},
	},
}
