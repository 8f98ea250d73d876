// Package sld reads and writes the editable subset of OGC Styled Layer
// Descriptor 1.0 documents: one rule with point, line or polygon symbolizers
// plus a generated label rule.
package sld

// Property names editable style attributes. They double as JSON keys of
// StyleProperties and AvailabilityMap.
type Property string

const (
	PropFill               Property = "fill"
	PropFillOpacity        Property = "fillOpacity"
	PropHatchPattern       Property = "hatchPattern"
	PropStroke             Property = "stroke"
	PropStrokeWidth        Property = "strokeWidth"
	PropStrokeOpacity      Property = "strokeOpacity"
	PropStrokeDasharray    Property = "strokeDasharray"
	PropStrokeLinecap      Property = "strokeLinecap"
	PropStrokeLinejoin     Property = "strokeLinejoin"
	PropSize               Property = "size"
	PropRotation           Property = "rotation"
	PropWellKnownName      Property = "wellKnownName"
	PropExternalGraphicURL Property = "externalGraphicUrl"
	PropLabelAttribute     Property = "labelAttribute"
	PropFontSize           Property = "fontSize"
	PropFontColor          Property = "fontColor"
	PropFontFamily         Property = "fontFamily"
	PropFontWeight         Property = "fontWeight"
	PropFontStyle          Property = "fontStyle"
	PropHaloRadius         Property = "haloRadius"
	PropHaloColor          Property = "haloColor"
	PropStaticLabel        Property = "staticLabel"
	PropMinZoom            Property = "minZoom"
	PropPreventDuplicates  Property = "preventDuplicates"
	PropLabelRepeat        Property = "labelRepeat"
)

var AllProperties = []Property{
	PropFill, PropFillOpacity, PropHatchPattern,
	PropStroke, PropStrokeWidth, PropStrokeOpacity, PropStrokeDasharray, PropStrokeLinecap, PropStrokeLinejoin,
	PropSize, PropRotation, PropWellKnownName, PropExternalGraphicURL,
	PropLabelAttribute, PropFontSize, PropFontColor, PropFontFamily, PropFontWeight, PropFontStyle,
	PropHaloRadius, PropHaloColor, PropStaticLabel, PropMinZoom, PropPreventDuplicates, PropLabelRepeat,
}

const (
	HatchSolid   = ""
	HatchOutline = "outline"
)

// LabelRuleTitle marks the rule owned by the label generator.
const LabelRuleTitle = "GeneratedLabelRule"

// StyleProperties is the flat editable appearance of one layer style.
type StyleProperties struct {
	Fill         string  `json:"fill"`
	FillOpacity  float64 `json:"fillOpacity" validate:"gte=0,lte=1"`
	HatchPattern string  `json:"hatchPattern"`

	Stroke          string  `json:"stroke"`
	StrokeWidth     float64 `json:"strokeWidth" validate:"gte=0"`
	StrokeOpacity   float64 `json:"strokeOpacity" validate:"gte=0,lte=1"`
	StrokeDasharray string  `json:"strokeDasharray"`
	StrokeLinecap   string  `json:"strokeLinecap" validate:"omitempty,oneof=butt round square"`
	StrokeLinejoin  string  `json:"strokeLinejoin" validate:"omitempty,oneof=miter mitre round bevel"`

	Size               float64 `json:"size" validate:"gte=0"`
	Rotation           float64 `json:"rotation" validate:"gte=0,lte=360"`
	WellKnownName      string  `json:"wellKnownName" validate:"omitempty,oneof=circle square triangle star cross x"`
	ExternalGraphicURL string  `json:"externalGraphicUrl"`

	LabelAttribute    string  `json:"labelAttribute"`
	FontSize          float64 `json:"fontSize" validate:"gte=0"`
	FontColor         string  `json:"fontColor"`
	FontFamily        string  `json:"fontFamily"`
	FontWeight        string  `json:"fontWeight" validate:"omitempty,oneof=normal bold"`
	FontStyle         string  `json:"fontStyle" validate:"omitempty,oneof=normal italic oblique"`
	HaloRadius        float64 `json:"haloRadius" validate:"gte=0"`
	HaloColor         string  `json:"haloColor"`
	StaticLabel       bool    `json:"staticLabel"`
	MinZoom           int     `json:"minZoom" validate:"gte=0,lte=30"`
	PreventDuplicates bool    `json:"preventDuplicates"`
	LabelRepeat       int     `json:"labelRepeat" validate:"gte=0"`
}

// Defaults returns the property model used for anything a document does not express.
func Defaults() StyleProperties {
	return StyleProperties{
		Fill:         "#4f86f7",
		FillOpacity:  1,
		HatchPattern: HatchSolid,

		Stroke:          "#1e40af",
		StrokeWidth:     1,
		StrokeOpacity:   1,
		StrokeDasharray: "",
		StrokeLinecap:   "butt",
		StrokeLinejoin:  "miter",

		Size:               8,
		Rotation:           0,
		WellKnownName:      "circle",
		ExternalGraphicURL: "",

		LabelAttribute:    "",
		FontSize:          12,
		FontColor:         "#000000",
		FontFamily:        "Arial",
		FontWeight:        "normal",
		FontStyle:         "normal",
		HaloRadius:        1,
		HaloColor:         "#ffffff",
		StaticLabel:       true,
		MinZoom:           14,
		PreventDuplicates: false,
		LabelRepeat:       0,
	}
}

// IsGraphicHatch reports whether the hatch pattern names a GraphicFill mark
// (e.g. "shape://slash") rather than a solid or outline fill.
func (p StyleProperties) IsGraphicHatch() bool {
	return p.HatchPattern != HatchSolid && p.HatchPattern != HatchOutline && p.HatchPattern != "solid"
}

// AvailabilityMap flags properties backed by a node of the decoded document.
type AvailabilityMap map[Property]bool

func newAvailabilityMap() AvailabilityMap {
	m := make(AvailabilityMap, len(AllProperties))
	for _, p := range AllProperties {
		m[p] = false
	}
	return m
}

func (m AvailabilityMap) set(props ...Property) {
	for _, p := range props {
		m[p] = true
	}
}
