package sld

import "strings"

var (
	polygonProperties = []Property{
		PropFill, PropFillOpacity, PropHatchPattern,
		PropStroke, PropStrokeWidth, PropStrokeOpacity, PropStrokeDasharray, PropStrokeLinecap, PropStrokeLinejoin,
	}
	pointProperties = []Property{
		PropSize, PropWellKnownName, PropExternalGraphicURL, PropRotation,
		PropFill, PropFillOpacity, PropStroke, PropStrokeWidth, PropStrokeOpacity,
	}
	lineProperties = []Property{
		PropStroke, PropStrokeWidth, PropStrokeOpacity, PropStrokeDasharray, PropStrokeLinecap, PropStrokeLinejoin,
	}
	textProperties = []Property{
		PropLabelAttribute, PropFontSize, PropFontColor, PropFontFamily, PropFontWeight, PropFontStyle,
		PropHaloRadius, PropHaloColor, PropStaticLabel, PropMinZoom, PropPreventDuplicates, PropLabelRepeat,
	}
)

// Detect reports which properties the symbolizers of body can express.
// A document without point, line or polygon symbolizers counts as polygon.
func Detect(body string) AvailabilityMap {
	m := newAvailabilityMap()
	detectSymbolizers(parseDocument(body), body, m)
	return m
}

func detectSymbolizers(d *document, body string, m AvailabilityMap) {
	has := func(tag string) bool {
		if d != nil {
			return d.root.Tag == tag || findFirst(d.root, tag) != nil
		}
		// unparsable text, fall back to a plain search
		return strings.Contains(body, tag)
	}
	polygon := has("PolygonSymbolizer")
	point := has("PointSymbolizer")
	line := has("LineSymbolizer")

	if polygon || (!point && !line) {
		m.set(polygonProperties...)
	}
	if point {
		m.set(pointProperties...)
	}
	if line {
		m.set(lineProperties...)
	}
	if has("TextSymbolizer") {
		m.set(textProperties...)
	}
}
