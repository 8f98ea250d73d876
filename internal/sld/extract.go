package sld

import (
	"math"

	"github.com/beevik/etree"
)

// Decoded is the editable model of a document.
type Decoded struct {
	Properties StyleProperties `json:"properties"`
	Available  AvailabilityMap `json:"availableProps"`
}

// Decode reads the style properties expressed by an SLD document. It never
// fails: anything missing or unreadable keeps its default value.
func Decode(body string) Decoded {
	props := Defaults()
	avail := newAvailabilityMap()
	d := parseDocument(body)
	if d != nil {
		x := extractor{props: &props, avail: avail}
		x.extract(d)
	}
	detectSymbolizers(d, body, avail)
	return Decoded{Properties: props, Available: avail}
}

type extractor struct {
	props *StyleProperties
	avail AvailabilityMap
}

func (x *extractor) extract(d *document) {
	reg := d.editableRegion()
	mark := childPath(reg.point, "Graphic", "Mark")

	switch {
	case reg.polygon != nil:
		x.polygonFill(child(reg.polygon, "Fill"))
	case mark != nil:
		x.color(child(mark, "Fill"), "fill", PropFill, &x.props.Fill)
		x.number(child(mark, "Fill"), "fill-opacity", PropFillOpacity, &x.props.FillOpacity)
	}

	var stroke *etree.Element
	switch {
	case reg.polygon != nil:
		stroke = child(reg.polygon, "Stroke")
	case reg.line != nil:
		stroke = child(reg.line, "Stroke")
	default:
		stroke = child(mark, "Stroke")
	}
	x.stroke(stroke)

	if reg.point != nil {
		x.pointGraphic(child(reg.point, "Graphic"))
	}
	x.label(d)
}

func (x *extractor) polygonFill(fill *etree.Element) {
	if fill == nil {
		return
	}
	if gf := child(fill, "GraphicFill"); gf != nil {
		mark := childPath(gf, "Graphic", "Mark")
		if wkn := textOf(child(mark, "WellKnownName")); wkn != "" {
			x.props.HatchPattern = wkn
			x.avail.set(PropHatchPattern)
		}
		x.color(child(mark, "Stroke"), "stroke", PropFill, &x.props.Fill)
		return
	}
	x.color(fill, "fill", PropFill, &x.props.Fill)
	if x.number(fill, "fill-opacity", PropFillOpacity, &x.props.FillOpacity) && x.props.FillOpacity == 0 {
		x.props.HatchPattern = HatchOutline
		x.avail.set(PropHatchPattern)
	}
}

func (x *extractor) stroke(stroke *etree.Element) {
	if stroke == nil {
		return
	}
	x.color(stroke, "stroke", PropStroke, &x.props.Stroke)
	x.number(stroke, "stroke-width", PropStrokeWidth, &x.props.StrokeWidth)
	x.number(stroke, "stroke-opacity", PropStrokeOpacity, &x.props.StrokeOpacity)
	x.text(stroke, "stroke-dasharray", PropStrokeDasharray, &x.props.StrokeDasharray)
	x.text(stroke, "stroke-linecap", PropStrokeLinecap, &x.props.StrokeLinecap)
	x.text(stroke, "stroke-linejoin", PropStrokeLinejoin, &x.props.StrokeLinejoin)
}

func (x *extractor) pointGraphic(graphic *etree.Element) {
	if graphic == nil {
		return
	}
	x.numberText(child(graphic, "Size"), PropSize, &x.props.Size)
	x.numberText(child(graphic, "Rotation"), PropRotation, &x.props.Rotation)
	if wkn := textOf(childPath(graphic, "Mark", "WellKnownName")); wkn != "" {
		x.props.WellKnownName = wkn
		x.avail.set(PropWellKnownName)
	}
	if online := childPath(graphic, "ExternalGraphic", "OnlineResource"); online != nil {
		if href := online.SelectAttrValue("href", ""); href != "" {
			x.props.ExternalGraphicURL = href
			x.avail.set(PropExternalGraphicURL)
		}
	}
}

func (x *extractor) label(d *document) {
	symbolizers := findAll(d.root, "TextSymbolizer")
	if len(symbolizers) == 0 {
		return
	}
	// the generated label rule wins over labels authored elsewhere
	ts := symbolizers[0]
	for _, t := range symbolizers {
		if isLabelRule(t.Parent()) {
			ts = t
			break
		}
	}
	// literal label text is not an attribute name
	if attr := textOf(childPath(ts, "Label", "PropertyName")); attr != "" {
		x.props.LabelAttribute = attr
		x.avail.set(PropLabelAttribute)
	}

	font := child(ts, "Font")
	x.text(font, "font-family", PropFontFamily, &x.props.FontFamily)
	x.number(font, "font-size", PropFontSize, &x.props.FontSize)
	x.text(font, "font-weight", PropFontWeight, &x.props.FontWeight)
	x.text(font, "font-style", PropFontStyle, &x.props.FontStyle)
	x.color(child(ts, "Fill"), "fill", PropFontColor, &x.props.FontColor)

	halo := child(ts, "Halo")
	x.numberText(child(halo, "Radius"), PropHaloRadius, &x.props.HaloRadius)
	x.color(child(halo, "Fill"), "fill", PropHaloColor, &x.props.HaloColor)

	for _, vo := range children(ts, "VendorOption") {
		switch vo.SelectAttrValue("name", "") {
		case "group":
			x.props.PreventDuplicates = parseFlag(textOf(vo))
			x.avail.set(PropPreventDuplicates)
		case "repeat":
			if v, ok := parseNumber(textOf(vo)); ok && v >= 0 {
				x.props.LabelRepeat = int(math.Round(v))
				x.avail.set(PropLabelRepeat)
			}
		}
	}

	x.props.StaticLabel = true
	if rule := ts.Parent(); rule != nil && rule.Tag == "Rule" {
		if scale, ok := parseNumber(textOf(child(rule, "MaxScaleDenominator"))); ok && scale > 0 {
			x.props.StaticLabel = false
			x.props.MinZoom = ScaleToZoom(scale)
			x.avail.set(PropMinZoom)
		}
	}
	x.avail.set(PropStaticLabel)
}

func (x *extractor) color(parent *etree.Element, name string, prop Property, dst *string) bool {
	v, ok := paramValue(parent, name)
	if !ok {
		return false
	}
	*dst = normalizeColor(v)
	x.avail.set(prop)
	return true
}

func (x *extractor) text(parent *etree.Element, name string, prop Property, dst *string) bool {
	v, ok := paramValue(parent, name)
	if !ok {
		return false
	}
	*dst = v
	x.avail.set(prop)
	return true
}

func (x *extractor) number(parent *etree.Element, name string, prop Property, dst *float64) bool {
	raw, ok := paramValue(parent, name)
	if !ok {
		return false
	}
	v, ok := parseNumber(raw)
	if !ok {
		return false
	}
	*dst = v
	x.avail.set(prop)
	return true
}

func (x *extractor) numberText(el *etree.Element, prop Property, dst *float64) bool {
	v, ok := parseNumber(textOf(el))
	if !ok {
		return false
	}
	*dst = v
	x.avail.set(prop)
	return true
}
