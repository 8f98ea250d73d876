package sld

import (
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// containerPairs lists the structural containers guaranteed before values are
// written into them.
var containerPairs = []struct{ parent, child string }{
	{"PolygonSymbolizer", "Fill"},
	{"PolygonSymbolizer", "Stroke"},
	{"LineSymbolizer", "Stroke"},
	{"TextSymbolizer", "Halo"},
	{"TextSymbolizer", "Font"},
	{"TextSymbolizer", "Fill"},
}

var graphicFormats = map[string]string{
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

const hatchSize = 8

// Encode writes p into the editable region of body and returns the new
// document. Everything p does not cover is preserved structurally. Input that
// is not XML is returned unchanged.
func Encode(body string, p StyleProperties) string {
	d := parseDocument(body)
	if d == nil {
		return body
	}
	reg := d.editableRegion()

	d.ensureContainers(reg)
	d.writeScalars(reg, p)

	d.writePointGraphic(reg, p)
	d.writePolygonFill(reg, p)
	d.writeLabelRule(reg, p)

	out, err := d.String()
	if err != nil {
		return body
	}
	return out
}

func (d *document) ensureContainers(reg region) {
	if reg.rule == nil {
		return
	}
	for _, pair := range containerPairs {
		for _, parent := range findAll(reg.rule, pair.parent) {
			ensureChild(parent, pair.child)
		}
	}
	// only the point mark is edited, marks drawn inside strokes and hatch
	// fills keep their own structure
	if mark := childPath(reg.point, "Graphic", "Mark"); mark != nil {
		ensureChild(mark, "Fill")
		ensureChild(mark, "Stroke")
	}
}

func (d *document) writeScalars(reg region, p StyleProperties) {
	if reg.polygon != nil {
		fill := child(reg.polygon, "Fill")
		d.setParam(fill, "fill", normalizeColor(p.Fill))
		d.setParam(fill, "fill-opacity", formatNumber(p.FillOpacity))
		d.writeStroke(child(reg.polygon, "Stroke"), p, true)
	}
	if reg.line != nil {
		d.writeStroke(child(reg.line, "Stroke"), p, true)
	}
	if reg.point != nil {
		graphic := ensureChild(reg.point, "Graphic")
		setTag(graphic, "Size", formatNumber(p.Size))
		setTag(graphic, "Rotation", formatNumber(p.Rotation))
		if mark := child(graphic, "Mark"); mark != nil {
			setTag(mark, "WellKnownName", p.WellKnownName)
			d.writeMarkFill(child(mark, "Fill"), p)
			d.writeStroke(child(mark, "Stroke"), p, false)
		}
	}
}

func (d *document) writeStroke(stroke *etree.Element, p StyleProperties, lineStyle bool) {
	if stroke == nil {
		return
	}
	d.setParam(stroke, "stroke", normalizeColor(p.Stroke))
	d.setParam(stroke, "stroke-width", formatNumber(p.StrokeWidth))
	d.setParam(stroke, "stroke-opacity", formatNumber(p.StrokeOpacity))
	if lineStyle {
		d.setParam(stroke, "stroke-dasharray", strings.TrimSpace(p.StrokeDasharray))
		d.setParam(stroke, "stroke-linecap", p.StrokeLinecap)
		d.setParam(stroke, "stroke-linejoin", p.StrokeLinejoin)
	}
}

func (d *document) writeMarkFill(fill *etree.Element, p StyleProperties) {
	d.setParam(fill, "fill", normalizeColor(p.Fill))
	d.setParam(fill, "fill-opacity", formatNumber(p.FillOpacity))
}

// writePointGraphic keeps Mark and ExternalGraphic mutually exclusive. An
// external graphic URL takes precedence over the well known name.
func (d *document) writePointGraphic(reg region, p StyleProperties) {
	if reg.point == nil {
		return
	}
	graphic := ensureChild(reg.point, "Graphic")
	if p.ExternalGraphicURL != "" {
		removeChildren(graphic, "Mark")
		removeChildren(graphic, "ExternalGraphic")
		insertOrdered(graphic, d.externalGraphic(graphic.Space, p.ExternalGraphicURL))
		return
	}
	if p.WellKnownName != "" && (child(graphic, "ExternalGraphic") != nil || child(graphic, "Mark") == nil) {
		removeChildren(graphic, "ExternalGraphic")
		removeChildren(graphic, "Mark")
		insertOrdered(graphic, d.mark(graphic.Space, p))
	}
}

func (d *document) externalGraphic(space, href string) *etree.Element {
	xlink := d.prefixFor(nsXLink, "xlink")
	eg := newElement(space, "ExternalGraphic")
	online := sub(eg, "OnlineResource")
	online.CreateAttr(xlink+":type", "simple")
	online.CreateAttr(xlink+":href", href)
	format, ok := graphicFormats[strings.ToLower(path.Ext(href))]
	if !ok {
		format = "image/png"
	}
	sub(eg, "Format").SetText(format)
	return eg
}

func (d *document) mark(space string, p StyleProperties) *etree.Element {
	mark := newElement(space, "Mark")
	sub(mark, "WellKnownName").SetText(p.WellKnownName)
	d.writeMarkFill(sub(mark, "Fill"), p)
	d.writeStroke(sub(mark, "Stroke"), p, false)
	return mark
}

// writePolygonFill keeps a graphic hatch and a flat colour from coexisting
// inside the polygon Fill.
func (d *document) writePolygonFill(reg region, p StyleProperties) {
	if reg.polygon == nil {
		return
	}
	fill := ensureChild(reg.polygon, "Fill")
	switch {
	case p.IsGraphicHatch():
		clearChildren(fill)
		fill.AddChild(d.hatchFill(fill.Space, p))
	case p.HatchPattern == HatchOutline:
		clearChildren(fill)
		d.setParam(fill, "fill", normalizeColor(p.Fill))
		d.setParam(fill, "fill-opacity", "0")
	case child(fill, "GraphicFill") != nil:
		clearChildren(fill)
		d.setParam(fill, "fill", normalizeColor(p.Fill))
		d.setParam(fill, "fill-opacity", formatNumber(p.FillOpacity))
	}
}

func (d *document) hatchFill(space string, p StyleProperties) *etree.Element {
	gf := newElement(space, "GraphicFill")
	graphic := sub(gf, "Graphic")
	mark := sub(graphic, "Mark")
	sub(mark, "WellKnownName").SetText(p.HatchPattern)
	stroke := sub(mark, "Stroke")
	d.setParam(stroke, "stroke", normalizeColor(p.Fill))
	d.setParam(stroke, "stroke-width", "1")
	sub(graphic, "Size").SetText(strconv.Itoa(hatchSize))
	return gf
}

// writeLabelRule drops every label in the document and, when a label
// attribute is set, appends one freshly generated label rule.
func (d *document) writeLabelRule(reg region, p StyleProperties) {
	fts := findFirst(d.root, "FeatureTypeStyle")
	if reg.rule != nil {
		fts = reg.rule.Parent()
	}
	for _, rule := range findAll(d.root, "Rule") {
		parent := rule.Parent()
		if parent == nil {
			continue
		}
		if isLabelRule(rule) {
			parent.RemoveChild(rule)
			continue
		}
		labels := children(rule, "TextSymbolizer")
		for _, ts := range labels {
			rule.RemoveChild(ts)
		}
		if len(labels) > 0 && !hasSymbolizer(rule) {
			parent.RemoveChild(rule)
		}
	}
	if p.LabelAttribute == "" || fts == nil {
		return
	}
	fts.AddChild(d.labelRule(fts.Space, p))
}

func (d *document) labelRule(space string, p StyleProperties) *etree.Element {
	rule := newElement(space, "Rule")
	sub(rule, "Title").SetText(LabelRuleTitle)
	if !p.StaticLabel {
		sub(rule, "MaxScaleDenominator").SetText(formatNumber(ZoomToScale(p.MinZoom)))
	}
	ts := sub(rule, "TextSymbolizer")

	ogc := d.prefixFor(nsOGC, "ogc")
	sub(ts, "Label").CreateElement(ogc + ":PropertyName").SetText(p.LabelAttribute)

	font := sub(ts, "Font")
	d.setParam(font, "font-family", p.FontFamily)
	d.setParam(font, "font-size", formatNumber(p.FontSize))
	d.setParam(font, "font-style", p.FontStyle)
	d.setParam(font, "font-weight", p.FontWeight)

	halo := sub(ts, "Halo")
	sub(halo, "Radius").SetText(formatNumber(p.HaloRadius))
	d.setParam(sub(halo, "Fill"), "fill", normalizeColor(p.HaloColor))

	d.setParam(sub(ts, "Fill"), "fill", normalizeColor(p.FontColor))

	if p.PreventDuplicates {
		vo := sub(ts, "VendorOption")
		vo.CreateAttr("name", "group")
		vo.SetText("yes")
	}
	if p.LabelRepeat > 0 {
		vo := sub(ts, "VendorOption")
		vo.CreateAttr("name", "repeat")
		vo.SetText(strconv.Itoa(p.LabelRepeat))
	}
	return rule
}
