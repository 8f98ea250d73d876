package sld

import (
	"strings"

	"github.com/beevik/etree"
)

// Symbolizer kinds the bootstrap generator can emit.
const (
	SymbolizerPolygon = "PolygonSymbolizer"
	SymbolizerLine    = "LineSymbolizer"
	SymbolizerPoint   = "PointSymbolizer"
)

// SymbolizerForGeometry picks the symbolizer kind from a geometry type hint
// such as "MultiLineString" or "org.locationtech.jts.geom.Point".
func SymbolizerForGeometry(geometryType string) string {
	hint := strings.ToLower(geometryType)
	switch {
	case strings.Contains(hint, "line"):
		return SymbolizerLine
	case strings.Contains(hint, "point"):
		return SymbolizerPoint
	default:
		return SymbolizerPolygon
	}
}

// DefaultStyleName is the name of the layer specific style of a fully
// qualified layer name ("workspace:layer" -> "layer_style").
func DefaultStyleName(layerFullName string) string {
	name := layerFullName
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	return name + "_style"
}

// Bootstrap generates a minimal SLD 1.0.0 document with a single rule for a
// layer that has no style of its own yet.
func Bootstrap(layerFullName, geometryType string) string {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("StyledLayerDescriptor")
	root.CreateAttr("version", "1.0.0")
	root.CreateAttr("xmlns", nsSLD)
	root.CreateAttr("xmlns:ogc", nsOGC)
	root.CreateAttr("xmlns:xlink", nsXLink)
	root.CreateAttr("xmlns:xsi", nsXSI)
	root.CreateAttr("xsi:schemaLocation", nsSLD+" http://schemas.opengis.net/sld/1.0.0/StyledLayerDescriptor.xsd")

	namedLayer := root.CreateElement("NamedLayer")
	namedLayer.CreateElement("Name").SetText(layerFullName)
	userStyle := namedLayer.CreateElement("UserStyle")
	userStyle.CreateElement("Name").SetText(DefaultStyleName(layerFullName))
	userStyle.CreateElement("Title").SetText(layerFullName)
	rule := userStyle.CreateElement("FeatureTypeStyle").CreateElement("Rule")
	rule.CreateElement("Name").SetText("default")

	d := &document{doc: doc, root: root, param: "CssParameter"}
	switch SymbolizerForGeometry(geometryType) {
	case SymbolizerLine:
		stroke := rule.CreateElement(SymbolizerLine).CreateElement("Stroke")
		d.setParam(stroke, "stroke", "#1e40af")
		d.setParam(stroke, "stroke-width", "2")
	case SymbolizerPoint:
		graphic := rule.CreateElement(SymbolizerPoint).CreateElement("Graphic")
		mark := graphic.CreateElement("Mark")
		mark.CreateElement("WellKnownName").SetText("circle")
		d.setParam(mark.CreateElement("Fill"), "fill", "#4f86f7")
		stroke := mark.CreateElement("Stroke")
		d.setParam(stroke, "stroke", "#1e40af")
		d.setParam(stroke, "stroke-width", "1")
		graphic.CreateElement("Size").SetText("8")
	default:
		polygon := rule.CreateElement(SymbolizerPolygon)
		fill := polygon.CreateElement("Fill")
		d.setParam(fill, "fill", "#4f86f7")
		d.setParam(fill, "fill-opacity", "0.6")
		stroke := polygon.CreateElement("Stroke")
		d.setParam(stroke, "stroke", "#1e40af")
		d.setParam(stroke, "stroke-width", "1")
	}

	out, err := d.String()
	if err != nil {
		return ""
	}
	return out
}
