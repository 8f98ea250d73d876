package sld

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	nsSLD   = "http://www.opengis.net/sld"
	nsOGC   = "http://www.opengis.net/ogc"
	nsXLink = "http://www.w3.org/1999/xlink"
	nsXSI   = "http://www.w3.org/2001/XMLSchema-instance"
)

// Element order of the SLD 1.0 content models the patcher inserts into.
// Tags missing from an order list (parameters, vendor options, symbolizers
// inside a Rule) sort after all listed ones.
var childOrder = map[string][]string{
	"Rule":              {"Name", "Title", "Abstract", "LegendGraphic", "Filter", "ElseFilter", "MinScaleDenominator", "MaxScaleDenominator"},
	"PolygonSymbolizer": {"Geometry", "Fill", "Stroke"},
	"LineSymbolizer":    {"Geometry", "Stroke"},
	"PointSymbolizer":   {"Geometry", "Graphic"},
	"TextSymbolizer":    {"Geometry", "Label", "Font", "LabelPlacement", "Halo", "Fill"},
	"Graphic":           {"ExternalGraphic", "Mark", "Opacity", "Size", "Rotation"},
	"Mark":              {"WellKnownName", "Fill", "Stroke"},
	"Halo":              {"Radius", "Fill"},
	"Fill":              {"GraphicFill"},
	"Stroke":            {"GraphicFill", "GraphicStroke"},
}

// document is a parsed SLD plus the conventions detected in it.
type document struct {
	doc  *etree.Document
	root *etree.Element
	// param is the parameter element name used by the document,
	// CssParameter unless it already contains SvgParameter nodes.
	param string
}

func parseDocument(body string) *document {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(body); err != nil {
		return nil
	}
	root := doc.Root()
	if root == nil {
		return nil
	}
	d := &document{doc: doc, root: root, param: "CssParameter"}
	if findFirst(root, "SvgParameter") != nil {
		d.param = "SvgParameter"
	}
	return d
}

func (d *document) String() (string, error) {
	d.doc.Indent(2)
	return d.doc.WriteToString()
}

// region is the edit unit: the first rule carrying a geometry symbolizer and
// the first symbolizer of each geometry kind inside it.
type region struct {
	rule    *etree.Element
	polygon *etree.Element
	line    *etree.Element
	point   *etree.Element
}

func (d *document) editableRegion() region {
	for _, rule := range findAll(d.root, "Rule") {
		if isLabelRule(rule) {
			continue
		}
		r := region{
			rule:    rule,
			polygon: child(rule, "PolygonSymbolizer"),
			line:    child(rule, "LineSymbolizer"),
			point:   child(rule, "PointSymbolizer"),
		}
		if r.polygon != nil || r.line != nil || r.point != nil {
			return r
		}
	}
	return region{}
}

func isLabelRule(rule *etree.Element) bool {
	return textOf(child(rule, "Title")) == LabelRuleTitle || textOf(child(rule, "Name")) == LabelRuleTitle
}

func hasSymbolizer(rule *etree.Element) bool {
	for _, c := range rule.ChildElements() {
		if strings.HasSuffix(c.Tag, "Symbolizer") {
			return true
		}
	}
	return false
}

// prefixFor returns the prefix bound to uri on the root element, declaring
// it with the preferred prefix when missing.
func (d *document) prefixFor(uri, preferred string) string {
	for _, a := range d.root.Attr {
		if a.Space == "xmlns" && a.Value == uri {
			return a.Key
		}
	}
	d.root.CreateAttr("xmlns:"+preferred, uri)
	return preferred
}

func findAll(el *etree.Element, tag string) []*etree.Element {
	if el == nil {
		return nil
	}
	var res []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			res = append(res, c)
		}
		res = append(res, findAll(c, tag)...)
	}
	return res
}

func findFirst(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func child(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func children(el *etree.Element, tag string) []*etree.Element {
	if el == nil {
		return nil
	}
	var res []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			res = append(res, c)
		}
	}
	return res
}

func childPath(el *etree.Element, tags ...string) *etree.Element {
	for _, tag := range tags {
		el = child(el, tag)
	}
	return el
}

// textOf returns trimmed element text, looking into an ogc:Literal wrapper.
func textOf(el *etree.Element) string {
	if el == nil {
		return ""
	}
	text := strings.TrimSpace(el.Text())
	if text == "" {
		if lit := child(el, "Literal"); lit != nil {
			text = strings.TrimSpace(lit.Text())
		}
	}
	return text
}

func isParam(el *etree.Element) bool {
	return el.Tag == "CssParameter" || el.Tag == "SvgParameter"
}

func findParam(parent *etree.Element, name string) *etree.Element {
	if parent == nil {
		return nil
	}
	for _, c := range parent.ChildElements() {
		if isParam(c) && c.SelectAttrValue("name", "") == name {
			return c
		}
	}
	return nil
}

func paramValue(parent *etree.Element, name string) (string, bool) {
	p := findParam(parent, name)
	if p == nil {
		return "", false
	}
	v := textOf(p)
	return v, v != ""
}

// setParam writes a named parameter inside parent. An empty value removes it.
// Parameters holding an expression are left alone.
func (d *document) setParam(parent *etree.Element, name, value string) {
	if parent == nil {
		return
	}
	p := findParam(parent, name)
	if p != nil && holdsExpression(p) {
		return
	}
	if value == "" {
		if p != nil {
			parent.RemoveChild(p)
		}
		return
	}
	if p == nil {
		p = newElement(parent.Space, d.param)
		p.CreateAttr("name", name)
		parent.AddChild(p)
	}
	setText(p, value)
}

// setTag writes the text of a direct child element. An empty value removes it.
// Like setParam it keeps elements holding an expression.
func setTag(parent *etree.Element, tag, value string) {
	if parent == nil {
		return
	}
	if el := child(parent, tag); el != nil && holdsExpression(el) {
		return
	}
	if value == "" {
		removeChildren(parent, tag)
		return
	}
	setText(ensureChild(parent, tag), value)
}

// holdsExpression reports whether el carries an ogc expression other than a
// plain literal, e.g. ogc:PropertyName or ogc:Function.
func holdsExpression(el *etree.Element) bool {
	for _, c := range el.ChildElements() {
		if c.Tag != "Literal" {
			return true
		}
	}
	return false
}

func setText(el *etree.Element, value string) {
	clearChildren(el)
	el.SetText(value)
}

func clearChildren(el *etree.Element) {
	for len(el.Child) > 0 {
		el.RemoveChildAt(0)
	}
}

func removeChildren(el *etree.Element, tag string) {
	for _, c := range children(el, tag) {
		el.RemoveChild(c)
	}
}

func newElement(space, tag string) *etree.Element {
	el := etree.NewElement(tag)
	el.Space = space
	return el
}

// sub appends a child element sharing the parent's prefix.
func sub(parent *etree.Element, tag string) *etree.Element {
	el := parent.CreateElement(tag)
	el.Space = parent.Space
	return el
}

func ensureChild(parent *etree.Element, tag string) *etree.Element {
	if c := child(parent, tag); c != nil {
		return c
	}
	el := newElement(parent.Space, tag)
	insertOrdered(parent, el)
	return el
}

func insertOrdered(parent, el *etree.Element) {
	order := childOrder[parent.Tag]
	rank := func(tag string) int {
		for i, t := range order {
			if t == tag {
				return i
			}
		}
		return len(order)
	}
	r := rank(el.Tag)
	for _, c := range parent.ChildElements() {
		if rank(c.Tag) > r {
			parent.InsertChildAt(c.Index(), el)
			return
		}
	}
	parent.AddChild(el)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
