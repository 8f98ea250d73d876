package sld

import (
	"github.com/beevik/etree"
)

// LayerStyle pairs a layer name with a style document.
type LayerStyle struct {
	Layer string
	Body  string
}

// Combine builds a single SLD_BODY document for a WMS request. The first
// UserStyle of every document is placed under a NamedLayer named after its
// layer, whatever NamedLayer name the stored document uses. Documents
// without a UserStyle are skipped, an empty string is returned when none is
// left.
func Combine(styles ...LayerStyle) string {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("StyledLayerDescriptor")
	root.CreateAttr("version", "1.0.0")
	root.CreateAttr("xmlns", nsSLD)

	count := 0
	for _, s := range styles {
		d := parseDocument(s.Body)
		if d == nil {
			continue
		}
		userStyle := findFirst(d.root, "UserStyle")
		if userStyle == nil {
			continue
		}
		for _, a := range d.root.Attr {
			if a.Space == "xmlns" && root.SelectAttr("xmlns:"+a.Key) == nil {
				root.CreateAttr("xmlns:"+a.Key, a.Value)
			}
		}
		namedLayer := root.CreateElement("NamedLayer")
		namedLayer.CreateElement("Name").SetText(s.Layer)
		namedLayer.AddChild(userStyle.Copy())
		count++
	}
	if count == 0 {
		return ""
	}
	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return out
}
