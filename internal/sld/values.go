package sld

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	colors "gopkg.in/go-playground/colors.v1"
)

// ScaleConstant is the scale denominator of zoom level 0 in the Web Mercator
// tile pyramid (256px tiles, 0.28mm pixels).
const ScaleConstant = 559082264.0287178

const maxZoom = 30

// ZoomToScale converts a zoom level into the MaxScaleDenominator written for labels.
func ZoomToScale(zoom int) float64 {
	return ScaleConstant / math.Pow(2, float64(zoom))
}

// ScaleToZoom converts a scale denominator back to the nearest zoom level.
func ScaleToZoom(scale float64) int {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return 0
	}
	zoom := int(math.Round(math.Log2(ScaleConstant / scale)))
	if zoom < 0 {
		return 0
	}
	if zoom > maxZoom {
		return maxZoom
	}
	return zoom
}

// normalizeColor lower-cases colours into #rrggbb form. Values the colour
// parser does not understand are returned trimmed but otherwise untouched.
func normalizeColor(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "#") {
		value = strings.ToLower(value)
	}
	c, err := colors.Parse(value)
	if err != nil {
		return value
	}
	rgb := c.ToRGB()
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

func parseNumber(value string) (float64, bool) {
	value = strings.TrimSuffix(strings.TrimSpace(value), "px")
	if value == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1", "on":
		return true
	}
	return false
}
