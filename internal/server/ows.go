package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/sld"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OWS parameter names are case insensitive, owsParam returns the key used in
// the query for name.
func owsParam(query url.Values, name string) string {
	for key := range query {
		if strings.EqualFold(key, name) {
			return key
		}
	}
	return ""
}

func getOwsParam(query url.Values, name string) string {
	if key := owsParam(query, name); key != "" {
		return query.Get(key)
	}
	return ""
}

func deleteOwsParam(query url.Values, name string) {
	if key := owsParam(query, name); key != "" {
		query.Del(key)
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}

// applyPreviews injects SLD_BODY with the live previews of the requested
// layers. Layers without a preview keep their stored style.
func (s *Server) applyPreviews(ctx context.Context, query url.Values) {
	deleteOwsParam(query, "PREVIEW")
	layersKey := owsParam(query, "LAYERS")
	stylesKey := "STYLES"
	if layersKey == "" {
		// GetLegendGraphic
		layersKey = owsParam(query, "LAYER")
		stylesKey = "STYLE"
	}
	if layersKey == "" {
		return
	}
	layers := splitList(query.Get(layersKey))
	var previews []sld.LayerStyle
	previewed := make(map[int]bool)
	for i, layer := range layers {
		body, err := s.styles.GetPreview(ctx, layer)
		if err != nil {
			if !errors.Is(err, domain.ErrPreviewNotExists) {
				s.log.Warnw("reading style preview", "layer", layer, zap.Error(err))
			}
			continue
		}
		previews = append(previews, sld.LayerStyle{Layer: layer, Body: body})
		previewed[i] = true
	}
	sldBody := sld.Combine(previews...)
	if sldBody == "" {
		return
	}
	query.Set("SLD_BODY", sldBody)

	// styles from the library document are picked when the STYLES entry is empty
	if key := owsParam(query, stylesKey); key != "" {
		styles := splitList(query.Get(key))
		if len(styles) == len(layers) {
			for i := range styles {
				if previewed[i] {
					styles[i] = ""
				}
			}
			query.Set(key, strings.Join(styles, ","))
		}
	}
}

func (s *Server) handleMapOws() func(c echo.Context) error {
	director := func(req *http.Request) {
		target, _ := url.Parse(s.Config.MapOWSURL)
		s.log.Debugw("Map proxy", "query", req.URL.RawQuery)
		req.URL.Path = target.Path
		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.Host = target.Host

		if _, ok := req.Header["User-Agent"]; !ok {
			// explicitly disable User-Agent so it's not set to default value
			req.Header.Set("User-Agent", "")
		}
	}
	reverseProxy := &httputil.ReverseProxy{Director: director}
	return func(c echo.Context) error {
		req := c.Request()
		query := req.URL.Query()
		if strings.EqualFold(getOwsParam(query, "PREVIEW"), "true") {
			s.applyPreviews(req.Context(), query)
			req.URL.RawQuery = query.Encode()
		}
		reverseProxy.ServeHTTP(c.Response(), req)
		return nil
	}
}
