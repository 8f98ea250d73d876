package server

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strconv"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/infrastructure/geoserver"
	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"
)

const maxLegendSize = 512

func (s *Server) loadLegendImage(ctx context.Context, layer string, preview bool) (image.Image, error) {
	query := url.Values{}
	query.Set("SERVICE", "WMS")
	query.Set("VERSION", "1.1.1")
	query.Set("REQUEST", "GetLegendGraphic")
	query.Set("FORMAT", "image/png")
	query.Set("LAYER", layer)
	query.Set("WIDTH", "20")
	query.Set("HEIGHT", "20")
	query.Set("LEGEND_OPTIONS", "forceLabels:off")
	if preview {
		s.applyPreviews(ctx, query)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Config.MapOWSURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: legend request: %v", geoserver.ErrGeoServer, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: legend request: %d", geoserver.ErrGeoServer, res.StatusCode)
	}
	img, err := imaging.Decode(res.Body)
	if err != nil {
		// GeoServer reports errors as a ServiceExceptionReport with status 200
		return nil, fmt.Errorf("%w: decoding legend image: %v", geoserver.ErrGeoServer, err)
	}
	return img, nil
}

// handleLegend renders a square legend thumbnail of the layer style, with the
// live preview applied unless preview=false.
func (s *Server) handleLegend() func(echo.Context) error {
	return func(c echo.Context) error {
		size := s.Config.LegendSize
		if v := c.QueryParam("size"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > maxLegendSize {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid size parameter")
			}
			size = n
		}
		preview := c.QueryParam("preview") != "false"

		img, err := s.loadLegendImage(c.Request().Context(), c.Param("layer"), preview)
		if err != nil {
			return s.styleError(err)
		}
		thumb := imaging.Fit(img, size, size, imaging.Lanczos)
		if thumb.Bounds().Dx() < size || thumb.Bounds().Dy() < size {
			thumb = imaging.PasteCenter(imaging.New(size, size, image.Transparent), thumb)
		}
		buf := new(bytes.Buffer)
		if err := imaging.Encode(buf, thumb, imaging.PNG); err != nil {
			return fmt.Errorf("encoding legend thumbnail: %w", err)
		}
		c.Response().Header().Set("Cache-Control", "no-store")
		return c.Blob(http.StatusOK, "image/png", buf.Bytes())
	}
}
