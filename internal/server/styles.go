package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/application"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/infrastructure/geoserver"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const MimeSLD = "application/vnd.ogc.sld+xml; charset=utf-8"

// styleError maps service errors to HTTP errors.
func (s *Server) styleError(err error) error {
	switch {
	case errors.Is(err, domain.ErrLayerNotExists):
		return echo.NewHTTPError(http.StatusNotFound, "Layer does not exists")
	case errors.Is(err, domain.ErrRevisionNotExists):
		return echo.NewHTTPError(http.StatusNotFound, "Style revision does not exists")
	case errors.Is(err, domain.ErrPreviewNotExists):
		return echo.NewHTTPError(http.StatusNotFound, "Style preview does not exists")
	case errors.Is(err, application.ErrInvalidProperties):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, geoserver.ErrGeoServer):
		s.log.Errorw("map server request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "Map server request failed").SetInternal(err)
	}
	return err
}

func (s *Server) readBody(c echo.Context) ([]byte, error) {
	req := c.Request()
	defer req.Body.Close()
	data, err := io.ReadAll(req.Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request data")
	}
	return data, nil
}

func (s *Server) handleDecode(c echo.Context) error {
	body, err := s.readBody(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.styles.Decode(string(body)))
}

type encodeForm struct {
	SldBody    string              `json:"sldBody" validate:"required"`
	Properties jsoniter.RawMessage `json:"properties"`
}

func (s *Server) handleEncode() func(echo.Context) error {
	var validate = validator.New()
	return func(c echo.Context) error {
		form := new(encodeForm)
		if err := c.Bind(form); err != nil {
			return err
		}
		if err := validate.Struct(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		body, err := s.styles.Encode(form.SldBody, form.Properties)
		if err != nil {
			return s.styleError(err)
		}
		return c.Blob(http.StatusOK, MimeSLD, []byte(body))
	}
}

func (s *Server) handleBootstrap() func(echo.Context) error {
	type BootstrapForm struct {
		Layer        string `json:"layer" validate:"required"`
		GeometryType string `json:"geometryType"`
	}
	var validate = validator.New()
	return func(c echo.Context) error {
		form := new(BootstrapForm)
		if err := c.Bind(form); err != nil {
			return err
		}
		if err := validate.Struct(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		body, err := s.styles.Bootstrap(c.Request().Context(), form.Layer, form.GeometryType)
		if err != nil {
			return s.styleError(err)
		}
		return c.Blob(http.StatusOK, MimeSLD, []byte(body))
	}
}

func (s *Server) handleGetStyle(c echo.Context) error {
	editor, err := s.styles.Open(c.Request().Context(), c.Param("layer"))
	if err != nil {
		return s.styleError(err)
	}
	return c.JSON(http.StatusOK, editor)
}

func (s *Server) handleGetLayerAttributes(c echo.Context) error {
	info, err := s.styles.LayerInfo(c.Request().Context(), c.Param("layer"))
	if err != nil {
		return s.styleError(err)
	}
	if info.Attributes == nil {
		info.Attributes = []string{}
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handlePreview() func(echo.Context) error {
	var validate = validator.New()
	return func(c echo.Context) error {
		form := new(encodeForm)
		if err := c.Bind(form); err != nil {
			return err
		}
		if err := validate.Struct(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		layer := c.Param("layer")
		body, err := s.styles.Preview(c.Request().Context(), layer, form.SldBody, form.Properties)
		if err != nil {
			return s.styleError(err)
		}
		s.pws.Broadcast(layer, "")
		return c.Blob(http.StatusOK, MimeSLD, []byte(body))
	}
}

func (s *Server) handleClearPreview(c echo.Context) error {
	layer := c.Param("layer")
	if err := s.styles.ClearPreview(c.Request().Context(), layer); err != nil {
		return s.styleError(err)
	}
	s.pws.Broadcast(layer, "")
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSaveStyle() func(echo.Context) error {
	type SaveForm struct {
		StyleName  string              `json:"styleName"`
		SldBody    string              `json:"sldBody"`
		Properties jsoniter.RawMessage `json:"properties"`
		Author     string              `json:"author"`
	}
	return func(c echo.Context) error {
		form := new(SaveForm)
		if err := c.Bind(form); err != nil {
			return err
		}
		layer := c.Param("layer")
		style, err := s.styles.Save(c.Request().Context(), layer, application.SaveRequest{
			StyleName:  form.StyleName,
			SldBody:    form.SldBody,
			Properties: form.Properties,
			Author:     form.Author,
		})
		if err != nil {
			return s.styleError(err)
		}
		s.pws.Broadcast(layer, "")
		return c.JSON(http.StatusOK, style)
	}
}

func (s *Server) handleGetRevisions(c echo.Context) error {
	revisions, err := s.styles.Revisions(c.Request().Context(), c.Param("layer"))
	if err != nil {
		return s.styleError(err)
	}
	return c.JSON(http.StatusOK, revisions)
}

func (s *Server) handleRestoreRevision() func(echo.Context) error {
	type RestoreForm struct {
		Author string `json:"author"`
	}
	return func(c echo.Context) error {
		form := new(RestoreForm)
		if c.Request().ContentLength > 0 {
			if err := c.Bind(form); err != nil {
				return err
			}
		}
		layer := c.Param("layer")
		style, err := s.styles.Restore(c.Request().Context(), layer, c.Param("id"), form.Author)
		if err != nil {
			return s.styleError(err)
		}
		s.pws.Broadcast(layer, "")
		return c.JSON(http.StatusOK, style)
	}
}

func (s *Server) handlePreviewWS(c echo.Context) error {
	layer := c.QueryParam("layer")
	if layer == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing layer parameter")
	}
	err := s.pws.Handler(layer, c.Response(), c.Request())
	if err != nil {
		s.log.Errorw("websocket handler", "channel", "preview", "layer", layer, zap.Error(err))
	}
	return nil
}
