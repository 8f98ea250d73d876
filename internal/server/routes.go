package server

import (
	"github.com/labstack/echo/v4"
)

func (s *Server) AddRoutes(e *echo.Echo) {
	e.POST("/api/sld/decode", s.handleDecode)
	e.POST("/api/sld/encode", s.handleEncode())
	e.POST("/api/sld/bootstrap", s.handleBootstrap())

	e.GET("/api/styles/:layer", s.handleGetStyle)
	e.POST("/api/styles/:layer", s.handleSaveStyle())
	e.GET("/api/styles/:layer/attributes", s.handleGetLayerAttributes)
	e.POST("/api/styles/:layer/preview", s.handlePreview())
	e.DELETE("/api/styles/:layer/preview", s.handleClearPreview)
	e.GET("/api/styles/:layer/revisions", s.handleGetRevisions)
	e.POST("/api/styles/:layer/revisions/:id/restore", s.handleRestoreRevision())
	e.GET("/api/styles/:layer/legend", s.handleLegend())

	owsHandler := s.handleMapOws()
	e.GET("/api/map/ows", owsHandler)
	e.POST("/api/map/ows", owsHandler)

	e.GET("/ws/preview", s.handlePreviewWS)
}
