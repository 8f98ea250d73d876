package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/application"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/infrastructure/ws"
	_ "github.com/jackc/pgx/v4/stdlib"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Config struct {
	Debug bool
	// Metrics enables the request metrics middleware and the /metrics endpoint.
	Metrics     bool
	MapOWSURL   string
	LegendSize  int
	MaxBodySize int64
	HTTPTimeout time.Duration
}

type Server struct {
	Config Config
	echo   *echo.Echo
	log    *zap.SugaredLogger
	styles application.StyleService
	pws    *ws.PreviewWS
	client *http.Client
}

type JSONSerializer struct{}

// Serialize converts an interface into a json and writes it to the response.
// You can optionally use the indent parameter to produce pretty JSONs.
func (d JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsoniter.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

// Deserialize reads a JSON from a request body and converts it into an interface.
func (d JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := jsoniter.NewDecoder(c.Request().Body).Decode(i)
	if ute, ok := err.(*json.UnmarshalTypeError); ok {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Unmarshal type error: expected=%v, got=%v, field=%v, offset=%v", ute.Type, ute.Value, ute.Field, ute.Offset)).SetInternal(err)
	} else if se, ok := err.(*json.SyntaxError); ok {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Syntax error: offset=%v, error=%v", se.Offset, se.Error())).SetInternal(err)
	} else if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

func NewServer(log *zap.SugaredLogger, cfg Config, styles application.StyleService, pws *ws.PreviewWS) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.Debug
	e.JSONSerializer = &JSONSerializer{}

	if cfg.Metrics {
		p := prometheus.NewPrometheus("api", nil)
		p.Use(e)
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 2 * 1024 * 1024
	}
	if cfg.LegendSize == 0 {
		cfg.LegendSize = 64
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(err, c)
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		if code == http.StatusInternalServerError {
			log.Error(err)
		}
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.MaxBodySize, 10) + "B"))
	s := &Server{
		Config: cfg,
		log:    log,
		echo:   e,
		styles: styles,
		pws:    pws,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
	}
	s.AddRoutes(e)
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
