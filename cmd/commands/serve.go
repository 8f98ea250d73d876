package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/application"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/infrastructure/archive"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/infrastructure/cache"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/infrastructure/geoserver"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/infrastructure/postgres"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/infrastructure/preview"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/infrastructure/ws"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/server"
	"github.com/ardanlabs/conf/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func parseByteSize(value string) (int64, error) {
	value = strings.TrimSpace(value)
	num := strings.TrimSuffix(strings.ToUpper(value), "B")
	var factor int64 = 1
	switch {
	case strings.HasSuffix(num, "K"):
		factor = 1024
	case strings.HasSuffix(num, "M"):
		factor = 1024 * 1024
	case strings.HasSuffix(num, "G"):
		factor = 1024 * 1024 * 1024
	}
	if factor > 1 {
		num = num[:len(num)-1]
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n < 0 {
		return -1, fmt.Errorf("Invalid byte size: %s", value)
	}
	return n * factor, nil
}

type ByteSize int64

// Satisfy the flag package Value interface.
func (b *ByteSize) Set(s string) error {
	bs, err := parseByteSize(s)
	if err != nil {
		return err
	}
	*b = ByteSize(bs)
	return nil
}

// Satisfy the encoding.TextUnmarshaler interface.
func (b *ByteSize) UnmarshalText(text []byte) error {
	return b.Set(string(text))
}

func Serve() error {
	cfg := struct {
		Gisweb struct {
			Debug         bool          `conf:"default:false"`
			Metrics       bool          `conf:"default:false"`
			StyleCacheTTL time.Duration `conf:"default:30s"`
			PreviewTTL    time.Duration `conf:"default:1h"`
			LegendSize    int           `conf:"default:64"`
			MaxBodySize   ByteSize      `conf:"default:2M"`
		}
		GeoServer struct {
			URL      string        `conf:"default:http://geoserver:8080/geoserver"`
			User     string        `conf:"default:admin"`
			Password string        `conf:"default:geoserver,mask"`
			Timeout  time.Duration `conf:"default:30s"`
		}
		Web struct {
			ShutdownTimeout time.Duration `conf:"default:20s"`
			APIHost         string        `conf:"default:0.0.0.0:3000"`
		}
		Postgres struct {
			User               string `conf:"default:postgres"`
			Password           string `conf:"default:postgres,mask"`
			Host               string `conf:"default:postgres,help:empty host disables style history"`
			Name               string `conf:"default:postgres,env:POSTGRES_DB"`
			Port               int    `conf:"default:5432"`
			MaxIdleConns       int    `conf:"default:3"`
			MaxOpenConns       int    `conf:"default:3"`
			SSLMode            string `conf:"default:disable"`
			StatementCacheMode string `conf:"default:prepare"`
		}
		Redis struct {
			Addr     string `conf:"default:redis:6379"` // "/var/run/redis/redis.sock"
			Network  string // "unix"
			Password string `conf:"mask"`
			DB       int    `conf:"default:0"`
		}
		Archive struct {
			Endpoint  string `conf:"help:empty endpoint disables archiving of saved styles"`
			AccessKey string
			SecretKey string `conf:"mask"`
			Bucket    string `conf:"default:gisweb-styles"`
			Region    string
			Secure    bool `conf:"default:true"`
		}
	}{}

	const prefix = ""
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}
	logLevel := zap.InfoLevel
	if cfg.Gisweb.Debug {
		logLevel = zap.DebugLevel
	}
	log, err := createLogger(logLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	gs, err := geoserver.NewClient(log, cfg.GeoServer.URL, cfg.GeoServer.User, cfg.GeoServer.Password, cfg.GeoServer.Timeout)
	if err != nil {
		return err
	}
	styleStore := cache.NewStyleStore(gs, cfg.Gisweb.StyleCacheTTL)
	defer styleStore.Close()
	attributes := cache.NewAttributeSource(gs, cfg.Gisweb.StyleCacheTTL)
	defer attributes.Close()

	// for unix socket, use Network: "unix" and Addr: "/var/run/redis/redis.sock"
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Network:  cfg.Redis.Network,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	previews, err := preview.NewRedisPreviewStore(log, rdb, cfg.Gisweb.PreviewTTL)
	if err != nil {
		return err
	}

	var revisions domain.RevisionsRepository
	if cfg.Postgres.Host != "" {
		dbConn, err := server.OpenDB(server.DBConfig{
			User:               cfg.Postgres.User,
			Password:           cfg.Postgres.Password,
			Host:               cfg.Postgres.Host,
			Name:               cfg.Postgres.Name,
			Port:               cfg.Postgres.Port,
			MaxIdleConns:       cfg.Postgres.MaxIdleConns,
			MaxOpenConns:       cfg.Postgres.MaxOpenConns,
			SSLMode:            cfg.Postgres.SSLMode,
			StatementCacheMode: cfg.Postgres.StatementCacheMode,
		})
		if err != nil {
			return fmt.Errorf("connecting to db: %w", err)
		}
		defer dbConn.Close()
		revisions = postgres.NewRevisionsRepository(dbConn)
	} else {
		log.Warnw("style history is disabled")
	}

	var styleArchive domain.StyleArchive
	if cfg.Archive.Endpoint != "" {
		a, err := archive.NewMinioArchive(log, archive.Config{
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			Secure:    cfg.Archive.Secure,
		})
		if err != nil {
			return fmt.Errorf("creating style archive: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.GeoServer.Timeout)
		err = a.EnsureBucket(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("creating style archive: %w", err)
		}
		styleArchive = a
	}

	if cfg.Gisweb.Metrics {
		if err := application.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
	}

	// Services
	styles := application.NewStyleService(log, styleStore, attributes, previews, revisions, styleArchive)
	pws := ws.NewPreviewWS(log, styles.Preview)
	s := server.NewServer(log, server.Config{
		Debug:       cfg.Gisweb.Debug,
		Metrics:     cfg.Gisweb.Metrics,
		MapOWSURL:   gs.OWSURL(),
		LegendSize:  cfg.Gisweb.LegendSize,
		MaxBodySize: int64(cfg.Gisweb.MaxBodySize),
		HTTPTimeout: cfg.GeoServer.Timeout,
	}, styles, pws)

	// Start server
	go func() {
		if err := s.ListenAndServe(cfg.Web.APIHost); err != nil && err != http.ErrServerClosed {
			log.Fatalf("shutting down the server: %v", err)
		}
	}()
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infof("Received shutdown signal")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Error(err)
	}
	log.Sync()
	return nil
}

func createLogger(level zapcore.Level) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.Level.SetLevel(level)

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	log := logger.Sugar()
	return log, nil
}
