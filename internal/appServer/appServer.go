// launching the server, previews, history, kafka
package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/skysight/config"
	"github.com/ds124wfegd/skysight/internal/database"
	"github.com/ds124wfegd/skysight/internal/locator"
	"github.com/ds124wfegd/skysight/internal/pkg/analyzer"
	"github.com/ds124wfegd/skysight/internal/pkg/kafka"
	"github.com/ds124wfegd/skysight/internal/pkg/postgres"
	"github.com/ds124wfegd/skysight/internal/pkg/preview"
	"github.com/ds124wfegd/skysight/internal/pkg/redis"
	"github.com/ds124wfegd/skysight/internal/pkg/storage"
	"github.com/ds124wfegd/skysight/internal/service"
	"github.com/ds124wfegd/skysight/internal/transport"
	"github.com/ds124wfegd/skysight/internal/view"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(logrus.StandardLogger().WriterLevel(logrus.ErrorLevel), "", 0),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewResolver picks the configured backend location strategy.
func NewResolver(cfg *config.AppConfig, client *http.Client) locator.Resolver {
	if cfg.BackendStrategy == config.BackendFromDocument {
		return locator.NewDocumentResolver(cfg.BackendDocument, client)
	}
	return locator.NewEnvResolver(cfg.BackendEnvKey)
}

func NewServer(cfg *config.Config) error {
	closeLog, err := SetupLogging(&cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.App.ClientTimeout}

	previews, closePreviews, err := newPreviewStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePreviews()

	history, closeHistory, err := newHistoryRepository(cfg)
	if err != nil {
		return err
	}
	defer closeHistory()

	var producer kafka.Producer = kafka.NewMockProducer()
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.KafkaBrokers(), cfg.Kafka.Topic)
	}
	defer producer.Close()

	// uploads outlive the request that started them but not the server
	uploadCtx, cancelUploads := context.WithCancel(context.Background())
	defer cancelUploads()

	svc := service.NewService(uploadCtx, service.Deps{
		Locator:  locator.NewOnce(NewResolver(&cfg.App, httpClient)),
		Analyzer: analyzer.NewClient(httpClient, cfg.App.BackendPort, cfg.App.UploadPath),
		Previews: previews,
		History:  history,
		Producer: producer,
	}, service.ViewOptions{
		TTL: cfg.App.ViewTTL,
		View: view.Options{
			MaxPreviewWidth:  cfg.Preview.MaxWidth,
			MaxPreviewHeight: cfg.Preview.MaxHeight,
		},
	})

	handler := transport.NewHandler(svc, transport.HandlerConfig{
		LogFile:        cfg.Log.File,
		ConfigDocument: cfg.App.ConfigDocument,
		MaxUploadBytes: cfg.App.MaxUploadBytes,
	})
	limiter := rate.NewLimiter(rate.Limit(cfg.App.UploadRate), cfg.App.UploadBurst)

	srv := new(Server)
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logrus.WithField("addr", cfg.GetServerAddress()).Print("App Started")
		if err := srv.Run(cfg, transport.InitRoutes(handler, limiter)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logrus.Print("App Shutting Down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("error occured on server shutting down: %s", err.Error())
		}
		cancelUploads()
		svc.Close()
		return nil
	})

	return g.Wait()
}

func newPreviewStore(ctx context.Context, cfg *config.Config) (preview.Store, func(), error) {
	if cfg.Preview.Store != config.PreviewStoreRedis {
		return preview.NewMemoryStore(cfg.Preview.TTL), func() {}, nil
	}

	client, err := redis.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return preview.NewRedisStore(client, cfg.Preview.TTL), func() { client.Close() }, nil
}

func newHistoryRepository(cfg *config.Config) (database.HistoryRepository, func(), error) {
	if !cfg.Database.Enabled {
		return database.NewFileHistoryRepository(storage.NewFileStorage(cfg.App.HistoryDir)), func() {}, nil
	}

	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return database.NewHistoryPostgres(db), func() { db.Close() }, nil
}

// SetupLogging sends JSON logs to stdout and the log file read by the dashboard.
func SetupLogging(cfg *config.LogConfig) (func(), error) {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(level)

	if cfg.File == "" {
		logrus.SetOutput(os.Stdout)
		return func() {}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	return func() {
		logrus.SetOutput(os.Stdout)
		f.Close()
	}, nil
}
