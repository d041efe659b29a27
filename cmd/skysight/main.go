// entry point to app :)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ds124wfegd/skysight/config"
	"github.com/ds124wfegd/skysight/internal/appServer"
	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/ds124wfegd/skysight/internal/pkg/kafka"
	"github.com/ds124wfegd/skysight/internal/pkg/logview"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	app := cli.NewApp()
	app.Name = "skysight"
	app.Usage = "upload an image and see what the analysis service makes of it"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Value:   "./config",
			Usage:   "directory holding config.yaml",
			EnvVars: []string{"SKYSIGHT_CONFIG_DIR"},
		},
	}
	app.Commands = []*cli.Command{
		serveCmd,
		logsCmd,
		eventsCmd,
	}
	app.DefaultCommand = "serve"

	app.RunAndExitOnError()
}

func loadConfig(cctx *cli.Context) (*config.Config, error) {
	viperInstance, err := config.LoadConfigFrom(cctx.String("config"))
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	return cfg, nil
}

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run the upload web service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "port",
			Usage: "override server.port",
		},
		&cli.StringFlag{
			Name:  "backend-strategy",
			Usage: "override app.backend_strategy (env or document)",
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}

		if port := cctx.String("port"); port != "" {
			cfg.Server.Port = port
		}
		if strategy := cctx.String("backend-strategy"); strategy != "" {
			if strategy != config.BackendFromEnv && strategy != config.BackendFromDocument {
				return fmt.Errorf("unknown backend strategy %q", strategy)
			}
			cfg.App.BackendStrategy = strategy
		}

		return appServer.NewServer(cfg)
	},
}

var logsCmd = &cli.Command{
	Name:  "logs",
	Usage: "print application log lines, optionally filtered by level",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "level",
			Value: "ALL",
			Usage: "one of ALL, INFO, ERROR, DEBUG, WARNING",
		},
		&cli.StringFlag{
			Name:  "file",
			Usage: "log file to read (defaults to log.file from the config)",
		},
	},
	Action: func(cctx *cli.Context) error {
		path := cctx.String("file")
		if path == "" {
			cfg, err := loadConfig(cctx)
			if err != nil {
				return err
			}
			path = cfg.Log.File
		}

		lines, err := logview.FilterFile(path, cctx.String("level"))
		if err != nil {
			return err
		}

		for _, l := range lines {
			fmt.Fprintf(os.Stdout, "%d\t%s\t%s\n", l.Number, l.Level, l.Text)
		}
		return nil
	},
}

var eventsCmd = &cli.Command{
	Name:  "events",
	Usage: "follow analysis events published to Kafka",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "failures",
			Usage: "only print failed attempts",
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		enc := json.NewEncoder(os.Stdout)
		onlyFailures := cctx.Bool("failures")

		return kafka.Consume(ctx, cfg.KafkaBrokers(), cfg.Kafka.Topic, cfg.Kafka.GroupID,
			func(_ context.Context, event entity.AnalysisEvent) error {
				if onlyFailures && !event.Outcome.Failed() {
					return nil
				}
				return enc.Encode(event)
			})
	},
}
