package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"pulseboard/internal/config"
	"pulseboard/internal/server"
	"pulseboard/internal/util"
)

var (
	port    = flag.Int("port", 0, "server port (overrides config.toml)")
	devMode = flag.Bool("dev", false, "development mode")
	dataDir = flag.String("dataDir", "", "data directory (overrides config.toml)")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Warn("failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to start")
	}
	defer srv.Close()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := srv.Run(addr); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	if !cfg.Server.DevMode {
		if err := util.OpenBrowser(url); err != nil {
			log.Infof("open %s in your browser", url)
		}
	} else {
		log.Infof("development mode, visit %s", url)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
}
