package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
)

var (
	configPath = flag.String("config", "config.yaml", "path to the YAML configuration file")
	listenAddr = flag.String("listen", "", "HTTP listening address, overrides the config file")
	logLevel   = flag.String("log-level", "", "log level [debug, info, warn, error, fatal, panic], overrides the config file")

	benchmark = flag.Bool("benchmark", false, "benchmark mode")
	pprofAddr = flag.String("pprof", "", "pprof listening address, overrides the config file")

	logLevels = map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}
)

func main() {
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %s", err)
	}
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *pprofAddr != "" {
		cfg.PprofAddr = *pprofAddr
	}

	if level, ok := logLevels[cfg.LogLevel]; ok {
		logrus.SetLevel(level)
	} else {
		logrus.Fatalf("invalid log level: %s", cfg.LogLevel)
	}

	net, err := loadNetwork(cfg.Network)
	if err != nil {
		logrus.Fatalf("failed to load network: %s", err)
	}

	server := NewRoutingServer(net, cfg.Pathfinder)

	if cfg.PprofAddr != "" {
		startHTTPDebugger(cfg.PprofAddr)
	}

	if *benchmark {
		runBenchmark(server)
		return
	}

	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: newRouter(server),
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		log.Info("stopping...")
		go func() {
			<-signalCh
			os.Exit(1)
		}()
		httpServer.Shutdown(context.Background())
		server.Close()
		os.Exit(0)
	}()

	log.Infof("server listening at %v", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("failed to serve: %v", err)
	}
	time.Sleep(1 * time.Second)
	log.Info("transitpath closes")
}
