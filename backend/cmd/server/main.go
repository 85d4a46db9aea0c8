package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	solverAdapter "physgun-server/backend/internal/adapter/out/physics"
	"physgun-server/backend/internal/config"
	"physgun-server/backend/internal/game"
	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/replication"
	"physgun-server/backend/internal/transport/ws"
)

func main() {
	configPath := flag.String("config", "", "путь к TOML конфигурации")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	hostID := replication.ParticipantID(cfg.Network.HostID)
	wsServer := ws.NewServer(ws.ServerOptions{
		HostID:        hostID,
		PingInterval:  cfg.Network.PingInterval,
		WriteTimeout:  cfg.Network.WriteTimeout,
		ReadTimeout:   cfg.Network.ReadTimeout,
		InboxSize:     cfg.Network.InboxSize,
		SendQueueSize: cfg.Network.SendQueueSize,
		Logger:        log,
	}, nil)

	session := game.NewSession(game.SessionOptions{
		PhysGun:     cfg.PhysGun,
		FloorHeight: cfg.Physics.FloorHeight,
		Network:     wsServer,
		Logger:      log,
	})
	wsServer.SetHooks(session)
	game.PopulateDemo(session.Scene(), hostID)

	solver, closeSolver, err := newSolver(cfg.Physics, log)
	if err != nil {
		return err
	}
	defer closeSolver()

	ticker := game.NewGameTicker(cfg.Server.TickRate, log)
	game.RegisterSystems(ticker, session, solver, cfg.Network.SnapshotInterval, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWS)
	mux.HandleFunc("/telemetry", func(w http.ResponseWriter, r *http.Request) {
		data, err := session.Telemetry().JSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})
	if cfg.Server.StaticDir != "" {
		if _, err := os.Stat(cfg.Server.StaticDir); err == nil {
			mux.Handle("/", http.FileServer(http.Dir(cfg.Server.StaticDir)))
		} else {
			log.Warn("каталог статики не найден", zap.String("dir", cfg.Server.StaticDir))
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.BindAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ticker.Start()
	defer ticker.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("сервер запущен",
			zap.String("name", cfg.Server.Name),
			zap.String("addr", cfg.Server.BindAddress),
			zap.Int("tick_rate", cfg.Server.TickRate),
			zap.String("host", string(hostID)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdownCh:
		log.Info("получен сигнал завершения", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsServer.Close()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("остановка http сервера", zap.Error(err))
	}

	stats := ticker.GetStats()
	log.Info("сервер остановлен", zap.Any("ticks", stats["tick_count"]))
	return nil
}

// newSolver выбирает удаленный солвер, если задан адрес, иначе локальный
func newSolver(cfg physics.Config, log *zap.Logger) (physics.Solver, func(), error) {
	if cfg.SolverAddress == "" {
		return physics.NewEulerSolver(cfg), func() {}, nil
	}

	remote, err := solverAdapter.NewRemoteSolver(cfg.SolverAddress, log)
	if err != nil {
		return nil, nil, err
	}
	return remote, func() { _ = remote.Close() }, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
