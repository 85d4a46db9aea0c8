package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	solverAdapter "physgun-server/backend/internal/adapter/out/physics"
	"physgun-server/backend/internal/config"
	"physgun-server/backend/internal/physics"
)

// Удаленный солвер: принимает шаги симуляции хоста по gRPC
func main() {
	configPath := flag.String("config", "", "путь к TOML конфигурации")
	addr := flag.String("listen", "127.0.0.1:50051", "адрес gRPC")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "solver: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "solver: logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatal("не удалось открыть порт", zap.String("addr", *addr), zap.Error(err))
	}

	server := solverAdapter.NewGRPCServer()
	solverAdapter.RegisterSolverServer(server,
		solverAdapter.NewLocalSolverService(physics.NewEulerSolver(cfg.Physics), log))

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("остановка солвера")
		server.GracefulStop()
	}()

	log.Info("солвер запущен", zap.String("addr", *addr))
	if err := server.Serve(lis); err != nil {
		log.Fatal("gRPC сервер", zap.Error(err))
	}
}
