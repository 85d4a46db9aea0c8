package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"physgun-server/backend/internal/config"
	"physgun-server/backend/internal/game"
	"physgun-server/backend/internal/physgun"
	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/scene"
	"physgun-server/backend/internal/transport/ws"
)

// step один шаг сценария бота: кадр ввода, повторяемый frames тиков
type step struct {
	name   string
	frame  physgun.Frame
	frames int
}

// script захват, отдаление колесом, вращение, заморозка, разморозка всего
func script() []step {
	grab := physgun.ButtonAttack1
	return []step{
		{name: "прицеливание", frames: 10},
		{name: "захват", frame: physgun.Frame{Buttons: grab}, frames: 30},
		{name: "колесо", frame: physgun.Frame{Buttons: grab, MouseWheel: 1}, frames: 5},
		{name: "вращение", frame: physgun.Frame{Buttons: grab | physgun.ButtonUse, MouseDelta: mgl64.Vec2{4, 0}}, frames: 20},
		{name: "вращение с шагом", frame: physgun.Frame{Buttons: grab | physgun.ButtonUse | physgun.ButtonRun}, frames: 5},
		{name: "заморозка", frame: physgun.Frame{Buttons: grab | physgun.ButtonAttack2}, frames: 1},
		{name: "отпускание", frames: 20},
		{name: "разморозить все", frame: physgun.Frame{Buttons: physgun.ButtonRun | physgun.ButtonReload}, frames: 1},
		{name: "ожидание", frames: 30},
	}
}

// aimAt точка обзора перед целью, смотрящая на нее
func aimAt(target mgl64.Vec3, distance float64) physgun.View {
	eye := target.Add(mgl64.Vec3{-distance, 0, 40})
	dir := target.Sub(eye).Normalize()
	return physgun.View{
		Position: eye,
		Eye: physics.Angles{
			Yaw:   mgl64.RadToDeg(math.Atan2(dir.Y(), dir.X())),
			Pitch: -mgl64.RadToDeg(math.Asin(dir.Z())),
		},
	}
}

func main() {
	var (
		serverURL  = flag.String("url", "ws://localhost:8080/ws", "URL WebSocket сервера")
		configPath = flag.String("config", "", "путь к TOML конфигурации")
		target     = flag.String("target", "crate-0", "объект для захвата")
		loops      = flag.Int("loops", 3, "сколько раз повторить сценарий")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bot: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bot: logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*serverURL, *target, *loops, cfg, log); err != nil {
		log.Error("бот завершился с ошибкой", zap.Error(err))
		os.Exit(1)
	}
}

func run(serverURL, target string, loops int, cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := ws.Dial(ctx, serverURL, ws.ClientOptions{
		WriteTimeout: cfg.Network.WriteTimeout,
		InboxSize:    cfg.Network.InboxSize,
		Logger:       log,
	})
	cancel()
	if err != nil {
		return err
	}
	defer client.Close()

	me := client.LocalID()
	log = log.With(zap.String("bot", string(me)))
	log.Info("подключен", zap.String("host", string(client.HostID())))

	session := game.NewSession(game.SessionOptions{
		PhysGun:     cfg.PhysGun,
		FloorHeight: cfg.Physics.FloorHeight,
		Network:     client,
		Logger:      log,
	})
	game.PopulateDemo(session.Scene(), client.HostID())

	// Сцена еще не тронута тикером, читать ее здесь безопасно
	obj := session.Scene().Resolve(scene.ObjectID(target))
	if obj == nil || obj.Body(-1) == nil {
		return fmt.Errorf("нет объекта %s в сцене", target)
	}
	view := aimAt(obj.Body(-1).Position(), 150)

	ticker := game.NewGameTicker(cfg.Server.TickRate, log)
	game.RegisterSystems(ticker, session, physics.NewEulerSolver(cfg.Physics), cfg.Network.SnapshotInterval, log)
	ticker.Start()
	defer ticker.Stop()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// Ждем, пока хост заспавнит наш объект и пушку
	deadline := time.After(5 * time.Second)
	for {
		if _, ok := session.Gun(me); ok {
			break
		}
		select {
		case <-deadline:
			return fmt.Errorf("хост не создал игрока %s", me)
		case <-client.Done():
			return client.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	tick := ticker.TickDuration()
	for loop := 0; loop < loops; loop++ {
		for _, s := range script() {
			log.Info("шаг сценария", zap.Int("loop", loop), zap.String("step", s.name))
			for i := 0; i < s.frames; i++ {
				session.SubmitInput(me, game.Command{Frame: s.frame, View: view})
				select {
				case <-interrupt:
					log.Info("прерывание")
					return nil
				case <-client.Done():
					return client.Err()
				case <-time.After(tick):
				}
			}
			res := session.LastResult(me)
			log.Debug("результат кадра", zap.Bool("lock_movement", res.LockMovement))
		}
	}

	stats := ticker.GetStats()
	log.Info("сценарий завершен", zap.Any("ticks", stats["tick_count"]))
	return nil
}
