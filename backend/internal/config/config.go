package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"physgun-server/backend/internal/physgun"
	"physgun-server/backend/internal/physics"
)

type Config struct {
	Server  ServerConfig   `toml:"server"`
	PhysGun physgun.Config `toml:"physgun"`
	Physics physics.Config `toml:"physics"`
	Network NetworkConfig  `toml:"network"`
	Logging LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Name        string `toml:"name"`
	BindAddress string `toml:"bind_address"`
	TickRate    int    `toml:"tick_rate"` // тиков в секунду
	StaticDir   string `toml:"static_dir"`
	StartTime   int64  // выставляется при запуске
}

type NetworkConfig struct {
	HostID           string        `toml:"host_id"`
	SnapshotInterval int           `toml:"snapshot_interval"` // в тиках
	InboxSize        int           `toml:"inbox_size"`
	SendQueueSize    int           `toml:"send_queue_size"`
	WriteTimeout     time.Duration `toml:"write_timeout"`
	ReadTimeout      time.Duration `toml:"read_timeout"`
	PingInterval     time.Duration `toml:"ping_interval"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" или "console"
}

// Load читает TOML поверх значений по умолчанию
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Default конфигурация без файла
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:        "physgun",
			BindAddress: "0.0.0.0:8080",
			TickRate:    60,
			StaticDir:   "./static",
		},
		PhysGun: physgun.DefaultConfig(),
		Physics: physics.DefaultConfig(),
		Network: NetworkConfig{
			HostID:           "host",
			SnapshotInterval: 3,
			InboxSize:        1024,
			SendQueueSize:    256,
			WriteTimeout:     10 * time.Second,
			ReadTimeout:      60 * time.Second,
			PingInterval:     20 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate проверяет значения, без которых сервер не запустится
func (c *Config) Validate() error {
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("server.tick_rate must be positive, got %d", c.Server.TickRate)
	}
	if c.PhysGun.MinTargetDistance > c.PhysGun.MaxTargetDistance {
		return fmt.Errorf("physgun.min_target_distance %.1f > max_target_distance %.1f",
			c.PhysGun.MinTargetDistance, c.PhysGun.MaxTargetDistance)
	}
	if c.PhysGun.SmoothTime <= 0 {
		return fmt.Errorf("physgun.smooth_time must be positive, got %f", c.PhysGun.SmoothTime)
	}
	if c.Network.HostID == "" {
		return fmt.Errorf("network.host_id must not be empty")
	}
	if c.Network.SnapshotInterval <= 0 {
		c.Network.SnapshotInterval = 1
	}
	return nil
}
