package physgun

// Config настройки физпушки
type Config struct {
	// MinTargetDistance - минимальная дистанция удержания
	MinTargetDistance float64 `toml:"min_target_distance"`

	// MaxTargetDistance - максимальная дистанция удержания и захвата
	MaxTargetDistance float64 `toml:"max_target_distance"`

	// TargetDistanceSpeed - сколько единиц дистанции дает один шаг колеса
	TargetDistanceSpeed float64 `toml:"target_distance_speed"`

	// RotateSpeed - градусов поворота на единицу смещения мыши
	RotateSpeed float64 `toml:"rotate_speed"`

	// RotateSnapAt - шаг привязки углов в градусах
	RotateSnapAt float64 `toml:"rotate_snap_at"`

	// SmoothTime - постоянная времени сглаживания удержания в секундах
	SmoothTime float64 `toml:"smooth_time"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		MinTargetDistance:   0.0,
		MaxTargetDistance:   10000.0,
		TargetDistanceSpeed: 25.0,
		RotateSpeed:         0.125,
		RotateSnapAt:        45.0,
		SmoothTime:          0.075,
	}
}

// ClampDistance ограничивает дистанцию удержания
func (c Config) ClampDistance(d float64) float64 {
	if d < c.MinTargetDistance {
		return c.MinTargetDistance
	}
	if d > c.MaxTargetDistance {
		return c.MaxTargetDistance
	}
	return d
}
