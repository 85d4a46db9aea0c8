package physics

// Config содержит настройки локальной симуляции
type Config struct {
	// Gravity - ускорение свободного падения по оси Z
	Gravity float64 `toml:"gravity"`

	// LinearDamping - затухание линейного движения (доля в секунду)
	LinearDamping float64 `toml:"linear_damping"`

	// AngularDamping - затухание углового движения (доля в секунду)
	AngularDamping float64 `toml:"angular_damping"`

	// MaxSpeed - максимальная скорость объекта
	MaxSpeed float64 `toml:"max_speed"`

	// FloorHeight - высота пола мира, ниже которой тела не проваливаются
	FloorHeight float64 `toml:"floor_height"`

	// Restitution - коэффициент восстановления при ударе о пол
	Restitution float64 `toml:"restitution"`

	// SolverAddress - адрес удаленного солвера (gRPC), пусто = локальный
	SolverAddress string `toml:"solver_address"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		Gravity:        -800.0, // единицы мира в секунду^2
		LinearDamping:  0.1,
		AngularDamping: 0.5,
		MaxSpeed:       4000.0,
		FloorHeight:    0.0,
		Restitution:    0.2,
	}
}
