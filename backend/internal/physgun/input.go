package physgun

import (
	"github.com/go-gl/mathgl/mgl64"

	"physgun-server/backend/internal/physics"
	"physgun-server/backend/internal/trace"
)

// Button действие ввода
type Button uint16

const (
	ButtonAttack1 Button = 1 << iota // Захват
	ButtonAttack2                    // Заморозка удерживаемого
	ButtonUse                        // Модификатор вращения
	ButtonRun                        // Модификатор точности
	ButtonReload                     // Вместе с Run - разморозить все
)

// Frame состояние ввода за один тик
type Frame struct {
	Buttons    Button     `json:"buttons"`
	MouseWheel float64    `json:"mouse_wheel"`
	MouseDelta mgl64.Vec2 `json:"mouse_delta"`
}

// Input хранит текущий и предыдущий кадр для определения фронтов
type Input struct {
	prev, cur Frame
}

// Push делает переданный кадр текущим
func (in *Input) Push(f Frame) {
	in.prev = in.cur
	in.cur = f
}

func (in *Input) Down(b Button) bool { return in.cur.Buttons&b != 0 }

func (in *Input) Pressed(b Button) bool {
	return in.cur.Buttons&b != 0 && in.prev.Buttons&b == 0
}

func (in *Input) Released(b Button) bool {
	return in.cur.Buttons&b == 0 && in.prev.Buttons&b != 0
}

func (in *Input) MouseWheel() float64 { return in.cur.MouseWheel }

func (in *Input) MouseDelta() mgl64.Vec2 { return in.cur.MouseDelta }

// View точка обзора владельца пушки
type View struct {
	Position mgl64.Vec3     `json:"position"`
	Eye      physics.Angles `json:"eye"`
}

// AimRay луч прицеливания
func (v View) AimRay() trace.Ray {
	return trace.Ray{Position: v.Position, Forward: v.Eye.Forward()}
}

// HorizontalRotation поворот камеры только по yaw
func (v View) HorizontalRotation() mgl64.Quat {
	return physics.Angles{Yaw: v.Eye.Yaw}.ToQuat()
}
