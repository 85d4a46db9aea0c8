package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Оси мира: Z вверх, X вперед, Y влево
var (
	Up      = mgl64.Vec3{0, 0, 1}
	Forward = mgl64.Vec3{1, 0, 0}
	Right   = mgl64.Vec3{0, -1, 0}
)

// Angles углы Эйлера в градусах. Положительный pitch опускает взгляд вниз.
type Angles struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// ToQuat строит поворот yaw(Z) * pitch(Y) * roll(X)
func (a Angles) ToQuat() mgl64.Quat {
	yaw := mgl64.QuatRotate(mgl64.DegToRad(a.Yaw), mgl64.Vec3{0, 0, 1})
	pitch := mgl64.QuatRotate(mgl64.DegToRad(a.Pitch), mgl64.Vec3{0, 1, 0})
	roll := mgl64.QuatRotate(mgl64.DegToRad(a.Roll), mgl64.Vec3{1, 0, 0})
	return yaw.Mul(pitch).Mul(roll).Normalize()
}

// Forward направление взгляда для этих углов
func (a Angles) Forward() mgl64.Vec3 {
	return a.ToQuat().Rotate(Forward)
}

// QuatToAngles обратное преобразование для ToQuat
func QuatToAngles(q mgl64.Quat) Angles {
	q = q.Normalize()
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	pitch := math.Asin(mgl64.Clamp(2*(w*y-z*x), -1, 1))
	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Angles{
		Pitch: mgl64.RadToDeg(pitch),
		Yaw:   mgl64.RadToDeg(yaw),
		Roll:  mgl64.RadToDeg(roll),
	}
}

// FromAxis поворот на угол в градусах вокруг оси
func FromAxis(axis mgl64.Vec3, degrees float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(degrees), axis.Normalize())
}

// SnapRotation округляет pitch/yaw/roll до ближайшего кратного step градусов
func SnapRotation(q mgl64.Quat, step float64) mgl64.Quat {
	if step <= 0 {
		return q
	}
	a := QuatToAngles(q)
	return Angles{
		Pitch: math.Round(a.Pitch/step) * step,
		Yaw:   math.Round(a.Yaw/step) * step,
		Roll:  math.Round(a.Roll/step) * step,
	}.ToQuat()
}
