package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SmoothDamp критически демпфированное приближение current к target.
// Возвращает новую позицию и новую скорость; позицию вызывающий может
// проигнорировать и записать в тело только скорость.
func SmoothDamp(current, target, velocity mgl64.Vec3, smoothTime, deltaTime float64) (mgl64.Vec3, mgl64.Vec3) {
	if deltaTime <= 0 {
		return current, velocity
	}
	smoothTime = math.Max(0.0001, smoothTime)

	omega := 2.0 / smoothTime
	x := omega * deltaTime
	exp := 1.0 / (1.0 + x + 0.48*x*x + 0.235*x*x*x)

	change := current.Sub(target)
	temp := velocity.Add(change.Mul(omega)).Mul(deltaTime)
	newVelocity := velocity.Sub(temp.Mul(omega)).Mul(exp)
	output := target.Add(change.Add(temp).Mul(exp))

	// Не проскакиваем цель
	if target.Sub(current).Dot(output.Sub(target)) > 0 {
		output = target
		newVelocity = mgl64.Vec3{}
	}

	return output, newVelocity
}

// SmoothDampRotation то же самое для ориентации: угловое смещение до цели
// (ось * угол в радианах) сглаживается как вектор, возвращается новая угловая скорость.
func SmoothDampRotation(current, target mgl64.Quat, angularVelocity mgl64.Vec3, smoothTime, deltaTime float64) mgl64.Vec3 {
	displacement := RotationDelta(current, target)
	_, newVelocity := SmoothDamp(mgl64.Vec3{}, displacement, angularVelocity, smoothTime, deltaTime)
	return newVelocity
}

// RotationDelta кратчайший поворот от a к b в виде вектора ось*угол (радианы)
func RotationDelta(a, b mgl64.Quat) mgl64.Vec3 {
	delta := b.Mul(a.Inverse()).Normalize()
	if delta.W < 0 {
		delta = delta.Scale(-1)
	}

	w := mgl64.Clamp(delta.W, -1, 1)
	angle := 2 * math.Acos(w)
	s := math.Sqrt(1 - w*w)
	if s < 1e-9 {
		return mgl64.Vec3{}
	}
	return delta.V.Mul(angle / s)
}
