package physics

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Solver продвигает симуляцию тел на один шаг
type Solver interface {
	Step(ctx context.Context, dt float64, bodies []*RigidBody) error
}

// EulerSolver простой полунеявный интегратор хоста
type EulerSolver struct {
	cfg Config
}

func NewEulerSolver(cfg Config) *EulerSolver {
	return &EulerSolver{cfg: cfg}
}

// Step интегрирует только динамические валидные тела
func (s *EulerSolver) Step(_ context.Context, dt float64, bodies []*RigidBody) error {
	if dt <= 0 {
		return nil
	}

	for _, b := range bodies {
		if !b.Valid() || b.bodyType == Static {
			continue
		}

		v := b.velocity.Add(mgl64.Vec3{0, 0, s.cfg.Gravity * dt})
		v = v.Mul(math.Max(0, 1-s.cfg.LinearDamping*dt))
		if s.cfg.MaxSpeed > 0 && v.Len() > s.cfg.MaxSpeed {
			v = v.Normalize().Mul(s.cfg.MaxSpeed)
		}

		pos := b.position.Add(v.Mul(dt))
		if floor := s.cfg.FloorHeight + b.radius; pos.Z() < floor {
			pos[2] = floor
			if v.Z() < 0 {
				v[2] = -v.Z() * s.cfg.Restitution
			}
		}

		w := b.angularVelocity.Mul(math.Max(0, 1-s.cfg.AngularDamping*dt))
		if angle := w.Len() * dt; angle > 1e-12 {
			b.rotation = mgl64.QuatRotate(angle, w.Normalize()).Mul(b.rotation).Normalize()
		}

		b.velocity = v
		b.angularVelocity = w
		b.position = pos
	}

	return nil
}
