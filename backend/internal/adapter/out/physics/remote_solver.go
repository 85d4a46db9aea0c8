package physics

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"physgun-server/backend/internal/physics"
)

var ErrSolverUnavailable = errors.New("remote solver unavailable")

// RemoteSolver солвер, выполняющий шаги на удаленном сервере физики
type RemoteSolver struct {
	conn   *grpc.ClientConn
	logger *zap.Logger
}

// NewRemoteSolver подключается к серверу физики. Соединение ленивое,
// ошибки сети проявятся на первом шаге.
func NewRemoteSolver(address string, logger *zap.Logger, opts ...grpc.DialOption) (*RemoteSolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	}, opts...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к серверу физики: %w", err)
	}

	logger.Info("Подключено к серверу физики", zap.String("address", address))
	return &RemoteSolver{conn: conn, logger: logger.Named("RemoteSolver")}, nil
}

// Step отправляет валидные тела на сервер и применяет результат
func (s *RemoteSolver) Step(ctx context.Context, dt float64, bodies []*physics.RigidBody) error {
	req := &StepRequest{DeltaTime: dt}
	sent := make([]*physics.RigidBody, 0, len(bodies))
	for _, b := range bodies {
		if !b.Valid() {
			continue
		}
		req.Bodies = append(req.Bodies, physics.Capture(b))
		sent = append(sent, b)
	}
	if len(sent) == 0 {
		return nil
	}

	resp := new(StepResponse)
	if err := s.conn.Invoke(ctx, stepMethodName, req, resp); err != nil {
		return fmt.Errorf("%w: %v", ErrSolverUnavailable, err)
	}
	if len(resp.Bodies) != len(sent) {
		return fmt.Errorf("солвер вернул %d тел вместо %d", len(resp.Bodies), len(sent))
	}

	for i, st := range resp.Bodies {
		if st.ID != sent[i].ID() {
			return fmt.Errorf("солвер нарушил порядок тел: %s вместо %s", st.ID, sent[i].ID())
		}
		st.Apply(sent[i])
	}
	return nil
}

// Close закрывает соединение
func (s *RemoteSolver) Close() error {
	return s.conn.Close()
}

var _ physics.Solver = (*RemoteSolver)(nil)
