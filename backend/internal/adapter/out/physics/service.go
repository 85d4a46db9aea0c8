package physics

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"physgun-server/backend/internal/physics"
)

const (
	serviceName    = "physgun.Solver"
	stepMethodName = "/" + serviceName + "/Step"
)

// StepRequest шаг симуляции для набора тел
type StepRequest struct {
	DeltaTime float64             `json:"dt"`
	Bodies    []physics.BodyState `json:"bodies"`
}

// StepResponse тела после шага, в том же порядке
type StepResponse struct {
	Bodies []physics.BodyState `json:"bodies"`
}

// SolverServer серверная сторона удаленного солвера
type SolverServer interface {
	Step(ctx context.Context, req *StepRequest) (*StepResponse, error)
}

var solverServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SolverServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Step", Handler: stepHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "solver.json",
}

func stepHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StepRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SolverServer).Step(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: stepMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SolverServer).Step(ctx, req.(*StepRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterSolverServer регистрирует солвер на gRPC сервере
func RegisterSolverServer(s *grpc.Server, srv SolverServer) {
	s.RegisterService(&solverServiceDesc, srv)
}

// NewGRPCServer создает gRPC сервер с JSON кодеком
func NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ForceServerCodec(jsonCodec{}))
	return grpc.NewServer(opts...)
}

// LocalSolverService выполняет шаги на локальном солвере
type LocalSolverService struct {
	solver physics.Solver
	logger *zap.Logger
}

func NewLocalSolverService(solver physics.Solver, logger *zap.Logger) *LocalSolverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalSolverService{solver: solver, logger: logger.Named("SolverService")}
}

// Step восстанавливает тела из снимков, делает шаг и возвращает новые снимки
func (s *LocalSolverService) Step(ctx context.Context, req *StepRequest) (*StepResponse, error) {
	if req.DeltaTime < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "negative dt %f", req.DeltaTime)
	}

	bodies := make([]*physics.RigidBody, len(req.Bodies))
	for i, st := range req.Bodies {
		b := physics.NewRigidBody(st.ID, st.Position, st.Radius, st.Mass)
		st.Apply(b)
		bodies[i] = b
	}

	if err := s.solver.Step(ctx, req.DeltaTime, bodies); err != nil {
		s.logger.Warn("шаг симуляции", zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}

	resp := &StepResponse{Bodies: make([]physics.BodyState, len(bodies))}
	for i, b := range bodies {
		resp.Bodies[i] = physics.Capture(b)
	}
	return resp, nil
}
