package availability_grpc

import (
	"context"
	"errors"

	"github.com/Domenick1991/roombooking/internal/availability"
	"github.com/Domenick1991/roombooking/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "roombooking.v1.Availability"
	checkMethod = "/" + ServiceName + "/Check"
)

// AvailabilityServer answers single-room availability questions. Requests and
// replies are plain structpb.Struct values so no generated stubs are needed.
type AvailabilityServer interface {
	Check(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type RoomFinder interface {
	GetByID(ctx context.Context, id string) (*domain.Room, error)
}

type Checker interface {
	Check(ctx context.Context, room *domain.Room, in availability.Input) (availability.Result, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AvailabilityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Check", Handler: checkHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "roombooking/v1/availability.proto",
}

func Register(s grpc.ServiceRegistrar, srv AvailabilityServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func checkHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).Check(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: checkMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AvailabilityServer).Check(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Check calls the Availability service over conn.
func Check(ctx context.Context, conn grpc.ClientConnInterface, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, checkMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Server implements AvailabilityServer on top of the room store and checker.
type Server struct {
	rooms   RoomFinder
	checker Checker
}

var _ AvailabilityServer = (*Server)(nil)

func NewServer(rooms RoomFinder, checker Checker) *Server {
	return &Server{rooms: rooms, checker: checker}
}

func (s *Server) Check(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	roomID := fields["roomId"].GetStringValue()
	if roomID == "" {
		return nil, status.Error(codes.InvalidArgument, "roomId is required")
	}

	checkIn, err := domain.ParseDate(fields["checkIn"].GetStringValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "checkIn: %v", err)
	}
	checkOut, err := domain.ParseDate(fields["checkOut"].GetStringValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "checkOut: %v", err)
	}
	if !(domain.Stay{CheckIn: checkIn, CheckOut: checkOut}).Valid() {
		return nil, status.Error(codes.InvalidArgument, "checkOut must be after checkIn")
	}
	market, err := domain.ParseMarket(fields["market"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	quantity := int(fields["quantity"].GetNumberValue())
	if quantity < 1 {
		quantity = 1
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Errorf(codes.NotFound, "room %s not found", roomID)
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	res, err := s.checker.Check(ctx, room, availability.Input{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Quantity: quantity,
		Market:   market,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return structpb.NewStruct(map[string]interface{}{
		"available": res.Available,
		"reason":    res.Reason,
		"price":     res.Quote.Price(),
		"nights":    res.Nights,
	})
}
