package rpc

import (
	"net"

	"github.com/spooky-finn/go-chartquote-bridge/infrastructure/logging"
	"github.com/spooky-finn/go-chartquote-bridge/usecase"
	"google.golang.org/grpc"
)

var logger = logging.New("rpc")

type server struct {
	livePriceUseCase  *usecase.LivePriceUseCase
	validationService *ValidationService
}

func NewServer(livePrice *usecase.LivePriceUseCase, conf *ValidationServiceConfig) *server {
	return &server{
		livePriceUseCase:  livePrice,
		validationService: NewValidationService(conf),
	}
}

func (s *server) GRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	gs := grpc.NewServer(opts...)
	RegisterQuoteServiceServer(gs, s)
	return gs
}

// Serve blocks until the listener fails or the server is stopped.
func Serve(addr string, gs *grpc.Server) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", addr).Msg("grpc server listening")
	return gs.Serve(lis)
}
