package rpc

import (
	"context"

	"github.com/spooky-finn/go-chartquote-bridge/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *server) LastPrice(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	symbol, err := domain.NewMarketSymbol(in.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid market symbol %q: %v", in.GetValue(), err)
	}

	if !s.validationService.IsSupportedVenue(symbol.Venue) {
		return nil, status.Errorf(codes.InvalidArgument, "venue %s is not supported", symbol.Venue)
	}

	fields := map[string]interface{}{
		"symbol":    symbol.String(),
		"available": false,
	}

	if price, ok := s.livePriceUseCase.LastPrice(ctx, symbol.String()); ok {
		fields["available"] = true
		fields["price"] = price
	}

	return structpb.NewStruct(fields)
}
