package casgrpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"attestry/internal/cas"
	dErrors "attestry/pkg/domain-errors"
)

// Server exposes a cas.Store over the CAS gRPC service. The store's address
// contract is enforced on the server side as well, so a misbehaving backend
// cannot hand clients bytes that do not hash to the requested address.
type Server struct {
	UnimplementedCASServer
	Store cas.Store
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	data := in.GetValue()
	expected, err := cas.AddressForBytes(data)
	if err != nil {
		return nil, status.Error(codes.Internal, "address computation failed")
	}

	id, err := s.Store.Put(ctx, data)
	if err != nil {
		return nil, toStatus(err)
	}
	if id != expected {
		return nil, status.Error(codes.DataLoss, cas.ErrAddressMismatch.Error())
	}
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	id, err := cas.ParseAddress(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, cas.ErrInvalidAddress.Error())
	}

	data, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	got, err := cas.AddressForBytes(data)
	if err != nil {
		return nil, status.Error(codes.Internal, "address computation failed")
	}
	if got != id {
		return nil, status.Error(codes.DataLoss, cas.ErrAddressMismatch.Error())
	}
	return wrapperspb.Bytes(data), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	id, err := cas.ParseAddress(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, cas.ErrInvalidAddress.Error())
	}

	ok, err := s.Store.Has(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(ok), nil
}

// toStatus translates domain codes to their gRPC counterparts.
func toStatus(err error) error {
	switch {
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		return status.Error(codes.NotFound, cas.ErrNotFound.Error())
	case dErrors.HasCode(err, dErrors.CodeInvalidInput):
		return status.Error(codes.InvalidArgument, cas.ErrInvalidAddress.Error())
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return status.Error(codes.DataLoss, cas.ErrAddressMismatch.Error())
	case dErrors.HasCode(err, dErrors.CodeUnavailable):
		return status.Error(codes.Unavailable, cas.ErrUnavailable.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
