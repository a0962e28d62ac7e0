package casgrpc

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"attestry/internal/cas"
	dErrors "attestry/pkg/domain-errors"
)

// Client implements cas.Store over a remote CAS gRPC service. Replies are
// re-verified locally; the remote node is never trusted to address content
// correctly.
type Client struct {
	cc     *grpc.ClientConn
	client CASClient
}

// DialOptions configures Dial.
type DialOptions struct {
	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

// Dial connects to a CAS service at target.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "dial cas service")
	}
	return NewClient(cc), nil
}

// NewClient wraps an established connection. Used by tests that dial over
// in-process listeners.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewCASClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	expected, err := cas.AddressForBytes(data)
	if err != nil {
		return cid.Undef, err
	}

	reply, err := c.client.Put(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return cid.Undef, fromStatus(err)
	}
	id, err := cid.Decode(reply.GetValue())
	if err != nil || !id.Defined() {
		return cid.Undef, cas.ErrInvalidAddress
	}
	if id != expected {
		return cid.Undef, fmt.Errorf("service stored %s want %s: %w", id, expected, cas.ErrAddressMismatch)
	}
	return id, nil
}

func (c *Client) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, cas.ErrInvalidAddress
	}

	reply, err := c.client.Get(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, fromStatus(err)
	}
	data := reply.GetValue()
	got, err := cas.AddressForBytes(data)
	if err != nil {
		return nil, err
	}
	if got != id {
		return nil, fmt.Errorf("service returned %s want %s: %w", got, id, cas.ErrAddressMismatch)
	}
	return data, nil
}

func (c *Client) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, cas.ErrInvalidAddress
	}

	reply, err := c.client.Has(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return false, fromStatus(err)
	}
	return reply.GetValue(), nil
}

// fromStatus translates gRPC status codes back to domain sentinels.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "cas rpc failed")
	}
	switch st.Code() {
	case codes.NotFound:
		return cas.ErrNotFound
	case codes.InvalidArgument:
		return cas.ErrInvalidAddress
	case codes.DataLoss:
		return cas.ErrAddressMismatch
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "cas rpc failed")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "cas rpc failed")
	}
}
