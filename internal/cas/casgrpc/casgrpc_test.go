package casgrpc_test

import (
	"context"
	"net"
	"testing"

	cidlib "github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"attestry/internal/cas"
	"attestry/internal/cas/casgrpc"
	"attestry/internal/cas/castest"
	dErrors "attestry/pkg/domain-errors"
)

const bufSize = 1024 * 1024

// startService serves a CAS backed by backend over an in-process listener
// and returns a connected client.
func startService(t *testing.T, backend cas.Store) *casgrpc.Client {
	t.Helper()

	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer()
	casgrpc.RegisterCASServer(srv, &casgrpc.Server{Store: backend})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	cc, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	client := casgrpc.NewClient(cc)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClientConformance(t *testing.T) {
	castest.RunConformance(t, func(t *testing.T) cas.Store {
		return startService(t, cas.NewMemory())
	})
}

func TestServerRejectsMalformedAddress(t *testing.T) {
	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer()
	casgrpc.RegisterCASServer(srv, &casgrpc.Server{Store: cas.NewMemory()})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	cc, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })

	raw := casgrpc.NewCASClient(cc)
	_, err = raw.Get(context.Background(), wrapperspb.String("not-a-cid"))
	require.Error(t, err)

	_, err = raw.Has(context.Background(), wrapperspb.String(""))
	require.Error(t, err)
}

func TestClientMapsNotFound(t *testing.T) {
	client := startService(t, cas.NewMemory())

	id, err := cas.AddressForBytes([]byte("absent"))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), id)
	require.Error(t, err)
	assert.True(t, cas.IsNotFound(err))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

// lyingStore returns bytes that do not hash to the requested address, to
// prove misaddressed replies are refused end to end.
type lyingStore struct {
	cas.Store
}

func (s *lyingStore) Get(_ context.Context, _ cidlib.Cid) ([]byte, error) {
	return []byte("bytes under the wrong address"), nil
}

func TestMisaddressedReplyIsRefused(t *testing.T) {
	client := startService(t, &lyingStore{Store: cas.NewMemory()})

	id, err := cas.AddressForBytes([]byte("what the caller asked for"))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), id)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
