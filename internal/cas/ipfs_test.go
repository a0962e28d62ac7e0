package cas_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestry/internal/cas"
	"attestry/internal/cas/castest"
	dErrors "attestry/pkg/domain-errors"
)

// fakeKubo implements the three block endpoints of the Kubo HTTP API.
type fakeKubo struct {
	mu     sync.Mutex
	blocks map[string][]byte
	// corrupt makes block/get return flipped bytes.
	corrupt bool
}

func newFakeKubo() *fakeKubo {
	return &fakeKubo{blocks: make(map[string][]byte)}
}

func (f *fakeKubo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v0/block/put":
		file, _, err := r.FormFile("file")
		if err != nil {
			writeKuboError(w, "bad multipart: "+err.Error())
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			writeKuboError(w, "read: "+err.Error())
			return
		}
		id, err := cas.AddressForBytes(data)
		if err != nil {
			writeKuboError(w, "hash: "+err.Error())
			return
		}
		f.mu.Lock()
		f.blocks[id.String()] = data
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"Key": id.String(), "Size": len(data)})

	case "/api/v0/block/get":
		arg := r.URL.Query().Get("arg")
		f.mu.Lock()
		data, ok := f.blocks[arg]
		f.mu.Unlock()
		if !ok {
			writeKuboError(w, fmt.Sprintf("ipld: could not find %s: not found", arg))
			return
		}
		if f.corrupt && len(data) > 0 {
			data = append([]byte(nil), data...)
			data[0] ^= 0xff
		}
		_, _ = w.Write(data)

	case "/api/v0/block/stat":
		arg := r.URL.Query().Get("arg")
		f.mu.Lock()
		data, ok := f.blocks[arg]
		f.mu.Unlock()
		if !ok {
			writeKuboError(w, fmt.Sprintf("blockstore: block not found: %s", arg))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"Key": arg, "Size": len(data)})

	default:
		http.NotFound(w, r)
	}
}

// Kubo reports errors as a JSON body with status 500, not as HTTP 404s.
func writeKuboError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]any{"Message": msg, "Code": 0, "Type": "error"})
}

func TestIPFSConformance(t *testing.T) {
	castest.RunConformance(t, func(t *testing.T) cas.Store {
		srv := httptest.NewServer(newFakeKubo())
		t.Cleanup(srv.Close)

		store, err := cas.NewIPFS(srv.URL, srv.Client())
		require.NoError(t, err)
		return store
	})
}

func TestIPFSRequiresAPIAddress(t *testing.T) {
	_, err := cas.NewIPFS("", nil)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestIPFSUnreachableNodeIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(newFakeKubo())
	srv.Close()

	store, err := cas.NewIPFS(srv.URL, &http.Client{Timeout: time.Second})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.Put(ctx, []byte("unreachable"))
	require.Error(t, err)
	assert.True(t, cas.IsUnavailable(err))

	id, err := cas.AddressForBytes([]byte("unreachable"))
	require.NoError(t, err)
	_, err = store.Get(ctx, id)
	require.Error(t, err)
	assert.True(t, cas.IsUnavailable(err))
}

func TestIPFSVerifiesReturnedBytes(t *testing.T) {
	fake := newFakeKubo()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := cas.NewIPFS(srv.URL, srv.Client())
	require.NoError(t, err)

	ctx := context.Background()
	id, err := store.Put(ctx, []byte("trust but verify"))
	require.NoError(t, err)

	fake.corrupt = true
	_, err = store.Get(ctx, id)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestIPFSContextDeadlineSurfacesUnavailable(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(func() { close(block); srv.Close() })

	store, err := cas.NewIPFS(srv.URL, srv.Client())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = store.Put(ctx, []byte("slow node"))
	require.Error(t, err)
	assert.True(t, cas.IsUnavailable(err))
}
