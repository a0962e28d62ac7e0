package cas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	dErrors "attestry/pkg/domain-errors"
)

// IPFS is a Store backed by a Kubo node's HTTP API. Blocks are written with
// explicit raw/sha2-256/CIDv1 parameters so node-side addressing matches
// AddressForBytes, and every read is re-verified locally. Reachability is
// not validity: a node answering with the wrong bytes fails the address
// check, not the caller's comparison logic.
type IPFS struct {
	base string
	http *http.Client
}

// NewIPFS constructs a client for the Kubo API at base, e.g.
// "http://127.0.0.1:5001". The per-call context carries the deadline;
// the client itself sets only a safety-net timeout.
func NewIPFS(base string, client *http.Client) (*IPFS, error) {
	if base == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ipfs api address is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &IPFS{base: strings.TrimRight(base, "/"), http: client}, nil
}

func (s *IPFS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := AddressForBytes(data)
	if err != nil {
		return cid.Undef, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "block")
	if err != nil {
		return cid.Undef, dErrors.Wrap(err, dErrors.CodeInternal, "build block/put request")
	}
	if _, err := part.Write(data); err != nil {
		return cid.Undef, dErrors.Wrap(err, dErrors.CodeInternal, "build block/put request")
	}
	if err := mw.Close(); err != nil {
		return cid.Undef, dErrors.Wrap(err, dErrors.CodeInternal, "build block/put request")
	}

	q := url.Values{
		"cid-codec": {"raw"},
		"mhtype":    {"sha2-256"},
		"mhlen":     {"32"},
		"pin":       {"false"},
	}
	resp, err := s.post(ctx, "/api/v0/block/put", q, mw.FormDataContentType(), &body)
	if err != nil {
		return cid.Undef, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cid.Undef, apiError(resp)
	}

	var out struct {
		Key  string `json:"Key"`
		Size int    `json:"Size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return cid.Undef, dErrors.Wrap(err, dErrors.CodeUnavailable, "decode block/put response")
	}
	got, err := cid.Decode(out.Key)
	if err != nil {
		return cid.Undef, dErrors.Wrap(err, dErrors.CodeUnavailable, "unexpected block/put key")
	}
	if got != id {
		return cid.Undef, fmt.Errorf("node stored %s want %s: %w", got, id, ErrAddressMismatch)
	}
	return id, nil
}

func (s *IPFS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidAddress
	}

	q := url.Values{"arg": {id.String()}}
	resp, err := s.post(ctx, "/api/v0/block/get", q, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read block/get response")
	}
	if err := verifyAddress(id, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *IPFS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, ErrInvalidAddress
	}

	q := url.Values{"arg": {id.String()}}
	resp, err := s.post(ctx, "/api/v0/block/stat", q, "", nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	default:
		err := apiError(resp)
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
}

// post issues a Kubo RPC call. The API is POST-only.
func (s *IPFS) post(ctx context.Context, path string, q url.Values, contentType string, body io.Reader) (*http.Response, error) {
	u := s.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ipfs api request failed")
	}
	return resp, nil
}

// apiError converts a non-200 Kubo response into a coded error. Kubo reports
// missing blocks through a JSON error body, not a 404.
func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var out struct {
		Message string `json:"Message"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &out); err == nil && out.Message != "" {
		msg = out.Message
	}
	if strings.Contains(strings.ToLower(msg), "not found") {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return dErrors.Wrap(fmt.Errorf("status %d: %s", resp.StatusCode, msg), dErrors.CodeUnavailable, "ipfs api error")
}
