// Package apiclient is a typed HTTP client for the attestry API. attestryctl
// and the end-to-end harness both drive a server through it, so it mirrors
// the transport's request and response types instead of redeclaring them.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	httptransport "attestry/internal/transport/http"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/httputil"
)

// Client talks to one attestry server. Token is attached as a bearer
// credential on every request; the public read endpoints ignore it.
type Client struct {
	Base  string
	Token string
	HTTP  *http.Client
}

// New returns a client for the server at base.
func New(base string, token string, timeout time.Duration) *Client {
	return &Client{
		Base:  base,
		Token: token,
		HTTP:  &http.Client{Timeout: timeout},
	}
}

// Document is one named payload for upload or validation. The name only
// labels the multipart part; the server hashes the data.
type Document struct {
	Name string
	Data []byte
}

// RegisterIdentity registers the token's principal under contentAddress.
func (c *Client) RegisterIdentity(ctx context.Context, contentAddress string) (httptransport.IdentityResponse, error) {
	var out httptransport.IdentityResponse
	in := httptransport.RegisterIdentityRequest{ContentAddress: contentAddress}
	err := c.postJSON(ctx, "/identity/register", in, &out)
	return out, err
}

// VerifyIdentity marks principal's pending registration verified by the
// token's principal.
func (c *Client) VerifyIdentity(ctx context.Context, principal string) (httptransport.IdentityResponse, error) {
	var out httptransport.IdentityResponse
	err := c.postJSON(ctx, "/identity/"+url.PathEscape(principal)+"/verify", nil, &out)
	return out, err
}

// RejectIdentity marks principal's pending registration rejected by the
// token's principal.
func (c *Client) RejectIdentity(ctx context.Context, principal string) (httptransport.IdentityResponse, error) {
	var out httptransport.IdentityResponse
	err := c.postJSON(ctx, "/identity/"+url.PathEscape(principal)+"/reject", nil, &out)
	return out, err
}

// Identity fetches the ledger record for principal. Unregistered principals
// come back with status not_registered rather than an error.
func (c *Client) Identity(ctx context.Context, principal string) (httptransport.IdentityResponse, error) {
	var out httptransport.IdentityResponse
	err := c.getJSON(ctx, "/identity/"+url.PathEscape(principal), &out)
	return out, err
}

// ActingVerifiers lists the verifiers recorded on principal's identity.
func (c *Client) ActingVerifiers(ctx context.Context, principal string) (httptransport.VerifiersResponse, error) {
	var out httptransport.VerifiersResponse
	err := c.getJSON(ctx, "/identity/"+url.PathEscape(principal)+"/verifiers", &out)
	return out, err
}

// Events fetches the event log entries touching principal. An empty kind
// returns all kinds.
func (c *Client) Events(ctx context.Context, principal string, kind string) (httptransport.EventsResponse, error) {
	path := "/identity/" + url.PathEscape(principal) + "/events"
	if kind != "" {
		path += "?kind=" + url.QueryEscape(kind)
	}
	var out httptransport.EventsResponse
	err := c.getJSON(ctx, path, &out)
	return out, err
}

// AddVerifier grants principal verifier authority. Owner only.
func (c *Client) AddVerifier(ctx context.Context, principal string) error {
	in := httptransport.AddVerifierRequest{Principal: principal}
	return c.postJSON(ctx, "/verifiers", in, nil)
}

// RemoveVerifier revokes principal's verifier authority. Owner only.
func (c *Client) RemoveVerifier(ctx context.Context, principal string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/verifiers/"+url.PathEscape(principal), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Verifiers lists the trusted verifier set.
func (c *Client) Verifiers(ctx context.Context) (httptransport.VerifiersResponse, error) {
	var out httptransport.VerifiersResponse
	err := c.getJSON(ctx, "/verifiers", &out)
	return out, err
}

// StoreDocuments uploads docs as one encrypted bundle and returns the
// manifest address that retrieves it.
func (c *Client) StoreDocuments(ctx context.Context, docs []Document) (httptransport.StoreDocumentsResponse, error) {
	var out httptransport.StoreDocumentsResponse
	err := c.postMultipart(ctx, "/documents", &out, func(mw *multipart.Writer) error {
		for _, doc := range docs {
			part, err := mw.CreateFormFile("documents", doc.Name)
			if err != nil {
				return err
			}
			if _, err := part.Write(doc.Data); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// ValidateDocument reports whether the bundle at manifestAddress contains a
// document equal to reference.
func (c *Client) ValidateDocument(ctx context.Context, manifestAddress string, reference Document) (httptransport.ValidateDocumentResponse, error) {
	var out httptransport.ValidateDocumentResponse
	err := c.postMultipart(ctx, "/documents/validate", &out, func(mw *multipart.Writer) error {
		if err := mw.WriteField("manifest_address", manifestAddress); err != nil {
			return err
		}
		part, err := mw.CreateFormFile("reference", reference.Name)
		if err != nil {
			return err
		}
		_, err = part.Write(reference.Data)
		return err
	})
	return out, err
}

// Healthz reports whether the server answers its health endpoint.
func (c *Client) Healthz(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.getJSON(ctx, "/healthz", &out)
}

func (c *Client) newRequest(ctx context.Context, method string, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if in != nil {
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postMultipart(ctx context.Context, path string, out any, write func(*multipart.Writer) error) error {
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	if err := write(mw); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

// do sends req and decodes the response into out when it is non-nil. Error
// envelopes come back as domain errors so callers can switch on codes the
// same way they do against the services directly.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return decodeError(req, resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(req *http.Request, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil {
		var envelope httputil.ErrorResponse
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Error != "" {
			message := envelope.ErrorDescription
			if message == "" {
				message = resp.Status
			}
			return dErrors.New(dErrors.Code(envelope.Error), message)
		}
	}
	return fmt.Errorf("%s %s: %s", req.Method, req.URL, resp.Status)
}
