// Package e2e drives black-box feature tests against a running attestry
// server with godog. The harness only speaks the wire contract: JSON and
// multipart over HTTP, bearer tokens minted from the server's signing key.
package e2e

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
)

const (
	defaultServerURL  = "http://127.0.0.1:8080"
	defaultSigningKey = "dev-secret-key-change-in-production"
	tokenIssuer       = "attestry"
	tokenAudience     = "attestry-api"

	// principalVersion matches the server's address format.
	principalVersion = 0x17
)

// TestContext drives one scenario at a time against a running server. Actor
// names map to principals invented per scenario, so repeated runs against a
// long-lived server never collide. Only the owner is fixed: it comes from the
// environment and must match the principal the server was started with.
type TestContext struct {
	baseURL    string
	signingKey string
	owner      string
	client     *http.Client

	actors map[string]string

	lastStatus   int
	lastBody     []byte
	savedAddress string
}

// NewTestContext reads the harness configuration from the environment.
func NewTestContext() *TestContext {
	return &TestContext{
		baseURL:    getenv("ATTESTRY_E2E_SERVER", defaultServerURL),
		signingKey: getenv("ATTESTRY_E2E_SIGNING_KEY", defaultSigningKey),
		owner:      os.Getenv("ATTESTRY_E2E_OWNER"),
		client:     &http.Client{Timeout: 30 * time.Second},
		actors:     make(map[string]string),
	}
}

// Reset clears per-scenario state. The owner mapping survives because it is
// environment configuration, not scenario state.
func (tc *TestContext) Reset() {
	tc.actors = make(map[string]string)
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.savedAddress = ""
}

// OwnerPrincipal returns the principal the server treats as owner.
func (tc *TestContext) OwnerPrincipal() string {
	return tc.owner
}

// PrincipalOf returns the principal behind an actor name, inventing a fresh
// one on first use. The name "owner" always resolves to the configured owner.
func (tc *TestContext) PrincipalOf(name string) string {
	if name == "owner" {
		return tc.owner
	}
	if principal, ok := tc.actors[name]; ok {
		return principal
	}
	pub := make([]byte, 32)
	_, _ = rand.Read(pub)
	principal := derivePrincipal(pub)
	tc.actors[name] = principal
	return principal
}

// derivePrincipal encodes a public key as a base58check address the same way
// the server does: version byte, 20-byte key hash, 4-byte checksum.
func derivePrincipal(pub []byte) string {
	digest := sha256.Sum256(pub)
	payload := make([]byte, 0, 25)
	payload = append(payload, principalVersion)
	payload = append(payload, digest[:20]...)
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	payload = append(payload, second[:4]...)
	return base58.Encode(payload)
}

// TokenFor mints a bearer token asserting the actor's principal, signed with
// the server's key.
func (tc *TestContext) TokenFor(actor string) (string, error) {
	claims := jwt.MapClaims{
		"principal": tc.PrincipalOf(actor),
		"iss":       tokenIssuer,
		"aud":       tokenAudience,
		"iat":       time.Now().Unix(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tc.signingKey))
}

// GET performs a GET request with optional extra headers.
func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodGet, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return tc.do(req)
}

// PostAs performs a JSON POST authenticated as actor. An empty actor sends
// no credentials; a nil body sends an empty one.
func (tc *TestContext) PostAs(actor, path string, body map[string]interface{}) error {
	buf := new(bytes.Buffer)
	if body != nil {
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(http.MethodPost, tc.baseURL+path, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := tc.authorize(req, actor); err != nil {
		return err
	}
	return tc.do(req)
}

// DeleteAs performs a DELETE authenticated as actor.
func (tc *TestContext) DeleteAs(actor, path string) error {
	req, err := http.NewRequest(http.MethodDelete, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	if err := tc.authorize(req, actor); err != nil {
		return err
	}
	return tc.do(req)
}

// UploadAs posts files as multipart document parts, authenticated as actor.
// An empty actor sends no credentials.
func (tc *TestContext) UploadAs(actor string, names []string, contents [][]byte) error {
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	for i, name := range names {
		part, err := mw.CreateFormFile("documents", name)
		if err != nil {
			return err
		}
		if _, err := part.Write(contents[i]); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, tc.baseURL+"/documents", buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := tc.authorize(req, actor); err != nil {
		return err
	}
	return tc.do(req)
}

// ValidateAs posts a manifest address and reference file to the validation
// endpoint, authenticated as actor.
func (tc *TestContext) ValidateAs(actor, manifestAddress, name string, content []byte) error {
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	if err := mw.WriteField("manifest_address", manifestAddress); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("reference", name)
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, tc.baseURL+"/documents/validate", buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := tc.authorize(req, actor); err != nil {
		return err
	}
	return tc.do(req)
}

// GetLastResponseStatus returns the status code of the last response.
func (tc *TestContext) GetLastResponseStatus() int {
	return tc.lastStatus
}

// GetLastResponseBody returns the raw body of the last response.
func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

// GetResponseField extracts a top-level field from the last JSON response.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(tc.lastBody, &payload); err != nil {
		return nil, fmt.Errorf("last response is not a JSON object: %w", err)
	}
	value, ok := payload[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return value, nil
}

// SaveManifestAddress remembers the manifest_address of the last response so
// later steps can register or validate against it.
func (tc *TestContext) SaveManifestAddress() error {
	value, err := tc.GetResponseField("manifest_address")
	if err != nil {
		return err
	}
	address, ok := value.(string)
	if !ok || address == "" {
		return fmt.Errorf("manifest_address is not a usable string: %v", value)
	}
	tc.savedAddress = address
	return nil
}

// SavedManifestAddress returns the address remembered by SaveManifestAddress.
func (tc *TestContext) SavedManifestAddress() string {
	return tc.savedAddress
}

func (tc *TestContext) authorize(req *http.Request, actor string) error {
	if actor == "" {
		return nil
	}
	token, err := tc.TokenFor(actor)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastStatus = resp.StatusCode
	tc.lastBody = body
	return nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
