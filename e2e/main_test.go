package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the feature suite against a live server.
//
// Configuration comes from the environment:
//
//	ATTESTRY_E2E_SERVER       server base URL (default http://127.0.0.1:8080)
//	ATTESTRY_E2E_SIGNING_KEY  bearer token signing key (default matches the dev server)
//	ATTESTRY_E2E_OWNER        the owner principal the server was started with (required)
//
// The document features additionally need the server started with a
// recipient public key so the document endpoints are mounted.
func TestFeatures(t *testing.T) {
	if os.Getenv("ATTESTRY_E2E_OWNER") == "" {
		t.Skip("ATTESTRY_E2E_OWNER not set; skipping end-to-end features")
	}

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature suite failed")
	}
}

// InitializeScenario wires the shared test context into godog. State is
// reset before every scenario so actors never leak between them.
func InitializeScenario(sc *godog.ScenarioContext) {
	tc := NewTestContext()

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.Reset()
		return ctx, nil
	})

	RegisterSteps(sc, tc)
}
