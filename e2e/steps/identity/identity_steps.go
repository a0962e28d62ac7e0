package identity

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// wellKnownAddress is a syntactically valid content address for ledger-only
// scenarios. Registration records the address without fetching it, so any
// well-formed CID serves.
const wellKnownAddress = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	PostAs(actor, path string, body map[string]interface{}) error
	GET(path string, headers map[string]string) error
	PrincipalOf(actor string) string
	SavedManifestAddress() string
	GetLastResponseStatus() int
	GetResponseField(field string) (interface{}, error)
}

// RegisterSteps registers identity lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &identitySteps{tc: tc}

	// Lifecycle steps
	ctx.Step(`^"([^"]*)" registers the manifest address "([^"]*)"$`, steps.registersAddress)
	ctx.Step(`^"([^"]*)" has registered an identity$`, steps.hasRegistered)
	ctx.Step(`^"([^"]*)" registers the saved manifest address$`, steps.registersSavedAddress)
	ctx.Step(`^"([^"]*)" verifies "([^"]*)"$`, steps.verifies)
	ctx.Step(`^"([^"]*)" rejects "([^"]*)"$`, steps.rejects)

	// Query steps
	ctx.Step(`^I fetch the identity of "([^"]*)"$`, steps.fetchIdentity)
	ctx.Step(`^I fetch the events of "([^"]*)" with kind "([^"]*)"$`, steps.fetchEventsWithKind)

	// Assertion steps
	ctx.Step(`^the acting verifiers of "([^"]*)" should include "([^"]*)"$`, steps.actingVerifiersInclude)
	ctx.Step(`^the response should contain at least (\d+) events?$`, steps.atLeastNEvents)
}

type identitySteps struct {
	tc TestContext
}

func (s *identitySteps) registersAddress(ctx context.Context, actor, address string) error {
	return s.tc.PostAs(actor, "/identity/register", map[string]interface{}{
		"content_address": address,
	})
}

func (s *identitySteps) hasRegistered(ctx context.Context, actor string) error {
	if err := s.registersAddress(ctx, actor, wellKnownAddress); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 201 {
		return fmt.Errorf("registration of %q returned %d", actor, status)
	}
	return nil
}

func (s *identitySteps) registersSavedAddress(ctx context.Context, actor string) error {
	address := s.tc.SavedManifestAddress()
	if address == "" {
		return fmt.Errorf("no manifest address saved by an earlier step")
	}
	return s.registersAddress(ctx, actor, address)
}

func (s *identitySteps) verifies(ctx context.Context, actor, subject string) error {
	return s.tc.PostAs(actor, "/identity/"+s.tc.PrincipalOf(subject)+"/verify", nil)
}

func (s *identitySteps) rejects(ctx context.Context, actor, subject string) error {
	return s.tc.PostAs(actor, "/identity/"+s.tc.PrincipalOf(subject)+"/reject", nil)
}

func (s *identitySteps) fetchIdentity(ctx context.Context, actor string) error {
	return s.tc.GET("/identity/"+s.tc.PrincipalOf(actor), nil)
}

func (s *identitySteps) fetchEventsWithKind(ctx context.Context, actor, kind string) error {
	return s.tc.GET("/identity/"+s.tc.PrincipalOf(actor)+"/events?kind="+kind, nil)
}

func (s *identitySteps) actingVerifiersInclude(ctx context.Context, subject, verifier string) error {
	if err := s.tc.GET("/identity/"+s.tc.PrincipalOf(subject)+"/verifiers", nil); err != nil {
		return err
	}
	value, err := s.tc.GetResponseField("verifiers")
	if err != nil {
		return err
	}
	list, ok := value.([]interface{})
	if !ok {
		return fmt.Errorf("verifiers is %T, not a list", value)
	}
	want := s.tc.PrincipalOf(verifier)
	for _, item := range list {
		if item == want {
			return nil
		}
	}
	return fmt.Errorf("%q (%s) not among acting verifiers: %v", verifier, want, list)
}

func (s *identitySteps) atLeastNEvents(ctx context.Context, count int) error {
	value, err := s.tc.GetResponseField("events")
	if err != nil {
		return err
	}
	list, ok := value.([]interface{})
	if !ok {
		return fmt.Errorf("events is %T, not a list", value)
	}
	if len(list) < count {
		return fmt.Errorf("expected at least %d events, got %d", count, len(list))
	}
	return nil
}
