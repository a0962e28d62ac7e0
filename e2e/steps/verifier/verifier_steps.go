package verifier

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	PostAs(actor, path string, body map[string]interface{}) error
	DeleteAs(actor, path string) error
	GET(path string, headers map[string]string) error
	PrincipalOf(actor string) string
	OwnerPrincipal() string
	GetLastResponseStatus() int
	GetResponseField(field string) (interface{}, error)
}

// RegisterSteps registers verifier set step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &verifierSteps{tc: tc}

	ctx.Step(`^the owner grants verifier authority to "([^"]*)"$`, steps.ownerGrants)
	ctx.Step(`^"([^"]*)" grants verifier authority to "([^"]*)"$`, steps.grants)
	ctx.Step(`^the owner revokes the verifier authority of "([^"]*)"$`, steps.ownerRevokes)
	ctx.Step(`^the owner revokes the verifier authority of the owner$`, steps.ownerRevokesOwner)
	ctx.Step(`^I list the verifier set$`, steps.listVerifiers)
	ctx.Step(`^the verifier set should include the owner$`, steps.setIncludesOwner)
}

type verifierSteps struct {
	tc TestContext
}

// ownerGrants is a setup step, so it asserts success where the plain grant
// step leaves the outcome to the scenario.
func (s *verifierSteps) ownerGrants(ctx context.Context, name string) error {
	if err := s.grants(ctx, "owner", name); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 204 {
		return fmt.Errorf("granting verifier authority to %q returned %d", name, status)
	}
	return nil
}

func (s *verifierSteps) grants(ctx context.Context, actor, name string) error {
	return s.tc.PostAs(actor, "/verifiers", map[string]interface{}{
		"principal": s.tc.PrincipalOf(name),
	})
}

func (s *verifierSteps) ownerRevokes(ctx context.Context, name string) error {
	return s.tc.DeleteAs("owner", "/verifiers/"+s.tc.PrincipalOf(name))
}

func (s *verifierSteps) ownerRevokesOwner(ctx context.Context) error {
	return s.tc.DeleteAs("owner", "/verifiers/"+s.tc.OwnerPrincipal())
}

func (s *verifierSteps) listVerifiers(ctx context.Context) error {
	return s.tc.GET("/verifiers", nil)
}

func (s *verifierSteps) setIncludesOwner(ctx context.Context) error {
	value, err := s.tc.GetResponseField("verifiers")
	if err != nil {
		return err
	}
	list, ok := value.([]interface{})
	if !ok {
		return fmt.Errorf("verifiers is %T, not a list", value)
	}
	owner := s.tc.OwnerPrincipal()
	for _, item := range list {
		if item == owner {
			return nil
		}
	}
	return fmt.Errorf("owner %s not in verifier set: %v", owner, list)
}
