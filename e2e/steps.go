package e2e

import (
	"github.com/cucumber/godog"

	"attestry/e2e/steps/common"
	"attestry/e2e/steps/documents"
	"attestry/e2e/steps/identity"
	"attestry/e2e/steps/verifier"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic assertions)
	common.RegisterSteps(ctx, tc)

	// Register identity lifecycle steps
	identity.RegisterSteps(ctx, tc)

	// Register verifier set steps
	verifier.RegisterSteps(ctx, tc)

	// Register document bundle steps
	documents.RegisterSteps(ctx, tc)
}
