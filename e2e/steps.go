package e2e

import (
	"github.com/cucumber/godog"

	"contactlink/e2e/steps/common"
	"contactlink/e2e/steps/identify"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Generic requests and response assertions
	common.RegisterSteps(ctx, tc)

	// Contact reconciliation
	identify.RegisterSteps(ctx, tc)
}
