//go:build e2e

package e2e

import (
	"github.com/cucumber/godog"

	"landrec/e2e/steps/common"
	"landrec/e2e/steps/registration"
	"landrec/e2e/steps/workflow"
)

// RegisterSteps registers all step definitions from the step packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	workflow.RegisterSteps(ctx, tc)
	registration.RegisterSteps(ctx, tc)
}
