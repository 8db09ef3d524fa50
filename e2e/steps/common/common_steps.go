//go:build e2e

package common

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is what the generic steps need from the scenario context.
type TestContext interface {
	ActAs(alias, roles string)
	Do(ctx context.Context, method, path string, body any) error
	Status() int
	RawBody() string
	FieldString(path string) (string, error)
	Remember(name, value string)
}

// RegisterSteps registers actor, request and assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I am "([^"]*)" with roles "([^"]*)"$`, steps.actAs)
	ctx.Step(`^I send a (GET|POST|DELETE) request to "([^"]*)"$`, steps.send)
	ctx.Step(`^I send a (POST|PATCH) request to "([^"]*)" with body:$`, steps.sendWithBody)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^I remember the response field "([^"]*)" as "([^"]*)"$`, steps.rememberField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) actAs(_ context.Context, alias, roles string) error {
	s.tc.ActAs(alias, roles)
	return nil
}

func (s *commonSteps) send(ctx context.Context, method, path string) error {
	return s.tc.Do(ctx, method, path, nil)
}

func (s *commonSteps) sendWithBody(ctx context.Context, method, path string, doc *godog.DocString) error {
	var body any
	if err := json.Unmarshal([]byte(doc.Content), &body); err != nil {
		return fmt.Errorf("step body is not JSON: %w", err)
	}
	return s.tc.Do(ctx, method, path, body)
}

func (s *commonSteps) statusShouldBe(_ context.Context, expected int) error {
	if got := s.tc.Status(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.RawBody())
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(_ context.Context, code string) error {
	return s.fieldShouldBe(context.Background(), "error", code)
}

func (s *commonSteps) fieldShouldBe(_ context.Context, path, expected string) error {
	got, err := s.tc.FieldString(path)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", path, expected, got)
	}
	return nil
}

func (s *commonSteps) rememberField(_ context.Context, path, name string) error {
	v, err := s.tc.FieldString(path)
	if err != nil {
		return err
	}
	s.tc.Remember(name, v)
	return nil
}
