//go:build e2e

package registration

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext is what the registration steps need from the scenario context.
type TestContext interface {
	Do(ctx context.Context, method, path string, body any) error
	Status() int
	RawBody() string
	Field(path string) (any, error)
	FieldString(path string) (string, error)
	Remember(name, value string)
	Recall(name string) (string, error)
}

// RegisterSteps registers land record steps. The current land record is
// remembered as "lr".
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrationSteps{tc: tc}

	ctx.Step(`^I open a land record for the transaction$`, steps.openLandRecord)
	ctx.Step(`^I register a "([^"]*)" act on a new real estate "([^"]*)"$`, steps.registerOnNewRealEstate)
	ctx.Step(`^I close the land record$`, steps.closeLandRecord)

	ctx.Step(`^the land record status should be "([^"]*)"$`, steps.statusShouldBe)
	ctx.Step(`^the land record should have (\d+) recording acts?$`, steps.actCountShouldBe)
	ctx.Step(`^the land record should carry a seal$`, steps.shouldCarrySeal)
}

type registrationSteps struct {
	tc TestContext
}

func (s *registrationSteps) openLandRecord(ctx context.Context) error {
	tx, err := s.tc.Recall("tx")
	if err != nil {
		return err
	}
	if err := s.tc.Do(ctx, http.MethodPost, "/transactions/"+tx+"/land-record", map[string]any{
		"instrument_kind":   "deed",
		"instrument_number": "1234",
	}); err != nil {
		return err
	}
	if s.tc.Status() == http.StatusCreated {
		lr, err := s.tc.FieldString("id")
		if err != nil {
			return err
		}
		s.tc.Remember("lr", lr)
	}
	return nil
}

func (s *registrationSteps) registerOnNewRealEstate(ctx context.Context, actType, description string) error {
	lr, err := s.tc.Recall("lr")
	if err != nil {
		return err
	}
	return s.tc.Do(ctx, http.MethodPost, "/land-records/"+lr+"/recording-acts", map[string]any{
		"type":         actType,
		"new_resource": map[string]any{"kind": "real_estate", "description": description},
	})
}

func (s *registrationSteps) closeLandRecord(ctx context.Context) error {
	lr, err := s.tc.Recall("lr")
	if err != nil {
		return err
	}
	return s.tc.Do(ctx, http.MethodPost, "/land-records/"+lr+"/close", nil)
}

func (s *registrationSteps) fetch(ctx context.Context) error {
	lr, err := s.tc.Recall("lr")
	if err != nil {
		return err
	}
	if err := s.tc.Do(ctx, http.MethodGet, "/land-records/"+lr, nil); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("get land record: status %d: %s", s.tc.Status(), s.tc.RawBody())
	}
	return nil
}

func (s *registrationSteps) statusShouldBe(ctx context.Context, expected string) error {
	if err := s.fetch(ctx); err != nil {
		return err
	}
	got, err := s.tc.FieldString("status")
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected land record status %q, got %q", expected, got)
	}
	return nil
}

func (s *registrationSteps) actCountShouldBe(ctx context.Context, count int) error {
	if err := s.fetch(ctx); err != nil {
		return err
	}
	acts, err := s.tc.Field("recording_acts")
	if err != nil {
		return err
	}
	if list, ok := acts.([]any); !ok || len(list) != count {
		return fmt.Errorf("expected %d recording acts, got %v", count, acts)
	}
	return nil
}

func (s *registrationSteps) shouldCarrySeal(ctx context.Context) error {
	if err := s.fetch(ctx); err != nil {
		return err
	}
	digest, err := s.tc.FieldString("security.digest")
	if err != nil {
		return err
	}
	if digest == "" {
		return fmt.Errorf("land record has no digest")
	}
	return nil
}
