//go:build e2e

package workflow

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext is what the workflow steps need from the scenario context.
type TestContext interface {
	ActAs(alias, roles string)
	UserID(alias string) string
	Do(ctx context.Context, method, path string, body any) error
	Status() int
	RawBody() string
	Field(path string) (any, error)
	FieldString(path string) (string, error)
	Remember(name, value string)
	Recall(name string) (string, error)
}

// RegisterSteps registers transaction intake and routing steps. The current
// transaction is remembered as "tx".
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &workflowSteps{tc: tc}

	ctx.Step(`^a new transaction$`, steps.newTransaction)
	ctx.Step(`^I send the "([^"]*)" command for the transaction$`, steps.sendCommand)
	ctx.Step(`^I move the transaction to "([^"]*)"$`, steps.moveTo)
	ctx.Step(`^I move the transaction to "([^"]*)" assigned to "([^"]*)"$`, steps.moveToAssigned)
	ctx.Step(`^the transaction is received and routed to "([^"]*)" in "([^"]*)"$`, steps.receivedAndRouted)

	ctx.Step(`^the transaction status should be "([^"]*)"$`, steps.statusShouldBe)
	ctx.Step(`^the transaction history should have (\d+) tasks$`, steps.historyShouldHave)
}

type workflowSteps struct {
	tc TestContext
}

func (s *workflowSteps) newTransaction(ctx context.Context) error {
	err := s.tc.Do(ctx, http.MethodPost, "/transactions", map[string]any{
		"requester":       "Notary 12",
		"recorder_office": "Central",
		"document":        map[string]any{"kind": "deed", "number": "1234"},
	})
	if err != nil {
		return err
	}
	if s.tc.Status() != http.StatusCreated {
		return fmt.Errorf("create transaction: status %d: %s", s.tc.Status(), s.tc.RawBody())
	}
	uid, err := s.tc.FieldString("uid")
	if err != nil {
		return err
	}
	s.tc.Remember("tx", uid)
	return nil
}

func (s *workflowSteps) command(ctx context.Context, body map[string]any) error {
	tx, err := s.tc.Recall("tx")
	if err != nil {
		return err
	}
	body["ids"] = []string{tx}
	return s.tc.Do(ctx, http.MethodPost, "/transactions/workflow", body)
}

func (s *workflowSteps) sendCommand(ctx context.Context, command string) error {
	return s.command(ctx, map[string]any{"command": command})
}

func (s *workflowSteps) moveTo(ctx context.Context, status string) error {
	return s.command(ctx, map[string]any{"command": "SetNextStatus", "next_status": status})
}

func (s *workflowSteps) moveToAssigned(ctx context.Context, status, assignee string) error {
	return s.command(ctx, map[string]any{
		"command":     "SetNextStatus",
		"next_status": status,
		"assignee_id": s.tc.UserID(assignee),
	})
}

// receivedAndRouted runs as the clerk and leaves the transaction held by
// assignee.
func (s *workflowSteps) receivedAndRouted(ctx context.Context, assignee, status string) error {
	s.tc.ActAs("clerk", "clerk")
	if err := s.sendCommand(ctx, "Receive"); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("receive: status %d: %s", s.tc.Status(), s.tc.RawBody())
	}
	if err := s.moveToAssigned(ctx, status, assignee); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("route to %s: status %d: %s", status, s.tc.Status(), s.tc.RawBody())
	}
	return nil
}

func (s *workflowSteps) statusShouldBe(ctx context.Context, expected string) error {
	tx, err := s.tc.Recall("tx")
	if err != nil {
		return err
	}
	if err := s.tc.Do(ctx, http.MethodGet, "/transactions/"+tx, nil); err != nil {
		return err
	}
	got, err := s.tc.FieldString("status")
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected transaction status %q, got %q", expected, got)
	}
	return nil
}

func (s *workflowSteps) historyShouldHave(ctx context.Context, count int) error {
	tx, err := s.tc.Recall("tx")
	if err != nil {
		return err
	}
	if err := s.tc.Do(ctx, http.MethodGet, "/transactions/"+tx+"/history", nil); err != nil {
		return err
	}
	tasks, err := s.tc.Field("tasks")
	if err != nil {
		return err
	}
	list, ok := tasks.([]any)
	if !ok || len(list) != count {
		return fmt.Errorf("expected %d tasks, got %v", count, tasks)
	}
	return nil
}
