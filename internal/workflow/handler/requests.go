package handler

import (
	"strings"

	"landrec/internal/workflow/models"
	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
	strs "landrec/pkg/platform/strings"
)

// CreateTransactionRequest is the body of POST /transactions.
type CreateTransactionRequest struct {
	Requester      string          `json:"requester"`
	RecorderOffice string          `json:"recorder_office"`
	Document       DocumentRequest `json:"document"`
}

type DocumentRequest struct {
	Kind        string `json:"kind"`
	Number      string `json:"number,omitempty"`
	Description string `json:"description,omitempty"`
}

func (r *CreateTransactionRequest) Normalize() {
	r.Requester = strings.TrimSpace(r.Requester)
	r.RecorderOffice = strings.TrimSpace(r.RecorderOffice)
	r.Document.Kind = strings.TrimSpace(r.Document.Kind)
	r.Document.Number = strings.TrimSpace(r.Document.Number)
	r.Document.Description = strings.TrimSpace(r.Document.Description)
}

// Validate leaves required-field checks to the domain constructor.
func (r *CreateTransactionRequest) Validate() error {
	return nil
}

func (r *CreateTransactionRequest) ToCommand() models.CreateTransactionCommand {
	return models.CreateTransactionCommand{
		Requester:      r.Requester,
		RecorderOffice: r.RecorderOffice,
		Document: models.Document{
			Kind:        r.Document.Kind,
			Number:      r.Document.Number,
			Description: r.Document.Description,
		},
	}
}

// WorkflowRequest is the body of POST /transactions/workflow.
type WorkflowRequest struct {
	IDs             []string `json:"ids"`
	Command         string   `json:"command"`
	NextStatus      string   `json:"next_status,omitempty"`
	AssigneeID      string   `json:"assignee_id,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	ManualHash      string   `json:"manual_hash,omitempty"`
	ManualSignature string   `json:"manual_signature,omitempty"`

	assignee *id.UserID
}

func (r *WorkflowRequest) Normalize() {
	r.IDs = strs.DedupeAndTrim(r.IDs)
	r.Command = strings.TrimSpace(r.Command)
	r.NextStatus = strings.TrimSpace(r.NextStatus)
	r.AssigneeID = strings.TrimSpace(r.AssigneeID)
	r.ManualHash = strings.TrimSpace(r.ManualHash)
	r.ManualSignature = strings.TrimSpace(r.ManualSignature)
}

// Validate parses the assignee. Command shape is checked by the workflow
// service so batch and single calls report the same errors.
func (r *WorkflowRequest) Validate() error {
	if len(r.IDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "ids must list at least one transaction")
	}
	if r.Command == "" {
		return dErrors.New(dErrors.CodeValidation, "command is required")
	}
	if r.AssigneeID != "" {
		assignee, err := id.ParseUserID(r.AssigneeID)
		if err != nil {
			return err
		}
		r.assignee = &assignee
	}
	return nil
}

func (r *WorkflowRequest) ToCommand() models.Command {
	return models.Command{
		Type:            models.CommandType(r.Command),
		NextStatus:      models.Status(r.NextStatus),
		AssigneeID:      r.assignee,
		Notes:           r.Notes,
		ManualHash:      r.ManualHash,
		ManualSignature: r.ManualSignature,
	}
}
