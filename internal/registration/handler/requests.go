package handler

import (
	"strings"
	"time"

	"landrec/internal/registration/models"
	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
)

// CreateLandRecordRequest is the body of POST /transactions/{id}/land-record.
type CreateLandRecordRequest struct {
	InstrumentKind   string     `json:"instrument_kind"`
	InstrumentNumber string     `json:"instrument_number"`
	InstrumentIssuer string     `json:"instrument_issuer"`
	PresentationTime *time.Time `json:"presentation_time,omitempty"`
}

func (r *CreateLandRecordRequest) Normalize() {
	r.InstrumentKind = strings.TrimSpace(r.InstrumentKind)
	r.InstrumentNumber = strings.TrimSpace(r.InstrumentNumber)
	r.InstrumentIssuer = strings.TrimSpace(r.InstrumentIssuer)
}

func (r *CreateLandRecordRequest) Validate() error {
	if r.InstrumentKind == "" {
		return dErrors.New(dErrors.CodeValidation, "instrument_kind is required")
	}
	return nil
}

func (r *CreateLandRecordRequest) ToCommand(transactionID id.TransactionID) models.CreateLandRecordCommand {
	return models.CreateLandRecordCommand{
		TransactionID: transactionID,
		Instrument: models.Instrument{
			Kind:   r.InstrumentKind,
			Number: r.InstrumentNumber,
			Issuer: r.InstrumentIssuer,
		},
		PresentationTime: r.PresentationTime,
	}
}

// RecordingActRequest is the body of POST /land-records/{id}/recording-acts.
type RecordingActRequest struct {
	Type                 string                  `json:"type"`
	ResourceID           string                  `json:"resource_id,omitempty"`
	NewResource          *models.NewResourceSpec `json:"new_resource,omitempty"`
	AntecedentID         string                  `json:"antecedent_id,omitempty"`
	PartitionDescription string                  `json:"partition_description,omitempty"`
	BookEntry            *BookEntryRequest       `json:"book_entry,omitempty"`
	Notes                string                  `json:"notes,omitempty"`

	resourceID   *id.ResourceID
	antecedentID *id.RecordingActID
	bookID       id.BookID
}

// BookEntryRequest asks for the act to be recorded in a legacy book.
type BookEntryRequest struct {
	BookID            string     `json:"book_id"`
	AuthorizationTime *time.Time `json:"authorization_time,omitempty"`
}

func (r *RecordingActRequest) Normalize() {
	r.Type = strings.TrimSpace(r.Type)
	r.ResourceID = strings.TrimSpace(r.ResourceID)
	r.AntecedentID = strings.TrimSpace(r.AntecedentID)
	r.Notes = strings.TrimSpace(r.Notes)
	if r.NewResource != nil {
		r.NewResource.Description = strings.TrimSpace(r.NewResource.Description)
	}
}

// Validate parses the identifiers; command shape is checked by the engine.
func (r *RecordingActRequest) Validate() error {
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	if r.ResourceID != "" {
		resourceID, err := id.ParseResourceID(r.ResourceID)
		if err != nil {
			return err
		}
		r.resourceID = &resourceID
	}
	if r.AntecedentID != "" {
		actID, err := id.ParseRecordingActID(r.AntecedentID)
		if err != nil {
			return err
		}
		r.antecedentID = &actID
	}
	if r.BookEntry != nil {
		bookID, err := id.ParseBookID(r.BookEntry.BookID)
		if err != nil {
			return err
		}
		r.bookID = bookID
	}
	return nil
}

func (r *RecordingActRequest) ToCommand() models.RegistrationCommand {
	cmd := models.RegistrationCommand{
		Type:                 r.Type,
		ResourceID:           r.resourceID,
		NewResource:          r.NewResource,
		AntecedentID:         r.antecedentID,
		PartitionDescription: r.PartitionDescription,
		Notes:                r.Notes,
	}
	if r.BookEntry != nil {
		cmd.BookEntry = &models.BookEntrySpec{
			BookID:            r.bookID,
			AuthorizationTime: r.BookEntry.AuthorizationTime,
		}
	}
	return cmd
}

// ChangeTypeRequest is the body of PATCH /recording-acts/{id}/type.
type ChangeTypeRequest struct {
	Type string `json:"type"`
}

func (r *ChangeTypeRequest) Normalize() {
	r.Type = strings.TrimSpace(r.Type)
}

func (r *ChangeTypeRequest) Validate() error {
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	return nil
}

// CloseRequest carries the operator-entered seal for manual closing.
type CloseRequest struct {
	ManualHash      string `json:"manual_hash,omitempty"`
	ManualSignature string `json:"manual_signature,omitempty"`
}

func (r *CloseRequest) Normalize() {
	r.ManualHash = strings.TrimSpace(r.ManualHash)
	r.ManualSignature = strings.TrimSpace(r.ManualSignature)
}

func (r *CloseRequest) Validate() error {
	return nil
}

func (r *CloseRequest) ToCommand() models.CloseCommand {
	if r.ManualHash == "" && r.ManualSignature == "" {
		return models.CloseCommand{}
	}
	return models.CloseCommand{Manual: &models.ManualSeal{Hash: r.ManualHash, Signature: r.ManualSignature}}
}

// MergeRequest is the body of POST /resources/{id}/merge.
type MergeRequest struct {
	Into string `json:"into"`

	into id.ResourceID
}

func (r *MergeRequest) Normalize() {
	r.Into = strings.TrimSpace(r.Into)
}

func (r *MergeRequest) Validate() error {
	if r.Into == "" {
		return dErrors.New(dErrors.CodeValidation, "into is required")
	}
	into, err := id.ParseResourceID(r.Into)
	if err != nil {
		return err
	}
	r.into = into
	return nil
}

// CreateBookRequest is the body of POST /books.
type CreateBookRequest struct {
	RecorderOffice string     `json:"recorder_office"`
	BookNumber     string     `json:"book_number"`
	Policy         string     `json:"policy"`
	Perpetual      bool       `json:"perpetual"`
	StartIndex     int        `json:"start_index"`
	ControlFrom    *time.Time `json:"control_from,omitempty"`
	ControlTo      *time.Time `json:"control_to,omitempty"`
}

func (r *CreateBookRequest) Normalize() {
	r.RecorderOffice = strings.TrimSpace(r.RecorderOffice)
	r.BookNumber = strings.TrimSpace(r.BookNumber)
	r.Policy = strings.ToLower(strings.TrimSpace(r.Policy))
	if r.Policy == "" {
		r.Policy = string(models.NumberingPolicyReuse)
	}
}

func (r *CreateBookRequest) Validate() error {
	if r.RecorderOffice == "" || r.BookNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "recorder_office and book_number are required")
	}
	if !models.NumberingPolicy(r.Policy).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "policy must be reuse or no_reuse").
			WithDetail("policy", r.Policy)
	}
	if r.StartIndex < 0 {
		return dErrors.New(dErrors.CodeValidation, "start_index cannot be negative")
	}
	return nil
}

func (r *CreateBookRequest) ToCommand() models.CreateBookCommand {
	return models.CreateBookCommand{
		RecorderOffice: r.RecorderOffice,
		BookNumber:     r.BookNumber,
		Policy:         models.NumberingPolicy(r.Policy),
		Perpetual:      r.Perpetual,
		StartIndex:     r.StartIndex,
		ControlFrom:    r.ControlFrom,
		ControlTo:      r.ControlTo,
	}
}
