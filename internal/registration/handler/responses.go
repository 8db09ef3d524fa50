package handler

import (
	"time"

	"landrec/internal/registration/models"
	"landrec/internal/registration/tract"
	id "landrec/pkg/domain"
)

type LandRecordResponse struct {
	ID                string                 `json:"id"`
	UID               string                 `json:"uid"`
	TransactionID     string                 `json:"transaction_id"`
	TransactionUID    string                 `json:"transaction_uid"`
	InstrumentKind    string                 `json:"instrument_kind"`
	InstrumentNumber  string                 `json:"instrument_number,omitempty"`
	InstrumentIssuer  string                 `json:"instrument_issuer,omitempty"`
	Status            string                 `json:"status"`
	PresentationTime  time.Time              `json:"presentation_time"`
	AuthorizationTime *time.Time             `json:"authorization_time,omitempty"`
	Security          *SecurityResponse      `json:"security,omitempty"`
	RecordingActs     []RecordingActResponse `json:"recording_acts"`
	BookEntries       []BookEntryResponse    `json:"book_entries"`
}

type SecurityResponse struct {
	Digest          string     `json:"digest"`
	Seal            string     `json:"seal,omitempty"`
	Mode            string     `json:"mode"`
	SignerID        string     `json:"signer_id,omitempty"`
	SignedAt        *time.Time `json:"signed_at,omitempty"`
	ManualHash      string     `json:"manual_hash,omitempty"`
	ManualSignature string     `json:"manual_signature,omitempty"`
}

type RecordingActResponse struct {
	ID                string  `json:"id"`
	UID               string  `json:"uid"`
	Type              string  `json:"type"`
	Index             int     `json:"index"`
	Status            string  `json:"status"`
	LandRecordID      string  `json:"land_record_id"`
	ResourceID        string  `json:"resource_id"`
	RelatedResourceID *string `json:"related_resource_id,omitempty"`
	AmendmentOf       *string `json:"amendment_of,omitempty"`
	BookEntryID       *string `json:"book_entry_id,omitempty"`
	Notes             string  `json:"notes,omitempty"`
}

type BookEntryResponse struct {
	ID                string     `json:"id"`
	UID               string     `json:"uid"`
	BookID            string     `json:"book_id"`
	Number            int        `json:"number"`
	Status            string     `json:"status"`
	PresentationTime  time.Time  `json:"presentation_time"`
	AuthorizationTime *time.Time `json:"authorization_time,omitempty"`
}

type ResourceResponse struct {
	ID          string  `json:"id"`
	UID         string  `json:"uid"`
	Kind        string  `json:"kind"`
	Status      string  `json:"status"`
	Description string  `json:"description,omitempty"`
	PartitionOf *string `json:"partition_of,omitempty"`
	MergedInto  *string `json:"merged_into,omitempty"`
}

type BookResponse struct {
	ID             string     `json:"id"`
	UID            string     `json:"uid"`
	RecorderOffice string     `json:"recorder_office"`
	BookNumber     string     `json:"book_number"`
	Policy         string     `json:"policy"`
	Perpetual      bool       `json:"perpetual"`
	StartIndex     int        `json:"start_index"`
	ControlFrom    *time.Time `json:"control_from,omitempty"`
	ControlTo      *time.Time `json:"control_to,omitempty"`
}

// TractResponse lists a resource's acts in tract order.
type TractResponse struct {
	ResourceID string               `json:"resource_id"`
	Entries    []TractEntryResponse `json:"entries"`
}

type TractEntryResponse struct {
	RecordingAct   RecordingActResponse `json:"recording_act"`
	LandRecordUID  string               `json:"land_record_uid"`
	EffectiveTime  time.Time            `json:"effective_time"`
	LandRecordOpen bool                 `json:"land_record_open"`
}

func optional[T interface{ String() string }](v *T) *string {
	if v == nil {
		return nil
	}
	s := (*v).String()
	return &s
}

func FromLandRecordState(state *models.LandRecordState) LandRecordResponse {
	lr := state.LandRecord
	resp := LandRecordResponse{
		ID:                lr.ID.String(),
		UID:               lr.UID,
		TransactionID:     lr.TransactionID.String(),
		TransactionUID:    lr.TransactionUID,
		InstrumentKind:    lr.Instrument.Kind,
		InstrumentNumber:  lr.Instrument.Number,
		InstrumentIssuer:  lr.Instrument.Issuer,
		Status:            string(lr.Status),
		PresentationTime:  lr.PresentationTime,
		AuthorizationTime: lr.AuthorizationTime,
		RecordingActs:     make([]RecordingActResponse, 0, len(state.Acts)),
		BookEntries:       make([]BookEntryResponse, 0, len(state.BookEntries)),
	}
	if lr.Security.Digest != "" {
		resp.Security = &SecurityResponse{
			Digest:          lr.Security.Digest,
			Seal:            lr.Security.Seal,
			Mode:            string(lr.Security.Mode),
			SignerID:        lr.Security.SignerID,
			SignedAt:        lr.Security.SignedAt,
			ManualHash:      lr.Security.ManualHash,
			ManualSignature: lr.Security.ManualSignature,
		}
	}
	for _, act := range state.Acts {
		resp.RecordingActs = append(resp.RecordingActs, FromRecordingAct(act))
	}
	for _, entry := range state.BookEntries {
		resp.BookEntries = append(resp.BookEntries, BookEntryResponse{
			ID:                entry.ID.String(),
			UID:               entry.UID,
			BookID:            entry.BookID.String(),
			Number:            entry.Number,
			Status:            string(entry.Status),
			PresentationTime:  entry.PresentationTime,
			AuthorizationTime: entry.AuthorizationTime,
		})
	}
	return resp
}

func FromRecordingAct(act *models.RecordingAct) RecordingActResponse {
	return RecordingActResponse{
		ID:                act.ID.String(),
		UID:               act.UID,
		Type:              act.Type,
		Index:             act.Index,
		Status:            string(act.Status),
		LandRecordID:      act.LandRecordID.String(),
		ResourceID:        act.ResourceID.String(),
		RelatedResourceID: optional(act.RelatedResourceID),
		AmendmentOf:       optional(act.AmendmentOf),
		BookEntryID:       optional(act.BookEntryID),
		Notes:             act.Notes,
	}
}

func FromResource(r *models.Resource) ResourceResponse {
	return ResourceResponse{
		ID:          r.ID.String(),
		UID:         r.UID,
		Kind:        string(r.Kind),
		Status:      string(r.Status),
		Description: r.Description,
		PartitionOf: optional(r.PartitionOf),
		MergedInto:  optional(r.MergedInto),
	}
}

func FromBook(b *models.RecordingBook) BookResponse {
	return BookResponse{
		ID:             b.ID.String(),
		UID:            b.UID,
		RecorderOffice: b.RecorderOffice,
		BookNumber:     b.BookNumber,
		Policy:         string(b.Policy),
		Perpetual:      b.Perpetual,
		StartIndex:     b.StartIndex,
		ControlFrom:    b.ControlFrom,
		ControlTo:      b.ControlTo,
	}
}

func FromTract(resourceID id.ResourceID, entries []tract.Entry) TractResponse {
	resp := TractResponse{
		ResourceID: resourceID.String(),
		Entries:    make([]TractEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, TractEntryResponse{
			RecordingAct:   FromRecordingAct(e.Act),
			LandRecordUID:  e.LandRecord.UID,
			EffectiveTime:  e.LandRecord.EffectiveTime(),
			LandRecordOpen: e.LandRecord.IsOpen(),
		})
	}
	return resp
}
