package models

import (
	dErrors "landrec/pkg/domain-errors"
)

// Status is the workflow position of a transaction.
type Status string

const (
	StatusPayment        Status = "Payment"
	StatusReceived       Status = "Received"
	StatusReentry        Status = "Reentry"
	StatusControl        Status = "Control"
	StatusRecording      Status = "Recording"
	StatusElaboration    Status = "Elaboration"
	StatusRevision       Status = "Revision"
	StatusJuridic        Status = "Juridic"
	StatusProcess        Status = "Process"
	StatusOnSign         Status = "OnSign"
	StatusDigitalization Status = "Digitalization"
	StatusToDeliver      Status = "ToDeliver"
	StatusDelivered      Status = "Delivered"
	StatusToReturn       Status = "ToReturn"
	StatusReturned       Status = "Returned"
	StatusDeleted        Status = "Deleted"
	StatusArchived       Status = "Archived"
)

// AllStatuses lists every status in intake-to-archive order.
var AllStatuses = []Status{
	StatusPayment, StatusReceived, StatusReentry, StatusControl, StatusRecording,
	StatusElaboration, StatusRevision, StatusJuridic, StatusProcess, StatusOnSign,
	StatusDigitalization, StatusToDeliver, StatusDelivered, StatusToReturn,
	StatusReturned, StatusDeleted, StatusArchived,
}

// InitialStatus is where every new transaction starts.
const InitialStatus = StatusPayment

func (s Status) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether processing has finished.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusArchived, StatusDeleted:
		return true
	}
	return false
}

// IsRegistrable reports whether a land record may be created and edited
// while the transaction sits in this status.
func (s Status) IsRegistrable() bool {
	switch s {
	case StatusReceived, StatusReentry, StatusControl, StatusRecording,
		StatusElaboration, StatusJuridic, StatusProcess, StatusRevision:
		return true
	}
	return false
}

// RequiresClosableRecord marks statuses whose land record must pass close
// validation before the transaction may enter.
func (s Status) RequiresClosableRecord() bool {
	return s == StatusOnSign
}

// RequiresSealedRecord marks statuses whose land record must already be sealed.
func (s Status) RequiresSealedRecord() bool {
	switch s {
	case StatusDigitalization, StatusToDeliver, StatusDelivered, StatusArchived:
		return true
	}
	return false
}

// ParseStatus validates a status name.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown transaction status").
			WithDetail("status", raw)
	}
	return s, nil
}
