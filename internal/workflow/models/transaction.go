package models

import (
	"strings"
	"time"

	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
)

// Document describes the instrument brought to the office.
type Document struct {
	Kind        string
	Number      string
	Description string
}

// Transaction is an office filing moving through the workflow. It owns at
// most one land record, looked up through the registration side.
type Transaction struct {
	ID             id.TransactionID
	UID            string
	Requester      string
	RecorderOffice string
	Document       Document
	Status         Status
	AssigneeID     *id.UserID

	PresentationTime *time.Time
	ClosingTime      *time.Time
	DeliveryTime     *time.Time
	ReturnTime       *time.Time
	ReentryCount     int
	LastReentryTime  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTransaction returns a transaction waiting for payment.
func NewTransaction(transactionID id.TransactionID, requester, office string, doc Document, now time.Time) (*Transaction, error) {
	requester = strings.TrimSpace(requester)
	office = strings.TrimSpace(office)
	if requester == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "requester is required")
	}
	if office == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "recorder office is required")
	}
	return &Transaction{
		ID:             transactionID,
		UID:            id.NewUID(id.UIDPrefixTransaction),
		Requester:      requester,
		RecorderOffice: office,
		Document:       doc,
		Status:         InitialStatus,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsAssignedTo reports whether userID holds the transaction.
func (t *Transaction) IsAssignedTo(userID id.UserID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// ApplyStatus moves the transaction and stamps the timestamps tied to the
// target status.
func (t *Transaction) ApplyStatus(to Status, now time.Time) {
	stamp := now
	switch to {
	case StatusReceived:
		if t.PresentationTime == nil {
			t.PresentationTime = &stamp
		}
	case StatusDelivered:
		t.DeliveryTime = &stamp
	case StatusReturned:
		t.ReturnTime = &stamp
	case StatusReentry:
		t.ReentryCount++
		t.LastReentryTime = &stamp
	}
	if to.IsTerminal() && t.ClosingTime == nil {
		t.ClosingTime = &stamp
	}
	t.Status = to
	t.UpdatedAt = now
}

// ApplyAssignee replaces the current holder; nil leaves the transaction in the
// status queue.
func (t *Transaction) ApplyAssignee(assignee *id.UserID, now time.Time) {
	if assignee == nil {
		t.AssigneeID = nil
	} else {
		a := *assignee
		t.AssigneeID = &a
	}
	t.UpdatedAt = now
}
