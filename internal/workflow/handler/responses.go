package handler

import (
	"time"

	"landrec/internal/workflow/models"
	id "landrec/pkg/domain"
)

type TransactionResponse struct {
	ID               string     `json:"id"`
	UID              string     `json:"uid"`
	Requester        string     `json:"requester"`
	RecorderOffice   string     `json:"recorder_office"`
	DocumentKind     string     `json:"document_kind"`
	DocumentNumber   string     `json:"document_number,omitempty"`
	Status           string     `json:"status"`
	AssigneeID       *string    `json:"assignee_id,omitempty"`
	PresentationTime *time.Time `json:"presentation_time,omitempty"`
	ClosingTime      *time.Time `json:"closing_time,omitempty"`
	DeliveryTime     *time.Time `json:"delivery_time,omitempty"`
	ReturnTime       *time.Time `json:"return_time,omitempty"`
	ReentryCount     int        `json:"reentry_count"`
	CreatedAt        time.Time  `json:"created_at"`
}

type TaskResponse struct {
	ID            string     `json:"id"`
	TransactionID string     `json:"transaction_id"`
	Status        string     `json:"status"`
	NextStatus    string     `json:"next_status,omitempty"`
	AssigneeID    *string    `json:"assignee_id,omitempty"`
	Command       string     `json:"command"`
	Notes         string     `json:"notes,omitempty"`
	CreatedBy     string     `json:"created_by"`
	CheckIn       time.Time  `json:"check_in"`
	CheckOut      *time.Time `json:"check_out,omitempty"`
}

// TasksResponse is returned by the batch workflow endpoint, one task per
// transaction in request order.
type TasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

type HistoryResponse struct {
	TransactionUID string         `json:"transaction_uid"`
	Tasks          []TaskResponse `json:"tasks"`
}

type NextStatusesResponse struct {
	Status string   `json:"status"`
	Next   []string `json:"next"`
}

func userRef(u *id.UserID) *string {
	if u == nil {
		return nil
	}
	s := u.String()
	return &s
}

func FromTransaction(tr *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:               tr.ID.String(),
		UID:              tr.UID,
		Requester:        tr.Requester,
		RecorderOffice:   tr.RecorderOffice,
		DocumentKind:     tr.Document.Kind,
		DocumentNumber:   tr.Document.Number,
		Status:           string(tr.Status),
		AssigneeID:       userRef(tr.AssigneeID),
		PresentationTime: tr.PresentationTime,
		ClosingTime:      tr.ClosingTime,
		DeliveryTime:     tr.DeliveryTime,
		ReturnTime:       tr.ReturnTime,
		ReentryCount:     tr.ReentryCount,
		CreatedAt:        tr.CreatedAt,
	}
}

func FromTask(t *models.Task) TaskResponse {
	return TaskResponse{
		ID:            t.ID.String(),
		TransactionID: t.TransactionID.String(),
		Status:        string(t.Status),
		NextStatus:    string(t.NextStatus),
		AssigneeID:    userRef(t.AssigneeID),
		Command:       string(t.Command),
		Notes:         t.Notes,
		CreatedBy:     t.CreatedBy.String(),
		CheckIn:       t.CheckIn,
		CheckOut:      t.CheckOut,
	}
}

func FromTasks(tasks []*models.Task) TasksResponse {
	resp := TasksResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, FromTask(t))
	}
	return resp
}
