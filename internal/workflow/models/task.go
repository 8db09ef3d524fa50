package models

import (
	"time"

	id "landrec/pkg/domain"
)

// Task is one stay of a transaction in a status. A task is open until the
// next command checks it out.
type Task struct {
	ID            id.TaskID
	TransactionID id.TransactionID
	Status        Status
	// NextStatus is filled when the task is checked out.
	NextStatus Status
	AssigneeID *id.UserID
	Command    CommandType
	Notes      string
	CreatedBy  id.UserID
	CheckIn    time.Time
	CheckOut   *time.Time
}

func NewTask(taskID id.TaskID, transaction *Transaction, command CommandType, notes string, createdBy id.UserID, now time.Time) *Task {
	task := &Task{
		ID:            taskID,
		TransactionID: transaction.ID,
		Status:        transaction.Status,
		Command:       command,
		Notes:         notes,
		CreatedBy:     createdBy,
		CheckIn:       now,
	}
	if transaction.AssigneeID != nil {
		a := *transaction.AssigneeID
		task.AssigneeID = &a
	}
	return task
}

func (t *Task) IsOpen() bool {
	return t.CheckOut == nil
}

// ApplyCheckOut closes the task as the transaction leaves for next.
func (t *Task) ApplyCheckOut(next Status, now time.Time) {
	t.NextStatus = next
	out := now
	t.CheckOut = &out
}
