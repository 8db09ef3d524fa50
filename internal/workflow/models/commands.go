package models

import (
	"strings"

	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
)

// CommandType names a workflow command.
type CommandType string

const (
	CommandSetNextStatus     CommandType = "SetNextStatus"
	CommandAssignTo          CommandType = "AssignTo"
	CommandPullToControlDesk CommandType = "PullToControlDesk"
	CommandReturnToMe        CommandType = "ReturnToMe"
	CommandSign              CommandType = "Sign"
	CommandUnsign            CommandType = "Unsign"
	CommandReceive           CommandType = "Receive"
	CommandReentry           CommandType = "Reentry"
	// CommandCreate marks the first task of a transaction. It cannot be sent.
	CommandCreate CommandType = "Create"
)

func (c CommandType) IsValid() bool {
	switch c {
	case CommandSetNextStatus, CommandAssignTo, CommandPullToControlDesk, CommandReturnToMe,
		CommandSign, CommandUnsign, CommandReceive, CommandReentry:
		return true
	}
	return false
}

// Command is a workflow command as sent by an operator.
type Command struct {
	Type       CommandType
	NextStatus Status
	AssigneeID *id.UserID
	Notes      string
	// ManualHash and ManualSignature seal the land record on Sign when the
	// office signs by hand.
	ManualHash      string
	ManualSignature string
}

// Validate checks command shape. Reachability and permissions are checked
// against the rules table by the engine.
func (c *Command) Validate() error {
	if !c.Type.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown workflow command").
			WithDetail("command", string(c.Type))
	}
	c.Notes = strings.TrimSpace(c.Notes)
	switch c.Type {
	case CommandSetNextStatus:
		if c.NextStatus == "" {
			return dErrors.New(dErrors.CodeUndefinedNextStatus, "next status is required").
				WithDetail("command", string(c.Type))
		}
	case CommandAssignTo:
		if c.AssigneeID == nil || c.AssigneeID.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "assignee is required").
				WithDetail("command", string(c.Type))
		}
	}
	if c.NextStatus != "" && !c.NextStatus.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown transaction status").
			WithDetail("status", string(c.NextStatus))
	}
	return nil
}

// CreateTransactionCommand opens a new filing.
type CreateTransactionCommand struct {
	Requester      string
	RecorderOffice string
	Document       Document
}
