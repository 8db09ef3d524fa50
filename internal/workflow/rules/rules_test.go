package rules

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landrec/internal/workflow/models"
)

func TestDefaultTable(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	expected := map[models.Status][]models.Status{
		models.StatusPayment:        {models.StatusReceived, models.StatusDeleted},
		models.StatusReceived:       {models.StatusControl, models.StatusRecording, models.StatusElaboration, models.StatusJuridic, models.StatusDigitalization, models.StatusToReturn},
		models.StatusReentry:        {models.StatusControl, models.StatusRecording, models.StatusElaboration, models.StatusJuridic, models.StatusToReturn},
		models.StatusControl:        {models.StatusRecording, models.StatusElaboration, models.StatusRevision, models.StatusJuridic, models.StatusProcess, models.StatusOnSign, models.StatusDigitalization, models.StatusToDeliver, models.StatusToReturn},
		models.StatusRecording:      {models.StatusControl, models.StatusRevision, models.StatusJuridic, models.StatusToReturn},
		models.StatusElaboration:    {models.StatusControl, models.StatusRevision, models.StatusJuridic, models.StatusToReturn},
		models.StatusJuridic:        {models.StatusControl, models.StatusRecording, models.StatusElaboration, models.StatusRevision, models.StatusToReturn},
		models.StatusProcess:        {models.StatusControl, models.StatusRevision, models.StatusToReturn},
		models.StatusRevision:       {models.StatusControl, models.StatusRecording, models.StatusElaboration, models.StatusJuridic, models.StatusOnSign, models.StatusToReturn},
		models.StatusOnSign:         {models.StatusControl, models.StatusRevision, models.StatusDigitalization, models.StatusToDeliver},
		models.StatusDigitalization: {models.StatusControl, models.StatusToDeliver, models.StatusArchived},
		models.StatusToDeliver:      {models.StatusControl, models.StatusRevision, models.StatusDelivered},
		models.StatusToReturn:       {models.StatusControl, models.StatusReturned},
		models.StatusReturned:       {models.StatusReentry},
		models.StatusDelivered:      {models.StatusArchived},
	}

	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			_, ok := table.Lookup(from, to)
			assert.Equal(t, slices.Contains(expected[from], to), ok, "%s -> %s", from, to)
		}
	}

	assert.Empty(t, table.Next(models.StatusDeleted))
	assert.Empty(t, table.Next(models.StatusArchived))
}

func TestTransitionPermits(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	tr, ok := table.Lookup(models.StatusRevision, models.StatusOnSign)
	require.True(t, ok)
	assert.True(t, tr.RequiresAssignee)
	assert.True(t, tr.Permits([]string{RoleLegal}))
	assert.True(t, tr.Permits([]string{RoleSupervisor}))
	assert.False(t, tr.Permits([]string{RoleClerk, RoleSigner}))
	assert.False(t, tr.Permits(nil))
}

func TestParseRejectsBadTables(t *testing.T) {
	tests := map[string]string{
		"empty":          `rules: []`,
		"unknown status": "rules:\n  - from: Limbo\n    to: [Control]\n    roles: [clerk]\n",
		"unknown target": "rules:\n  - from: Control\n    to: [Limbo]\n    roles: [clerk]\n",
		"unknown role":   "rules:\n  - from: Control\n    to: [Revision]\n    roles: [janitor]\n",
		"no roles":       "rules:\n  - from: Control\n    to: [Revision]\n",
		"loop":           "rules:\n  - from: Control\n    to: [Control]\n    roles: [clerk]\n",
		"duplicate":      "rules:\n  - from: Control\n    to: [Revision]\n    roles: [clerk]\n  - from: Control\n    to: [Revision]\n    roles: [legal]\n",
		"leaves deleted": "rules:\n  - from: Deleted\n    to: [Payment]\n    roles: [clerk]\n",
		"not yaml":       "rules: [",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

