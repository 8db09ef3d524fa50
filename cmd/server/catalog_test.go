package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCatalogCommand(t *testing.T) {
	t.Run("json lists act types and transitions", func(t *testing.T) {
		out, err := runCLI(t, "catalog", "--format", "json")
		require.NoError(t, err)

		var doc struct {
			ActTypes []struct {
				Name string `json:"name"`
			} `json:"act_types"`
			Transitions []transitionView `json:"transitions"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		assert.NotEmpty(t, doc.ActTypes)
		assert.NotEmpty(t, doc.Transitions)
	})

	t.Run("text has both tables", func(t *testing.T) {
		out, err := runCLI(t, "catalog")
		require.NoError(t, err)
		assert.Contains(t, out, "ACT TYPE")
		assert.Contains(t, out, "FROM")
		assert.Contains(t, out, "domain_transfer")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := runCLI(t, "catalog", "--format", "yaml")
		assert.ErrorContains(t, err, "invalid format")
	})
}

func TestMigrateRequiresDatabase(t *testing.T) {
	t.Setenv("LANDREC_DATABASE_URL", "")
	_, err := runCLI(t, "migrate")
	assert.ErrorContains(t, err, "database.url is required")
}

func TestAuditConsumeRequiresBackends(t *testing.T) {
	t.Run("database", func(t *testing.T) {
		t.Setenv("LANDREC_DATABASE_URL", "")
		_, err := runCLI(t, "audit-consume")
		assert.ErrorContains(t, err, "database.url is required")
	})

	t.Run("brokers", func(t *testing.T) {
		t.Setenv("LANDREC_DATABASE_URL", "postgres://localhost:5432/landrec")
		t.Setenv("LANDREC_KAFKA_BROKERS", "")
		_, err := runCLI(t, "audit-consume")
		assert.ErrorContains(t, err, "kafka.brokers is required")
	})
}
