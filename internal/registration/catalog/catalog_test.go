package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landrec/internal/registration/models"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	cancel, ok := c.Lookup("mortgage_cancellation")
	require.True(t, ok)
	assert.True(t, cancel.IsAmendment())
	assert.True(t, cancel.CanAmend("mortgage"))
	assert.False(t, cancel.CanAmend("easement"))

	partition, ok := c.Lookup("partition")
	require.True(t, ok)
	assert.True(t, partition.CreatesPartition)
	assert.True(t, partition.AppliesToKind(models.ResourceKindRealEstate))
	assert.False(t, partition.AppliesToKind(models.ResourceKindAssociation))

	_, ok = c.Lookup("nonexistent")
	assert.False(t, ok)

	all := c.All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty": `act_types: []`,
		"duplicate": `
act_types:
  - {name: a, applies_to: [real_estate]}
  - {name: a, applies_to: [real_estate]}`,
		"no kinds": `
act_types:
  - {name: a}`,
		"unknown kind": `
act_types:
  - {name: a, applies_to: [boat]}`,
		"unknown amendment target": `
act_types:
  - {name: a, applies_to: [real_estate], amends: [ghost]}`,
		"partition off real estate": `
act_types:
  - {name: a, applies_to: [association], creates_partition: true}`,
		"malformed": `act_types: {`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	_, ok := c.Lookup("domain_transfer")
	assert.True(t, ok)
}
