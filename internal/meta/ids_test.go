package meta

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationshipID_Stable(t *testing.T) {
	a := RelationshipID("accounts_contacts")
	b := RelationshipID("accounts_contacts")
	assert.Equal(t, a, b)
	assert.Len(t, a, 36)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestRelationshipID_DistinctNames(t *testing.T) {
	assert.NotEqual(t, RelationshipID("accounts_contacts"), RelationshipID("accounts_bugs"))
}

func TestSchedulerID_DifferentNamespace(t *testing.T) {
	// Same input in different namespaces must not collide.
	assert.NotEqual(t, RelationshipID("function::trimTracker"), SchedulerID("function::trimTracker"))
	assert.Equal(t, SchedulerID("function::trimTracker"), SchedulerID("function::trimTracker"))
}
