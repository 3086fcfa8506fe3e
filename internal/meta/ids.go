package meta

import (
	"github.com/google/uuid"
)

// Namespaces for name-derived identifiers. A name always maps to the same
// ID, so re-registering metadata overwrites instead of duplicating.
var (
	NamespaceRelationship = uuid.NewSHA1(uuid.NameSpaceURL, []byte("crmsetup/relationship/v1"))
	NamespaceScheduler    = uuid.NewSHA1(uuid.NameSpaceURL, []byte("crmsetup/scheduler/v1"))
)

// RelationshipID returns the stable metadata row ID for a relationship name.
func RelationshipID(name string) string {
	return uuid.NewSHA1(NamespaceRelationship, []byte(name)).String()
}

// SchedulerID returns the stable row ID for a built-in scheduler job.
func SchedulerID(job string) string {
	return uuid.NewSHA1(NamespaceScheduler, []byte(job)).String()
}
