package taskguard

import "github.com/yaseralshikh/taskguard/id"

// ID is the primary identifier type for all taskguard entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
