package store

// Attribute names of the table's primary key and index projections.
// Repositories set the index attributes on items that participate in a
// secondary access pattern.
const (
	AttrPK       = "pk"
	AttrSK       = "sk"
	AttrActorPK  = "gsi1pk"
	AttrActorSK  = "gsi1sk"
	AttrStatusPK = "gsi2pk"
	AttrStatusSK = "gsi2sk"
)

// Config holds configuration for the Store.
type Config struct {
	// TableName is the marketplace table.
	// Default: "hirewire_marketplace"
	TableName string

	// ByActorIndex is the GSI keyed by user/job reference, serving the
	// bids-by-contractor, conversations-by-participant, and
	// conversation-by-job access patterns.
	// Default: "gsi1"
	ByActorIndex string

	// ByStatusIndex is the GSI keyed by status, serving jobs-by-status.
	// Default: "gsi2"
	ByStatusIndex string
}

// DefaultConfig returns the table and index names used in every
// environment unless overridden.
func DefaultConfig() Config {
	return Config{
		TableName:     "hirewire_marketplace",
		ByActorIndex:  "gsi1",
		ByStatusIndex: "gsi2",
	}
}

// validate ensures config values are usable, filling in defaults.
func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = "hirewire_marketplace"
	}
	if c.ByActorIndex == "" {
		c.ByActorIndex = "gsi1"
	}
	if c.ByStatusIndex == "" {
		c.ByStatusIndex = "gsi2"
	}
}
