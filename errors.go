package adblock

import "github.com/AdguardTeam/golibs/errors"

const (
	// ErrSerialization is returned when the engine cannot be serialized.
	ErrSerialization errors.Error = "serialization failed"

	// ErrDeserialization is returned when a serialized engine cannot be
	// loaded.  The engine the data were loaded into stays unchanged.
	ErrDeserialization errors.Error = "deserialization failed"

	// ErrOptimizedFilterExistence is returned when a rule is added to an
	// optimized engine, which does not keep track of individual rules.
	ErrOptimizedFilterExistence errors.Error = "cannot check the existence of a rule in an optimized engine"

	// ErrBadFilterAddUnsupported is returned when a $badfilter rule is added
	// to a compiled engine.
	ErrBadFilterAddUnsupported errors.Error = "adding $badfilter rules to a compiled engine is not supported"

	// ErrFilterExists is returned when a rule that is already in the engine
	// is added again.
	ErrFilterExists errors.Error = "rule already exists"
)
