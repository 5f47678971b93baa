package config

import "git.home.luguber.info/inful/nbdocs/internal/foundation/normalization"

// FailurePolicy decides what happens when an external command fails.
type FailurePolicy string

const (
	// FailurePolicyIgnore records the failure as a warning and keeps going.
	FailurePolicyIgnore FailurePolicy = "ignore"
	// FailurePolicyStrict aborts the build on the first failed command.
	FailurePolicyStrict FailurePolicy = "strict"
)

var failurePolicyNormalizer = normalization.NewNormalizer(map[string]FailurePolicy{
	"ignore": FailurePolicyIgnore,
	"strict": FailurePolicyStrict,
}, FailurePolicyIgnore)

// IsStrict reports whether command failures abort the build.
func (p FailurePolicy) IsStrict() bool {
	return p == FailurePolicyStrict
}
