package config

import "fmt"

// NewKeyPolicy decides what happens when a document introduces a payload
// key that does not exist in its folded parents. The zero value is
// PolicyWarn, the default when __new_key_policy__ is absent.
type NewKeyPolicy int

const (
	// PolicyWarn adds the key and emits a diagnostic.
	PolicyWarn NewKeyPolicy = iota
	// PolicyRaise aborts the merge with a NewKeyError.
	PolicyRaise
	// PolicyPass adds the key silently.
	PolicyPass
)

// ParseNewKeyPolicy maps a __new_key_policy__ value to its policy. Any
// value outside the three-element enum is a SchemaError.
func ParseNewKeyPolicy(s, docPath string) (NewKeyPolicy, error) {
	switch s {
	case "warn":
		return PolicyWarn, nil
	case "raise":
		return PolicyRaise, nil
	case "pass":
		return PolicyPass, nil
	default:
		return PolicyWarn, &SchemaError{
			Path:   docPath,
			Key:    KeyNewKeyPolicy,
			Reason: fmt.Sprintf("must be one of raise, warn, pass; got %q", s),
		}
	}
}

// String returns the enum's document spelling.
func (p NewKeyPolicy) String() string {
	switch p {
	case PolicyRaise:
		return "raise"
	case PolicyPass:
		return "pass"
	default:
		return "warn"
	}
}
