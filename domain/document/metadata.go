package document

import "fmt"

// Metadata is an optional mapping of string keys to scalar values attached
// to a document. Only a closed set of scalar kinds is accepted: string,
// bool, int, int64, and float64. Validation happens at the store boundary
// rather than deep in the persistence layer.
type Metadata map[string]any

// Validate checks that every value is one of the accepted scalar kinds.
func (m Metadata) Validate() error {
	for key, value := range m {
		switch value.(type) {
		case string, bool, int, int64, float64:
		default:
			return fmt.Errorf("%w: metadata key %q has unsupported value type %T", ErrInvalidArgument, key, value)
		}
	}
	return nil
}

// Clone returns a copy of the metadata. A nil map clones to an empty map so
// stored documents always carry a non-nil metadata projection.
func (m Metadata) Clone() Metadata {
	result := make(Metadata, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

// IsEmpty reports whether the metadata carries no keys.
func (m Metadata) IsEmpty() bool { return len(m) == 0 }
