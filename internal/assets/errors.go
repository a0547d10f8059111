package assets

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidTransition marks a status change outside the transition table.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotEligible marks a stage write whose preconditions no longer hold.
	ErrNotEligible = errors.New("asset not eligible")
	// ErrNotFound marks a lookup for an unknown asset.
	ErrNotFound = errors.New("asset not found")
	// ErrAmbiguousPrefix marks an id prefix matching more than one asset.
	ErrAmbiguousPrefix = errors.New("ambiguous asset id prefix")
	// ErrRecordWrite marks a failed store transaction; nothing was applied.
	ErrRecordWrite = errors.New("record write failed")
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)

func isDomainError(err error) bool {
	return errors.IsAny(err, ErrInvalidTransition, ErrNotEligible, ErrNotFound, ErrAmbiguousPrefix)
}
