package maldoc

import "errors"

var (
	// ErrInvalidVersion is returned when a PDF version token does not
	// match "major.minor" with major 1 or 2.
	ErrInvalidVersion = errors.New("invalid PDF version")

	// ErrInvalidPosition is returned for non-finite text coordinates or
	// a negative baseline.
	ErrInvalidPosition = errors.New("invalid text position")

	// ErrInvalidRect is returned for a malformed annotation rectangle.
	ErrInvalidRect = errors.New("invalid annotation rectangle")

	// ErrMissingCatalog is returned at assembly time when the file has
	// no catalog to reference as the document root.
	ErrMissingCatalog = errors.New("document has no catalog")

	// ErrCatalogExists is returned when a second catalog is requested
	// for the same file.
	ErrCatalogExists = errors.New("catalog already exists")
)
