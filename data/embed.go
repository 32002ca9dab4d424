package data

import (
	_ "embed"
)

// FallbackStructure is served when book-structure.json cannot be fetched, so
// the reader always has one navigable chapter and section.
//
//go:embed fallback-structure.json
var FallbackStructure []byte
