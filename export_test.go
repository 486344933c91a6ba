package maldoc

// Marshal serializes a single object without cosmetic variation.
// Exported for testing.
var Marshal = marshalObject

// NewStream is exported for testing the default filter chain.
var NewStream = newStream
