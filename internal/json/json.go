// Package json provides the JSON codec shared by every wire format in sgrsearch.
package json

import jsoniter "github.com/json-iterator/go"

// RawMessage is a raw encoded JSON value whose decoding is deferred.
type RawMessage = jsoniter.RawMessage

var (
	// JSON is the jsoniter configuration used throughout the codebase.
	JSON = jsoniter.ConfigCompatibleWithStandardLibrary

	// Marshal is a shorthand for JSON.Marshal
	Marshal = JSON.Marshal

	// Unmarshal is a shorthand for JSON.Unmarshal
	Unmarshal = JSON.Unmarshal

	// Valid is a shorthand for JSON.Valid
	Valid = JSON.Valid

	// NewDecoder is a shorthand for JSON.NewDecoder
	NewDecoder = JSON.NewDecoder

	// NewEncoder is a shorthand for JSON.NewEncoder
	NewEncoder = JSON.NewEncoder
)
