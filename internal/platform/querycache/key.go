// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package querycache

import (
	"encoding/json"
	"fmt"
)

// Key identifies one cached read: an operation name plus its parameters.
//
// Two keys are equal when the operation and the JSON encoding of the
// parameters are equal, so parameters must be JSON-serializable values
// (strings, numbers, structs with json tags).
type Key struct {
	operation string
	encoded   string
}

// NewKey builds a key from an operation name and its parameters.
//
// NewKey panics if a parameter cannot be encoded; keys are built from
// static parameter types, so that is a programming error.
func NewKey(operation string, params ...any) Key {
	if params == nil {
		params = []any{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		panic(fmt.Sprintf("querycache: unencodable key parameters for %q: %v", operation, err))
	}
	return Key{operation: operation, encoded: string(encoded)}
}

// Operation returns the operation part of the key.
func (k Key) Operation() string {
	return k.operation
}

// String returns the storage form of the key: "operation:[params...]".
func (k Key) String() string {
	return k.operation + ":" + k.encoded
}

// Prefix returns the storage prefix shared by every key of operation.
func Prefix(operation string) string {
	return operation + ":"
}
