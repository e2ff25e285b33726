// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package uuid generates the time-ordered (version 7) identifiers given to
// accounts, refresh sessions, download links and table of contents
// entries. Catalog authors and books keep their human-readable ids.
package uuid

import "github.com/google/uuid"

// New returns a new UUIDv7 string. It panics when the system entropy source
// fails.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}
