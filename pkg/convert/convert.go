// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package convert parses optional query parameters leniently: a malformed
// value reads as the default. Range checks happen in the handlers.
package convert

import (
	"strconv"
	"strings"
)

// ToIntD parses str as an int, or returns def.
func ToIntD(str string, def int) int {
	str = strings.TrimSpace(str)
	if str == "" {
		return def
	}

	if v, err := strconv.Atoi(str); err == nil {
		return v
	}

	return def
}

// ToBool reads "true"/"1"/"t" as true and everything else as false.
func ToBool(s string) bool {
	if s == "" {
		return false
	}

	v, _ := strconv.ParseBool(strings.TrimSpace(s))
	return v
}
