// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID generates a unique ID with a prefix, e.g. "thread_3a0f…".
func NewID(prefix string) string {
	b := make([]byte, 16)
	rand.Read(b)
	return prefix + hex.EncodeToString(b)
}
