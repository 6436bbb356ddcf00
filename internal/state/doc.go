// Package state provides filesystem-backed storage implementations.
package state

import "github.com/user/crowquill/internal/types"

// Compile-time interface compliance checks.
var _ types.DedupStore = (*FileDedupStore)(nil)
var _ types.StyleStore = (*FileStyleStore)(nil)
