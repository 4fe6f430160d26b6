package main

import (
	"errors"
	"fmt"

	"github.com/newfla/presquile"
)

// formatError prefixes pipeline failures with their kind so scripts can
// match on it. Batch summaries carry several kinds and stay unprefixed.
func formatError(err error) string {
	var batch *batchError
	if errors.As(err, &batch) {
		return fmt.Sprintf("error: %v", err)
	}
	switch kind := presquile.KindOf(err); kind {
	case "", "Unknown":
		return fmt.Sprintf("error: %v", err)
	default:
		return fmt.Sprintf("error [%s]: %v", kind, err)
	}
}
