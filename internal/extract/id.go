package extract

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// FallbackID derives a stable identifier from parts for an item whose
// source id could not be recovered.
func FallbackID(parts ...string) string {
	return fmt.Sprintf("anon-%016x", xxhash.Sum64String(strings.Join(parts, "\x00")))
}
