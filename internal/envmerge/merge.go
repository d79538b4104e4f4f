// Package envmerge assembles the child process environment: original
// entries pass through, raw reference entries are dropped (unless kept by
// configuration), and resolved values win every name collision.
package envmerge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/systmms/secretsinit/internal/envscan"
	"github.com/systmms/secretsinit/internal/resolve"
)

// Merge builds the final "NAME=value" slice. Resolved secrets are revealed
// here into the result; the sealed buffers themselves stay intact for the
// caller to destroy. Output is sorted for stable, debuggable exec traces.
func Merge(entries []envscan.Entry, resolved map[string]resolve.ResolvedSecret, prefix string, keepReferences bool) ([]string, error) {
	merged := make(map[string]string, len(entries)+len(resolved))

	for _, entry := range entries {
		if !keepReferences && strings.HasPrefix(entry.Name, prefix) {
			// Skip the raw reference. The default prefix does not cover
			// the pointer names, but a custom prefix can; a pointer must
			// survive either way.
			if entry.Name != envscan.ParameterARNVar && entry.Name != envscan.ParameterNameVar {
				continue
			}
		}
		merged[entry.Name] = entry.Value
	}

	for name, rs := range resolved {
		value, err := rs.Value.Reveal()
		if err != nil {
			return nil, fmt.Errorf("failed to open resolved value for %s: %w", name, err)
		}
		merged[name] = value
	}

	result := make([]string, 0, len(merged))
	for name, value := range merged {
		result = append(result, name+"="+value)
	}
	sort.Strings(result)
	return result, nil
}
