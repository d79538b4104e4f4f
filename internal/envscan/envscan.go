// Package envscan takes an ordered snapshot of the process environment and
// separates secret references from pass-through entries. Scanning is pure:
// callers hand in the entry list, so tests never touch real process state.
package envscan

import (
	"os"
	"strings"

	"github.com/systmms/secretsinit/internal/reference"
)

// Variables that point at an SSM parameter holding a JSON manifest of
// additional references. Matched exactly, before prefix matching, so a
// configured prefix that happens to cover these names (the default does
// not) can never misread a pointer as a direct reference.
const (
	ParameterARNVar  = "SECRETS_PARAMETER_ARN"
	ParameterNameVar = "SECRETS_PARAMETER_NAME"
)

// Entry is one (name, raw value) pair from the environment. Immutable once
// read.
type Entry struct {
	Name  string
	Value string
}

// Parse splits "NAME=value" strings into entries, preserving order. Malformed
// items (no '=') are skipped, matching what os/exec would do with them.
func Parse(environ []string) []Entry {
	entries := make([]Entry, 0, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		entries = append(entries, Entry{Name: name, Value: value})
	}
	return entries
}

// System snapshots the current process environment.
func System() []Entry {
	return Parse(os.Environ())
}

// Result is what one scan pass discovers.
type Result struct {
	// References declared directly as prefixed variables, in environment order.
	References []reference.Reference

	// ParameterARN and ParameterName point at an optional SSM manifest.
	ParameterARN  string
	ParameterName string
}

// Scan classifies every entry. The first malformed reference aborts the scan;
// a deployment with a broken reference must not launch.
func Scan(entries []Entry, prefix string) (Result, error) {
	var result Result
	for _, entry := range entries {
		switch entry.Name {
		case ParameterARNVar:
			result.ParameterARN = entry.Value
			continue
		case ParameterNameVar:
			result.ParameterName = entry.Value
			continue
		}

		ref, ok, err := reference.FromEntry(entry.Name, entry.Value, prefix)
		if err != nil {
			return Result{}, err
		}
		if ok {
			result.References = append(result.References, ref)
		}
	}
	return result, nil
}
