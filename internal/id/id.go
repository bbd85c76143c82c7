// Package id generates record identifiers for ledger entries.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Lowercase alphanumerics only, so IDs survive case-folding spreadsheets.
const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	size     = 16
)

// Generate returns a new ID of the form "prefix-xxxxxxxxxxxxxxxx".
func Generate(prefix string) (string, error) {
	suffix, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return prefix + "-" + suffix, nil
}

// MustGenerate panics when the system entropy source fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
