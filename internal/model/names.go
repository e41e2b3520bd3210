package model

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// NameKey is the merge key used when folding invoice lines into inventory:
// names that differ only in letter case or in surrounding/repeated whitespace
// share a key.
func NameKey(name string) string {
	folded := cases.Fold().String(name)
	return strings.Join(strings.Fields(folded), " ")
}

// FormatQuantity renders a quantity without trailing zeros ("10", "2.5").
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
