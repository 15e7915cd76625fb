package model

import "strings"

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

// FoldText lowercases s, folds common Spanish accents and collapses runs of
// whitespace into single spaces. Text conditions compare folded text on both
// sides.
func FoldText(s string) string {
	s = accentFolder.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}
