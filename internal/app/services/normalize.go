package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizeDiacritics удаляет комбинирующие диакритические знаки
// Пример: München → Munchen, Société → Societe
func normalizeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// normalizeName folds diacritics, ß and whitespace so that names typed in a
// spreadsheet compare fairly against registry legal names.
func normalizeName(s string) string {
	s = normalizeDiacritics(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "ß", "ss")
	return strings.Join(strings.Fields(s), " ")
}
