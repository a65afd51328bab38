package search

import "strings"

// Katakana block covered by the alternate-query heuristics: ァ (U+30A1)
// through ヶ (U+30F6), plus the prolonged sound mark ー (U+30FC).
const (
	katakanaLo     = 0x30A1
	katakanaHi     = 0x30F6
	prolongedSound = 0x30FC
	kanaFoldOffset = 0x60 // katakana → hiragana block shift
)

func isKatakana(r rune) bool {
	return (r >= katakanaLo && r <= katakanaHi) || r == prolongedSound
}

func isKatakanaOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isKatakana(r) {
			return false
		}
	}
	return true
}

// SplitKatakana inserts a space every 2-3 characters into a long unspaced
// katakana run, producing a query more likely to hit a search backend's
// token boundaries. The prolonged sound mark stays attached to the
// preceding character. Returns "" when the query contains non-katakana
// characters, already has a space, or is 4 runes or shorter.
func SplitKatakana(query string) string {
	if !isKatakanaOnly(query) {
		return ""
	}
	if strings.ContainsAny(query, " 　") {
		return ""
	}
	runes := []rune(query)
	if len(runes) <= 4 {
		return ""
	}

	var b strings.Builder
	chunk := 0
	for i, r := range runes {
		b.WriteRune(r)
		chunk++
		if r == prolongedSound {
			continue
		}
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		if chunk >= 2 && next != prolongedSound && i+1 < len(runes) {
			b.WriteRune(' ')
			chunk = 0
		}
	}
	return strings.TrimSpace(b.String())
}

// FoldKatakana converts a katakana string to its hiragana equivalent by the
// fixed codepoint offset. The prolonged sound mark has no hiragana
// counterpart and passes through unchanged.
func FoldKatakana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= katakanaLo && r <= katakanaHi {
			return r - kanaFoldOffset
		}
		return r
	}, s)
}

// DeriveAlternateQuery returns a second-chance query for names the search
// backend substring-matches poorly. Chunk-splitting is tried first; when it
// does not apply or changes nothing, the katakana run is folded to hiragana.
// Returns "" when neither strategy applies, in which case the caller must
// not retry.
func DeriveAlternateQuery(query string) string {
	if alt := SplitKatakana(query); alt != "" && alt != query {
		return alt
	}
	if isKatakanaOnly(query) && !strings.ContainsAny(query, " 　") && len([]rune(query)) > 4 {
		if alt := FoldKatakana(query); alt != query {
			return alt
		}
	}
	return ""
}
