package books

import (
	"strings"
	"unicode"
)

// accentFolder maps the accented Latin letters used by French, Italian,
// Spanish, German and Portuguese abbreviations to their base letters. It is
// applied after lowercasing.
var accentFolder = strings.NewReplacer(
	"à", "a", "á", "a", "â", "a", "ã", "a", "ä", "a", "å", "a",
	"è", "e", "é", "e", "ê", "e", "ë", "e",
	"ì", "i", "í", "i", "î", "i", "ï", "i",
	"ò", "o", "ó", "o", "ô", "o", "õ", "o", "ö", "o",
	"ù", "u", "ú", "u", "û", "u", "ü", "u",
	"ç", "c",
)

// DeriveBookKey turns a raw book abbreviation into the slug used as the
// internal book key of a corpus: lowercase, accents folded, every run of
// non-alphanumeric characters replaced by one hyphen, no leading or trailing
// hyphen. "Gen" -> "gen", "1 Cor" -> "1-cor", "Genèse" -> "genese",
// "1.Mo" -> "1-mo".
//
// Letters of non-Latin scripts count as alphanumeric and are kept, so Greek
// and Hebrew abbreviations produce non-empty keys; combining marks left over
// after folding are dropped rather than treated as separators.
func DeriveBookKey(bookAbbrev string) string {
	folded := accentFolder.Replace(strings.ToLower(bookAbbrev))

	var sb strings.Builder
	sb.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
		case unicode.Is(unicode.Mn, r):
			// dropped
		default:
			pendingHyphen = true
		}
	}

	return sb.String()
}

// compactKey strips hyphens so "1-cor" and "1cor" resolve alike.
func compactKey(key string) string {
	return strings.ReplaceAll(key, "-", "")
}
