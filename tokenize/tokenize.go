// Package tokenize implements the single tokenisation rule shared by index
// construction and query evaluation. The separator alphabet is defined once,
// here, and used by both code paths; drift between the two would silently
// degrade recall.
package tokenize

// separators is the fixed punctuation/whitespace alphabet that splits
// tokens. It is byte-level, not grapheme-level: any byte not in this set
// (including multi-byte UTF-8 sequences) passes through as part of a token
// verbatim. This mirrors the original tokeniser's separator string.
const separators = " \t\v\r\n\f:;,.[]{}()<>+-=*&^%$#@!~`´'\"|\\/?·“”_"

var isSep [256]bool

func init() {
	for _, b := range []byte(separators) {
		isSep[b] = true
	}
}

func isLetterOrDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Tokens splits text into lowercased tokens. A token is a maximal run of
// non-separator bytes whose first byte is ASCII alphanumeric; runs that
// start with anything else (punctuation that slipped past the separator set,
// or a non-ASCII leading byte) are dropped, mirroring the original
// `isalnum(word[0])` guard.
func Tokens(text string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(text); i++ {
		var sep bool
		if i == len(text) {
			sep = true
		} else {
			sep = isSep[text[i]]
		}
		if sep {
			if start >= 0 {
				if tok, ok := toToken(text[start:i]); ok {
					out = append(out, tok)
				}
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return out
}

func toToken(word string) (string, bool) {
	if word == "" || !isLetterOrDigit(word[0]) {
		return "", false
	}
	return lower(word), true
}

func lower(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}

// Each calls f for every token in text without materialising a slice, for
// use on the hot ingest path where a document's tokens are consumed once.
func Each(text string, f func(tok string)) {
	start := -1
	for i := 0; i <= len(text); i++ {
		var sep bool
		if i == len(text) {
			sep = true
		} else {
			sep = isSep[text[i]]
		}
		if sep {
			if start >= 0 {
				if tok, ok := toToken(text[start:i]); ok {
					f(tok)
				}
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
}
