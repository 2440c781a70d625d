package processing

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NewlineRemovalRule deletes line feeds without inserting a replacement
type NewlineRemovalRule struct{}

func (r *NewlineRemovalRule) Name() string {
	return "newline_removal"
}

func (r *NewlineRemovalRule) Description() string {
	return "Removes every newline character"
}

func (r *NewlineRemovalRule) Apply(content string) string {
	return strings.ReplaceAll(content, "\n", "")
}

// CJKWhitespaceRule joins Japanese characters that OCR split with spaces
type CJKWhitespaceRule struct{}

func (r *CJKWhitespaceRule) Name() string {
	return "cjk_whitespace"
}

func (r *CJKWhitespaceRule) Description() string {
	return "Removes whitespace runs that sit between two Japanese characters"
}

// Apply scans left to right. A whitespace run is dropped only when the rune
// before it and the rune after it are both CJK. The rune after a dropped run
// is not consumed, so it can start the next match ("あ い う" -> "あいう").
// Bytes that are not valid UTF-8 are copied through unchanged.
func (r *CJKWhitespaceRule) Apply(content string) string {
	var b strings.Builder
	b.Grow(len(content))

	for i := 0; i < len(content); {
		cur, size := utf8.DecodeRuneInString(content[i:])
		b.WriteString(content[i : i+size])
		i += size
		if !IsCJK(cur) {
			continue
		}

		j := i
		for j < len(content) {
			next, n := utf8.DecodeRuneInString(content[j:])
			if !isSpace(next) {
				break
			}
			j += n
		}
		if j > i && j < len(content) {
			if next, _ := utf8.DecodeRuneInString(content[j:]); IsCJK(next) {
				i = j
			}
		}
	}

	return b.String()
}

// Japanese character ranges treated as CJK
const (
	hiraganaFirst  = 'あ' // U+3042
	hiraganaLast   = 'ん' // U+3093
	katakanaFirst  = 'ア' // U+30A2
	katakanaLast   = 'ン' // U+30F3
	ideographFirst = '一' // U+4E00
	ideographLast  = '鿐' // U+9FD0
)

// IsCJK reports whether r is a hiragana, katakana or CJK ideograph in the
// ranges the normalizer joins. ぁ, ァ, ヴ and the prolonged sound mark ー fall
// outside the set.
func IsCJK(r rune) bool {
	switch {
	case r >= hiraganaFirst && r <= hiraganaLast:
		return true
	case r >= katakanaFirst && r <= katakanaLast:
		return true
	case r >= ideographFirst && r <= ideographLast:
		return true
	}
	return false
}

// isSpace matches Unicode whitespace, including the ideographic space U+3000
// and the ASCII information separators.
func isSpace(r rune) bool {
	if r >= 0x1C && r <= 0x1F {
		return true
	}
	return unicode.IsSpace(r)
}
