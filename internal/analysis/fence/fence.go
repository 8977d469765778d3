// Package fence finds labelled fenced code blocks in free text.
package fence

import "strings"

// Kind tags the two shapes a parsed text can take.
type Kind int

const (
	PlainText Kind = iota
	FencedBlock
)

func (k Kind) String() string {
	if k == FencedBlock {
		return "fenced"
	}
	return "plain"
}

const delimiter = "```"

// Block is the result of scanning a text. For PlainText only Text is set.
// For FencedBlock, Source is everything between the line carrying the opening
// delimiter and the closing delimiter, and Before/After hold the surrounding
// prose.
type Block struct {
	Kind     Kind
	Language string
	Source   string
	Before   string
	After    string
	Text     string
}

// Parse returns the first fenced block of any language, or PlainText.
func Parse(text string) Block {
	found := Block{Kind: PlainText, Text: text}
	scan(text)(func(b Block) bool {
		found = b
		return false
	})
	return found
}

// Extract returns the first fenced block tagged lang (case-insensitive).
// Later blocks are ignored even when they carry the same tag.
func Extract(text, lang string) Block {
	found := Block{Kind: PlainText, Text: text}
	scan(text)(func(b Block) bool {
		if strings.EqualFold(b.Language, lang) {
			found = b
			return false
		}
		return true
	})
	return found
}

// scan yields fenced blocks in order of appearance. An opening delimiter
// without a matching close ends the scan.
func scan(text string) func(yield func(Block) bool) {
	return func(yield func(Block) bool) {
		offset := 0
		for {
			open := strings.Index(text[offset:], delimiter)
			if open < 0 {
				return
			}
			open += offset

			tagStart := open + len(delimiter)
			lineEnd := strings.IndexByte(text[tagStart:], '\n')
			if lineEnd < 0 {
				return
			}
			lineEnd += tagStart

			tag := strings.TrimSpace(text[tagStart:lineEnd])
			if !validTag(tag) {
				// Not an opening fence, e.g. inline ```code```; skip the line.
				offset = lineEnd + 1
				continue
			}

			bodyStart := lineEnd + 1
			end := strings.Index(text[bodyStart:], delimiter)
			if end < 0 {
				return
			}
			end += bodyStart

			b := Block{
				Kind:     FencedBlock,
				Language: tag,
				Source:   text[bodyStart:end],
				Before:   text[:open],
				After:    text[end+len(delimiter):],
				Text:     text,
			}
			if !yield(b) {
				return
			}
			offset = end + len(delimiter)
		}
	}
}

func validTag(tag string) bool {
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '+', r == '.':
		default:
			return false
		}
	}
	return true
}
