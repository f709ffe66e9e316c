package telegram

import (
	"regexp"
	"strings"
)

// Tokens is the result of splitting one telegram line: the classified
// message type, the structured positional fields, and the free-text tail.
type Tokens struct {
	// Type is the classified message type tag.
	Type MessageType

	// Fields holds the structured positional fields after the type tag,
	// capped at the per-type field count.
	Fields []string

	// Tail is everything past the structured fields, kept as a single
	// free-text segment. Hyphens inside it are preserved.
	Tail string

	// Raw is the normalised input line.
	Raw string
}

// structuredFields caps hyphen splitting per message type. Anything past
// the cap is free text (routes and remarks legitimately contain hyphens).
var structuredFields = map[MessageType]int{
	TypeFPL: 3, // flight id, aircraft type, airport+time
	TypeDEP: 3,
	TypeARR: 3,
	TypeCHG: 3,
	TypeCNL: 1, // flight id only; payload is free text
	TypeDLA: 1,
	TypeRQS: 1,
	TypeRQP: 1,
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize collapses whitespace runs and uppercases a telegram line.
func Normalize(line string) string {
	return strings.ToUpper(whitespaceRe.ReplaceAllString(strings.TrimSpace(line), " "))
}

// Tokenize splits a raw telegram line into a type tag, structured fields,
// and a free-text tail. An unknown type tag returns Tokens with an empty
// Type and ok=false; the caller records the UnrecognizedMessageType error.
func Tokenize(line string) (*Tokens, bool) {
	raw := Normalize(line)
	tok := &Tokens{Raw: raw}

	head, rest, _ := strings.Cut(raw, "-")
	head = strings.TrimSpace(head)

	mt, ok := ParseMessageType(head)
	if !ok {
		// Keep the offending tag around for error reporting.
		tok.Tail = rest
		tok.Raw = raw
		return tok, false
	}
	tok.Type = mt

	n := structuredFields[mt]
	parts := strings.SplitN(rest, "-", n+1)
	if len(parts) > n {
		tok.Fields = parts[:n]
		tok.Tail = parts[n]
	} else {
		tok.Fields = parts
	}
	for i := range tok.Fields {
		tok.Fields[i] = strings.TrimSpace(tok.Fields[i])
	}
	tok.Tail = strings.TrimSpace(tok.Tail)
	if rest == "" {
		tok.Fields = nil
	}
	return tok, true
}

// Field returns the i-th structured field, or "" when absent.
func (t *Tokens) Field(i int) string {
	if i < 0 || i >= len(t.Fields) {
		return ""
	}
	return t.Fields[i]
}
