// Package requestfile parses human-authored request definition files
// into concrete, placeholder-resolved requests.
package requestfile

type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyText
	BodyBytes
)

// Header keeps the original casing; duplicates are allowed and order is
// preserved through every stage.
type Header struct {
	Name  string
	Value string
}

type Body struct {
	Kind BodyKind
	Text string
	// Bytes carries an @body payload verbatim. Binary payloads never go
	// through placeholder expansion.
	Bytes []byte
	// FilePath is the resolved @body source, when one was used.
	FilePath string
}

// Definition is the canonical request: fully expanded, ready to send.
type Definition struct {
	Method  string
	URL     string
	Headers []Header
	Body    Body
	// BodyLen is the byte length of the encoded body, zero when none.
	BodyLen int
}

// Parsed couples a definition with the env files consulted while
// parsing, in load order.
type Parsed struct {
	Request  Definition
	EnvFiles []string
}

func (d Definition) HasBody() bool {
	return d.Body.Kind != BodyNone
}
