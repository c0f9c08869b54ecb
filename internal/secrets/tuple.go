package secrets

import (
	"bytes"
	"encoding/binary"
)

// Tuple is a fixed-order, length-prefixed encoding of named string fields.
//
// The encoding starts with a domain tag and then writes every field as
// len(name) | name | len(value) | value, with big-endian uint32 lengths.
// Two tuples are byte-equal only if they have the same tag and the same
// fields in the same order, so an empty value can stand in for an absent
// field without ambiguity.
type Tuple struct {
	buf bytes.Buffer
}

// NewTuple starts a tuple with the given domain tag.
func NewTuple(tag string) *Tuple {
	t := &Tuple{}
	t.write(tag)
	return t
}

// Add appends a named field.
func (t *Tuple) Add(name, value string) *Tuple {
	t.write(name)
	t.write(value)
	return t
}

// Bytes returns the encoded tuple.
func (t *Tuple) Bytes() []byte {
	return t.buf.Bytes()
}

func (t *Tuple) write(s string) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(s))) //nolint:gosec // field values are short strings
	t.buf.Write(n[:])
	t.buf.WriteString(s)
}
