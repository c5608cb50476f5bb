package envelope

import (
	"bufio"
	"encoding/gob"
	"io"
)

// gobCodec is the default Codec. Each Encode emits one self-contained gob
// stream; Decode reads exactly one. The header's interface payloads are
// registered here so the header stays decodable as plain nested maps by any
// gob reader.
type gobCodec struct{}

func init() {
	gob.Register(map[string]any{})
	gob.Register(map[string]string{})
	gob.Register([]int{})
}

func (gobCodec) Encode(w io.Writer, v any) error {
	return gob.NewEncoder(w).Encode(v)
}

func (gobCodec) Decode(r io.Reader, v any) error {
	return gob.NewDecoder(r).Decode(v)
}

// byteSource keeps sequential decodes from over-reading: gob (and most
// codecs) buffer aggressively unless the reader hands out single bytes.
func byteSource(r io.Reader) io.Reader {
	type byteReader interface {
		io.Reader
		io.ByteReader
	}
	if br, ok := r.(byteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}
