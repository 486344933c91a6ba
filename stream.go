package maldoc

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
)

// A Stream object carries an arbitrary byte payload. Filters are
// applied at write time in decode-reverse order: the payload is hex
// encoded first, then deflated, and the dictionary advertises
// [FlateDecode ASCIIHexDecode] so viewers undo both.
type Stream struct {
	Dict Dictionary
	Data []byte

	flate bool
	ascii bool
}

// newStream builds a stream object with the default filter chain.
func newStream(dict Dictionary, data []byte) *Stream {
	if dict == nil {
		dict = Dictionary{}
	}
	return &Stream{Dict: dict, Data: data, flate: true, ascii: true}
}

func (s *Stream) writeTo(w *writer) {
	data := s.Data
	var filters Array

	if s.ascii {
		data = append([]byte(hex.EncodeToString(data)), '>')
		filters = append(filters, Name("ASCIIHexDecode"))
	}
	if s.flate {
		data = deflate(data)
		filters = append(Array{Name("FlateDecode")}, filters...)
	}

	if len(filters) > 0 {
		s.Dict["Filter"] = filters
	}
	s.Dict["Length"] = Integer(len(data))

	s.Dict.writeTo(w)
	w.str("\nstream\n")
	w.bytes(data)
	w.str("\nendstream")
}

func deflate(data []byte) []byte {
	buf := &bytes.Buffer{}
	zw := zlib.NewWriter(buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	return buf.Bytes()
}
