package maldoc_test

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"io"
	"regexp"
	"strconv"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/maldoc/maldoc"
)

// assemble writes the file into memory and fails the test on error.
func assemble(t *testing.T, f *maldoc.File) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	_, err := f.WriteTo(buf)
	gt.NoError(t, err)
	return buf.Bytes()
}

var streamPattern = regexp.MustCompile(`/Length (\d+)`)

// decodedStreams returns the payload of every stream in the file,
// decoded through the FlateDecode + ASCIIHexDecode filter chain.
func decodedStreams(t *testing.T, data []byte) [][]byte {
	t.Helper()

	var out [][]byte
	rest := data
	for {
		i := bytes.Index(rest, []byte("\nstream\n"))
		if i < 0 {
			break
		}
		all := streamPattern.FindAllSubmatch(rest[:i], -1)
		gt.True(t, len(all) > 0)
		m := all[len(all)-1]
		length, err := strconv.Atoi(string(m[1]))
		gt.NoError(t, err)

		body := rest[i+len("\nstream\n") : i+len("\nstream\n")+length]
		rest = rest[i+len("\nstream\n")+length:]

		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			// unfiltered or flate-only payloads (e.g. xref streams)
			out = append(out, body)
			continue
		}
		hexed, err := io.ReadAll(zr)
		gt.NoError(t, err)
		if n := len(hexed); n > 0 && hexed[n-1] == '>' {
			if decoded, err := hex.DecodeString(string(hexed[:n-1])); err == nil {
				out = append(out, decoded)
				continue
			}
		}
		out = append(out, hexed)
	}
	return out
}

// containsStream reports whether any decoded stream payload contains
// needle.
func containsStream(t *testing.T, data []byte, needle string) bool {
	t.Helper()
	for _, s := range decodedStreams(t, data) {
		if bytes.Contains(s, []byte(needle)) {
			return true
		}
	}
	return false
}

var rootPattern = regexp.MustCompile(`/Root (\d+) 0 R`)

// trailerRoot extracts the object number the trailer points at.
func trailerRoot(t *testing.T, data []byte) uint32 {
	t.Helper()
	m := rootPattern.FindSubmatch(data)
	gt.NotNil(t, m)
	n, err := strconv.Atoi(string(m[1]))
	gt.NoError(t, err)
	return uint32(n)
}
