package maldoc

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
)

// Object represents the values that can appear in the body of a PDF
// file. The types implementing it are:
//   - Boolean
//   - Integer
//   - Real
//   - String
//   - HexString
//   - Name
//   - Encoded
//   - Array
//   - Dictionary
//   - *Stream
//   - Null
//   - Reference
type Object interface {
	// private to limit objects to the closed set defined here
	writeTo(w *writer)
}

// writer collects serialized objects. When rng is set, cosmetic
// serialization choices (dictionary key order, whitespace) are varied;
// the byte stream stays deterministic for a fixed seed because every
// draw happens in allocation order.
type writer struct {
	buf *bytes.Buffer
	rng *rand.Rand
}

func (w *writer) str(s string)   { w.buf.WriteString(s) }
func (w *writer) byte(b byte)    { w.buf.WriteByte(b) }
func (w *writer) bytes(b []byte) { w.buf.Write(b) }

func marshalObject(o Object) []byte {
	w := &writer{buf: &bytes.Buffer{}}
	o.writeTo(w)
	return w.buf.Bytes()
}

// Boolean objects represent the logical values true and false.
type Boolean bool

func (b Boolean) writeTo(w *writer) {
	if b {
		w.str("true")
	} else {
		w.str("false")
	}
}

// Integer objects represent mathematical integers.
type Integer int64

func (i Integer) writeTo(w *writer) {
	w.str(strconv.FormatInt(int64(i), 10))
}

// Real objects represent real numbers. PDF reals have no exponent
// form, so serialization always uses plain decimal notation.
type Real float64

func (r Real) writeTo(w *writer) {
	w.str(strconv.FormatFloat(float64(r), 'f', -1, 64))
}

// A String object is a sequence of bytes written as a literal string
// with the minimal escaping required by the format.
type String []byte

func (s String) writeTo(w *writer) {
	w.byte('(')
	for _, b := range s {
		switch b {
		case '\\':
			w.str(`\\`)
		case '(':
			w.str(`\(`)
		case ')':
			w.str(`\)`)
		case '\n':
			w.str(`\n`)
		case '\r':
			w.str(`\r`)
		case '\t':
			w.str(`\t`)
		default:
			if b < 0x20 || b > 0x7e {
				fmt.Fprintf(w.buf, `\%03o`, b)
			} else {
				w.byte(b)
			}
		}
	}
	w.byte(')')
}

// A HexString object is a sequence of bytes written in hexadecimal
// form between angle brackets.
type HexString []byte

func (s HexString) writeTo(w *writer) {
	w.byte('<')
	w.str(hex.EncodeToString(s))
	w.byte('>')
}

// A Name object is an atomic symbol. Characters outside the regular
// set are written as #xx pairs; the decoded name is what viewers
// compare, so escaping is purely cosmetic.
type Name string

func (n Name) writeTo(w *writer) {
	w.byte('/')
	for i := 0; i < len(n); i++ {
		b := n[i]
		if isRegularNameChar(b) {
			w.byte(b)
		} else {
			fmt.Fprintf(w.buf, "#%02x", b)
		}
	}
}

func isRegularNameChar(b byte) bool {
	if b < '!' || b > '~' {
		return false
	}
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%', '#':
		return false
	}
	return true
}

// Encoded is a pre-serialized token emitted verbatim. It carries
// obfuscator output, which must stay byte-stable between attachment
// and write.
type Encoded string

func (e Encoded) writeTo(w *writer) {
	w.str(string(e))
}

// An Array object is an ordered collection of objects.
type Array []Object

func (a Array) writeTo(w *writer) {
	w.byte('[')
	for i, obj := range a {
		if i > 0 {
			w.byte(' ')
		}
		obj.writeTo(w)
	}
	w.byte(']')
}

// A Dictionary object is an associative table mapping Names to
// Objects. Key order is not semantically significant; serialization
// puts Type and Subtype first and sorts the remainder so output is
// deterministic, unless an obfuscating writer permutes it.
type Dictionary map[Name]Object

func (d Dictionary) writeTo(w *writer) {
	keys := d.sortedKeys()
	if w.rng != nil {
		w.rng.Shuffle(len(keys), func(i, j int) {
			keys[i], keys[j] = keys[j], keys[i]
		})
	}

	w.str("<<")
	for _, key := range keys {
		val := d[key]
		key.writeTo(w)
		if needsSpace(val) {
			w.byte(' ')
		} else if w.rng != nil && w.rng.Intn(3) == 0 {
			// extra whitespace between tokens is always legal
			w.byte(' ')
		}
		val.writeTo(w)
	}
	w.str(">>")
}

func (d Dictionary) sortedKeys() []Name {
	keys := make([]Name, 0, len(d))
	for key := range d {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := keyRank(keys[i]), keyRank(keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func keyRank(n Name) int {
	switch n {
	case "Type":
		return 0
	case "Subtype":
		return 1
	default:
		return 2
	}
}

// needsSpace reports whether a token must be separated from the
// preceding name by whitespace (i.e. it does not begin with a
// self-delimiting character).
func needsSpace(o Object) bool {
	switch v := o.(type) {
	case Boolean, Integer, Real, Null, Reference:
		return true
	case Encoded:
		if len(v) == 0 {
			return true
		}
		switch v[0] {
		case '(', '<', '[', '/':
			return false
		}
		return true
	default:
		return false
	}
}

// The Null object is unequal to any other object.
type Null struct{}

func (Null) writeTo(w *writer) {
	w.str("null")
}

// A Reference points at an indirect object by number and generation.
type Reference struct {
	Number     uint32
	Generation uint32
}

func (r Reference) writeTo(w *writer) {
	fmt.Fprintf(w.buf, "%d %d R", r.Number, r.Generation)
}

// object is an allocated indirect object within a File. Its number is
// assigned at creation and never changes; generation is always 0.
type object struct {
	num uint32
	val Object

	// set when the object has been packed into an object stream
	stm    *object
	stmIdx int
}

// Ref returns the reference other objects use to point at this one.
func (x *object) Ref() Reference {
	return Reference{Number: x.num}
}

func (x *object) writeTo(w *writer) {
	fmt.Fprintf(w.buf, "%d 0 obj\n", x.num)
	x.val.writeTo(w)
	w.str("\nendobj\n")
}
