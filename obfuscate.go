package maldoc

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

// Obfuscator rewrites payload text into semantically equivalent forms
// that are textually distinct from the input. All random choices come
// from a single seeded source, so the same seed produces identical
// output for identical input. Obfuscation never fails: units that fit
// no encoding strategy pass through unchanged.
//
// An Obfuscator is owned by one File at a time; it is not safe for
// concurrent use.
type Obfuscator struct {
	seed int64
	rng  *rand.Rand
}

type obfuscatorConfig struct {
	seed    int64
	hasSeed bool
}

// ObfuscatorOption is the type for the options of NewObfuscator.
type ObfuscatorOption func(*obfuscatorConfig)

// WithSeed fixes the seed of the obfuscation source for reproducible
// output.
func WithSeed(seed int64) ObfuscatorOption {
	return func(c *obfuscatorConfig) {
		c.seed = seed
		c.hasSeed = true
	}
}

// NewObfuscator creates an obfuscator. Without WithSeed a random seed
// is drawn.
func NewObfuscator(options ...ObfuscatorOption) *Obfuscator {
	var cfg obfuscatorConfig
	for _, opt := range options {
		opt(&cfg)
	}
	if !cfg.hasSeed {
		cfg.seed = time.Now().UnixNano()
	}

	return &Obfuscator{
		seed: cfg.seed,
		rng:  rand.New(rand.NewSource(cfg.seed)),
	}
}

// Seed returns the seed in use, for logging and reproduction.
func (x *Obfuscator) Seed() int64 { return x.seed }

// String returns a complete PDF string token whose decoded value
// equals text. The encoding form is chosen per invocation: either a
// literal with pseudo-random octal escaping, or a hexadecimal string.
func (x *Obfuscator) String(text string) string {
	data := []byte(text)

	if x.rng.Intn(3) == 0 {
		b := &strings.Builder{}
		b.WriteByte('<')
		fmt.Fprintf(b, "%x", data)
		b.WriteByte('>')
		return b.String()
	}

	b := &strings.Builder{}
	b.WriteByte('(')
	for _, c := range data {
		switch {
		case c == '\\' || c == '(' || c == ')' || c < 0x20 || c > 0x7e:
			fmt.Fprintf(b, `\%03o`, c)
		case x.rng.Intn(4) != 0:
			fmt.Fprintf(b, `\%03o`, c)
		default:
			// passthrough unit
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// Name returns a PDF name token for name with a pseudo-random subset
// of its regular characters #xx-escaped. Irregular characters are
// always escaped.
func (x *Obfuscator) Name(name string) string {
	b := &strings.Builder{}
	b.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isRegularNameChar(c) || x.rng.Intn(2) == 0 {
			fmt.Fprintf(b, "#%02x", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// JavaScript rewrites source into an equivalent script: the original
// text is split into escaped fragments bound to fresh variables,
// interleaved with no-op statements, and executed once by eval. Side
// effects, call order and argument values are unchanged because the
// reconstructed source is the original, character for character.
func (x *Obfuscator) JavaScript(source string) string {
	units := utf16.Encode([]rune(source))

	var names []string
	b := &strings.Builder{}
	for len(units) > 0 {
		n := 3 + x.rng.Intn(6)
		if n > len(units) {
			n = len(units)
		}
		frag := units[:n]
		units = units[n:]

		name := "_f" + strconv.Itoa(len(names))
		names = append(names, name)

		b.WriteString("var " + name + "=")
		if x.rng.Intn(3) == 0 {
			b.WriteString(fromCharCode(frag))
		} else {
			b.WriteString(escapedLiteral(frag))
		}
		b.WriteString(";")

		if x.rng.Intn(3) == 0 {
			b.WriteString("void 0;")
		}
	}

	if len(names) == 0 {
		return `eval("");`
	}
	b.WriteString("eval(" + strings.Join(names, "+") + ");")
	return b.String()
}

func fromCharCode(units []uint16) string {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = strconv.Itoa(int(u))
	}
	return "String.fromCharCode(" + strings.Join(parts, ",") + ")"
}

func escapedLiteral(units []uint16) string {
	b := &strings.Builder{}
	b.WriteByte('"')
	for _, u := range units {
		if u <= 0xff {
			fmt.Fprintf(b, `\x%02x`, u)
		} else {
			fmt.Fprintf(b, `\u%04x`, u)
		}
	}
	b.WriteByte('"')
	return b.String()
}
