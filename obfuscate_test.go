package maldoc_test

import (
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/google/go-cmp/cmp"
	"github.com/m-mizutani/gt"
	"github.com/maldoc/maldoc"
)

// decodeStringToken interprets a complete PDF string token, either a
// hexadecimal string or a literal with octal escapes.
func decodeStringToken(t *testing.T, token string) string {
	t.Helper()

	if strings.HasPrefix(token, "<") {
		gt.True(t, strings.HasSuffix(token, ">"))
		raw, err := hex.DecodeString(token[1 : len(token)-1])
		gt.NoError(t, err)
		return string(raw)
	}

	gt.True(t, strings.HasPrefix(token, "("))
	gt.True(t, strings.HasSuffix(token, ")"))
	body := token[1 : len(token)-1]

	b := &strings.Builder{}
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			b.WriteByte(body[i])
			continue
		}
		gt.True(t, i+3 < len(body))
		n, err := strconv.ParseUint(body[i+1:i+4], 8, 8)
		gt.NoError(t, err)
		b.WriteByte(byte(n))
		i += 3
	}
	return b.String()
}

func decodeNameToken(t *testing.T, token string) string {
	t.Helper()
	gt.True(t, strings.HasPrefix(token, "/"))

	b := &strings.Builder{}
	body := token[1:]
	for i := 0; i < len(body); i++ {
		if body[i] != '#' {
			b.WriteByte(body[i])
			continue
		}
		gt.True(t, i+2 < len(body))
		n, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
		gt.NoError(t, err)
		b.WriteByte(byte(n))
		i += 2
	}
	return b.String()
}

var jsFragmentPattern = regexp.MustCompile(`var (_f\d+)=("(?:\\.|[^"\\])*"|String\.fromCharCode\([\d,]*\));`)

// decodeScript reconstructs the source a fragmented script evaluates.
func decodeScript(t *testing.T, script string) string {
	t.Helper()

	var units []uint16
	var names []string
	for _, m := range jsFragmentPattern.FindAllStringSubmatch(script, -1) {
		names = append(names, m[1])
		frag := m[2]
		if strings.HasPrefix(frag, `"`) {
			body := frag[1 : len(frag)-1]
			for i := 0; i < len(body); {
				gt.Equal(t, body[i], byte('\\'))
				switch body[i+1] {
				case 'x':
					n, err := strconv.ParseUint(body[i+2:i+4], 16, 16)
					gt.NoError(t, err)
					units = append(units, uint16(n))
					i += 4
				case 'u':
					n, err := strconv.ParseUint(body[i+2:i+6], 16, 16)
					gt.NoError(t, err)
					units = append(units, uint16(n))
					i += 6
				default:
					t.Fatalf("unexpected escape %q", body[i:i+2])
				}
			}
		} else {
			args := frag[len("String.fromCharCode(") : len(frag)-1]
			if args != "" {
				for _, p := range strings.Split(args, ",") {
					n, err := strconv.Atoi(p)
					gt.NoError(t, err)
					units = append(units, uint16(n))
				}
			}
		}
	}

	gt.S(t, script).Contains("eval(" + strings.Join(names, "+") + ");")
	return string(utf16.Decode(units))
}

func TestObfuscateStringRoundTrip(t *testing.T) {
	obf := maldoc.NewObfuscator(maldoc.WithSeed(1))

	inputs := []string{
		"Hello World",
		"app.alert('Test');",
		`back\slash (and parens)`,
		"caf\xe9 \x07",
		"",
	}

	var sawHex, sawLiteral bool
	for i := 0; i < 50; i++ {
		for _, in := range inputs {
			token := obf.String(in)
			gt.Equal(t, in, decodeStringToken(t, token))
			if strings.HasPrefix(token, "<") {
				sawHex = true
			} else {
				sawLiteral = true
			}
		}
	}
	gt.True(t, sawHex)
	gt.True(t, sawLiteral)
}

func TestObfuscateStringRewrites(t *testing.T) {
	obf := maldoc.NewObfuscator(maldoc.WithSeed(2))

	// long inputs never survive as a bare literal
	const in = "this string is long enough that an escape is all but certain"
	for i := 0; i < 20; i++ {
		gt.Value(t, obf.String(in)).NotEqual("(" + in + ")")
	}
}

func TestObfuscateNameRoundTrip(t *testing.T) {
	obf := maldoc.NewObfuscator(maldoc.WithSeed(3))

	inputs := []string{"Catalog", "JavaScript", "a b", "x#y", "F1"}
	for i := 0; i < 50; i++ {
		for _, in := range inputs {
			token := obf.Name(in)
			gt.Equal(t, in, decodeNameToken(t, token))
		}
	}
}

func TestObfuscateNameEscapesIrregular(t *testing.T) {
	obf := maldoc.NewObfuscator(maldoc.WithSeed(4))

	for i := 0; i < 20; i++ {
		token := obf.Name("a b(c)")
		gt.S(t, token).Contains("#20")
		gt.S(t, token).Contains("#28")
		gt.S(t, token).Contains("#29")
	}
}

func TestObfuscateJavaScript(t *testing.T) {
	obf := maldoc.NewObfuscator(maldoc.WithSeed(5))

	sources := []string{
		"app.alert('Test');",
		"var x = 1; if (x) { app.launchURL('http://127.0.0.1/'); }",
		"alert('caf\u00e9 \u2713');",
		"x",
	}
	for _, src := range sources {
		script := obf.JavaScript(src)
		gt.Value(t, script).NotEqual(src)
		gt.Equal(t, src, decodeScript(t, script))
	}
}

func TestObfuscateJavaScriptEmpty(t *testing.T) {
	obf := maldoc.NewObfuscator(maldoc.WithSeed(6))
	gt.Equal(t, `eval("");`, obf.JavaScript(""))
}

func TestObfuscatorSeedDeterminism(t *testing.T) {
	run := func(seed int64) []string {
		obf := maldoc.NewObfuscator(maldoc.WithSeed(seed))
		var out []string
		for i := 0; i < 10; i++ {
			out = append(out, obf.String("determinism check input"))
			out = append(out, obf.Name("SomeName"))
			out = append(out, obf.JavaScript("app.alert(1);"))
		}
		return out
	}

	gt.Value(t, run(42)).Equal(run(42))
	gt.Value(t, run(42)).NotEqual(run(43))
}

func TestObfuscatorRandomSeed(t *testing.T) {
	a := maldoc.NewObfuscator()
	b := maldoc.NewObfuscator(maldoc.WithSeed(a.Seed()))
	gt.Equal(t, a.String("replay"), b.String("replay"))
}

func TestObfuscatedDocumentDeterminism(t *testing.T) {
	build := func(seed int64) []byte {
		file := maldoc.New(maldoc.WithObfuscator(maldoc.NewObfuscator(maldoc.WithSeed(seed))))
		doc := gt.R1(maldoc.NewDocument(file)).NoError(t)
		gt.NoError(t, doc.Page.AddText("Hello", maldoc.Position{X: 100, Y: 700}))
		gt.R1(doc.Catalog.AttachJavaScriptSource("app.alert('Test');")).NoError(t)
		return assemble(t, file)
	}

	first := build(7)
	second := build(7)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed produced different documents:\n%s", diff)
	}

	third := build(8)
	gt.False(t, string(first) == string(third))
}
