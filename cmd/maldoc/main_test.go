package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/m-mizutani/gt"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	return newCommand().Run(context.Background(), append([]string{"maldoc"}, args...))
}

func TestBuildDefault(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")
	gt.NoError(t, run(t, "-f", out))

	data, err := os.ReadFile(out)
	gt.NoError(t, err)
	gt.True(t, bytes.HasPrefix(data, []byte("%PDF-1.7\n")))
	gt.S(t, string(data)).Contains("/S/JavaScript")
	gt.S(t, string(data)).Contains("/OpenAction ")
}

func TestBuildPayloadTypes(t *testing.T) {
	cases := map[string]struct {
		args []string
		want string
	}{
		"uri": {
			args: []string{"-t", "uri", "-p", "http://127.0.0.1:8000/"},
			want: "/S/URI",
		},
		"url alias": {
			args: []string{"-t", "url", "-p", "http://127.0.0.1:8000/"},
			want: "/S/URI",
		},
		"launch": {
			args: []string{"-t", "launch", "-p", "calc.exe"},
			want: "/S/Launch",
		},
		"ntlm": {
			args: []string{"-t", "ntlm", "-p", `\\localhost\x`},
			want: "/S/GoToE",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out.pdf")
			gt.NoError(t, run(t, append([]string{"-f", out}, tc.args...)...))
			data := gt.R1(os.ReadFile(out)).NoError(t)
			gt.S(t, string(data)).Contains(tc.want)
		})
	}
}

func TestBuildEmbeddedFile(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "note.txt")
	gt.NoError(t, os.WriteFile(payload, []byte("test artifact"), 0o644))

	out := filepath.Join(dir, "out.pdf")
	gt.NoError(t, run(t, "-f", out, "-t", "file", "-p", payload))

	data := gt.R1(os.ReadFile(out)).NoError(t)
	gt.S(t, string(data)).Contains("/Type/Filespec")
	gt.S(t, string(data)).Contains("(note.txt)")
}

func TestBuildMetadataAndBookmark(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")
	gt.NoError(t, run(t, "-f", out,
		"-i", "Quarterly report", "-a", "someone", "-P", "maldoc",
		"-d", "2016-06-22 16:53:45", "--bookmark", "Page 1"))

	data := gt.R1(os.ReadFile(out)).NoError(t)
	body := string(data)
	gt.S(t, body).Contains("(Quarterly report)")
	gt.S(t, body).Contains("(someone)")
	gt.S(t, body).Contains("(D:20160622165345")
	gt.S(t, body).Contains("(Page 1)")
}

func TestBuildObjStm(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")
	gt.NoError(t, run(t, "-f", out, "--objstm"))

	data := gt.R1(os.ReadFile(out)).NoError(t)
	gt.S(t, string(data)).Contains("/Type/ObjStm")
	gt.S(t, string(data)).Contains("/Type/XRef")
}

func TestBuildObfuscatedSeedReproducible(t *testing.T) {
	dir := t.TempDir()
	build := func(name string) []byte {
		out := filepath.Join(dir, name)
		gt.NoError(t, run(t, "-f", out, "-o", "--seed", "7",
			"-d", "2016-06-22 16:53:45"))
		return gt.R1(os.ReadFile(out)).NoError(t)
	}

	first := build("a.pdf")
	second := build("b.pdf")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed produced different files:\n%s", diff)
	}
}

func TestBuildBadArguments(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")

	gt.Error(t, run(t, "-f", out, "-t", "nope"))
	gt.Error(t, run(t, "-f", out, "-d", "June 22"))
	gt.Error(t, run(t, "-f", out, "-o", "--seed", "xyz"))
	gt.Error(t, run(t, "-f", out, "--pdf-version", "9.9"))

	_, err := os.Stat(out)
	gt.True(t, os.IsNotExist(err))
}
