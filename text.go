package maldoc

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Position locates a text baseline in PDF user-space units.
type Position struct {
	X, Y float64
}

func (p Position) valid() bool {
	for _, v := range []float64{p.X, p.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.Y >= 0
}

type textConfig struct {
	font     string
	textSize int
	lineSize int
	box      bool
}

// TextOption is the type for the options of AddText.
type TextOption func(*textConfig)

// WithFont sets the base font. Default is Helvetica.
func WithFont(basefont string) TextOption {
	return func(c *textConfig) {
		c.font = basefont
	}
}

// WithTextSize sets the font size in points. Default is 12.
func WithTextSize(size int) TextOption {
	return func(c *textConfig) {
		c.textSize = size
	}
}

// WithLineSize sets the leading between lines. Default is the text
// size plus a quarter.
func WithLineSize(size int) TextOption {
	return func(c *textConfig) {
		c.lineSize = size
	}
}

// WithBox draws a rectangle around the text block.
func WithBox() TextOption {
	return func(c *textConfig) {
		c.box = true
	}
}

// AddText draws text on the page at the given position. Line breaks
// in text are rendered as successive baseline-offset lines. Repeated
// calls accumulate text blocks; each call registers its own font
// resource.
func (x *Page) AddText(text string, pos Position, options ...TextOption) error {
	if !pos.valid() {
		return goerr.Wrap(ErrInvalidPosition, "AddText", goerr.V("x", pos.X), goerr.V("y", pos.Y))
	}

	cfg := textConfig{font: "Helvetica", textSize: 12}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.lineSize == 0 {
		cfg.lineSize = cfg.textSize + cfg.textSize/4
	}

	file := x.file
	fontName := file.nextFont()
	font := file.add(Dictionary{
		"Type":     file.nameObj("Font"),
		"Subtype":  file.nameObj("Type1"),
		"Name":     Name(fontName),
		"BaseFont": file.nameObj(cfg.font),
		"Encoding": file.nameObj("MacRomanEncoding"),
	})

	ops := textOps(file, fontName, text, pos, cfg)

	if x.content == nil {
		x.content = newStream(Dictionary{}, ops)
		stream := file.add(x.content)

		x.fonts = Dictionary{Name(fontName): font.Ref()}
		x.dict["Contents"] = stream.Ref()
		x.dict["Resources"] = Dictionary{
			"ProcSet": Array{Name("PDF"), Name("Text")},
			"Font":    x.fonts,
		}
		x.dict["MediaBox"] = Array{Integer(0), Integer(0), Integer(612), Integer(792)}
	} else {
		x.content.Data = append(append(x.content.Data, '\n'), ops...)
		x.fonts[Name(fontName)] = font.Ref()
	}

	return nil
}

// textOps builds the content stream instructions for one text block.
func textOps(file *File, fontName, text string, pos Position, cfg textConfig) []byte {
	lines := strings.Split(text, "\n")
	buf := &bytes.Buffer{}

	fmt.Fprintf(buf, "BT /%s %d Tf %s %s Td %d TL\n",
		fontName, cfg.textSize, fnum(pos.X), fnum(pos.Y), cfg.lineSize)
	for i, line := range lines {
		op := "'"
		if i == 0 {
			op = "Tj"
		}
		buf.Write(marshalObject(file.strObj(line)))
		buf.WriteString(" " + op + "\n")
	}
	buf.WriteString("ET")

	if cfg.box {
		buf.Write(boxOps(lines, pos, cfg))
	}
	return buf.Bytes()
}

// boxOps draws an outline rectangle sized to the text block.
func boxOps(lines []string, pos Position, cfg textConfig) []byte {
	quarter := float64(cfg.textSize) / 4

	left := 0.0
	if pos.X > quarter {
		left = pos.X - quarter
	}
	bottom := 0.0
	if pos.Y > quarter {
		bottom = pos.Y + float64(cfg.textSize) + quarter
	}

	longest := 0
	for _, line := range lines {
		if len(line) > longest {
			longest = len(line)
		}
	}
	width := longest * cfg.textSize
	width -= width / 3
	height := -(cfg.lineSize*len(lines) + int(quarter)*2)

	return fmt.Appendf(nil, "\n%s %s %d %d re S", fnum(left), fnum(bottom), width, height)
}

func fnum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
