package maldoc

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// WriteTo assembles the document and writes the full byte sequence to
// w. It implements io.WriterTo.
func (x *File) WriteTo(w io.Writer) (int64, error) {
	data, err := x.assemble()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), goerr.Wrap(err, "failed to write pdf")
	}
	return int64(n), nil
}

// WriteFile assembles the document and writes it to path in one pass.
// Assembly happens before the destination is opened, and a partially
// written destination is removed, so no file is left claiming
// success.
func (x *File) WriteFile(path string) error {
	data, err := x.assemble()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return goerr.Wrap(err, "failed to create output file", goerr.V("path", path))
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return goerr.Wrap(err, "failed to write output file", goerr.V("path", path))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return goerr.Wrap(err, "failed to close output file", goerr.V("path", path))
	}

	x.logger.Info("pdf written", "path", path, "bytes", len(data))
	return nil
}

// assemble serializes the object graph: header, body in allocation
// order with recorded offsets, then a classic cross-reference table
// and trailer, or a cross-reference stream when objects have been
// packed.
func (x *File) assemble() ([]byte, error) {
	if x.catalog == nil {
		return nil, goerr.Wrap(ErrMissingCatalog, "assemble")
	}

	buf := &bytes.Buffer{}
	w := &writer{buf: buf}
	if x.obf != nil {
		w.rng = x.obf.rng
	}

	id := x.documentID()

	fmt.Fprintf(buf, "%%PDF-%s\n", x.version)
	buf.Write([]byte{'%', 0xe2, 0xe3, 0xcf, 0xd3, '\n'})

	type entry struct {
		offset int64
		stm    *object
		idx    int
	}
	entries := make(map[uint32]entry, len(x.objects))
	for _, o := range x.objects {
		if o.stm != nil {
			entries[o.num] = entry{stm: o.stm, idx: o.stmIdx}
			continue
		}
		entries[o.num] = entry{offset: int64(buf.Len())}
		o.writeTo(w)
	}

	if x.packed == nil {
		startXref := buf.Len()
		fmt.Fprintf(buf, "xref\n0 %d\n", x.nextNum)
		buf.WriteString("0000000000 65535 f \n")
		for num := uint32(1); num < x.nextNum; num++ {
			fmt.Fprintf(buf, "%010d 00000 n \n", entries[num].offset)
		}

		trailer := Dictionary{
			"Size": Integer(x.nextNum),
			"Root": x.catalog.obj.Ref(),
			"ID":   Array{HexString(id[:]), HexString(id[:])},
		}
		if x.info != nil {
			trailer["Info"] = x.info.Ref()
		}
		buf.WriteString("trailer\n")
		trailer.writeTo(w)
		fmt.Fprintf(buf, "\nstartxref\n%d\n%%%%EOF\n", startXref)
		return buf.Bytes(), nil
	}

	// cross-reference stream; the stream object takes the next number
	// but is not registered, since registration happens only through
	// allocation calls.
	xrefNum := x.nextNum
	xrefOffset := buf.Len()
	size := xrefNum + 1

	maxOff := uint64(xrefOffset)
	maxIdx := uint64(0xffff)
	for num := uint32(1); num < x.nextNum; num++ {
		e := entries[num]
		switch {
		case e.stm != nil:
			if uint64(e.stm.num) > maxOff {
				maxOff = uint64(e.stm.num)
			}
			if uint64(e.idx) > maxIdx {
				maxIdx = uint64(e.idx)
			}
		case uint64(e.offset) > maxOff:
			maxOff = uint64(e.offset)
		}
	}
	offW := byteWidth(maxOff)
	idxW := byteWidth(maxIdx)

	data := &bytes.Buffer{}
	writeEntry := func(kind byte, a, b uint64) {
		data.WriteByte(kind)
		writeBE(data, a, offW)
		writeBE(data, b, idxW)
	}
	writeEntry(0, 0, 0xffff)
	for num := uint32(1); num < xrefNum; num++ {
		e := entries[num]
		if e.stm != nil {
			writeEntry(2, uint64(e.stm.num), uint64(e.idx))
		} else {
			writeEntry(1, uint64(e.offset), 0)
		}
	}
	writeEntry(1, uint64(xrefOffset), 0)

	dict := Dictionary{
		"Type":  Name("XRef"),
		"W":     Array{Integer(1), Integer(offW), Integer(idxW)},
		"Index": Array{Integer(0), Integer(size)},
		"Size":  Integer(size),
		"Root":  x.catalog.obj.Ref(),
		"ID":    Array{HexString(id[:]), HexString(id[:])},
	}
	if x.info != nil {
		dict["Info"] = x.info.Ref()
	}

	xref := &Stream{Dict: dict, Data: data.Bytes(), flate: true}
	fmt.Fprintf(buf, "%d 0 obj\n", xrefNum)
	xref.writeTo(w)
	buf.WriteString("\nendobj\n")
	fmt.Fprintf(buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return buf.Bytes(), nil
}

func (x *File) documentID() uuid.UUID {
	if x.hasID {
		return x.docID
	}
	if x.obf != nil {
		if id, err := uuid.NewRandomFromReader(x.obf.rng); err == nil {
			return id
		}
	}
	return uuid.New()
}

func byteWidth(v uint64) int {
	n := 1
	for v > 0xff {
		v >>= 8
		n++
	}
	return n
}

func writeBE(buf *bytes.Buffer, v uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		buf.WriteByte(byte(v >> (8 * uint(i))))
	}
}
