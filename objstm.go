package maldoc

import (
	"bytes"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// objStm serializes its member objects inside a single object stream.
// The body is built at write time so member dictionaries may keep
// mutating between packing and assembly.
type objStm struct {
	members []*object
}

func (x *objStm) writeTo(w *writer) {
	head := &bytes.Buffer{}
	body := &bytes.Buffer{}
	inner := &writer{buf: body, rng: w.rng}

	for i, m := range x.members {
		if i > 0 {
			head.WriteByte(' ')
		}
		fmt.Fprintf(head, "%d %d", m.num, body.Len())
		body.WriteByte('\n')
		m.val.writeTo(inner)
	}

	first := head.Len() + 1
	stream := newStream(Dictionary{
		"Type":  Name("ObjStm"),
		"N":     Integer(len(x.members)),
		"First": Integer(first),
	}, append(head.Bytes(), body.Bytes()...))
	stream.writeTo(w)
}

// PackObjects moves every streamless dictionary object allocated so
// far into an object stream, switching the file to a cross-reference
// stream at assembly. Objects allocated afterwards are written
// normally. Packing an already packed file is an error.
func (x *File) PackObjects() error {
	if x.packed != nil {
		return goerr.New("objects already packed")
	}

	var members []*object
	for _, o := range x.objects {
		if _, ok := o.val.(Dictionary); ok {
			members = append(members, o)
		}
	}
	if len(members) == 0 {
		return goerr.New("no packable objects")
	}

	stm := x.add(&objStm{members: members})
	for i, m := range members {
		m.stm = stm
		m.stmIdx = i
	}
	x.packed = stm

	x.logger.Debug("objects packed", "count", len(members), "container", stm.num)
	return nil
}
