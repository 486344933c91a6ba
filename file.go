package maldoc

import (
	"log/slog"
	"strconv"

	"github.com/google/uuid"
)

// File is the root container of a document under construction. It
// owns every allocated object in allocation order and the running
// object number counter. A File is built by a single caller and
// written exactly once; it provides no internal locking.
type File struct {
	fileConfig

	objects []*object
	nextNum uint32

	version string
	catalog *Catalog
	info    *object
	packed  *object

	fontSeq int
}

type fileConfig struct {
	logger *slog.Logger
	obf    *Obfuscator
	docID  uuid.UUID
	hasID  bool
}

// Option is the type for the options of a File.
type Option func(*fileConfig)

// WithLogger sets the logger for the file. Default is a discarding
// logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *fileConfig) {
		c.logger = logger
	}
}

// WithObfuscator attaches an obfuscator to the file. Strings and
// names created by document operations are re-encoded through it at
// construction time, and serialization varies cosmetic choices with
// its seeded source.
func WithObfuscator(obf *Obfuscator) Option {
	return func(c *fileConfig) {
		c.obf = obf
	}
}

// WithDocumentID fixes the value written as the trailer /ID pair.
// When unset, the ID is drawn from the obfuscator when one is
// attached, or randomly otherwise.
func WithDocumentID(id uuid.UUID) Option {
	return func(c *fileConfig) {
		c.docID = id
		c.hasID = true
	}
}

// New creates an empty File. Object number 0 is reserved as the free
// object, so allocation starts at 1.
func New(options ...Option) *File {
	x := &File{
		fileConfig: fileConfig{
			logger: slog.New(slog.DiscardHandler),
		},
		nextNum: 1,
		version: DefaultVersion,
	}

	for _, opt := range options {
		opt(&x.fileConfig)
	}

	x.logger.Debug("pdf file created",
		"obfuscation", x.obf != nil,
	)

	return x
}

// add allocates the next object number, registers the value and
// returns the indirect object handle.
func (x *File) add(val Object) *object {
	o := &object{num: x.nextNum, val: val}
	x.nextNum++
	x.objects = append(x.objects, o)
	return o
}

// strObj encodes a text value for embedding. With an obfuscator the
// token is produced once, here, and stays byte-stable until write.
func (x *File) strObj(s string) Object {
	if x.obf != nil {
		return Encoded(x.obf.String(s))
	}
	return String(s)
}

// nameObj encodes a name used as a dictionary value.
func (x *File) nameObj(n string) Object {
	if x.obf != nil {
		return Encoded(x.obf.Name(n))
	}
	return Name(n)
}

func (x *File) nextFont() string {
	x.fontSeq++
	return "F" + strconv.Itoa(x.fontSeq)
}
