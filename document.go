package maldoc

import (
	"regexp"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultVersion is the header version token used when none is
// requested.
const DefaultVersion = "1.7"

var versionPattern = regexp.MustCompile(`^[12]\.[0-9]$`)

// Catalog is the document root object. It references the outlines and
// page tree and carries document-level open actions.
type Catalog struct {
	file *File
	obj  *object
	dict Dictionary
}

// Outlines is the bookmark tree root.
type Outlines struct {
	file  *File
	obj   *object
	dict  Dictionary
	items []*object
}

// Pages is the page tree root.
type Pages struct {
	file *File
	obj  *object
	dict Dictionary
	kids Array
}

// Page is a single page. It owns its content stream and annotation
// list.
type Page struct {
	file    *File
	obj     *object
	dict    Dictionary
	content *Stream
	fonts   Dictionary
	annots  Array
}

type catalogConfig struct {
	version  string
	title    string
	author   string
	producer string
	created  time.Time
	hasDate  bool
}

// CatalogOption is the type for the options of NewCatalog.
type CatalogOption func(*catalogConfig)

// WithVersion sets the header version token. It must match
// "major.minor" with major 1 or 2.
func WithVersion(version string) CatalogOption {
	return func(c *catalogConfig) {
		c.version = version
	}
}

// WithTitle sets the document title in the Info dictionary.
func WithTitle(title string) CatalogOption {
	return func(c *catalogConfig) {
		c.title = title
	}
}

// WithAuthor sets the document author in the Info dictionary.
func WithAuthor(author string) CatalogOption {
	return func(c *catalogConfig) {
		c.author = author
	}
}

// WithProducer sets the producer string in the Info dictionary.
func WithProducer(producer string) CatalogOption {
	return func(c *catalogConfig) {
		c.producer = producer
	}
}

// WithCreationDate sets the creation date in the Info dictionary.
func WithCreationDate(ts time.Time) CatalogOption {
	return func(c *catalogConfig) {
		c.created = ts
		c.hasDate = true
	}
}

// NewCatalog allocates the document root. Metadata fields that are
// not supplied are omitted from the output entirely; an Info
// dictionary is only written when at least one field is set.
func (x *File) NewCatalog(options ...CatalogOption) (*Catalog, error) {
	if x.catalog != nil {
		return nil, goerr.Wrap(ErrCatalogExists, "NewCatalog")
	}

	var cfg catalogConfig
	for _, opt := range options {
		opt(&cfg)
	}

	if cfg.version != "" {
		if !versionPattern.MatchString(cfg.version) {
			return nil, goerr.Wrap(ErrInvalidVersion, "unrecognized version token", goerr.V("version", cfg.version))
		}
		x.version = cfg.version
	}

	info := Dictionary{}
	if cfg.title != "" {
		info["Title"] = x.strObj(cfg.title)
	}
	if cfg.author != "" {
		info["Author"] = x.strObj(cfg.author)
	}
	if cfg.producer != "" {
		info["Producer"] = x.strObj(cfg.producer)
	}
	if cfg.hasDate {
		info["CreationDate"] = x.strObj(pdfDate(cfg.created))
	}
	if len(info) > 0 {
		x.info = x.add(info)
	}

	dict := Dictionary{"Type": x.nameObj("Catalog")}
	c := &Catalog{file: x, obj: x.add(dict), dict: dict}
	x.catalog = c

	x.logger.Debug("catalog allocated", "object", c.obj.num, "version", x.version)
	return c, nil
}

// pdfDate renders ts as a PDF date string, D:YYYYMMDDHHmmSSOHH'mm',
// with the zone offset minutes quoted.
func pdfDate(ts time.Time) string {
	zone := strings.Replace(ts.Format("-07:00"), ":", "'", 1)
	return ts.Format("D:20060102150405") + zone + "'"
}

// Ref returns the catalog's object reference.
func (x *Catalog) Ref() Reference { return x.obj.Ref() }

// SetOutlines links the bookmark tree into the catalog.
func (x *Catalog) SetOutlines(o *Outlines) {
	x.dict["Outlines"] = o.obj.Ref()
}

// SetPages links the page tree into the catalog.
func (x *Catalog) SetPages(p *Pages) {
	x.dict["Pages"] = p.obj.Ref()
}

// NewOutlines allocates an empty bookmark tree root.
func (x *File) NewOutlines() *Outlines {
	dict := Dictionary{
		"Type":  x.nameObj("Outlines"),
		"Count": Integer(0),
	}
	return &Outlines{file: x, obj: x.add(dict), dict: dict}
}

// Ref returns the outlines root's object reference.
func (x *Outlines) Ref() Reference { return x.obj.Ref() }

// AddBookmark appends a top-level bookmark with the given title.
func (x *Outlines) AddBookmark(title string) {
	item := Dictionary{
		"Title":  x.file.strObj(title),
		"Parent": x.obj.Ref(),
	}
	o := x.file.add(item)

	if n := len(x.items); n > 0 {
		prev := x.items[n-1]
		item["Prev"] = prev.Ref()
		prev.val.(Dictionary)["Next"] = o.Ref()
	} else {
		x.dict["First"] = o.Ref()
	}
	x.items = append(x.items, o)
	x.dict["Last"] = o.Ref()
	x.dict["Count"] = Integer(len(x.items))
}

// NewPages allocates the page tree root.
func (x *File) NewPages() *Pages {
	dict := Dictionary{
		"Type":  x.nameObj("Pages"),
		"Count": Integer(0),
	}
	return &Pages{file: x, obj: x.add(dict), dict: dict}
}

// Ref returns the page tree root's object reference.
func (x *Pages) Ref() Reference { return x.obj.Ref() }

// NewPage allocates a page and appends it to the tree's kid list.
func (x *Pages) NewPage() *Page {
	dict := Dictionary{
		"Type":   x.file.nameObj("Page"),
		"Parent": x.obj.Ref(),
	}
	p := &Page{file: x.file, obj: x.file.add(dict), dict: dict}

	x.kids = append(x.kids, p.obj.Ref())
	x.dict["Kids"] = x.kids
	x.dict["Count"] = Integer(len(x.kids))
	return p
}

// Ref returns the page's object reference.
func (x *Page) Ref() Reference { return x.obj.Ref() }

// Document bundles the base object graph every functional file needs.
type Document struct {
	File     *File
	Catalog  *Catalog
	Outlines *Outlines
	Pages    *Pages
	Page     *Page
}

// NewDocument creates the base objects of a one-page document in a
// single call: catalog, outlines, page tree and a first page, wired
// together. A nil file starts a fresh one.
func NewDocument(file *File, options ...CatalogOption) (*Document, error) {
	if file == nil {
		file = New()
	}

	catalog, err := file.NewCatalog(options...)
	if err != nil {
		return nil, err
	}

	outlines := file.NewOutlines()
	pages := file.NewPages()
	page := pages.NewPage()

	catalog.SetOutlines(outlines)
	catalog.SetPages(pages)

	return &Document{
		File:     file,
		Catalog:  catalog,
		Outlines: outlines,
		Pages:    pages,
		Page:     page,
	}, nil
}
