package maldoc

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Action is the handle of an allocated action object.
type Action struct {
	obj *object
}

// Ref returns the action's object reference.
func (x *Action) Ref() Reference { return x.obj.Ref() }

// Annotation is the handle of an allocated annotation object.
type Annotation struct {
	obj *object
}

// Ref returns the annotation's object reference.
func (x *Annotation) Ref() Reference { return x.obj.Ref() }

// EmbeddedFile is the handle of an attached embedded file.
type EmbeddedFile struct {
	// Spec references the Filespec object naming the file.
	Spec Reference

	// Action is the JavaScript open action that exports and launches
	// the file when the document opens.
	Action *Action
}

// AttachJavaScript reads a script from src and attaches it as the
// document open action. The payload is stored verbatim in a filtered
// stream object referenced by a JavaScript action.
func (x *Catalog) AttachJavaScript(src io.Reader) (*Action, error) {
	action, err := x.file.javascriptAction(src)
	if err != nil {
		return nil, err
	}
	x.dict["OpenAction"] = action.Ref()
	x.file.logger.Debug("javascript open action attached", "object", action.obj.num)
	return action, nil
}

// AttachJavaScriptSource attaches script as an inline-string
// JavaScript open action on the catalog.
func (x *Catalog) AttachJavaScriptSource(script string) (*Action, error) {
	file := x.file
	action := file.add(Dictionary{
		"Type": file.nameObj("Action"),
		"S":    file.nameObj("JavaScript"),
		"JS":   file.strObj(script),
	})
	x.dict["OpenAction"] = action.Ref()
	return &Action{obj: action}, nil
}

// AttachJavaScript reads a script from src and attaches it as the
// page-open additional action.
func (x *Page) AttachJavaScript(src io.Reader) (*Action, error) {
	action, err := x.file.javascriptAction(src)
	if err != nil {
		return nil, err
	}
	x.dict["AA"] = Dictionary{"O": action.Ref()}
	return action, nil
}

func (x *File) javascriptAction(src io.Reader) (*Action, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read javascript source")
	}

	payload := x.add(newStream(Dictionary{}, data))
	action := x.add(Dictionary{
		"Type": x.nameObj("Action"),
		"S":    x.nameObj("JavaScript"),
		"JS":   payload.Ref(),
	})
	return &Action{obj: action}, nil
}

// AttachLaunch attaches a launch action running command as the
// document open action.
func (x *Catalog) AttachLaunch(command string) (*Action, error) {
	file := x.file
	action := file.add(Dictionary{
		"Type": file.nameObj("Action"),
		"S":    file.nameObj("Launch"),
		"F":    file.strObj(command),
	})
	x.dict["OpenAction"] = action.Ref()
	return &Action{obj: action}, nil
}

// AttachURI attaches a URI action opened when the document opens.
func (x *Catalog) AttachURI(uri string) (*Action, error) {
	file := x.file
	action := file.add(Dictionary{
		"S":   file.nameObj("URI"),
		"URI": file.strObj(uri),
	})
	x.dict["OpenAction"] = action.Ref()
	return &Action{obj: action}, nil
}

// AttachRemoteGoTo points the page-open action at a remote document
// path (UNC paths trigger an authentication attempt on open).
func (x *Page) AttachRemoteGoTo(document string) {
	file := x.file
	x.dict["AA"] = Dictionary{
		"O": Dictionary{
			"F": file.strObj(document),
			"S": file.nameObj("GoToE"),
			"D": Array{Integer(0), Name("Fit")},
		},
	}
}

type embeddedFileConfig struct {
	launchMode int
}

// EmbeddedFileOption is the type for the options of AttachEmbeddedFile.
type EmbeddedFileOption func(*embeddedFileConfig)

// WithLaunchMode sets the nLaunch argument of the export action:
// 0 stores the file, 1 saves it, 2 saves and launches it. Default 2.
func WithLaunchMode(n int) EmbeddedFileOption {
	return func(c *embeddedFileConfig) {
		c.launchMode = n
	}
}

// AttachEmbeddedFile embeds the content read from src under filename,
// registers it in the document name tree, and attaches a JavaScript
// open action that exports and launches it.
func (x *Catalog) AttachEmbeddedFile(src io.Reader, filename string, options ...EmbeddedFileOption) (*EmbeddedFile, error) {
	cfg := embeddedFileConfig{launchMode: 2}
	for _, opt := range options {
		opt(&cfg)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read embedded file content", goerr.V("filename", filename))
	}

	file := x.file
	embedded := file.add(newStream(Dictionary{
		"Type": file.nameObj("EmbeddedFile"),
	}, data))

	filespec := file.add(Dictionary{
		"Type": file.nameObj("Filespec"),
		"F":    file.strObj(filename),
		"EF":   Dictionary{"F": embedded.Ref()},
	})

	quoted := strings.ReplaceAll(filename, `\`, `\\`)
	quoted = strings.ReplaceAll(quoted, `'`, `\'`)
	script := fmt.Sprintf("this.exportDataObject({cName: '%s',nLaunch:%d});", quoted, cfg.launchMode)
	action := file.add(Dictionary{
		"Type": file.nameObj("Action"),
		"S":    file.nameObj("JavaScript"),
		"JS":   file.strObj(script),
	})

	x.dict["OpenAction"] = action.Ref()
	x.addEmbeddedFileName(filename, filespec.Ref())

	file.logger.Debug("embedded file attached",
		"filename", filename, "bytes", len(data), "launch_mode", cfg.launchMode)

	return &EmbeddedFile{
		Spec:   filespec.Ref(),
		Action: &Action{obj: action},
	}, nil
}

// addEmbeddedFileName appends a (name, filespec) pair to the
// EmbeddedFiles name tree, creating it on first use.
func (x *Catalog) addEmbeddedFileName(filename string, spec Reference) {
	names, ok := x.dict["Names"].(Dictionary)
	if !ok {
		names = Dictionary{}
		x.dict["Names"] = names
	}
	tree, ok := names["EmbeddedFiles"].(Dictionary)
	if !ok {
		tree = Dictionary{}
		names["EmbeddedFiles"] = tree
	}
	pairs, _ := tree["Names"].(Array)
	tree["Names"] = append(pairs, x.file.strObj(filename), spec)
}

// AttachAnnotation places a free text annotation on the page. rect is
// [left bottom right top] in user-space units.
func (x *Page) AttachAnnotation(contents string, rect [4]float64) (*Annotation, error) {
	for _, v := range rect {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, goerr.Wrap(ErrInvalidRect, "AttachAnnotation", goerr.V("rect", rect))
		}
	}

	file := x.file
	annot := file.add(Dictionary{
		"Type":     file.nameObj("Annot"),
		"Subtype":  file.nameObj("FreeText"),
		"Rect":     Array{Real(rect[0]), Real(rect[1]), Real(rect[2]), Real(rect[3])},
		"Contents": file.strObj(contents),
		"DA":       file.strObj("/Helv 12 Tf 0 g"),
	})

	x.annots = append(x.annots, annot.Ref())
	x.dict["Annots"] = x.annots

	return &Annotation{obj: annot}, nil
}
