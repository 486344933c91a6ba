// Package maldoc builds syntactically valid PDF files that embed
// attacker-controlled active content (JavaScript actions, launch
// actions, embedded files) for red-team test artifacts, with seeded
// obfuscation of payload text and file structure.
//
// A document is built from a File, a convenience Document graph, and
// attachment calls:
//
//	obf := maldoc.NewObfuscator(maldoc.WithSeed(42))
//	doc, err := maldoc.NewDocument(
//		maldoc.New(maldoc.WithObfuscator(obf)),
//		maldoc.WithVersion("1.7"),
//	)
//	if err != nil { ... }
//	_ = doc.Page.AddText("Hello", maldoc.Position{X: 100, Y: 700})
//	_, _ = doc.Catalog.AttachJavaScriptSource(obf.JavaScript("app.alert('Test');"))
//	err = doc.File.WriteFile("test.pdf")
//
// Every malicious capability is ordinary PDF feature usage; the value
// of the package is assembling those features correctly and offering
// an obfuscation pass over the payload text.
package maldoc
