// Package assembly turns a parsed template into a document.
//
// A build runs in three steps:
//
//	doc, err := assembly.NewBuilder(site, globals, env).Build(tree) // resolve kinds and DAOs
//	doc.Root = assembly.Arrange(doc.Root)                          // providers before referrers
//	root, err := walker.Build(ctx, doc)                            // query, populate, attach
//
// Builder and Arrange never touch a metadata store; only the Walker does.
package assembly
