/*
Package dsl provides a Go DSL for programmatically constructing pose graphs.

It is the code-first alternative to node documents on disk, handy for tests
and for graphs generated at runtime.

Example usage:

	b := dsl.New()
	b.Animation("idle").Clip("idle")
	b.Animation("walk").Clip("walk").On(3, "foot_l").On(7, "foot_r")
	b.Binary("locomotion", "idle", "walk").Weight(fixed.Half)
	b.Animation("wave").Clip("wave")
	b.Overlay("root", "locomotion", "wave").Recover(6)

	loader, err := b.Build()
	// ... pass loader to posegraph.New("", posegraph.WithLoader(loader), ...)
*/
package dsl
