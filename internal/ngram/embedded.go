package ngram

import "embed"

// The built-in tables count letter n-grams of Isaac Newton's Opticks (Project Gutenberg)
// and the Rust project's books (MIT/Apache-2.0), about 3.7 million letters.
//
//go:embed data/*GRAM.txt
var builtinTables embed.FS

// MaxEmbeddedN is the largest pattern length with a built-in table.
const MaxEmbeddedN = 4

// Embedded returns the built-in English tables for n = 1 to MaxEmbeddedN.
func Embedded() Source {
	return FSSource{FS: builtinTables, Dir: "data"}
}
