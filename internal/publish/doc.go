// Package publish renders assets as markdown notes in the vault.
//
// Each note carries Dataview frontmatter and is fingerprinted so unchanged
// notes are left alone. The package also writes the _Index.md dashboard and
// the _About.md description next to the notes folder.
package publish
