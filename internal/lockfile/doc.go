// Package lockfile guards mutating commands with an advisory file lock so two
// pipeline runs never write the catalogue or the vault at the same time.
package lockfile
