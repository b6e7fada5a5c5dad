// Package project locates and parses the weft manifest (weft.toml, or
// weft.yaml) and computes the content digests used as cache keys.
package project
