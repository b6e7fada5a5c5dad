// Package driver runs the front end over a set of Go files: it parses them
// in parallel, discovers //weft:kernel and //weft:func declarations, builds
// the global namespace from package constants, and translates every kernel
// in its own builder context. IR results can be cached on disk.
package driver
