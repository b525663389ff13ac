// Package gentest holds render functions generated from the templates in
// internal/compiler/testdata/blocks. Regenerate with go generate.
package gentest
