package compiler

//go:generate go run github.com/conneroisu/statickit gen testdata/blocks --out internal/gentest --package gentest
