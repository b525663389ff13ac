// Package internal holds the statickit implementation packages that are
// not part of the public API.
//
// # Package Organization
//
//   - compiler: lowers block templates to Go source or interpreted programs
//   - config: project settings loaded through Viper
//   - errors: KitError and the ErrorCollector used by batch operations
//   - htmltree: x/net/html parsing and tree helpers
//   - loader: YAML, HCL and JSON page configs
//   - logging: slog-backed structured logging
//   - server: dev preview server
//   - version: build identity
//
// The public packages live under pkg/: address, block, layout, page and
// schema.
package internal
