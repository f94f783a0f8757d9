// Package internal contains the core implementation packages for imprint.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the imprint CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - world: Compilation host answering an engine's resolution queries
//   - vfs: Virtual paths, file ids and the per-host file table
//   - packages: Package specs, registry downloads and the on-disk cache
//   - fonts: Font discovery, the font book and lazy face loading
//   - value: The document value algebra and the bridge from Go values
//   - compiler: Engine and serializer contracts and the compile flow
//   - config: Configuration management with validation
//   - errors: Typed host errors and compiler diagnostics
//   - logging: Structured logging on log/slog
//   - watcher: File system monitoring with debouncing
//   - version: Build metadata
//
// # Inter-Package Communication
//
// A compilation flows through the packages in one direction:
//
//   - config resolves flags, environment and .imprint.yml into one Config
//   - value loads the data file and converts it into document values
//   - world builds a Host from the source, the values, fonts and packages
//   - compiler runs an engine against the Host and serializes the result
//   - watcher triggers the whole flow again with a fresh Host on change
//
// A Host is built for one compilation and discarded afterwards. Only the
// package cache on disk outlives it.
//
// # Testing Strategy
//
// Each package carries unit tests next to its code. Property tests use
// gopter and run with the property build tag:
//
//	go test -tags property ./...
package internal
