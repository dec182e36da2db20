// Package errors provides structured error types for rcopt tooling.
//
// Errors carry the pipeline phase where they occurred (parse, verify, lower,
// config, pass), a kind describing the failure, and the IR path (function,
// block, instruction) leading to it. The optimization passes themselves never
// return errors; these types are used by the text format reader, the IR
// verifier, the Go SSA frontend and the configuration loader.
package errors
