// Package app provides the application service layer.
//
// Orchestrates the match and commentary use cases: every write goes to the
// durable store first and is announced to live viewers only after it
// succeeded. Depends on domain interfaces, not concrete implementations.
package app
