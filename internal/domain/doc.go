// Package domain defines matches, commentary and the contracts between the
// application service, its stores and the live fan-out.
//
// No implementation code lives here; adapters import domain, never each other.
package domain
