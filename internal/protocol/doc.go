// Package protocol defines the JSON messages exchanged over the /ws socket and
// the Router that turns inbound control frames into subscription changes.
package protocol
