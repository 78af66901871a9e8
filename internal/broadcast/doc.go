// Package broadcast implements the live fan-out core using the actor pattern.
//
// A single Hub goroutine owns the connection registry and the match
// subscription index and serves every mutation and read through its command
// channel, so neither structure needs a mutex. The same goroutine runs the
// liveness sweep on a ticker. Each connection has its own writer goroutine
// with a small buffer; broadcasts enqueue without blocking and skip
// connections whose buffer is full.
package broadcast
