// Package server is the HTTP + WebSocket API surface for the developer
// console: health, the synthetic console tail, and the stub route table for
// features that have not been built yet.
package server
