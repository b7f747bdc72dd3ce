// Package proxy defines the server exposing the services of a node to its
// clients.
package proxy

import (
	"net"
	"net/http"
)

// Proxy is a server where the services register their handlers.
type Proxy interface {
	// Listen binds the address and serves the requests in the background.
	Listen() error

	// Close stops the server once the pending requests are done. The server
	// can listen again afterwards.
	Close() error

	// RegisterHandler serves the pattern with the handler.
	RegisterHandler(pattern string, handler http.Handler)

	// GetAddr returns the bound address, or nil when the server is not
	// listening.
	GetAddr() net.Addr
}
