package tilevector

import (
	"io"
	"net/http"
)

// CancelFunc aborts an in-flight request. Calling it more than once, or
// after the request finished, has no effect.
type CancelFunc func()

// Request is a single tile request.
type Request struct {
	Method string
	URL    string
	Body   []byte
	Header http.Header
}

// Response is what a Transport hands back for a completed request.
type Response struct {
	StatusCode int
	Header     http.Header

	// Body is the response body. The loader closes it.
	Body io.ReadCloser

	// Document is the transport's parsed XML document, if it built one.
	Document *XMLDocument
}

// Success returns true for 2xx status codes.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport issues tile requests asynchronously.
//
// Fetch must return promptly and report the result through done exactly
// once, from any goroutine. After the returned CancelFunc is called the
// transport may either drop the request silently or report an error.
type Transport interface {
	Fetch(req *Request, done func(*Response, error)) CancelFunc
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(req *Request, done func(*Response, error)) CancelFunc

// Fetch implements Transport.
func (f TransportFunc) Fetch(req *Request, done func(*Response, error)) CancelFunc {
	return f(req, done)
}
