package tilevector

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFormat is returned by NewSource when no Format is configured.
	ErrMissingFormat = errors.New("source requires a format")

	// ErrMissingTileGrid is returned by NewSource when no TileGrid is configured.
	ErrMissingTileGrid = errors.New("source requires a tile grid")

	// ErrMissingTransport is returned by NewLoader for a nil transport.
	ErrMissingTransport = errors.New("loader requires a transport")

	// ErrUnknownFormatKind indicates a format reported a kind other than
	// JSON, TEXT or XML.
	ErrUnknownFormatKind = errors.New("unknown format kind")

	// ErrNoBody indicates a successful response arrived without a body.
	ErrNoBody = errors.New("response has no body")

	// ErrNoDocument indicates an XML format was handed no parsed document.
	ErrNoDocument = errors.New("no XML document")
)

// ErrStatus indicates the tile service answered with a non-2xx status
type ErrStatus struct {
	URL        string
	StatusCode int
}

func (e *ErrStatus) Error() string {
	return fmt.Sprintf("tile request %s failed: HTTP %d", e.URL, e.StatusCode)
}

// ErrDecode indicates the response body could not be turned into features
type ErrDecode struct {
	URL  string
	Kind FormatKind
	Err  error
}

func (e *ErrDecode) Error() string {
	return fmt.Sprintf("decode %s response from %s: %v", e.Kind, e.URL, e.Err)
}

func (e *ErrDecode) Unwrap() error {
	return e.Err
}

// ErrTemplate indicates a URL template contains an unsupported placeholder
// or a malformed range
type ErrTemplate struct {
	Template    string
	Placeholder string
}

func (e *ErrTemplate) Error() string {
	return fmt.Sprintf("url template %q: invalid placeholder %s", e.Template, e.Placeholder)
}
