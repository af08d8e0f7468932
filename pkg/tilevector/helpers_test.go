package tilevector

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/paulmach/orb"
)

// fakeCall records one Fetch on a fakeTransport.
type fakeCall struct {
	req       *Request
	done      func(*Response, error)
	cancelled bool
}

// fakeTransport records requests and completes them on demand.
type fakeTransport struct {
	mu    sync.Mutex
	calls []*fakeCall

	// respond, when set, completes every request synchronously inside Fetch.
	respond func(req *Request) (*Response, error)

	// reportCancel makes cancel report context.Canceled through done.
	reportCancel bool
}

func (t *fakeTransport) Fetch(req *Request, done func(*Response, error)) CancelFunc {
	call := &fakeCall{req: req, done: done}

	t.mu.Lock()
	t.calls = append(t.calls, call)
	respond := t.respond
	t.mu.Unlock()

	if respond != nil {
		done(respond(req))
	}

	return func() {
		t.mu.Lock()
		already := call.cancelled
		call.cancelled = true
		t.mu.Unlock()

		if t.reportCancel && !already {
			done(nil, context.Canceled)
		}
	}
}

func (t *fakeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

func (t *fakeTransport) call(i int) *fakeCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[i]
}

// succeed completes call i with a 200 response carrying body.
func (t *fakeTransport) succeed(i int, body string) {
	t.call(i).done(textResponse(200, body), nil)
}

// fail completes call i with a transport error.
func (t *fakeTransport) fail(i int, err error) {
	t.call(i).done(nil, err)
}

// trackingBody is a response body that records Close.
type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func textResponse(status int, body string) *Response {
	return &Response{
		StatusCode: status,
		Body:       &trackingBody{Reader: strings.NewReader(body)},
	}
}

// stubFormat returns preconfigured features keyed by the body text (or the
// XML root element name), so tests can check pointer identity.
type stubFormat struct {
	kind     FormatKind
	features map[string][]*Feature
	err      error

	mu   sync.Mutex
	seen []FormatSource
	opts []ReadOptions
}

func (f *stubFormat) Kind() FormatKind { return f.kind }

func (f *stubFormat) ReadFeatures(src FormatSource, opts ReadOptions) ([]*Feature, error) {
	f.mu.Lock()
	f.seen = append(f.seen, src)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	key := src.Text
	if src.Document != nil {
		key = src.Document.Root.Name.Local
	}
	return f.features[key], nil
}

var errBoom = errors.New("boom")

// newTestGrid returns a grid with origin (0,16), tile size 1 and
// resolutions 16, 8, 4, 2, 1. At zoom 3 (resolution 2) each tile is
// 2x2 map units: tile 3/1/1 covers {2,12,4,14}.
func newTestGrid(t testing.TB) *RegularGrid {
	t.Helper()
	grid, err := NewRegularGrid(orb.Point{0, 16}, []float64{16, 8, 4, 2, 1}, 1)
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}
	return grid
}

func pointFeature(id string, x, y float64) *Feature {
	return &Feature{
		ID:         id,
		Geometry:   orb.Point{x, y},
		Properties: map[string]any{"name": id},
	}
}

// recorder captures events in delivery order.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) subscribeAll(s *Source) {
	for _, t := range []EventType{EventLoadStart, EventTileLoaded, EventLoadEnd, EventChange} {
		s.Subscribe(t, r.handle)
	}
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

func (r *recorder) count(t EventType) int {
	n := 0
	for _, et := range r.types() {
		if et == t {
			n++
		}
	}
	return n
}

func (r *recorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
