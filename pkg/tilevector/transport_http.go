package tilevector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// HTTPTransportOptions configures an HTTPTransport.
type HTTPTransportOptions struct {
	// Client is the HTTP client. If nil, a client with Timeout is used.
	Client *http.Client

	// Workers limits concurrent round trips (0 = unlimited).
	Workers int

	// Timeout bounds a single round trip (0 = no timeout).
	Timeout time.Duration

	// UserAgent is sent with every request when non-empty.
	UserAgent string

	// Header is added to every request.
	Header http.Header

	// Dedupe shares one round trip between identical concurrent GETs.
	Dedupe bool

	// Logger receives debug output. Defaults to a no-op logger.
	Logger *zap.Logger
}

// DefaultHTTPTransportOptions returns sensible defaults:
// 8 workers, 30s timeout, deduplicated GETs.
func DefaultHTTPTransportOptions() HTTPTransportOptions {
	return HTTPTransportOptions{
		Workers:   8,
		Timeout:   30 * time.Second,
		UserAgent: "tilevector",
		Dedupe:    true,
	}
}

// HTTPTransport is a Transport backed by net/http.
//
// Bodies are read fully before the response is handed back, so every caller
// sharing a deduplicated request gets its own reader. Responses with an XML
// content type carry a parsed Document.
type HTTPTransport struct {
	client *http.Client
	opts   HTTPTransportOptions
	logger *zap.Logger
	sem    *semaphore.Weighted
	group  singleflight.Group
}

// NewHTTPTransport creates an HTTP transport.
func NewHTTPTransport(opts HTTPTransportOptions) *HTTPTransport {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &HTTPTransport{
		client: client,
		opts:   opts,
		logger: logger,
	}
	if opts.Workers > 0 {
		t.sem = semaphore.NewWeighted(int64(opts.Workers))
	}
	return t
}

// fetched is a completed round trip with its body in memory.
type fetched struct {
	status int
	header http.Header
	body   []byte
	doc    *XMLDocument
}

func (f *fetched) response() *Response {
	return &Response{
		StatusCode: f.status,
		Header:     f.header.Clone(),
		Body:       io.NopCloser(bytes.NewReader(f.body)),
		Document:   f.doc,
	}
}

// Fetch implements Transport. The request runs on its own goroutine; the
// returned CancelFunc cancels its context, after which done receives the
// context error.
func (t *HTTPTransport) Fetch(req *Request, done func(*Response, error)) CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		resp, err := t.Do(ctx, req)
		done(resp, err)
	}()
	return CancelFunc(cancel)
}

// Do performs the request and blocks until it completes or ctx is done.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	if !t.opts.Dedupe || method != http.MethodGet {
		f, err := t.roundTrip(ctx, method, req)
		if err != nil {
			return nil, err
		}
		return f.response(), nil
	}

	// The shared round trip outlives any single caller's cancellation
	ch := t.group.DoChan(req.URL, func() (any, error) {
		return t.roundTrip(context.WithoutCancel(ctx), method, req)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			t.logger.Debug("shared tile request", zap.String("url", req.URL))
		}
		return res.Val.(*fetched).response(), nil
	}
}

func (t *HTTPTransport) roundTrip(ctx context.Context, method string, req *Request) (*fetched, error) {
	if t.sem != nil {
		if err := t.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer t.sem.Release(1)
	}

	if t.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range t.opts.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if t.opts.UserAgent != "" {
		httpReq.Header.Set("User-Agent", t.opts.UserAgent)
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	f := &fetched{
		status: resp.StatusCode,
		header: resp.Header,
		body:   data,
	}
	if isXMLContentType(resp.Header.Get("Content-Type")) && len(data) > 0 {
		// Unparsable XML leaves Document nil; the loader's text fallback
		// reports the error.
		if doc, err := parseXMLBytes(data); err == nil {
			f.doc = doc
		}
	}

	t.logger.Debug("tile request complete",
		zap.String("method", method),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	return f, nil
}

func isXMLContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "text/xml" || mt == "application/xml" || strings.HasSuffix(mt, "+xml")
}
