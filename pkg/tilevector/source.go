package tilevector

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Source loads vector features tile by tile on demand and caches them.
//
// EnsureLoaded works out which grid tiles cover a viewport and requests each
// one that has never been requested before. A tile is absent until it is
// requested, pending while its request is outstanding (and forever after a
// failed request), and resolved once its features are stored. Resolved tiles
// are never fetched again.
//
// When a tile resolves, a change event is emitted, then tileloaded for that
// tile, then loadend if no other request is outstanding. A failed request
// emits no tile event, only loadend when it was the last one outstanding.
// A batch of requests issued while the source is idle starts with
// loadstart.
//
// Source is safe for concurrent use. Events are delivered synchronously, in
// the order the state changes happened, on the goroutine that caused them.
// An event raised while a handler is running is delivered after that
// handler returns.
type Source struct {
	mu sync.Mutex

	grid      TileGrid
	format    Format
	urlFunc   TileURLFunc
	transform TileCoordTransform
	postBody  string
	loader    *Loader
	logger    *zap.Logger

	tiles       map[string]*tileEntry
	order       []string // tile keys in creation order
	outstanding map[string]*tileRequest
	requests    int64
	failures    int64

	events   *notifier
	queue    []Event
	flushing bool
}

// tileEntry is the cached state of one tile.
type tileEntry struct {
	coord    TileCoord
	state    TileState
	features []*Feature
	index    *tileIndex
}

// tileRequest is one outstanding tile request. The pointer identifies the
// request, so completions from before a Clear can be told apart from a new
// request for the same key.
type tileRequest struct {
	coord   TileCoord
	key     string
	url     string
	cancel  CancelFunc
	aborted bool
}

// SourceStats contains source statistics.
type SourceStats struct {
	Tiles       int   // Cache entries (pending + resolved)
	Pending     int   // Tiles without stored features
	Resolved    int   // Tiles with stored features
	Features    int   // Features across resolved tiles
	Outstanding int   // Requests in flight
	Requests    int64 // Requests issued since creation
	Failures    int64 // Requests that failed since creation
}

// NewSource creates a source. Configuration errors are reported here
// rather than on first load.
//
// Example:
//
//	src, err := tilevector.NewSource(tilevector.SourceOptions{
//	    Format:   tilevector.GeoJSON{},
//	    TileGrid: tilevector.NewWebMercatorGrid(19),
//	    URL:      "https://{a-c}.tiles.example.com/{z}/{x}/{y}.json",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	src.EnsureLoaded(viewport, resolution, tilevector.EPSG3857)
func NewSource(opts SourceOptions) (*Source, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	urlFunc, err := opts.urlFunc()
	if err != nil {
		return nil, err
	}

	defaults := DefaultSourceOptions()
	if opts.TileCoordTransform == nil {
		opts.TileCoordTransform = defaults.TileCoordTransform
	}
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}
	if opts.Meter == nil {
		opts.Meter = defaults.Meter
	}
	if opts.Tracer == nil {
		opts.Tracer = defaults.Tracer
	}
	if opts.Transport == nil {
		httpOpts := DefaultHTTPTransportOptions()
		httpOpts.Logger = opts.Logger
		opts.Transport = NewHTTPTransport(httpOpts)
	}

	loader, err := NewLoader(opts.Transport, LoaderOptions{
		Logger: opts.Logger,
		Meter:  opts.Meter,
		Tracer: opts.Tracer,
	})
	if err != nil {
		return nil, fmt.Errorf("create loader: %w", err)
	}

	return &Source{
		grid:        opts.TileGrid,
		format:      opts.Format,
		urlFunc:     urlFunc,
		transform:   opts.TileCoordTransform,
		postBody:    opts.PostBody,
		loader:      loader,
		logger:      opts.Logger,
		tiles:       make(map[string]*tileEntry),
		outstanding: make(map[string]*tileRequest),
		events:      newNotifier(),
	}, nil
}

// TileGrid returns the source's tile grid.
func (s *Source) TileGrid() TileGrid {
	return s.grid
}

// Subscribe registers h for events of type t.
func (s *Source) Subscribe(t EventType, h Handler) Subscription {
	return s.events.subscribe(t, h)
}

// Unsubscribe removes a handler. It returns false if the subscription was
// not registered.
func (s *Source) Unsubscribe(sub Subscription) bool {
	return s.events.unsubscribe(sub)
}

// EnsureLoaded requests every tile covering extent at the zoom level for
// resolution that is not already cached. Tiles for which the URL function
// yields no URL are left absent.
//
// Tiles are visited column by column (x outer, y inner).
//
// The grid, the coordinate transform and the URL function run without the
// source lock held, so they may call back into the source.
func (s *Source) EnsureLoaded(extent Extent, resolution float64, projection Projection) {
	z := s.grid.ZForResolution(resolution)
	r := s.grid.TileRangeForExtentAndZ(extent, z)

	s.mu.Lock()
	urlFunc, transform := s.urlFunc, s.transform
	var candidates []*tileRequest
	for x := r.MinX; x <= r.MaxX; x++ {
		for y := r.MinY; y <= r.MaxY; y++ {
			coord := TileCoord{Z: z, X: x, Y: y}
			key := coord.Key()
			if _, ok := s.tiles[key]; ok {
				continue
			}
			candidates = append(candidates, &tileRequest{coord: coord, key: key})
		}
	}
	s.mu.Unlock()

	if len(candidates) == 0 {
		return
	}

	for _, req := range candidates {
		url, ok := urlFunc(transform(req.coord, projection), 1, projection)
		if ok {
			req.url = url
		}
	}

	s.mu.Lock()
	wasIdle := len(s.outstanding) == 0

	var issued []*tileRequest
	for _, req := range candidates {
		if req.url == "" {
			continue
		}
		// Another caller may have reserved the tile meanwhile
		if _, ok := s.tiles[req.key]; ok {
			continue
		}

		s.tiles[req.key] = &tileEntry{coord: req.coord, state: TilePending}
		s.order = append(s.order, req.key)
		s.outstanding[req.key] = req
		issued = append(issued, req)
	}

	if len(issued) > 0 {
		s.requests += int64(len(issued))
		s.loader.metrics.addOutstanding(context.Background(), len(issued))
		if wasIdle {
			s.queue = append(s.queue, Event{Type: EventLoadStart})
		}
	}
	s.mu.Unlock()

	if len(issued) == 0 {
		return
	}

	s.logger.Debug("requesting tiles",
		zap.Int("z", z),
		zap.Int("count", len(issued)),
		zap.String("projection", string(projection)))
	s.flush()

	for _, req := range issued {
		req := req // per-iteration copy; go directive lowered to 1.21 for the local toolchain
		cancel := s.loader.Load(LoadRequest{
			URL:        req.url,
			Format:     s.format,
			PostBody:   s.postBody,
			Projection: projection,
		}, func(features []*Feature) {
			s.complete(req, features, nil)
		}, func(err error) {
			s.complete(req, nil, err)
		})

		s.mu.Lock()
		abortNow := false
		if s.outstanding[req.key] == req {
			if req.aborted {
				abortNow = true
			} else {
				req.cancel = cancel
			}
		}
		s.mu.Unlock()

		// AbortAll ran before the handle was known
		if abortNow {
			cancel()
		}
	}
}

// complete handles the result of one tile request.
func (s *Source) complete(req *tileRequest, features []*Feature, err error) {
	var idx *tileIndex
	if err == nil {
		idx = buildTileIndex(features)
	}

	s.mu.Lock()
	if s.outstanding[req.key] != req {
		s.mu.Unlock()
		s.logger.Debug("ignoring completion of forgotten tile request",
			zap.String("tile", req.key))
		return
	}
	delete(s.outstanding, req.key)
	s.loader.metrics.addOutstanding(context.Background(), -1)

	if err == nil {
		entry := s.tiles[req.key]
		entry.state = TileResolved
		entry.features = features
		entry.index = idx

		s.queue = append(s.queue,
			Event{Type: EventChange},
			Event{
				Type:     EventTileLoaded,
				Tile:     req.coord,
				Key:      req.key,
				Features: features,
			})
	} else {
		s.failures++
	}

	if len(s.outstanding) == 0 {
		s.queue = append(s.queue, Event{Type: EventLoadEnd})
	}
	aborted := req.aborted
	s.mu.Unlock()

	if err != nil {
		if aborted {
			s.logger.Debug("tile request aborted", zap.String("tile", req.key), zap.Error(err))
		} else {
			s.logger.Warn("tile request failed", zap.String("tile", req.key), zap.Error(err))
		}
	}

	s.flush()
}

// AbortAll cancels every outstanding request. Bookkeeping is only updated
// when the transport reports back; a transport that drops cancelled
// requests silently leaves their tiles pending.
func (s *Source) AbortAll() {
	s.mu.Lock()
	var cancels []CancelFunc
	for _, req := range s.outstanding {
		req.aborted = true
		if req.cancel != nil {
			cancels = append(cancels, req.cancel)
		}
	}
	s.mu.Unlock()

	if len(cancels) > 0 {
		s.logger.Debug("aborting tile requests", zap.Int("count", len(cancels)))
	}
	for _, cancel := range cancels {
		cancel()
	}
}

// Clear drops every cache entry and forgets outstanding requests without
// cancelling them; call AbortAll first to stop them. Completions of
// forgotten requests are ignored. If requests were outstanding, a
// loadend event is emitted.
func (s *Source) Clear() {
	s.mu.Lock()
	n := len(s.outstanding)
	s.tiles = make(map[string]*tileEntry)
	s.order = nil
	s.outstanding = make(map[string]*tileRequest)
	if n > 0 {
		s.loader.metrics.addOutstanding(context.Background(), -n)
		s.queue = append(s.queue, Event{Type: EventLoadEnd})
	}
	s.mu.Unlock()

	s.flush()
}

// SetTileURLFunc replaces the URL function and emits a change event.
// Cached tiles are kept.
func (s *Source) SetTileURLFunc(fn TileURLFunc) {
	if fn == nil {
		fn = NullTileURLFunc
	}
	s.mu.Lock()
	s.urlFunc = fn
	s.queue = append(s.queue, Event{Type: EventChange})
	s.mu.Unlock()

	s.flush()
}

// SetURL replaces the URL function with one built from a URL template
// (ranges such as {a-c} are expanded).
func (s *Source) SetURL(url string) error {
	fn, err := URLFuncFromTemplate(url)
	if err != nil {
		return err
	}
	s.SetTileURLFunc(fn)
	return nil
}

// SetURLs replaces the URL function with one built from URL templates.
func (s *Source) SetURLs(urls ...string) error {
	fn, err := TemplateURLFunc(urls...)
	if err != nil {
		return err
	}
	s.SetTileURLFunc(fn)
	return nil
}

// TileState returns the state of the tile with the given key.
func (s *Source) TileState(key string) TileState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.tiles[key]; ok {
		return entry.state
	}
	return TileAbsent
}

// TileFeatures returns the stored features of a resolved tile. The second
// return value is false unless the tile is resolved.
func (s *Source) TileFeatures(key string) ([]*Feature, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tiles[key]
	if !ok || entry.state != TileResolved {
		return nil, false
	}
	return entry.features, true
}

// Outstanding returns the number of requests in flight.
func (s *Source) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outstanding)
}

// Stats returns source statistics.
func (s *Source) Stats() SourceStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := SourceStats{
		Tiles:       len(s.tiles),
		Outstanding: len(s.outstanding),
		Requests:    s.requests,
		Failures:    s.failures,
	}
	for _, entry := range s.tiles {
		if entry.state == TileResolved {
			stats.Resolved++
			stats.Features += len(entry.features)
		} else {
			stats.Pending++
		}
	}
	return stats
}

// flush delivers queued events in order. Only one goroutine drains at a
// time; others leave their events for it.
func (s *Source) flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.flushing = false
			s.mu.Unlock()
			panic(r)
		}
	}()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.flushing = false
			s.mu.Unlock()
			return
		}
		e := s.queue[0]
		s.queue[0] = Event{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.events.emit(e)
	}
}
