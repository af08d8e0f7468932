package tilevector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// LoadRequest describes one resource to load.
type LoadRequest struct {
	// URL of the resource. Required.
	URL string

	// Format decodes the response. Required.
	Format Format

	// PostBody switches the request from GET to POST with this payload.
	PostBody string

	// Projection is passed to the format as the feature projection.
	Projection Projection
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	Logger *zap.Logger
	Meter  metric.Meter
	Tracer trace.Tracer
}

// DefaultLoaderOptions returns options with no-op logging and telemetry.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		Logger: zap.NewNop(),
		Meter:  metricnoop.NewMeterProvider().Meter(instrumentationName),
		Tracer: tracenoop.NewTracerProvider().Tracer(instrumentationName),
	}
}

// Loader fetches one resource per call and decodes it into features.
//
// Exactly zero or one of the success and failure callbacks runs for each
// Load call. Cancelling never runs a callback by itself; if the transport
// reports an error after cancellation, that error goes to the failure
// callback.
type Loader struct {
	transport Transport
	logger    *zap.Logger
	tracer    trace.Tracer
	metrics   *loadMetrics
}

// NewLoader creates a loader that issues requests through transport.
// Zero-valued option fields fall back to DefaultLoaderOptions.
func NewLoader(transport Transport, opts LoaderOptions) (*Loader, error) {
	if transport == nil {
		return nil, ErrMissingTransport
	}

	defaults := DefaultLoaderOptions()
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}
	if opts.Meter == nil {
		opts.Meter = defaults.Meter
	}
	if opts.Tracer == nil {
		opts.Tracer = defaults.Tracer
	}

	metrics, err := newLoadMetrics(opts.Meter)
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	return &Loader{
		transport: transport,
		logger:    opts.Logger,
		tracer:    opts.Tracer,
		metrics:   metrics,
	}, nil
}

// Load issues exactly one fetch for req.URL and returns a handle that
// aborts it. Either callback may be nil.
//
// Example:
//
//	cancel := loader.Load(tilevector.LoadRequest{
//	    URL:    "https://tiles.example.com/3/1/1.json",
//	    Format: tilevector.GeoJSON{},
//	}, func(features []*tilevector.Feature) {
//	    fmt.Printf("loaded %d features\n", len(features))
//	}, func(err error) {
//	    log.Printf("load failed: %v", err)
//	})
//	defer cancel()
func (l *Loader) Load(req LoadRequest, onSuccess func([]*Feature), onFailure func(error)) CancelFunc {
	method := http.MethodGet
	var body []byte
	if req.PostBody != "" {
		method = http.MethodPost
		body = []byte(req.PostBody)
	}

	log := l.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("url", req.URL),
	)

	ctx, span := l.tracer.Start(context.Background(), "tilevector.load",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", req.URL),
		))

	start := time.Now()
	var once sync.Once
	done := func(resp *Response, fetchErr error) {
		once.Do(func() {
			features, err := l.decode(req, resp, fetchErr, log)

			kind := FormatKind(0)
			if req.Format != nil {
				kind = req.Format.Kind()
			}
			l.metrics.recordLoad(ctx, kind, time.Since(start), err)
			endSpan(span, err)

			if err != nil {
				log.Debug("tile load failed", zap.Error(err))
				if onFailure != nil {
					onFailure(err)
				}
				return
			}

			log.Debug("tile load complete",
				zap.Int("features", len(features)),
				zap.Duration("elapsed", time.Since(start)))
			if onSuccess != nil {
				onSuccess(features)
			}
		})
	}

	log.Debug("loading tile resource", zap.String("method", method))
	cancel := l.transport.Fetch(&Request{
		Method: method,
		URL:    req.URL,
		Body:   body,
	}, done)
	if cancel == nil {
		return func() {}
	}
	return cancel
}

// decode turns a transport result into features. The response body is
// closed on every path.
func (l *Loader) decode(req LoadRequest, resp *Response, fetchErr error, log *zap.Logger) ([]*Feature, error) {
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}

	if fetchErr != nil {
		return nil, fetchErr
	}
	if resp == nil {
		log.DPanic("transport reported success without a response")
		return nil, ErrNoBody
	}
	if !resp.Success() {
		return nil, &ErrStatus{URL: req.URL, StatusCode: resp.StatusCode}
	}

	if req.Format == nil {
		log.DPanic("load request without format")
		return nil, ErrMissingFormat
	}
	kind := req.Format.Kind()

	var src FormatSource
	switch kind {
	case FormatJSON, FormatText:
		text, err := readBody(resp)
		if err != nil {
			log.DPanic("unreadable response body", zap.Error(err))
			return nil, err
		}
		src.Text = text

	case FormatXML:
		doc := resp.Document
		if doc == nil {
			text, err := readBody(resp)
			if err != nil {
				log.DPanic("unreadable response body", zap.Error(err))
				return nil, err
			}
			doc, err = ParseXML(text)
			if err != nil {
				log.DPanic("unparsable XML response", zap.Error(err))
				return nil, &ErrDecode{URL: req.URL, Kind: kind, Err: err}
			}
		}
		src.Document = doc

	default:
		log.DPanic("unknown format kind", zap.Stringer("kind", kind))
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormatKind, kind)
	}

	features, err := req.Format.ReadFeatures(src, ReadOptions{FeatureProjection: req.Projection})
	if err != nil {
		log.DPanic("undecodable response", zap.Stringer("kind", kind), zap.Error(err))
		return nil, &ErrDecode{URL: req.URL, Kind: kind, Err: err}
	}
	return features, nil
}

func readBody(resp *Response) (string, error) {
	if resp.Body == nil {
		return "", ErrNoBody
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}
