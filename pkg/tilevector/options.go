package tilevector

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SourceOptions configures a Source.
type SourceOptions struct {
	// Format decodes tile responses. Required.
	Format Format

	// TileGrid maps extents and resolutions to tiles. Required.
	TileGrid TileGrid

	// TileURLFunc builds tile URLs. Takes precedence over URLs and URL.
	TileURLFunc TileURLFunc

	// URLs is a list of URL templates; see TemplateURLFunc.
	URLs []string

	// URL is a single URL template which may contain a {a-c} or {1-4}
	// range; see ExpandURL.
	URL string

	// TileCoordTransform is applied to grid coordinates before the URL
	// function. Defaults to IdentityTransform.
	TileCoordTransform TileCoordTransform

	// PostBody, when set, is sent with every tile request as a POST.
	PostBody string

	// Transport issues requests. Defaults to an HTTPTransport with
	// DefaultHTTPTransportOptions.
	Transport Transport

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Meter and Tracer default to no-op implementations.
	Meter  metric.Meter
	Tracer trace.Tracer
}

// DefaultSourceOptions returns options with every optional field set to its
// default. Format, TileGrid and the URL configuration are left empty.
func DefaultSourceOptions() SourceOptions {
	lo := DefaultLoaderOptions()
	return SourceOptions{
		TileCoordTransform: IdentityTransform,
		Logger:             lo.Logger,
		Meter:              lo.Meter,
		Tracer:             lo.Tracer,
	}
}

// Validate reports configuration errors.
func (o SourceOptions) Validate() error {
	if o.Format == nil {
		return ErrMissingFormat
	}
	if kind := o.Format.Kind(); !kind.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownFormatKind, kind)
	}
	if o.TileGrid == nil {
		return ErrMissingTileGrid
	}
	return nil
}

// urlFunc resolves the configured URL function. No URL configuration at all
// yields NullTileURLFunc.
func (o SourceOptions) urlFunc() (TileURLFunc, error) {
	switch {
	case o.TileURLFunc != nil:
		return o.TileURLFunc, nil
	case len(o.URLs) > 0:
		return TemplateURLFunc(o.URLs...)
	case o.URL != "":
		return URLFuncFromTemplate(o.URL)
	default:
		return NullTileURLFunc, nil
	}
}
