package tilevector

import (
	"regexp"
	"strconv"
	"strings"
)

// TileURLFunc builds the request URL for a (transformed) tile coordinate.
//
// The second return value is false when the tile has no URL; such tiles are
// skipped by EnsureLoaded and never get a cache entry.
type TileURLFunc func(tc TileCoord, pixelRatio float64, projection Projection) (string, bool)

// NullTileURLFunc returns no URL for every tile.
func NullTileURLFunc(TileCoord, float64, Projection) (string, bool) {
	return "", false
}

var (
	placeholderPattern = regexp.MustCompile(`\{[^{}]*\}`)
	letterRangePattern = regexp.MustCompile(`\{([a-z])-([a-z])\}`)
	digitRangePattern  = regexp.MustCompile(`\{(\d+)-(\d+)\}`)
)

// TemplateURLFunc returns a TileURLFunc that substitutes {z}, {x}, {y} and
// {-y} in one of the given templates. When several templates are given, the
// template is picked from the tile coordinate so a tile always maps to the
// same host.
//
// Example:
//
//	fn, err := tilevector.TemplateURLFunc("https://tiles.example.com/{z}/{x}/{y}.json")
func TemplateURLFunc(templates ...string) (TileURLFunc, error) {
	if len(templates) == 0 {
		return NullTileURLFunc, nil
	}

	for _, tmpl := range templates {
		for _, ph := range placeholderPattern.FindAllString(tmpl, -1) {
			switch ph {
			case "{z}", "{x}", "{y}", "{-y}":
			default:
				return nil, &ErrTemplate{Template: tmpl, Placeholder: ph}
			}
		}
	}

	tmpls := make([]string, len(templates))
	copy(tmpls, templates)

	return func(tc TileCoord, _ float64, _ Projection) (string, bool) {
		tmpl := tmpls[templateIndex(tc, len(tmpls))]
		return fillTemplate(tmpl, tc), true
	}, nil
}

// URLFuncFromTemplate expands ranges in url (see ExpandURL) and builds a
// TemplateURLFunc from the result.
func URLFuncFromTemplate(url string) (TileURLFunc, error) {
	urls, err := ExpandURL(url)
	if err != nil {
		return nil, err
	}
	return TemplateURLFunc(urls...)
}

func templateIndex(tc TileCoord, n int) int {
	if n == 1 {
		return 0
	}
	h := (tc.X << uint(tc.Z)) + tc.Y
	i := h % n
	if i < 0 {
		i += n
	}
	return i
}

func fillTemplate(tmpl string, tc TileCoord) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(tc.Z),
		"{x}", strconv.Itoa(tc.X),
		"{y}", strconv.Itoa(tc.Y),
		"{-y}", strconv.Itoa((1<<uint(tc.Z))-1-tc.Y),
	)
	return r.Replace(tmpl)
}

// maxExpandedURLs bounds the number of URLs a single range may produce.
const maxExpandedURLs = 1024

// ExpandURL expands the first letter range ({a-c}) or digit range ({1-4})
// in url into one URL per value. A URL without a range is returned as is.
// A reversed range, or one yielding more than 1024 URLs, is an
// *ErrTemplate.
//
// Example:
//
//	urls, err := tilevector.ExpandURL("https://{a-c}.tiles.example.com/{z}/{x}/{y}.json")
//	// https://a.tiles..., https://b.tiles..., https://c.tiles...
func ExpandURL(url string) ([]string, error) {
	if m := letterRangePattern.FindStringSubmatchIndex(url); m != nil {
		start, stop := url[m[2]], url[m[4]]
		if start > stop {
			return nil, &ErrTemplate{Template: url, Placeholder: url[m[0]:m[1]]}
		}
		var urls []string
		for c := start; c <= stop; c++ {
			urls = append(urls, url[:m[0]]+string(c)+url[m[1]:])
		}
		return urls, nil
	}

	if m := digitRangePattern.FindStringSubmatchIndex(url); m != nil {
		bad := &ErrTemplate{Template: url, Placeholder: url[m[0]:m[1]]}
		start, err := strconv.Atoi(url[m[2]:m[3]])
		if err != nil {
			return nil, bad
		}
		stop, err := strconv.Atoi(url[m[4]:m[5]])
		if err != nil || start > stop || stop-start >= maxExpandedURLs {
			return nil, bad
		}
		urls := make([]string, 0, stop-start+1)
		for i := start; i <= stop; i++ {
			urls = append(urls, url[:m[0]]+strconv.Itoa(i)+url[m[1]:])
		}
		return urls, nil
	}

	return []string{url}, nil
}
