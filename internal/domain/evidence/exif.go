package evidence

import (
	"encoding/json"
	"fmt"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// HintExtractor pulls capture-time and GPS hints out of the opaque EXIF blob
// clients attach to a confirmation. The expressions are configuration; the
// blob itself is stored untyped and never trusted beyond cross-checking.
type HintExtractor struct {
	latExpr        string
	lonExpr        string
	capturedAtExpr string
}

// HintExpressions are the JMESPath expressions pointing at the hint fields.
// Empty expressions disable the corresponding hint.
type HintExpressions struct {
	Latitude   string
	Longitude  string
	CapturedAt string
}

// NewHintExtractor validates the expressions and builds a HintExtractor.
func NewHintExtractor(exprs HintExpressions) (*HintExtractor, error) {
	for _, e := range []string{exprs.Latitude, exprs.Longitude, exprs.CapturedAt} {
		if e == "" {
			continue
		}
		if _, err := jmespath.Compile(e); err != nil {
			return nil, fmt.Errorf("invalid exif hint expression %q: %w", e, err)
		}
	}
	return &HintExtractor{
		latExpr:        exprs.Latitude,
		lonExpr:        exprs.Longitude,
		capturedAtExpr: exprs.CapturedAt,
	}, nil
}

// Coordinates extracts GPS hints from the raw EXIF blob. ok is false when the
// blob is absent, unparseable, or the expressions yield no numbers.
func (h *HintExtractor) Coordinates(raw []byte) (lat, lon float64, ok bool) {
	if h.latExpr == "" || h.lonExpr == "" {
		return 0, 0, false
	}
	data, err := decode(raw)
	if err != nil {
		return 0, 0, false
	}
	lat, latOK := searchNumber(h.latExpr, data)
	lon, lonOK := searchNumber(h.lonExpr, data)
	return lat, lon, latOK && lonOK
}

// CapturedAt extracts the capture-time hint from the raw EXIF blob.
func (h *HintExtractor) CapturedAt(raw []byte) (time.Time, bool) {
	if h.capturedAtExpr == "" {
		return time.Time{}, false
	}
	data, err := decode(raw)
	if err != nil {
		return time.Time{}, false
	}
	res, err := jmespath.Search(h.capturedAtExpr, data)
	if err != nil {
		return time.Time{}, false
	}
	s, isStr := res.(string)
	if !isStr {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006:01:02 15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func decode(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty exif blob")
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func searchNumber(expr string, data any) (float64, bool) {
	res, err := jmespath.Search(expr, data)
	if err != nil {
		return 0, false
	}
	switch v := res.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
