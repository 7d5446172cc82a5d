package evidence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowhq/fieldproof/internal/domain/model"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testJob(startedAt time.Time) *model.Job {
	return &model.Job{ID: "job-1", StartedAt: &startedAt}
}

func testProperty(lat, lon float64) *model.Property {
	return &model.Property{ID: "prop-1", Latitude: &lat, Longitude: &lon}
}

func TestValidator_Timestamps(t *testing.T) {
	t.Parallel()

	v := NewValidator(Options{})
	started := testNow.Add(-4 * time.Hour)

	tests := []struct {
		name       string
		capturedAt time.Time
		suspicious bool
	}{
		{"fresh capture", testNow.Add(-time.Hour), false},
		{"future capture", testNow.Add(time.Minute), true},
		{"older than 72h", testNow.Add(-73 * time.Hour), true},
		{"before inspection started", started.Add(-time.Hour), true},
		{"exactly at start", started, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := v.Evaluate(Input{
				FileKey:    "k",
				FileSize:   1,
				CapturedAt: tt.capturedAt,
			}, testJob(started), nil, testNow)
			assert.Equal(t, tt.suspicious, out.Flags.TimestampSuspicious)
			assert.Equal(t, !tt.suspicious, out.Verified)
		})
	}
}

func TestValidator_Location(t *testing.T) {
	t.Parallel()

	v := NewValidator(Options{})
	started := testNow.Add(-time.Hour)
	prop := testProperty(40.7128, -74.0060)

	// ~0.3 miles away: not suspicious, distance recorded.
	nearLat, nearLon := 40.7128+0.00435, -74.0060
	near := v.Evaluate(Input{
		FileKey: "k", FileSize: 1, CapturedAt: testNow.Add(-time.Minute),
		Latitude: &nearLat, Longitude: &nearLon,
	}, testJob(started), prop, testNow)
	assert.False(t, near.Flags.LocationSuspicious)
	assert.InDelta(t, 0.3, near.Flags.DistanceFromPropertyMiles, 0.02)
	assert.True(t, near.Verified)

	// ~2 miles away: suspicious but still evaluated, never rejected.
	farLat, farLon := 40.7128+0.029, -74.0060
	far := v.Evaluate(Input{
		FileKey: "k", FileSize: 1, CapturedAt: testNow.Add(-time.Minute),
		Latitude: &farLat, Longitude: &farLon,
	}, testJob(started), prop, testNow)
	assert.True(t, far.Flags.LocationSuspicious)
	assert.False(t, far.Verified)

	// No coordinates claimed and no property coordinates: check skipped.
	none := v.Evaluate(Input{
		FileKey: "k", FileSize: 1, CapturedAt: testNow.Add(-time.Minute),
	}, testJob(started), nil, testNow)
	assert.False(t, none.Flags.LocationSuspicious)
	assert.True(t, none.Verified)
}

func TestValidator_EXIFCrossCheck(t *testing.T) {
	t.Parallel()

	hints, err := NewHintExtractor(HintExpressions{
		Latitude:  "gps.lat",
		Longitude: "gps.lon",
	})
	require.NoError(t, err)
	v := NewValidator(Options{Hints: hints})
	started := testNow.Add(-time.Hour)
	prop := testProperty(40.7128, -74.0060)

	// Claimed coordinates match the property, but EXIF places the capture
	// miles away: location flag raised.
	lat, lon := 40.7128, -74.0060
	out := v.Evaluate(Input{
		FileKey: "k", FileSize: 1, CapturedAt: testNow.Add(-time.Minute),
		Latitude: &lat, Longitude: &lon,
		EXIF: []byte(`{"gps":{"lat":40.7418,"lon":-74.0060}}`),
	}, testJob(started), prop, testNow)
	assert.True(t, out.Flags.LocationSuspicious)

	// EXIF agreeing with the claim leaves the flag down.
	out = v.Evaluate(Input{
		FileKey: "k", FileSize: 1, CapturedAt: testNow.Add(-time.Minute),
		Latitude: &lat, Longitude: &lon,
		EXIF: []byte(`{"gps":{"lat":40.7128,"lon":-74.0060}}`),
	}, testJob(started), prop, testNow)
	assert.False(t, out.Flags.LocationSuspicious)

	// Garbage EXIF is ignored, never an error.
	out = v.Evaluate(Input{
		FileKey: "k", FileSize: 1, CapturedAt: testNow.Add(-time.Minute),
		Latitude: &lat, Longitude: &lon,
		EXIF: []byte(`{{not json`),
	}, testJob(started), prop, testNow)
	assert.False(t, out.Flags.LocationSuspicious)
}

func TestValidator_EXIFCaptureTimeCrossCheck(t *testing.T) {
	t.Parallel()

	hints, err := NewHintExtractor(HintExpressions{CapturedAt: "exif.DateTimeOriginal"})
	require.NoError(t, err)
	v := NewValidator(Options{Hints: hints})
	started := testNow.Add(-time.Hour)

	claimed := testNow.Add(-time.Minute)
	exif := func(at time.Time) []byte {
		return []byte(`{"exif":{"DateTimeOriginal":"` + at.Format(time.RFC3339) + `"}}`)
	}

	// EXIF capture time hours off the claimed one: timestamp flag raised.
	out := v.Evaluate(Input{
		FileKey: "k", FileSize: 1, CapturedAt: claimed,
		EXIF: exif(claimed.Add(-3 * time.Hour)),
	}, testJob(started), nil, testNow)
	assert.True(t, out.Flags.TimestampSuspicious)
	assert.False(t, out.Verified)

	// Small clock drift between camera and phone stays quiet.
	out = v.Evaluate(Input{
		FileKey: "k", FileSize: 1, CapturedAt: claimed,
		EXIF: exif(claimed.Add(-5 * time.Minute)),
	}, testJob(started), nil, testNow)
	assert.False(t, out.Flags.TimestampSuspicious)
	assert.True(t, out.Verified)

	// No capture-time hint in the blob: check skipped.
	out = v.Evaluate(Input{
		FileKey: "k", FileSize: 1, CapturedAt: claimed,
		EXIF: []byte(`{"exif":{}}`),
	}, testJob(started), nil, testNow)
	assert.False(t, out.Flags.TimestampSuspicious)
}

func TestIntegrityHash(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	h1 := IntegrityHash("jobs/j1/a.jpg", 1024, at)
	require.Len(t, h1, 64)

	// Deterministic.
	assert.Equal(t, h1, IntegrityHash("jobs/j1/a.jpg", 1024, at))
	// Any of the three inputs changing changes the hash.
	assert.NotEqual(t, h1, IntegrityHash("jobs/j1/b.jpg", 1024, at))
	assert.NotEqual(t, h1, IntegrityHash("jobs/j1/a.jpg", 1025, at))
	assert.NotEqual(t, h1, IntegrityHash("jobs/j1/a.jpg", 1024, at.Add(time.Second)))
	// Equal instants in different zones hash identically.
	assert.Equal(t, h1, IntegrityHash("jobs/j1/a.jpg", 1024, at.In(time.FixedZone("X", -5*3600))))
}
