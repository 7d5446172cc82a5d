// Package evidence derives trust facts for uploaded field evidence: suspicion
// flags on claimed capture time and location, and a tamper-evidence hash.
// Suspicious evidence is flagged for reviewers, never rejected.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rowhq/fieldproof/internal/domain/geo"
	"github.com/rowhq/fieldproof/internal/domain/model"
)

// locationSuspicionMiles is how far claimed coordinates may sit from the
// property before the location flag is raised.
const locationSuspicionMiles = 0.5

// capturedAtHintSkew is how far the claimed capture time may drift from the
// EXIF capture time before the timestamp flag is raised.
const capturedAtHintSkew = 15 * time.Minute

// Validator evaluates claimed capture facts against the job and property.
type Validator struct {
	staleAfter time.Duration
	hints      *HintExtractor
}

// Options configures a Validator.
type Options struct {
	// StaleAfter is how old a claimed capture time may be before it is
	// flagged. Zero means the default of 72 hours.
	StaleAfter time.Duration
	// Hints optionally cross-checks claimed values against EXIF metadata.
	Hints *HintExtractor
}

// NewValidator builds a Validator.
func NewValidator(opts Options) *Validator {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 72 * time.Hour
	}
	return &Validator{staleAfter: opts.StaleAfter, hints: opts.Hints}
}

// Input is one evidence confirmation to evaluate.
type Input struct {
	FileKey    string
	FileSize   int64
	CapturedAt time.Time
	Latitude   *float64
	Longitude  *float64
	EXIF       []byte
}

// Evaluation is the derived outcome for one evidence artifact.
type Evaluation struct {
	Flags         model.EvidenceFlags
	Verified      bool
	IntegrityHash string
}

// Evaluate derives the trust facts for one confirmation. job supplies the
// inspection start time; property supplies the reference coordinates. Either
// may carry nil fields, in which case the corresponding check is skipped.
func (v *Validator) Evaluate(in Input, job *model.Job, property *model.Property, now time.Time) Evaluation {
	var flags model.EvidenceFlags

	if in.CapturedAt.After(now) {
		flags.TimestampSuspicious = true
	}
	if now.Sub(in.CapturedAt) > v.staleAfter {
		flags.TimestampSuspicious = true
	}
	if job != nil && job.StartedAt != nil && in.CapturedAt.Before(*job.StartedAt) {
		flags.TimestampSuspicious = true
	}
	if v.hints != nil {
		// EXIF capture time disagreeing with the claimed one means one of the
		// two was edited.
		if hinted, ok := v.hints.CapturedAt(in.EXIF); ok {
			drift := in.CapturedAt.Sub(hinted)
			if drift < 0 {
				drift = -drift
			}
			if drift > capturedAtHintSkew {
				flags.TimestampSuspicious = true
			}
		}
	}

	lat, lon := in.Latitude, in.Longitude
	if (lat == nil || lon == nil) && v.hints != nil {
		// Fall back to EXIF coordinates when the client claimed none.
		if hLat, hLon, ok := v.hints.Coordinates(in.EXIF); ok {
			lat, lon = &hLat, &hLon
		}
	}
	if lat != nil && lon != nil && property != nil && property.HasCoordinates() {
		miles := geo.DistanceMiles(*property.Latitude, *property.Longitude, *lat, *lon)
		flags.DistanceFromPropertyMiles = miles
		if miles > locationSuspicionMiles {
			flags.LocationSuspicious = true
		}
	}
	if v.hints != nil && in.Latitude != nil && in.Longitude != nil {
		// EXIF coordinates disagreeing with the claimed ones by more than the
		// suspicion radius mean one of the two was fabricated.
		if hLat, hLon, ok := v.hints.Coordinates(in.EXIF); ok {
			if geo.DistanceMiles(*in.Latitude, *in.Longitude, hLat, hLon) > locationSuspicionMiles {
				flags.LocationSuspicious = true
			}
		}
	}

	return Evaluation{
		Flags:         flags,
		Verified:      !flags.TimestampSuspicious && !flags.LocationSuspicious,
		IntegrityHash: IntegrityHash(in.FileKey, in.FileSize, in.CapturedAt),
	}
}

// IntegrityHash fingerprints the stored object key, its size, and the claimed
// capture time. It detects post-hoc alteration of these three fields, not
// authenticity of origin.
func IntegrityHash(fileKey string, fileSize int64, capturedAt time.Time) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%s", fileKey, fileSize, capturedAt.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}
