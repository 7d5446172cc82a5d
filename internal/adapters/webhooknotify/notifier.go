package webhooknotify

// Package webhooknotify announces dispatched jobs to an external notification
// service over a webhook. The caller treats delivery as fire-and-forget.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rowhq/fieldproof/internal/domain/model"
	"github.com/rowhq/fieldproof/internal/ports"
)

// Config holds the webhook destination settings.
type Config struct {
	URL        string
	AuthToken  string       // Optional bearer token
	HTTPClient *http.Client // Optional, defaults to a 10s-timeout client
}

// Notifier implements ports.AppraiserNotifier by POSTing job announcements
// to the configured webhook.
type Notifier struct {
	url        string
	authToken  string
	httpClient *http.Client
}

var _ ports.AppraiserNotifier = (*Notifier)(nil)

// NewNotifier constructs a webhook notifier from Config.
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook notifier: URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Notifier{
		url:        cfg.URL,
		authToken:  cfg.AuthToken,
		httpClient: httpClient,
	}, nil
}

type announcement struct {
	JobID        string     `json:"job_id"`
	PropertyID   string     `json:"property_id"`
	JobType      string     `json:"job_type"`
	PayoutCents  int64      `json:"payout_cents"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	RadiusMiles  float64    `json:"radius_miles"`
	DispatchedAt time.Time  `json:"dispatched_at"`
}

type announcementResult struct {
	Notified int `json:"notified"`
}

// NotifyNewJob posts the announcement and returns how many appraisers the
// notification service reached.
func (n *Notifier) NotifyNewJob(ctx context.Context, job *model.Job, radiusMiles float64) (int, error) {
	if job == nil {
		return 0, errors.New("webhook notifier: job is required")
	}

	payload := announcement{
		JobID:        job.ID,
		PropertyID:   job.PropertyID,
		JobType:      string(job.Type),
		PayoutCents:  job.PayoutAmountCents,
		DueAt:        job.SLADueAt,
		RadiusMiles:  radiusMiles,
		DispatchedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode announcement: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build announcement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+n.authToken)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("deliver announcement: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	var result announcementResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// Delivery succeeded; a missing count is not worth failing over.
		return 0, nil
	}
	return result.Notified, nil
}
