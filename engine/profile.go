package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"
)

// ProfilesBucket is the KV bucket name holding synced directory profiles.
// The bucket is populated by the chat-platform sync; the engine only reads it.
const ProfilesBucket = "PROFILES"

// Profile is the completeness view the controller consumes.
type Profile struct {
	// Score is the completeness score, 0-100.
	Score int

	// MissingFields lists the profile fields still empty.
	MissingFields []string

	// JobTitle is the user's job title from the directory.
	JobTitle string
}

// Complete reports whether the score meets the given threshold.
func (p *Profile) Complete(threshold int) bool {
	return p.Score >= threshold
}

// ProfileSource provides the current profile state for a user. A transient
// failure must surface as an error; the controller degrades gracefully.
type ProfileSource interface {
	FetchProfile(ctx context.Context, userID string) (*Profile, error)
}

// ProfileRecord is the raw directory entry as synced into the PROFILES bucket.
type ProfileRecord struct {
	RealName     string `json:"real_name"`
	JobTitle     string `json:"job_title"`
	ProfileImage string `json:"profile_image"`
	Phone        string `json:"phone,omitempty"`
	Timezone     string `json:"timezone,omitempty"`
	StatusText   string `json:"status_text,omitempty"`
}

// Required fields carry 70% of the score, optional fields the remaining 30%.
var (
	requiredProfileFields = []struct {
		name string
		get  func(*ProfileRecord) string
	}{
		{"real name", func(r *ProfileRecord) string { return r.RealName }},
		{"job title", func(r *ProfileRecord) string { return r.JobTitle }},
		{"profile photo", func(r *ProfileRecord) string { return r.ProfileImage }},
	}
	optionalProfileFields = []struct {
		name string
		get  func(*ProfileRecord) string
	}{
		{"phone number", func(r *ProfileRecord) string { return r.Phone }},
		{"timezone", func(r *ProfileRecord) string { return r.Timezone }},
		{"status", func(r *ProfileRecord) string { return r.StatusText }},
	}
)

// Analyze scores the record and lists missing required fields. Optional
// fields affect the score but are not reported as missing.
func (r *ProfileRecord) Analyze() *Profile {
	p := &Profile{JobTitle: r.JobTitle}

	filledRequired := 0
	for _, f := range requiredProfileFields {
		if f.get(r) != "" {
			filledRequired++
		} else {
			p.MissingFields = append(p.MissingFields, f.name)
		}
	}
	filledOptional := 0
	for _, f := range optionalProfileFields {
		if f.get(r) != "" {
			filledOptional++
		}
	}

	score := 70.0*float64(filledRequired)/float64(len(requiredProfileFields)) +
		30.0*float64(filledOptional)/float64(len(optionalProfileFields))
	p.Score = int(score + 0.5)
	return p
}

// DirectorySource reads synced profiles from the PROFILES KV bucket.
type DirectorySource struct {
	bucket jetstream.KeyValue
}

// NewDirectorySource creates the source, provisioning the bucket if needed
// so a fresh deployment starts clean.
func NewDirectorySource(nc *natsclient.Client) (*DirectorySource, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("get jetstream: %w", err)
	}

	bucket, err := js.CreateOrUpdateKeyValue(context.Background(), jetstream.KeyValueConfig{
		Bucket:      ProfilesBucket,
		Description: "Directory profiles synced from the chat platform",
		TTL:         0, // Profiles persist until the sync removes them
	})
	if err != nil {
		return nil, fmt.Errorf("create/update kv bucket: %w", err)
	}

	return &DirectorySource{bucket: bucket}, nil
}

// FetchProfile implements ProfileSource. A missing key means the directory
// sync has not caught up yet, which callers treat as a transient failure.
func (d *DirectorySource) FetchProfile(ctx context.Context, userID string) (*Profile, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entry, err := d.bucket.Get(fetchCtx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", userID, err)
	}

	var record ProfileRecord
	if err := json.Unmarshal(entry.Value(), &record); err != nil {
		return nil, fmt.Errorf("unmarshal profile %s: %w", userID, err)
	}

	return record.Analyze(), nil
}
