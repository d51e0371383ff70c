// Package archive stores ledger snapshots as JSON objects in a bucket, under
// snapshots/<user>/<timestamp>.json.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/pocket-pulse/internal/domain"
)

// ErrNotFound is returned when no snapshot exists.
var ErrNotFound = errors.New("snapshot not found")

// FormatVersion is written into every snapshot.
const FormatVersion = 1

const (
	prefix      = "snapshots"
	stampFormat = "20060102T150405Z"
	contentType = "application/json"
)

// ObjectStore is the bucket operations the archive needs.
type ObjectStore interface {
	Put(ctx context.Context, bucket, object string, data []byte, contentType string) error
	Get(ctx context.Context, bucket, object string) ([]byte, error)
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}

// Snapshot is the stored document.
type Snapshot struct {
	Version int           `json:"version"`
	TakenAt time.Time     `json:"taken_at"`
	Ledger  domain.Ledger `json:"ledger"`
}

// Archive saves and loads snapshots in one bucket.
type Archive struct {
	store  ObjectStore
	bucket string
	now    func() time.Time
}

// New creates an archive over bucket.
func New(store ObjectStore, bucket string, now func() time.Time) *Archive {
	if now == nil {
		now = time.Now
	}
	return &Archive{store: store, bucket: bucket, now: now}
}

// ObjectName is where a snapshot of userID taken at t is stored.
func ObjectName(userID string, t time.Time) string {
	return path.Join(prefix, userID, t.UTC().Format(stampFormat)+".json")
}

// URI formats a gs:// URI.
func URI(bucket, object string) string {
	return "gs://" + bucket + "/" + object
}

// ParseURI splits gs://bucket/object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// Save uploads l and returns its URI.
func (a *Archive) Save(ctx context.Context, l domain.Ledger) (string, error) {
	if l.UserID == "" {
		return "", fmt.Errorf("Save: snapshot has no user")
	}
	taken := a.now().UTC()

	data, err := json.MarshalIndent(Snapshot{Version: FormatVersion, TakenAt: taken, Ledger: l}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("Save: encoding: %w", err)
	}

	object := ObjectName(l.UserID, taken)
	if err := a.store.Put(ctx, a.bucket, object, data, contentType); err != nil {
		return "", fmt.Errorf("Save: %w", err)
	}
	return URI(a.bucket, object), nil
}

// Load downloads and decodes the snapshot at uri.
func (a *Archive) Load(ctx context.Context, uri string) (Snapshot, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return Snapshot{}, fmt.Errorf("Load: %w", err)
	}

	data, err := a.store.Get(ctx, bucket, object)
	if err != nil {
		return Snapshot{}, fmt.Errorf("Load: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("Load: decoding %s: %w", uri, err)
	}
	if s.Version != FormatVersion {
		return Snapshot{}, fmt.Errorf("Load: %s has unsupported version %d", uri, s.Version)
	}
	return s, nil
}

// Latest returns the URI of the newest snapshot of userID.
func (a *Archive) Latest(ctx context.Context, userID string) (string, error) {
	names, err := a.store.List(ctx, a.bucket, path.Join(prefix, userID)+"/")
	if err != nil {
		return "", fmt.Errorf("Latest: %w", err)
	}

	var snaps []string
	for _, n := range names {
		if strings.HasSuffix(n, ".json") {
			snaps = append(snaps, n)
		}
	}
	if len(snaps) == 0 {
		return "", fmt.Errorf("Latest %s: %w", userID, ErrNotFound)
	}

	// Timestamps sort lexically.
	sort.Strings(snaps)
	return URI(a.bucket, snaps[len(snaps)-1]), nil
}
