package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Archiver uploads a snapshot somewhere durable.
type Archiver interface {
	Upload(ctx context.Context, object string, r io.Reader) error
}

type BucketArchiver struct {
	client *storage.Client
	bucket string
}

// NewBucketArchiver connects to Google Cloud Storage using the default
// application credentials.
func NewBucketArchiver(ctx context.Context, bucket string) (*BucketArchiver, error) {
	log.Println("... creating google bucket connection ...")

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &BucketArchiver{client: client, bucket: bucket}, nil
}

func (a *BucketArchiver) Upload(ctx context.Context, object string, r io.Reader) error {
	w := a.client.Bucket(a.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/plain"

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close object writer: %w", err)
	}
	return nil
}

func (a *BucketArchiver) Close() error {
	return a.client.Close()
}

// uploadLines writes lines to the archiver, one per line, and returns the
// object name used.
func (s *server) uploadLines(r *http.Request, path string, lines []string) (string, error) {
	var body strings.Builder
	for _, line := range lines {
		body.WriteString(line)
		body.WriteByte('\n')
	}

	object := archiveObjectName(path, time.Now())
	return object, s.archiver.Upload(r.Context(), object, strings.NewReader(body.String()))
}

// archiveObjectName keys objects by the file name plus a short hash of the
// full path, so app.log in two directories never share an object.
func archiveObjectName(path string, now time.Time) string {
	sum := sha256.Sum256([]byte(path))
	return fmt.Sprintf("%s-%s/%d.log", filepath.Base(path), hex.EncodeToString(sum[:4]), now.Unix())
}

// newArchiver picks the archive backend from config. Without a bucket or an
// archive repository, archiving is disabled and the archiver is nil.
func newArchiver(ctx context.Context, config *Config) (Archiver, func() error, error) {
	noop := func() error { return nil }

	switch {
	case config.Bucket != "":
		log.Println("Archiving to bucket", config.Bucket)
		archiver, err := NewBucketArchiver(ctx, config.Bucket)
		if err != nil {
			return nil, noop, err
		}
		return archiver, archiver.Close, nil
	case config.ArchiveRepo != "":
		log.Println("Archiving to git repository", config.ArchiveRepo)
		archiver, err := NewGitArchiver(config.ArchiveRepo)
		if err != nil {
			return nil, noop, err
		}
		return archiver, noop, nil
	}
	return nil, noop, nil
}

// archiveHandler uploads the current snapshot of a source, one line per
// line, and responds with the object name.
func (s *server) archiveHandler(w http.ResponseWriter, r *http.Request) {
	if s.archiver == nil {
		http.Error(w, "Archiving is not configured", http.StatusServiceUnavailable)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "Path can't be empty", http.StatusBadRequest)
		return
	}

	lines, err := s.store.Snapshot(path)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	object, err := s.uploadLines(r, path, lines)
	if err != nil {
		log.Println("Error:", err)
		http.Error(w, "Failed to upload archive", http.StatusBadGateway)
		return
	}

	if err := WriteJSONResponse(w, map[string]interface{}{"object": object, "lines": len(lines)}); err != nil {
		http.Error(w, "Failed to write JSON response", http.StatusInternalServerError)
	}
}
