package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultUploadDir       = "/tmp/atelier/uploads"
	DefaultMaxUploadSizeMB = 25
	DefaultURLPrefix       = "/files"
)

// LocalStore keeps blobs on the local filesystem under a configured root.
// Each blob lives in its own directory keyed by a random UUID, alongside a
// small metadata sidecar so Stat does not depend on database state.
type LocalStore struct {
	root      string
	urlPrefix string
}

// NewLocalStore creates a filesystem-backed store rooted at dir.
func NewLocalStore(dir, urlPrefix string) *LocalStore {
	if dir == "" {
		dir = DefaultUploadDir
	}
	if urlPrefix == "" {
		urlPrefix = DefaultURLPrefix
	}
	return &LocalStore{root: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

type sidecar struct {
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func (s *LocalStore) Save(_ context.Context, filename string, content []byte) (*Info, error) {
	id := uuid.NewString()
	dir := filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	info := &Info{
		ID:         id,
		Filename:   filepath.Base(filename),
		SizeBytes:  int64(len(content)),
		UploadedAt: time.Now().UTC(),
	}

	if err := os.WriteFile(filepath.Join(dir, "content"), content, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to write blob content: %w", err)
	}

	meta, err := json.Marshal(sidecar{Filename: info.Filename, SizeBytes: info.SizeBytes, UploadedAt: info.UploadedAt})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), meta, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to write blob metadata: %w", err)
	}

	return info, nil
}

func (s *LocalStore) Stat(_ context.Context, id string) (*Info, error) {
	if !validBlobID(id) {
		return nil, ErrNotFound
	}
	// #nosec G304: id is a validated UUID
	raw, err := os.ReadFile(filepath.Join(s.root, id, "meta.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var sc sidecar
	if err := json.Unmarshal(raw, &sc); err != nil {
		return nil, err
	}
	return &Info{ID: id, Filename: sc.Filename, SizeBytes: sc.SizeBytes, UploadedAt: sc.UploadedAt}, nil
}

func (s *LocalStore) Open(_ context.Context, id string) (io.ReadCloser, error) {
	if !validBlobID(id) {
		return nil, ErrNotFound
	}
	// #nosec G304: id is a validated UUID
	f, err := os.Open(filepath.Join(s.root, id, "content"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) Delete(_ context.Context, id string) error {
	if !validBlobID(id) {
		return nil
	}
	return os.RemoveAll(filepath.Join(s.root, id))
}

func (s *LocalStore) URL(id string) string {
	return fmt.Sprintf("%s/%s", s.urlPrefix, id)
}

// validBlobID rejects anything that is not a UUID, which also rules out
// path traversal via crafted IDs.
func validBlobID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
