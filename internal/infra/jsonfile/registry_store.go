package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/renameio/v2"

	"subscriber-relay-bot/internal/domain"
)

// fileLayout mirrors user_data.json on disk.
type fileLayout struct {
	UserNumbers    map[string]int `json:"user_numbers"`
	Subscribers    []int64        `json:"subscribers"`
	NextUserNumber int            `json:"next_user_number"`
}

type RegistryStore struct {
	path string
}

func NewRegistryStore(path string) *RegistryStore {
	return &RegistryStore{path: path}
}

func (s *RegistryStore) Path() string { return s.path }

// Load reads the registry file. A missing file yields an empty registry.
// next_user_number from the file is ignored and recomputed from the assignments.
func (s *RegistryStore) Load(ctx context.Context) (domain.Registry, error) {
	if err := ctx.Err(); err != nil {
		return domain.Registry{}, err
	}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewRegistry(), nil
	}
	if err != nil {
		return domain.Registry{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	var data fileLayout
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.Registry{}, &domain.CorruptDataError{Source: s.path, Err: err}
	}

	reg := domain.NewRegistry()
	seen := make(map[int]int64, len(data.UserNumbers))
	for key, num := range data.UserNumbers {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return domain.Registry{}, &domain.CorruptDataError{Source: s.path, Err: fmt.Errorf("user id %q: %w", key, err)}
		}
		if num <= 0 {
			return domain.Registry{}, &domain.CorruptDataError{Source: s.path, Err: fmt.Errorf("user %d has non-positive number %d", id, num)}
		}
		if other, dup := seen[num]; dup {
			return domain.Registry{}, &domain.CorruptDataError{Source: s.path, Err: fmt.Errorf("number %d assigned to both %d and %d", num, other, id)}
		}
		seen[num] = id
		reg.Assignments[id] = num
	}
	reg.NextSequence = domain.NextAfter(reg.Assignments)
	return reg, nil
}

// Persist rewrites the whole file. renameio writes a synced temp file next to
// the target and renames it over; the mode of an existing file is kept.
func (s *RegistryStore) Persist(ctx context.Context, reg domain.Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data := fileLayout{
		UserNumbers:    make(map[string]int, len(reg.Assignments)),
		Subscribers:    reg.Subscribers(),
		NextUserNumber: reg.NextSequence,
	}
	for id, num := range reg.Assignments {
		data.UserNumbers[strconv.FormatInt(id, 10)] = num
	}
	body, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	err = renameio.WriteFile(s.path, body, 0o644,
		renameio.WithTempDir(dir),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return syncDir(dir)
}

// syncDir makes the rename durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open dir %s: %w", dir, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync dir %s: %w", dir, err)
	}
	return nil
}
