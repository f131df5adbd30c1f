// Package repository persists analyses and their source documents through a
// storage adapter.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/unalkalkan/la5asni/internal/storage"
	"github.com/unalkalkan/la5asni/pkg/types"
)

const (
	rootPrefix   = "analyses/"
	analysisFile = "analysis.json"
	sourcePrefix = "source."
)

// Repository handles analysis persistence
type Repository interface {
	// Save stores an analysis, assigning an ID when it has none
	Save(ctx context.Context, analysis *types.Analysis) error

	// Get retrieves an analysis by ID; unknown IDs yield storage.ErrNotFound
	Get(ctx context.Context, id string) (*types.Analysis, error)

	// List returns all analyses, newest first
	List(ctx context.Context) ([]*types.Analysis, error)

	// SaveSource stores the uploaded document next to its analysis
	SaveSource(ctx context.Context, id string, data []byte, format string) error

	// GetSource retrieves the uploaded document and its format
	GetSource(ctx context.Context, id string) ([]byte, string, error)
}

// StorageRepository implements Repository using a storage adapter
type StorageRepository struct {
	storage storage.Adapter
}

// NewRepository creates a new analysis repository
func NewRepository(storageAdapter storage.Adapter) *StorageRepository {
	return &StorageRepository{
		storage: storageAdapter,
	}
}

// NewID returns a fresh analysis ID
func NewID() string {
	return uuid.NewString()
}

// Save stores an analysis
func (r *StorageRepository) Save(ctx context.Context, analysis *types.Analysis) error {
	if analysis.ID == "" {
		analysis.ID = NewID()
	}
	if err := validateID(analysis.ID); err != nil {
		return err
	}

	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	return r.storage.Put(ctx, analysisKey(analysis.ID), bytes.NewReader(data))
}

// Get retrieves an analysis by ID
func (r *StorageRepository) Get(ctx context.Context, id string) (*types.Analysis, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	}

	reader, err := r.storage.Get(ctx, analysisKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	defer reader.Close()

	var analysis types.Analysis
	if err := json.NewDecoder(reader).Decode(&analysis); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}

	return &analysis, nil
}

// List returns all analyses. Unreadable entries are skipped.
func (r *StorageRepository) List(ctx context.Context) ([]*types.Analysis, error) {
	keys, err := r.storage.List(ctx, rootPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	analyses := make([]*types.Analysis, 0)
	for _, key := range keys {
		if path.Base(key) != analysisFile {
			continue
		}

		reader, err := r.storage.Get(ctx, key)
		if err != nil {
			continue
		}

		var analysis types.Analysis
		err = json.NewDecoder(reader).Decode(&analysis)
		reader.Close()
		if err != nil {
			continue
		}

		analyses = append(analyses, &analysis)
	}

	sort.SliceStable(analyses, func(i, j int) bool {
		a, b := analyses[i].CreatedAt, analyses[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return analyses, nil
}

// SaveSource stores the uploaded document
func (r *StorageRepository) SaveSource(ctx context.Context, id string, data []byte, format string) error {
	if err := validateID(id); err != nil {
		return err
	}
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" || strings.ContainsAny(format, "/\\.") {
		return fmt.Errorf("invalid source format: %q", format)
	}
	return r.storage.Put(ctx, path.Join(rootPrefix, id, sourcePrefix+format), bytes.NewReader(data))
}

// GetSource retrieves the uploaded document
func (r *StorageRepository) GetSource(ctx context.Context, id string) ([]byte, string, error) {
	if err := validateID(id); err != nil {
		return nil, "", fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	}

	keys, err := r.storage.List(ctx, path.Join(rootPrefix, id)+"/"+sourcePrefix)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list sources: %w", err)
	}
	if len(keys) == 0 {
		return nil, "", fmt.Errorf("%w: source for %s", storage.ErrNotFound, id)
	}

	reader, err := r.storage.Get(ctx, keys[0])
	if err != nil {
		return nil, "", err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read source: %w", err)
	}
	return data, strings.TrimPrefix(path.Base(keys[0]), sourcePrefix), nil
}

func analysisKey(id string) string {
	return path.Join(rootPrefix, id, analysisFile)
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid analysis id %q", id)
	}
	return nil
}
