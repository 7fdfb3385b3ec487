// Package outbox hands ScrapingResults to the persistence collaborator as
// JSON batch files. The collaborator reads a batch and acknowledges it by
// deleting it.
package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newsgather/pipeline"
)

// ErrBatchNotFound is returned when no batch has the requested ID.
var ErrBatchNotFound = errors.New("batch not found")

// Batch is one source run awaiting persistence.
type Batch struct {
	ID         uuid.UUID               `json:"id"`
	SourceID   uuid.UUID               `json:"source_id"`
	SourceName string                  `json:"source_name,omitempty"`
	Topic      string                  `json:"topic"`
	CreatedAt  time.Time               `json:"created_at"`
	Result     pipeline.ScrapingResult `json:"result"`
}

// Outbox is a directory of batch files named <id>.json.
type Outbox struct {
	dir string
	now func() time.Time
}

// ReadError describes a failure to read a single batch file.
type ReadError struct {
	Filename string
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

// ListResult contains the readable batches plus any per-file errors.
type ListResult struct {
	Batches []Batch
	Errors  []ReadError
}

// New opens the outbox in dir, creating it if needed.
func New(dir string) (*Outbox, error) {
	// 0700: owner-only access
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create outbox directory: %w", err)
	}
	return &Outbox{dir: dir, now: time.Now}, nil
}

// Dir returns the outbox directory.
func (o *Outbox) Dir() string {
	return o.dir
}

// Put writes a batch for a source run and returns it. The file appears
// atomically so readers never see a partial batch.
func (o *Outbox) Put(sourceID uuid.UUID, sourceName, topic string, result pipeline.ScrapingResult) (*Batch, error) {
	batch := &Batch{
		ID:         uuid.New(),
		SourceID:   sourceID,
		SourceName: sourceName,
		Topic:      topic,
		CreatedAt:  o.now().UTC(),
		Result:     result,
	}
	if batch.Result.Articles == nil {
		batch.Result.Articles = []pipeline.Article{}
	}
	if batch.Result.Errors == nil {
		batch.Result.Errors = []string{}
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	tmp, err := os.CreateTemp(o.dir, ".batch-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create batch file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write batch: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write batch: %w", err)
	}
	if err := os.Rename(tmp.Name(), o.path(batch.ID)); err != nil {
		return nil, fmt.Errorf("failed to publish batch: %w", err)
	}
	return batch, nil
}

// Get retrieves a batch by its ID.
func (o *Outbox) Get(id uuid.UUID) (*Batch, error) {
	data, err := os.ReadFile(o.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}

	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch: %w", err)
	}
	return &batch, nil
}

// List returns every pending batch, newest first. Corrupted files are
// collected in the result's Errors rather than failing the listing.
func (o *Outbox) List() (*ListResult, error) {
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read outbox directory: %w", err)
	}

	result := &ListResult{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(o.dir, name))
		if err != nil {
			result.Errors = append(result.Errors, ReadError{Filename: name, Err: err})
			continue
		}

		var batch Batch
		if err := json.Unmarshal(data, &batch); err != nil {
			result.Errors = append(result.Errors, ReadError{Filename: name, Err: err})
			continue
		}
		result.Batches = append(result.Batches, batch)
	}

	sort.SliceStable(result.Batches, func(i, j int) bool {
		return result.Batches[i].CreatedAt.After(result.Batches[j].CreatedAt)
	})
	return result, nil
}

// Delete acknowledges a batch by removing it.
func (o *Outbox) Delete(id uuid.UUID) error {
	if err := os.Remove(o.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrBatchNotFound
		}
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	return nil
}

func (o *Outbox) path(id uuid.UUID) string {
	return filepath.Join(o.dir, id.String()+".json")
}
