package outbox

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newsgather/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: an outbox whose clock advances a minute per batch
func newTestOutbox(t *testing.T) *Outbox {
	t.Helper()
	o, err := New(filepath.Join(t.TempDir(), "outbox"))
	require.NoError(t, err)

	clock := time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC)
	o.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return o
}

func sampleResult() pipeline.ScrapingResult {
	return pipeline.ScrapingResult{
		Success:         true,
		Method:          pipeline.MethodRSS,
		ArticlesFound:   3,
		ArticlesScraped: 1,
		Articles: []pipeline.Article{{
			Title:                  "Pier restoration approved",
			SourceURL:              "https://gazette.example.com/news/pier",
			CanonicalURL:           "https://gazette.example.com/news/pier",
			WordCount:              240,
			RegionalRelevanceScore: 48,
			ProcessingStatus:       pipeline.ProcessingStatusNew,
		}},
		Errors: []string{},
	}
}

// TestPut_WritesBatchFile verifies a batch lands in <id>.json and reads back
func TestPut_WritesBatchFile(t *testing.T) {
	o := newTestOutbox(t)
	sourceID := uuid.New()

	batch, err := o.Put(sourceID, "Gazette", "eastbourne", sampleResult())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(o.Dir(), batch.ID.String()+".json"))
	require.NoError(t, err)

	got, err := o.Get(batch.ID)
	require.NoError(t, err)
	assert.Equal(t, sourceID, got.SourceID)
	assert.Equal(t, "Gazette", got.SourceName)
	assert.Equal(t, "eastbourne", got.Topic)
	assert.True(t, batch.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, pipeline.MethodRSS, got.Result.Method)
	require.Len(t, got.Result.Articles, 1)
	assert.Equal(t, 48, got.Result.Articles[0].RegionalRelevanceScore)
}

// TestPut_NilSlicesWrittenEmpty verifies failed results serialise empty
// arrays rather than null
func TestPut_NilSlicesWrittenEmpty(t *testing.T) {
	o := newTestOutbox(t)

	batch, err := o.Put(uuid.New(), "", "pier", pipeline.ScrapingResult{Method: pipeline.MethodHTML})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(o.Dir(), batch.ID.String()+".json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"articles": []`)
	assert.Contains(t, string(data), `"errors": []`)
}

// TestGet_NotFound verifies the sentinel for unknown batches
func TestGet_NotFound(t *testing.T) {
	o := newTestOutbox(t)

	_, err := o.Get(uuid.New())
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

// TestList_NewestFirst verifies ordering and that corrupt files are
// reported without hiding good batches
func TestList_NewestFirst(t *testing.T) {
	o := newTestOutbox(t)

	first, err := o.Put(uuid.New(), "A", "pier", sampleResult())
	require.NoError(t, err)
	second, err := o.Put(uuid.New(), "B", "pier", sampleResult())
	require.NoError(t, err)
	third, err := o.Put(uuid.New(), "C", "pier", sampleResult())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(o.Dir(), "broken.json"), []byte("{not json"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(o.Dir(), "notes.txt"), []byte("ignored"), 0o600))

	result, err := o.List()
	require.NoError(t, err)
	require.Len(t, result.Batches, 3)
	assert.Equal(t, third.ID, result.Batches[0].ID)
	assert.Equal(t, second.ID, result.Batches[1].ID)
	assert.Equal(t, first.ID, result.Batches[2].ID)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "broken.json", result.Errors[0].Filename)
}

// TestList_Empty verifies a fresh outbox lists nothing
func TestList_Empty(t *testing.T) {
	o := newTestOutbox(t)

	result, err := o.List()
	require.NoError(t, err)
	assert.Empty(t, result.Batches)
	assert.Empty(t, result.Errors)
}

// TestDelete_Acknowledges verifies deletion and the missing-batch sentinel
func TestDelete_Acknowledges(t *testing.T) {
	o := newTestOutbox(t)
	batch, err := o.Put(uuid.New(), "Gazette", "pier", sampleResult())
	require.NoError(t, err)

	require.NoError(t, o.Delete(batch.ID))
	_, err = o.Get(batch.ID)
	assert.ErrorIs(t, err, ErrBatchNotFound)
	assert.ErrorIs(t, o.Delete(batch.ID), ErrBatchNotFound)
}
