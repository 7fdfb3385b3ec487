package sources

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newsgather/relevance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test source store with a stepping clock
func createTestSourceStore(t *testing.T) *SourceStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSourceStore(dbPath)
	require.NoError(t, err, "should create source store")
	t.Cleanup(func() { store.Close() })

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return store
}

// Test helper: an enabled feed source
func feedSource(name, feedURL string) NewSource {
	now := time.Now()
	return NewSource{
		Name:       name,
		FeedURL:    feedURL,
		SourceType: "regional",
		Region:     "Eastbourne",
		EnabledAt:  &now,
	}
}

// TestNewSourceStore_CreatesDatabase verifies database creation
func TestNewSourceStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSourceStore(dbPath)
	require.NoError(t, err, "should create store")
	require.NotNil(t, store, "store should not be nil")
	defer store.Close()

	sources, err := store.ListSources(SourceFilter{})
	require.NoError(t, err, "should be able to query database")
	assert.Empty(t, sources, "new database should have no sources")
}

// TestNewSourceStore_ExistingDatabase verifies opening existing database
func TestNewSourceStore_ExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store1, err := NewSourceStore(dbPath)
	require.NoError(t, err)
	created, err := store1.CreateSource(feedSource("Gazette", "https://gazette.example.com/feed"))
	require.NoError(t, err)
	store1.Close()

	store2, err := NewSourceStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	sources, err := store2.ListSources(SourceFilter{})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, created.SourceID, sources[0].SourceID)
}

// TestCreateSource_FeedSource verifies a feed source derives its domain
func TestCreateSource_FeedSource(t *testing.T) {
	store := createTestSourceStore(t)

	source, err := store.CreateSource(feedSource("Gazette", "https://www.gazette.example.com/news/feed"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, source.SourceID)
	assert.Equal(t, "Gazette", source.Name)
	assert.Equal(t, "https://www.gazette.example.com/news/feed", source.FeedURL)
	assert.Equal(t, "gazette.example.com", source.CanonicalDomain)
	assert.Equal(t, relevance.SourceRegional, source.SourceType)
	assert.Equal(t, "Eastbourne", source.Region)
	assert.True(t, source.IsEnabled())
	assert.Equal(t, 0, source.FailureCount)
}

// TestCreateSource_DomainOnly verifies sources without a feed and the
// default name
func TestCreateSource_DomainOnly(t *testing.T) {
	store := createTestSourceStore(t)

	source, err := store.CreateSource(NewSource{
		CanonicalDomain: "https://www.lewes.gov.uk/",
		SourceType:      "hyperlocal",
		UserSelected:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "lewes.gov.uk", source.CanonicalDomain)
	assert.Equal(t, "lewes.gov.uk", source.Name)
	assert.Empty(t, source.FeedURL)
	assert.Equal(t, relevance.SourceHyperlocal, source.SourceType)
	assert.True(t, source.UserSelected)
	assert.False(t, source.IsEnabled())
}

// TestCreateSource_Validation verifies rejected inputs
func TestCreateSource_Validation(t *testing.T) {
	store := createTestSourceStore(t)

	tests := []struct {
		name  string
		input NewSource
		want  error
	}{
		{"no location", NewSource{Name: "Nowhere"}, ErrMissingURL},
		{"bad type", NewSource{FeedURL: "https://example.com/feed", SourceType: "tabloid"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CreateSource(tt.input)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

// TestCreateSource_DuplicateURL verifies duplicate URL rejection
func TestCreateSource_DuplicateURL(t *testing.T) {
	store := createTestSourceStore(t)

	_, err := store.CreateSource(feedSource("First", "https://example.com/feed"))
	require.NoError(t, err)

	_, err = store.CreateSource(feedSource("Second", "https://example.com/feed"))
	assert.ErrorIs(t, err, ErrDuplicateURL)

	_, err = store.CreateSource(feedSource("Other feed", "https://example.com/other-feed"))
	assert.NoError(t, err, "same domain with a different feed is allowed")
}

// TestGetSource_PreservesAllFields verifies a round trip through storage
func TestGetSource_PreservesAllFields(t *testing.T) {
	store := createTestSourceStore(t)

	created, err := store.CreateSource(NewSource{
		Name:            "Herald",
		FeedURL:         "https://herald.example.com/rss",
		CanonicalDomain: "herald.example.com",
		SourceType:      "national",
		Region:          "Sussex",
		UserSelected:    true,
	})
	require.NoError(t, err)

	got, err := store.GetSource(created.SourceID)
	require.NoError(t, err)

	assert.Equal(t, created.SourceID, got.SourceID)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.FeedURL, got.FeedURL)
	assert.Equal(t, created.CanonicalDomain, got.CanonicalDomain)
	assert.Equal(t, relevance.SourceNational, got.SourceType)
	assert.Equal(t, "Sussex", got.Region)
	assert.True(t, got.UserSelected)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	assert.Nil(t, got.EnabledAt)
	assert.Nil(t, got.LastRunAt)
	assert.Nil(t, got.LastMethod)
}

// TestGetSource_NotFound verifies error for missing source
func TestGetSource_NotFound(t *testing.T) {
	store := createTestSourceStore(t)

	_, err := store.GetSource(uuid.New())
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

// TestListSources_Filters verifies type, region and enabled filtering and
// newest-first order
func TestListSources_Filters(t *testing.T) {
	store := createTestSourceStore(t)

	a, err := store.CreateSource(feedSource("A", "https://a.example.com/feed"))
	require.NoError(t, err)
	b, err := store.CreateSource(NewSource{FeedURL: "https://b.example.com/feed", SourceType: "national", Region: "Brighton"})
	require.NoError(t, err)
	c, err := store.CreateSource(feedSource("C", "https://c.example.com/feed"))
	require.NoError(t, err)

	all, err := store.ListSources(SourceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{c.SourceID, b.SourceID, a.SourceID},
		[]uuid.UUID{all[0].SourceID, all[1].SourceID, all[2].SourceID})

	national := relevance.SourceNational
	byType, err := store.ListSources(SourceFilter{Type: &national})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, b.SourceID, byType[0].SourceID)

	region := "eastbourne"
	byRegion, err := store.ListSources(SourceFilter{Region: &region})
	require.NoError(t, err)
	assert.Len(t, byRegion, 2)

	enabled := true
	byEnabled, err := store.ListSources(SourceFilter{Enabled: &enabled})
	require.NoError(t, err)
	assert.Len(t, byEnabled, 2)

	paged, err := store.ListSources(SourceFilter{Offset: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 2)

	limited, err := store.ListSources(SourceFilter{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, a.SourceID, limited[0].SourceID)
}

// TestUpdateSource_Fields verifies updates across field kinds
func TestUpdateSource_Fields(t *testing.T) {
	store := createTestSourceStore(t)
	source, err := store.CreateSource(feedSource("Gazette", "https://gazette.example.com/feed"))
	require.NoError(t, err)

	name := "Weekly Gazette"
	hyperlocal := relevance.SourceHyperlocal
	selected := true
	interval := "30m"
	err = store.UpdateSource(source.SourceID, SourceUpdate{
		Name:            &name,
		SourceType:      &hyperlocal,
		UserSelected:    &selected,
		PollingInterval: &interval,
		ClearEnabledAt:  true,
	})
	require.NoError(t, err)

	got, err := store.GetSource(source.SourceID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, relevance.SourceHyperlocal, got.SourceType)
	assert.True(t, got.UserSelected)
	require.NotNil(t, got.PollingInterval)
	assert.Equal(t, "30m", *got.PollingInterval)
	assert.False(t, got.IsEnabled())
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

// TestUpdateSource_NotFound verifies error for missing source
func TestUpdateSource_NotFound(t *testing.T) {
	store := createTestSourceStore(t)

	name := "x"
	err := store.UpdateSource(uuid.New(), SourceUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

// TestUpdateSource_DuplicateURL verifies the uniqueness check on update
func TestUpdateSource_DuplicateURL(t *testing.T) {
	store := createTestSourceStore(t)
	_, err := store.CreateSource(feedSource("A", "https://example.com/a"))
	require.NoError(t, err)
	b, err := store.CreateSource(feedSource("B", "https://example.com/b"))
	require.NoError(t, err)

	feed := "https://example.com/a"
	err = store.UpdateSource(b.SourceID, SourceUpdate{FeedURL: &feed})
	assert.ErrorIs(t, err, ErrDuplicateURL)
}

// TestDeleteSource_DoesNotAffectOthers verifies deletion is scoped
func TestDeleteSource_DoesNotAffectOthers(t *testing.T) {
	store := createTestSourceStore(t)
	a, err := store.CreateSource(feedSource("A", "https://a.example.com/feed"))
	require.NoError(t, err)
	b, err := store.CreateSource(feedSource("B", "https://b.example.com/feed"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteSource(a.SourceID))
	assert.ErrorIs(t, store.DeleteSource(a.SourceID), ErrSourceNotFound)

	_, err = store.GetSource(b.SourceID)
	assert.NoError(t, err)
}

// TestRecordRun_TracksFailures verifies failure counting, reset on success
// and the last-run fields
func TestRecordRun_TracksFailures(t *testing.T) {
	store := createTestSourceStore(t)
	source, err := store.CreateSource(feedSource("Gazette", "https://gazette.example.com/feed"))
	require.NoError(t, err)

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	count, err := store.RecordRun(Run{SourceID: source.SourceID, RanAt: at, Method: "html", Error: "html: timeout"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.RecordRun(Run{SourceID: source.SourceID, RanAt: at.Add(time.Hour), Method: "html", Error: "html: timeout"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := store.GetSource(source.SourceID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.FailureCount)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "html: timeout", *got.LastError)

	count, err = store.RecordRun(Run{
		SourceID: source.SourceID, RanAt: at.Add(2 * time.Hour), Success: true,
		Method: "rss", ArticlesFound: 10, ArticlesScraped: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	got, err = store.GetSource(source.SourceID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FailureCount)
	assert.Nil(t, got.LastError)
	require.NotNil(t, got.LastMethod)
	assert.Equal(t, "rss", *got.LastMethod)
	require.NotNil(t, got.LastRunAt)
	assert.True(t, at.Add(2*time.Hour).Equal(*got.LastRunAt))
}

// TestRecordRun_NotFound verifies runs need a registered source
func TestRecordRun_NotFound(t *testing.T) {
	store := createTestSourceStore(t)

	_, err := store.RecordRun(Run{SourceID: uuid.New(), RanAt: time.Now(), Method: "rss"})
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

// TestListRuns_OrdersMostRecentFirst verifies descending chronological order
func TestListRuns_OrdersMostRecentFirst(t *testing.T) {
	store := createTestSourceStore(t)
	source, err := store.CreateSource(feedSource("Gazette", "https://gazette.example.com/feed"))
	require.NoError(t, err)

	now := time.Now()
	for i, msg := range []string{"first error", "second error", "third error"} {
		_, err := store.RecordRun(Run{
			SourceID: source.SourceID,
			RanAt:    now.Add(time.Duration(i-2) * time.Hour),
			Method:   "rss",
			Error:    msg,
		})
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(source.SourceID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "third error", runs[0].Error)
	assert.Equal(t, "second error", runs[1].Error)
	assert.Equal(t, "first error", runs[2].Error)
	assert.Equal(t, source.SourceID, runs[0].SourceID)

	limited, err := store.ListRuns(source.SourceID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

// TestListRuns_IsolatedPerSource verifies runs are scoped to the correct
// source and removed with it
func TestListRuns_IsolatedPerSource(t *testing.T) {
	store := createTestSourceStore(t)
	a, err := store.CreateSource(feedSource("A", "https://a.example.com/feed"))
	require.NoError(t, err)
	b, err := store.CreateSource(feedSource("B", "https://b.example.com/feed"))
	require.NoError(t, err)

	_, err = store.RecordRun(Run{SourceID: a.SourceID, RanAt: time.Now(), Method: "rss", Success: true})
	require.NoError(t, err)

	runs, err := store.ListRuns(b.SourceID, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, store.DeleteSource(a.SourceID))
	runs, err = store.ListRuns(a.SourceID, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

// TestSource_IsEnabled verifies enabled status check
func TestSource_IsEnabled(t *testing.T) {
	now := time.Now()
	assert.True(t, (&Source{EnabledAt: &now}).IsEnabled())
	assert.False(t, (&Source{}).IsEnabled())
}
