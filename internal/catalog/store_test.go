package catalog

import (
	"context"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/Domenick1991/flightontime/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFS struct {
	fs.FS
	opens atomic.Int32
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.opens.Add(1)
	return c.FS.Open(name)
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"airlines.csv": {Data: []byte("code\naa\n DL \n\nua,United\n")},
		"airports.csv": {Data: []byte("\ncode\nSFO\nlax\nJFK\n")},
	}
}

func TestStore_Load_NormalizesAndSkipsHeader(t *testing.T) {
	store := NewStore(testFS())

	airlines, err := store.Load(context.Background(), Airlines)
	require.NoError(t, err)
	assert.Equal(t, []string{"AA", "DL", "UA"}, airlines.Codes())
	assert.False(t, airlines.Contains("CODE"))
	assert.False(t, airlines.Contains("aa"))

	airports, err := store.Load(context.Background(), Airports)
	require.NoError(t, err)
	assert.Equal(t, 3, airports.Len())
	assert.True(t, airports.Contains("LAX"))
}

func TestStore_Load_IsIdempotent(t *testing.T) {
	cfs := &countingFS{FS: testFS()}
	store := NewStore(cfs)

	first, err := store.Load(context.Background(), Airlines)
	require.NoError(t, err)
	second, err := store.Load(context.Background(), Airlines)
	require.NoError(t, err)

	assert.Equal(t, first.Codes(), second.Codes())
	assert.Equal(t, int32(1), cfs.opens.Load())
}

func TestStore_Load_ConcurrentFirstAccessReadsOnce(t *testing.T) {
	cfs := &countingFS{FS: testFS()}
	store := NewStore(cfs)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := store.Load(context.Background(), Airports)
			assert.NoError(t, err)
			assert.True(t, c.Contains("SFO"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), cfs.opens.Load())
}

func TestStore_Load_MissingSourceIsCatalogUnavailable(t *testing.T) {
	store := NewStore(fstest.MapFS{})

	_, err := store.Load(context.Background(), Airlines)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindCatalogUnavailable))
}

func TestStore_Load_FailureIsNotCached(t *testing.T) {
	fsys := fstest.MapFS{}
	store := NewStore(fsys)

	_, err := store.Load(context.Background(), Airlines)
	require.Error(t, err)

	fsys["airlines.csv"] = &fstest.MapFile{Data: []byte("code\nAA\n")}
	c, err := store.Load(context.Background(), Airlines)
	require.NoError(t, err)
	assert.True(t, c.Contains("AA"))
}

func TestStore_Load_UnknownCatalog(t *testing.T) {
	_, err := NewStore(testFS()).Load(context.Background(), "aircraft")
	assert.True(t, domain.IsKind(err, domain.KindCatalogUnavailable))
}

func TestStore_WithFile(t *testing.T) {
	fsys := fstest.MapFS{
		"airlines.csv":           {Data: []byte("code\nAA\n")},
		"origin_destination.csv": {Data: []byte("code\nMAD\nGRU\n")},
	}
	store := NewStore(fsys, WithFile(Airports, "origin_destination.csv"))

	c, err := store.Load(context.Background(), Airports)
	require.NoError(t, err)
	assert.Equal(t, []string{"GRU", "MAD"}, c.Codes())
}

func TestEmbedded_Warm(t *testing.T) {
	store := NewDirStore("")
	require.NoError(t, store.Warm(context.Background()))

	airlines, err := store.Load(context.Background(), Airlines)
	require.NoError(t, err)
	assert.True(t, airlines.Contains("AA"))

	airports, err := store.Load(context.Background(), Airports)
	require.NoError(t, err)
	for _, code := range []string{"SFO", "LAX", "MAD", "GRU"} {
		assert.True(t, airports.Contains(code), code)
	}
}
