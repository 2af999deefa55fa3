package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memPersister keeps the serialized history in memory for tests.
type memPersister struct {
	data     []byte
	saves    int
	failLoad error
}

func (m *memPersister) Save(data []byte) error {
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

func (m *memPersister) Load() ([]byte, error) {
	return m.data, m.failLoad
}

func TestAppendOrderAndCap(t *testing.T) {
	p := &memPersister{}
	s := NewService(p)

	for i := 0; i < 30; i++ {
		s.Append(NewEntry(fmt.Sprintf("url-%d", i), "p", "modern", "1:1"))
	}

	items := s.Items()
	require.Len(t, items, MaxEntries)
	// Most recent first: the last appended entry leads.
	assert.Equal(t, "url-29", items[0].URL)
	assert.Equal(t, "url-6", items[MaxEntries-1].URL)
	assert.Equal(t, 30, p.saves, "every mutation persists")
}

func TestClear(t *testing.T) {
	p := &memPersister{}
	s := NewService(p)
	s.Append(NewEntry("u", "p", "modern", "1:1"))

	s.Clear()
	assert.Empty(t, s.Items())

	var persisted []Entry
	require.NoError(t, json.Unmarshal(p.data, &persisted))
	assert.Empty(t, persisted)
}

func TestLoad(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		p := &memPersister{}
		s := NewService(p)
		s.Append(NewEntry("u1", "p1", "artistic", "16:9"))
		s.Append(NewEntry("u2", "p2", "modern", "1:1"))

		s2 := NewService(p)
		s2.Load()
		items := s2.Items()
		require.Len(t, items, 2)
		assert.Equal(t, "u2", items[0].URL)
		assert.Equal(t, "u1", items[1].URL)
	})

	t.Run("corrupt state yields empty history without error", func(t *testing.T) {
		p := &memPersister{data: []byte("{definitely not json")}
		s := NewService(p)
		s.Load()
		assert.Empty(t, s.Items())
	})

	t.Run("load failure yields empty history", func(t *testing.T) {
		p := &memPersister{failLoad: os.ErrPermission}
		s := NewService(p)
		s.Load()
		assert.Empty(t, s.Items())
	})

	t.Run("oversized persisted state is truncated to the cap", func(t *testing.T) {
		var entries []Entry
		for i := 0; i < 40; i++ {
			entries = append(entries, NewEntry(fmt.Sprintf("u%d", i), "p", "modern", "1:1"))
		}
		data, err := json.Marshal(entries)
		require.NoError(t, err)

		s := NewService(&memPersister{data: data})
		s.Load()
		assert.Len(t, s.Items(), MaxEntries)
	})
}

func TestFilePersister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	p := &FilePersister{Path: path}

	t.Run("missing file loads as empty", func(t *testing.T) {
		data, err := p.Load()
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("save then load", func(t *testing.T) {
		require.NoError(t, p.Save([]byte(`[]`)))
		data, err := p.Load()
		require.NoError(t, err)
		assert.Equal(t, []byte(`[]`), data)
	})
}

func TestNewEntryIDs(t *testing.T) {
	a := NewEntry("u", "p", "s", "1:1")
	b := NewEntry("u", "p", "s", "1:1")
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotZero(t, a.CreatedAt)
}
