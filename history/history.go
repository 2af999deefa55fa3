// Package history keeps a bounded, most-recent-first record of past
// generations, persisted on every mutation.
package history

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"
)

// MaxEntries caps the history length.
const MaxEntries = 24

// Entry is one recorded generation. An entry is constructed fully before it
// is inserted; the store never holds partial entries.
type Entry struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Prompt    string `json:"prompt"`
	Style     string `json:"style"`
	Size      string `json:"size"`
	CreatedAt int64  `json:"createdAt"`
}

// NewEntry builds an entry with a time+random identifier.
func NewEntry(url, prompt, style, size string) Entry {
	now := time.Now()
	return Entry{
		ID:        fmt.Sprintf("%d-%06x", now.UnixMilli(), rand.Intn(1<<24)),
		URL:       url,
		Prompt:    prompt,
		Style:     style,
		Size:      size,
		CreatedAt: now.UnixMilli(),
	}
}

// Persister saves and loads the raw serialized history. Persistence failures
// are reported but must never corrupt the in-memory sequence.
type Persister interface {
	Save(data []byte) error
	Load() ([]byte, error)
}

// Service owns the bounded history sequence. All mutations persist
// immediately through the injected Persister.
type Service struct {
	mu        sync.Mutex
	entries   []Entry
	persister Persister
}

// NewService creates an empty history service.
func NewService(p Persister) *Service {
	return &Service{persister: p}
}

// Load replaces the in-memory sequence with whatever the persister holds.
// Missing or corrupt state silently yields an empty history.
func (s *Service) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	data, err := s.persister.Load()
	if err != nil || len(data) == 0 {
		return
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("Warning: could not parse persisted history, starting empty: %v", err)
		return
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	s.entries = entries
}

// Append inserts the entry at the front, truncates to the cap, and persists.
func (s *Service) Append(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append([]Entry{e}, s.entries...)
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[:MaxEntries]
	}
	s.persist()
}

// Clear empties the sequence and persists immediately.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.persist()
}

// Items returns a copy of the sequence, most recent first.
func (s *Service) Items() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// persist is called with the lock held.
func (s *Service) persist() {
	entries := s.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		log.Printf("Warning: could not serialize history: %v", err)
		return
	}
	if err := s.persister.Save(data); err != nil {
		log.Printf("Warning: could not persist history: %v", err)
	}
}

// FilePersister stores the serialized history in a single JSON file.
type FilePersister struct {
	Path string
}

// Save writes the serialized history to disk.
func (p *FilePersister) Save(data []byte) error {
	return os.WriteFile(p.Path, data, 0644)
}

// Load reads the serialized history from disk. A missing file is not an
// error; it just means an empty history.
func (p *FilePersister) Load() ([]byte, error) {
	data, err := os.ReadFile(p.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}
