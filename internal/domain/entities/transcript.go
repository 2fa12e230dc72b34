package entities

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Author distinguishes user and system transcript entries.
type Author string

const (
	AuthorUser   Author = "user"
	AuthorSystem Author = "system"
)

// ThinkingPlaceholder is appended while an answer is being generated.
const ThinkingPlaceholder = "Thinking…"

// TranscriptEntry is one line of the chat transcript.
type TranscriptEntry struct {
	ID        uuid.UUID `json:"id"`
	Author    Author    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Transcript is an append-only chat log. Entries are never edited or removed.
type Transcript struct {
	mu      sync.RWMutex
	entries []TranscriptEntry
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds an entry and returns it.
func (t *Transcript) Append(author Author, text string) TranscriptEntry {
	entry := TranscriptEntry{
		ID:        uuid.New(),
		Author:    author,
		Text:      text,
		CreatedAt: time.Now(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	return entry
}

// Entries returns a copy of all entries in append order.
func (t *Transcript) Entries() []TranscriptEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]TranscriptEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
