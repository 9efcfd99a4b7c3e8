// Package ledger remembers which calendar events were published for which
// tasks, so a later publish run can update or retract them.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/harrisonrobin/taskrank/pkg/config"
	"github.com/harrisonrobin/taskrank/pkg/model"
)

const fileName = "published.json"

type Entry struct {
	TaskID    string         `json:"task_id"`
	GCalID    string         `json:"gcal_id"`
	Title     string         `json:"title"`
	Score     float64        `json:"score"`
	Priority  model.Priority `json:"priority"`
	Published time.Time      `json:"published"`
}

func (e Entry) same(o Entry) bool {
	return e.GCalID == o.GCalID && e.Title == o.Title && e.Score == o.Score && e.Priority == o.Priority
}

type Ledger struct {
	Entries map[string]Entry `json:"entries"`
	Path    string           `json:"-"`
	mu      sync.RWMutex
	dirty   bool
}

// Open loads the ledger in the config directory, or starts an empty one.
func Open() (*Ledger, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dir, fileName))
}

func OpenPath(path string) (*Ledger, error) {
	l := &Ledger{
		Entries: make(map[string]Entry),
		Path:    path,
	}
	if _, err := os.Stat(path); err == nil {
		if err := l.Load(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Ledger) Load() error {
	f, err := os.Open(l.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := json.NewDecoder(f).Decode(l); err != nil {
		return fmt.Errorf("failed to decode ledger %s: %w", l.Path, err)
	}
	if l.Entries == nil {
		l.Entries = make(map[string]Entry)
	}
	return nil
}

// Save writes the ledger if anything changed since the last load or save.
func (l *Ledger) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.Path), 0700); err != nil {
		return err
	}
	f, err := os.Create(l.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(l); err != nil {
		return err
	}
	l.dirty = false
	return nil
}

func (l *Ledger) Get(taskID string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.Entries[taskID]
	return e, ok
}

// Set records e under e.TaskID. The published time is only refreshed when
// something else about the entry changed.
func (l *Ledger) Set(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.Entries[e.TaskID]; ok && old.same(e) {
		return
	}
	if e.Published.IsZero() {
		e.Published = time.Now()
	}
	l.Entries[e.TaskID] = e
	l.dirty = true
}

func (l *Ledger) Remove(taskID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.Entries[taskID]; ok {
		delete(l.Entries, taskID)
		l.dirty = true
	}
}

// Stale returns the entries whose task id is not in keep, ordered by task
// id. The entries stay in the ledger until removed.
func (l *Ledger) Stale(keep map[string]bool) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var stale []Entry
	for id, e := range l.Entries {
		if !keep[id] {
			stale = append(stale, e)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].TaskID < stale[j].TaskID })
	return stale
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.Entries)
}
