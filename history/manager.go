package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"promptsmith/config"
	"promptsmith/image"
	"promptsmith/storage"
)

// MaxRecords caps the list; the oldest records are evicted first.
const MaxRecords = 50

var (
	ErrRecordNotFound = errors.New("history record not found")
	ErrInvalidRecord  = errors.New("invalid history record")
)

type Manager struct {
	store storage.Provider
	now   func() time.Time
}

func NewManager(store storage.Provider) *Manager {
	return &Manager{store: store, now: time.Now}
}

func (m *Manager) load(ctx context.Context) ([]Record, error) {
	return storage.GetData(ctx, m.store, storage.KeyHistory, []Record{})
}

func prepend(rec Record, records []Record) []Record {
	updated := append([]Record{rec}, records...)
	if len(updated) > MaxRecords {
		updated = updated[:MaxRecords]
	}
	return updated
}

// Add stores rec at the head of the list and returns it with its id and
// timestamp set. Storage failures are logged and never returned: when the
// store is over quota the list is cut to half the cap and the write retried
// once, so old entries can be dropped silently.
func (m *Manager) Add(ctx context.Context, rec Record) (Record, error) {
	if err := rec.validate(); err != nil {
		return rec, err
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = m.now().UnixMilli()
	}
	if rec.Type == TypeImageToPrompt {
		rec.ImageURL = image.CompressForHistory(rec.ImageURL)
	}

	_, err := storage.UpdateData(ctx, m.store, storage.KeyHistory, []Record{},
		func(records []Record) ([]Record, error) {
			return prepend(rec, records), nil
		})
	if err == nil {
		return rec, nil
	}

	if !errors.Is(err, storage.ErrQuotaExceeded) {
		config.Logf("[History] Failed to save record %s: %v", rec.ID, err)
		return rec, nil
	}

	config.Logf("[History] Storage quota exceeded, trimming history to %d records", MaxRecords/2)
	if err := m.retryTrimmed(ctx, rec); err != nil {
		config.Logf("[History] Still cannot save record %s after trimming: %v", rec.ID, err)
	}
	return rec, nil
}

func (m *Manager) retryTrimmed(ctx context.Context, rec Record) error {
	records, err := m.load(ctx)
	if err != nil {
		return err
	}
	if len(records) > MaxRecords/2 {
		records = records[:MaxRecords/2]
	}
	if err := storage.SetData(ctx, m.store, storage.KeyHistory, records); err != nil {
		return err
	}
	return storage.SetData(ctx, m.store, storage.KeyHistory, prepend(rec, records))
}

// List returns records newest first, optionally restricted to one type.
func (m *Manager) List(ctx context.Context, typ RecordType) ([]Record, error) {
	records, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	if typ == "" {
		return records, nil
	}
	filtered := records[:0]
	for _, r := range records {
		if r.Type == typ {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*Record, error) {
	records, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	_, err := storage.UpdateData(ctx, m.store, storage.KeyHistory, []Record{},
		func(records []Record) ([]Record, error) {
			kept := records[:0]
			for _, r := range records {
				if r.ID != id {
					kept = append(kept, r)
				}
			}
			if len(kept) == len(records) {
				return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
			}
			return kept, nil
		})
	return err
}

// Clear removes every record of typ, or all records when typ is empty.
func (m *Manager) Clear(ctx context.Context, typ RecordType) error {
	if typ == "" {
		return storage.SetData(ctx, m.store, storage.KeyHistory, []Record{})
	}
	_, err := storage.UpdateData(ctx, m.store, storage.KeyHistory, []Record{},
		func(records []Record) ([]Record, error) {
			kept := records[:0]
			for _, r := range records {
				if r.Type != typ {
					kept = append(kept, r)
				}
			}
			return kept, nil
		})
	return err
}

type Match struct {
	Record Record
	Score  int
}

type searchSource []Record

func (s searchSource) String(i int) string { return s[i].searchText() }
func (s searchSource) Len() int            { return len(s) }

// Search ranks records by fuzzy match against their prompts and model.
func (m *Manager) Search(ctx context.Context, query string) ([]Match, error) {
	if query == "" {
		return []Match{}, nil
	}

	records, err := m.load(ctx)
	if err != nil {
		return nil, err
	}

	matches := fuzzy.FindFrom(query, searchSource(records))
	results := make([]Match, len(matches))
	for i, match := range matches {
		results[i] = Match{Record: records[match.Index], Score: match.Score}
	}
	return results, nil
}
