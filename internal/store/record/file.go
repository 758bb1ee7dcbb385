package record

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/asistio/core/internal/models"
)

const (
	sessionsFile  = "sessions.json"
	attendeesFile = "attendees.json"
	usersFile     = "users.json"
)

// FileStore keeps each record kind in one JSON file holding an ordered array
// of records. Every mutation reads the whole collection, transforms it in
// memory, and atomically rewrites the file (write temp + rename). A
// per-collection mutex serializes read-modify-write cycles so two in-process
// writers cannot silently drop each other's updates.
type FileStore struct {
	sessions  *collection[models.TrainingSession]
	attendees *collection[models.Attendee]
	users     *collection[models.PlatformUser]
}

// NewFileStore creates the data directory if needed and opens the store.
func NewFileStore(dataDir string) (*FileStore, error) {
	dir := strings.TrimSpace(dataDir)
	if dir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", ErrUnavailable, err)
	}
	return &FileStore{
		sessions:  &collection[models.TrainingSession]{path: filepath.Join(dir, sessionsFile)},
		attendees: &collection[models.Attendee]{path: filepath.Join(dir, attendeesFile)},
		users:     &collection[models.PlatformUser]{path: filepath.Join(dir, usersFile)},
	}, nil
}

func (f *FileStore) Sessions() SessionStore   { return (*fileSessions)(f) }
func (f *FileStore) Attendees() AttendeeStore { return (*fileAttendees)(f) }
func (f *FileStore) Users() UserStore         { return (*fileUsers)(f) }

// collection is one on-disk JSON array of records.
type collection[T any] struct {
	mu   sync.Mutex
	path string
}

func (c *collection[T]) load() ([]T, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, filepath.Base(c.path), err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, filepath.Base(c.path), err)
	}
	return items, nil
}

func (c *collection[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrUnavailable, filepath.Base(c.path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: temp file for %s: %v", ErrUnavailable, filepath.Base(c.path), err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, filepath.Base(c.path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrUnavailable, filepath.Base(c.path), err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", ErrUnavailable, filepath.Base(c.path), err)
	}
	return nil
}

// read takes the collection lock for a consistent snapshot read.
func (c *collection[T]) read() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// update runs fn inside the collection lock. fn returns the new contents and
// whether the file must be rewritten.
func (c *collection[T]) update(fn func(items []T) ([]T, bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.load()
	if err != nil {
		return err
	}
	next, dirty, err := fn(items)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}
	return c.save(next)
}

type fileSessions FileStore

func (f *fileSessions) Create(_ context.Context, s *models.TrainingSession) error {
	return f.sessions.update(func(items []models.TrainingSession) ([]models.TrainingSession, bool, error) {
		for i := range items {
			if items[i].ID == s.ID || items[i].Token == s.Token {
				return nil, false, fmt.Errorf("%w: session id or token already exists", ErrConflict)
			}
		}
		return append(items, *s), true, nil
	})
}

func (f *fileSessions) Get(_ context.Context, id string) (*models.TrainingSession, error) {
	items, err := f.sessions.read()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			s := items[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fileSessions) GetByToken(_ context.Context, token string) (*models.TrainingSession, error) {
	items, err := f.sessions.read()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Token == token {
			s := items[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fileSessions) List(_ context.Context, ownerID string) ([]models.TrainingSession, error) {
	items, err := f.sessions.read()
	if err != nil {
		return nil, err
	}
	out := make([]models.TrainingSession, 0, len(items))
	for i := range items {
		if ownerID != "" && items[i].OwnerID != ownerID {
			continue
		}
		out = append(out, items[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fileSessions) Replace(_ context.Context, s *models.TrainingSession) error {
	found := false
	err := f.sessions.update(func(items []models.TrainingSession) ([]models.TrainingSession, bool, error) {
		for i := range items {
			if items[i].ID == s.ID {
				items[i] = *s
				found = true
				return items, true, nil
			}
		}
		return nil, false, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (f *fileSessions) Delete(_ context.Context, id string) (bool, error) {
	removed := false
	err := f.sessions.update(func(items []models.TrainingSession) ([]models.TrainingSession, bool, error) {
		next := items[:0]
		for i := range items {
			if items[i].ID == id {
				removed = true
				continue
			}
			next = append(next, items[i])
		}
		return next, removed, nil
	})
	return removed, err
}

type fileAttendees FileStore

func (f *fileAttendees) Create(_ context.Context, a *models.Attendee) error {
	return f.attendees.update(func(items []models.Attendee) ([]models.Attendee, bool, error) {
		for i := range items {
			if items[i].IdentityNumber == a.IdentityNumber && items[i].Token == a.Token {
				return nil, false, fmt.Errorf("%w: identity already registered for token", ErrConflict)
			}
		}
		return append(items, *a), true, nil
	})
}

func (f *fileAttendees) ListBySession(_ context.Context, sessionID string) ([]models.Attendee, error) {
	items, err := f.attendees.read()
	if err != nil {
		return nil, err
	}
	out := make([]models.Attendee, 0)
	for i := range items {
		if items[i].SessionID == sessionID {
			out = append(out, items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out, nil
}

func (f *fileAttendees) CountBySession(ctx context.Context, sessionID string) (int, error) {
	items, err := f.ListBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (f *fileAttendees) FindByIdentityToken(_ context.Context, identityNumber, token string) (*models.Attendee, error) {
	items, err := f.attendees.read()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].IdentityNumber == identityNumber && items[i].Token == token {
			a := items[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fileAttendees) DeleteBySession(_ context.Context, sessionID string) (int, error) {
	removed := 0
	err := f.attendees.update(func(items []models.Attendee) ([]models.Attendee, bool, error) {
		next := items[:0]
		for i := range items {
			if items[i].SessionID == sessionID {
				removed++
				continue
			}
			next = append(next, items[i])
		}
		return next, removed > 0, nil
	})
	return removed, err
}

type fileUsers FileStore

func (f *fileUsers) Create(_ context.Context, u *models.PlatformUser) error {
	return f.users.update(func(items []models.PlatformUser) ([]models.PlatformUser, bool, error) {
		for i := range items {
			if items[i].ID == u.ID {
				return nil, false, fmt.Errorf("%w: user already exists", ErrConflict)
			}
		}
		return append(items, *u), true, nil
	})
}

func (f *fileUsers) Get(_ context.Context, id string) (*models.PlatformUser, error) {
	items, err := f.users.read()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			u := items[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fileUsers) List(_ context.Context) ([]models.PlatformUser, error) {
	items, err := f.users.read()
	if err != nil {
		return nil, err
	}
	out := append([]models.PlatformUser(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].JoinedAt.After(out[j].JoinedAt)
	})
	return out, nil
}

func (f *fileUsers) Replace(_ context.Context, u *models.PlatformUser) error {
	found := false
	err := f.users.update(func(items []models.PlatformUser) ([]models.PlatformUser, bool, error) {
		for i := range items {
			if items[i].ID == u.ID {
				items[i] = *u
				found = true
				return items, true, nil
			}
		}
		return nil, false, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (f *fileUsers) Delete(_ context.Context, id string) (bool, error) {
	removed := false
	err := f.users.update(func(items []models.PlatformUser) ([]models.PlatformUser, bool, error) {
		next := items[:0]
		for i := range items {
			if items[i].ID == id {
				removed = true
				continue
			}
			next = append(next, items[i])
		}
		return next, removed, nil
	})
	return removed, err
}

func (f *fileUsers) AdjustFormsCreated(_ context.Context, id string, delta int) error {
	found := false
	err := f.users.update(func(items []models.PlatformUser) ([]models.PlatformUser, bool, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].FormsCreated += delta
				if items[i].FormsCreated < 0 {
					items[i].FormsCreated = 0
				}
				found = true
				return items, true, nil
			}
		}
		return nil, false, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
