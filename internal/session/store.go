package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// NotFoundError is returned when a session id does not exist in the store.
type NotFoundError struct {
	SessionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.SessionID)
}

// StorageError wraps a persistence failure. The session stays in its last
// successfully persisted state when one occurs.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Summary is a lightweight listing entry for one persisted session.
type Summary struct {
	SessionID    string    `json:"session_id"`
	Provider     string    `json:"provider_name"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store persists sessions as one JSON document per session under a single
// directory. Updates overwrite the whole record: last writer wins, no merge
// semantics. The store exclusively owns a session for its storage lifetime;
// the orchestrator borrows it for the duration of one call.
type Store struct {
	dir string
}

// NewStore opens a session store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "init", Err: err}
	}
	return &Store{dir: dir}, nil
}

// Create builds a new session and persists it immediately.
func (st *Store) Create(provider, systemPrompt string, context map[string]string) (*Session, error) {
	sess := New(provider, systemPrompt, context)
	if err := st.Update(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load reads and strictly parses a persisted session.
func (st *Store) Load(sessionID string) (*Session, error) {
	path, err := st.path(sessionID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{SessionID: sessionID}
		}
		return nil, &StorageError{Op: "load", Err: err}
	}

	sess, err := Unmarshal(data)
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	return sess, nil
}

// Update overwrites the persisted record for the session's identifier
// entirely. The document is written to a temporary file and renamed into
// place, so a crash mid-write leaves the previous record intact rather
// than a truncated one.
func (st *Store) Update(sess *Session) error {
	path, err := st.path(sess.SessionID)
	if err != nil {
		return err
	}

	data, err := sess.Marshal()
	if err != nil {
		return &StorageError{Op: "update", Err: err}
	}

	tmp, err := os.CreateTemp(st.dir, sess.SessionID+".*.tmp")
	if err != nil {
		return &StorageError{Op: "update", Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &StorageError{Op: "update", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: "update", Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: "update", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: "update", Err: err}
	}
	return nil
}

// List returns summaries of every persisted session, newest first.
// Unparsable documents are skipped rather than failing the whole listing.
func (st *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}

	var summaries []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(st.dir, entry.Name()))
		if err != nil {
			continue
		}
		sess, err := Unmarshal(data)
		if err != nil {
			continue
		}
		summaries = append(summaries, Summary{
			SessionID:    sess.SessionID,
			Provider:     sess.Provider,
			MessageCount: len(sess.Messages),
			CreatedAt:    sess.CreatedAt,
			UpdatedAt:    sess.UpdatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Delete removes a persisted session.
func (st *Store) Delete(sessionID string) error {
	path, err := st.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &NotFoundError{SessionID: sessionID}
		}
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}

// path maps a session id onto its document path. Ids never contain path
// separators, so a malicious id cannot escape the store directory.
func (st *Store) path(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || strings.Contains(sessionID, "..") {
		return "", &StorageError{Op: "path", Err: fmt.Errorf("invalid session id %q", sessionID)}
	}
	return filepath.Join(st.dir, sessionID+".json"), nil
}
