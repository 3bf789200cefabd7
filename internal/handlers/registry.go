package handlers

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/teamshare/backend/internal/docstore"
	"github.com/teamshare/backend/internal/identity"
	"github.com/teamshare/backend/internal/services"
	"github.com/teamshare/backend/internal/storage"
)

type panelEntry struct {
	panel       *services.FilePanel
	session     *identity.Session
	unsubscribe func()
}

// PanelRegistry keeps one identity session per user and one file panel per
// (user, team). Idle entries expire; an evicted session signs out, which
// clears the identity of every panel following it.
type PanelRegistry struct {
	files  docstore.Files
	blobs  storage.BlobStore
	keys   *storage.KeyGenerator
	expiry time.Duration

	mu       sync.Mutex
	sessions *expirable.LRU[string, *identity.Session]
	panels   *expirable.LRU[string, *panelEntry]
}

type PanelRegistryConfig struct {
	Files           docstore.Files
	Blobs           storage.BlobStore
	SignedURLExpiry time.Duration
	Size            int
	IdleTimeout     time.Duration
}

func NewPanelRegistry(cfg PanelRegistryConfig) *PanelRegistry {
	size := cfg.Size
	if size <= 0 {
		size = 1024
	}
	r := &PanelRegistry{
		files:  cfg.Files,
		blobs:  cfg.Blobs,
		keys:   storage.NewKeyGenerator(),
		expiry: cfg.SignedURLExpiry,
	}
	r.sessions = expirable.NewLRU[string, *identity.Session](size, func(_ string, session *identity.Session) {
		session.SignOut()
	}, cfg.IdleTimeout)
	r.panels = expirable.NewLRU[string, *panelEntry](size, func(_ string, entry *panelEntry) {
		entry.unsubscribe()
	}, cfg.IdleTimeout)
	return r
}

// Session returns the user's session, creating it on first use.
func (r *PanelRegistry) Session(userID string) *identity.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionLocked(userID)
}

func (r *PanelRegistry) sessionLocked(userID string) *identity.Session {
	if session, ok := r.sessions.Get(userID); ok {
		return session
	}
	session := identity.NewSession()
	r.sessions.Add(userID, session)
	return session
}

// Panel returns the panel for userID in teamID, following the user's current
// session.
func (r *PanelRegistry) Panel(userID, teamID string) *services.FilePanel {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.sessionLocked(userID)
	key := userID + "|" + teamID
	var panel *services.FilePanel
	if entry, ok := r.panels.Get(key); ok {
		if entry.session == session {
			return entry.panel
		}
		// Entries are never mutated; removing runs the old unsubscribe.
		panel = entry.panel
		r.panels.Remove(key)
	} else {
		panel = services.NewFilePanel(services.FilePanelConfig{
			TeamID:          teamID,
			Files:           r.files,
			Blobs:           r.blobs,
			Keys:            r.keys,
			SignedURLExpiry: r.expiry,
		})
	}

	r.panels.Add(key, &panelEntry{panel: panel, session: session, unsubscribe: panel.Follow(session)})
	return panel
}

// SignOut ends the user's session. Panels keep their file lists but lose the
// identity until the user authenticates again.
func (r *PanelRegistry) SignOut(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.Remove(userID)
}
