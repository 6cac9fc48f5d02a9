package state

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PlayerData adapts the store to provider.DataProvider for one player.
// SetCurrentDifficulty commits a new version parented on the active one;
// the interface has no error return, so failures are kept for Err.
type PlayerData struct {
	store      *Store
	playerID   string
	resultJSON string
	now        func() time.Time

	lastVersion string
	err         error
}

// NewPlayerData returns a DataProvider bound to playerID.
func NewPlayerData(store *Store, playerID string) *PlayerData {
	return &PlayerData{store: store, playerID: playerID, now: func() time.Time { return time.Now().UTC() }}
}

// WithResult attaches the serialized evaluation stored on the next commit.
func (p *PlayerData) WithResult(resultJSON string) *PlayerData {
	p.resultJSON = resultJSON
	return p
}

// GetCurrentDifficulty returns the active difficulty, or 0 when the player
// has no version yet or the read fails.
func (p *PlayerData) GetCurrentDifficulty() float64 {
	rec, err := p.store.GetCurrent(p.playerID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			p.err = err
		}
		return 0
	}
	return rec.Difficulty
}

// SetCurrentDifficulty commits value as the player's new active version.
func (p *PlayerData) SetCurrentDifficulty(value float64) {
	rec := DifficultyRecord{
		VersionID:  uuid.New().String(),
		PlayerID:   p.playerID,
		Difficulty: value,
		CreatedAt:  p.now(),
		ResultJSON: p.resultJSON,
	}
	if cur, err := p.store.GetCurrent(p.playerID); err == nil {
		rec.ParentID = cur.VersionID
	} else if !errors.Is(err, sql.ErrNoRows) {
		p.err = err
		return
	}
	if err := p.store.CommitDifficulty(rec); err != nil {
		p.err = err
		return
	}
	p.lastVersion = rec.VersionID
	p.resultJSON = ""
}

// Err returns the last storage error, if any.
func (p *PlayerData) Err() error { return p.err }

// LastVersionID returns the version committed by the last successful set.
func (p *PlayerData) LastVersionID() string { return p.lastVersion }
