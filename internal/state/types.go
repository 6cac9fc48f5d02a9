package state

import (
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// #region difficulty-record
// DifficultyRecord is one versioned difficulty value for a player.
type DifficultyRecord struct {
	VersionID  string
	ParentID   string
	PlayerID   string
	Difficulty float64
	CreatedAt  time.Time
	ResultJSON string
}

// #endregion difficulty-record

// #region telemetry
// Session is one play session as recorded by the host.
type Session struct {
	ID              int64
	PlayerID        string
	StartedAt       time.Time
	DurationSeconds float64
	QuitType        provider.QuitType
	Level           int
}

// EndedAt returns StartedAt plus the session duration.
func (s Session) EndedAt() time.Time {
	return s.StartedAt.Add(time.Duration(s.DurationSeconds * float64(time.Second)))
}

// Attempt is one try at a level.
type Attempt struct {
	ID         int64
	PlayerID   string
	Level      int
	Won        bool
	Seconds    float64
	RecordedAt time.Time
}

// Level describes a level's intrinsic difficulty and expected completion time.
type Level struct {
	Level           int
	Difficulty      float64
	ExpectedSeconds float64
}

// #endregion telemetry

// #region snapshot-options
// SnapshotOptions controls how telemetry is summarised into a snapshot.
type SnapshotOptions struct {
	HistoryWindow int // recent sessions/attempts considered for rates and averages
}

// DefaultSnapshotOptions returns a 10-entry window.
func DefaultSnapshotOptions() SnapshotOptions {
	return SnapshotOptions{HistoryWindow: 10}
}

// #endregion snapshot-options

// #region version-with-provenance
// VersionWithProvenance pairs a difficulty version with its provenance row fields.
type VersionWithProvenance struct {
	DifficultyRecord
	Decision    string
	Reason      string
	SignalsJSON string
}

// #endregion version-with-provenance
