package modifier

import (
	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// #region build

// Build constructs one modifier per registered type whose required
// providers are present in set. Types with a missing capability are left
// out entirely; missing configs fall back to defaults. Disabled modifiers
// are still returned so callers can report them.
func Build(set provider.Set, registry Registry, logger *zap.Logger) []Modifier {
	logger = orNop(logger)
	if registry == nil {
		registry = DefaultRegistry()
	}

	var mods []Modifier
	skip := func(id TypeID, missing string) {
		logger.Debug("modifier not registered", zap.String("type", string(id)), zap.String("missing_provider", missing))
	}

	for _, id := range AllTypes {
		named := logger.With(zap.String("modifier", string(id)))
		switch id {
		case TypeWinStreak:
			if set.WinStreak == nil {
				skip(id, "win_streak")
				continue
			}
			cfg := lookupOr(registry, id, DefaultWinStreakConfig())
			mods = append(mods, NewWinStreak(set.WinStreak, cfg, named))
		case TypeLossStreak:
			if set.WinStreak == nil {
				skip(id, "win_streak")
				continue
			}
			cfg := lookupOr(registry, id, DefaultLossStreakConfig())
			mods = append(mods, NewLossStreak(set.WinStreak, cfg, named))
		case TypeTimeDecay:
			if set.TimeDecay == nil {
				skip(id, "time_decay")
				continue
			}
			cfg := lookupOr(registry, id, DefaultTimeDecayConfig())
			mods = append(mods, NewTimeDecay(set.TimeDecay, cfg, named))
		case TypeRageQuit:
			if set.RageQuit == nil {
				skip(id, "rage_quit")
				continue
			}
			cfg := lookupOr(registry, id, DefaultRageQuitConfig())
			mods = append(mods, NewRageQuit(set.RageQuit, cfg, named))
		case TypeCompletionRate:
			if set.WinStreak == nil {
				skip(id, "win_streak")
				continue
			}
			cfg := lookupOr(registry, id, DefaultCompletionRateConfig())
			mods = append(mods, NewCompletionRate(set.WinStreak, set.LevelProgress, cfg, named))
		case TypeLevelProgress:
			if set.LevelProgress == nil {
				skip(id, "level_progress")
				continue
			}
			cfg := lookupOr(registry, id, DefaultLevelProgressConfig())
			mods = append(mods, NewLevelProgress(set.LevelProgress, cfg, named))
		case TypeSessionPattern:
			if set.RageQuit == nil {
				skip(id, "rage_quit")
				continue
			}
			cfg := lookupOr(registry, id, DefaultSessionPatternConfig())
			mods = append(mods, NewSessionPattern(set.RageQuit, set.SessionPattern, cfg, named))
		}
	}
	return mods
}

// #endregion build

// #region helpers

func lookupOr[T Config](r Registry, id TypeID, def T) T {
	if c, ok := Lookup[T](r, id); ok {
		return c
	}
	return def
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// #endregion helpers
