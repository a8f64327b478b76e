package engine

import (
	"github.com/jonp-h/TillerQuest-sub003/internal/models"
	"github.com/jonp-h/TillerQuest-sub003/internal/settings"
)

// levelThreshold returns the total XP required to hold the given level.
//
// The deployed curve is quadratic: threshold(level) = step * level * level,
// with level 1 free. The curve is monotonically increasing, so walking it one
// level at a time terminates.
func levelThreshold(cfg settings.GameConfig, level int) int {
	if level <= 1 {
		return 0
	}
	return cfg.LevelXPStep * level * level
}

// AwardXP adds scaled XP to the user and applies every level-up it unlocks.
//
// Gemstones are granted once per level crossed, so an award spanning two
// thresholds pays the reward twice. XP and level never decrease; a negative
// amount is ignored. The caller persists the user.
func AwardXP(user *models.User, amount int, cfg settings.GameConfig) (levelsGained int) {
	if user == nil || amount <= 0 {
		return 0
	}

	user.XP += amount * cfg.XPMultiplier

	for user.XP >= levelThreshold(cfg, user.Level+1) {
		user.Level++
		user.Gemstones += cfg.GemstonesOnLevelUp
		levelsGained++
	}
	return levelsGained
}
