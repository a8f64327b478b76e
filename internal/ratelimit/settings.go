package ratelimit

import (
	"context"
	"strconv"
	"strings"
	"time"

	internalsettings "github.com/jonp-h/TillerQuest-sub003/internal/settings"

	"gorm.io/gorm"
)

// SettingsConfig captures rate limit settings stored in the settings table.
type SettingsConfig struct {
	Limit         int
	WindowSeconds int
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Policy converts the snapshot into the cast throttling rule.
func (c SettingsConfig) Policy() Policy {
	window := c.WindowSeconds
	if window < 1 {
		window = internalsettings.DefaultCastRateWindowSeconds
	}
	return Policy{Limit: c.Limit, Window: time.Duration(window) * time.Second}
}

// LoadSettingsConfig loads the current rate limit settings snapshot.
func LoadSettingsConfig(db *gorm.DB) SettingsConfig {
	ctx := context.Background()
	cfg := SettingsConfig{
		Limit:         internalsettings.DefaultCastRateLimit,
		WindowSeconds: internalsettings.DefaultCastRateWindowSeconds,
		RedisPrefix:   internalsettings.DefaultRateLimitRedisPrefix,
	}

	if raw, ok := internalsettings.SettingValue(ctx, db, internalsettings.CastRateLimitKey); ok {
		if limit, okParse := parseNonNegativeInt(raw); okParse {
			cfg.Limit = limit
		}
	}
	if raw, ok := internalsettings.SettingValue(ctx, db, internalsettings.CastRateWindowKey); ok {
		if window, okParse := parseNonNegativeInt(raw); okParse && window > 0 {
			cfg.WindowSeconds = window
		}
	}
	if raw, ok := internalsettings.SettingValue(ctx, db, internalsettings.RateLimitRedisEnabledKey); ok {
		if enabled, okParse := parseBool(raw); okParse {
			cfg.RedisEnabled = enabled
		}
	}
	if raw, ok := internalsettings.SettingValue(ctx, db, internalsettings.RateLimitRedisAddrKey); ok {
		cfg.RedisAddr = strings.TrimSpace(raw)
	}
	if raw, ok := internalsettings.SettingValue(ctx, db, internalsettings.RateLimitRedisPasswordKey); ok {
		cfg.RedisPassword = strings.TrimSpace(raw)
	}
	if raw, ok := internalsettings.SettingValue(ctx, db, internalsettings.RateLimitRedisDBKey); ok {
		if dbIndex, okParse := parseNonNegativeInt(raw); okParse {
			cfg.RedisDB = dbIndex
		}
	}
	if raw, ok := internalsettings.SettingValue(ctx, db, internalsettings.RateLimitRedisPrefixKey); ok {
		if prefix := strings.TrimSpace(raw); prefix != "" {
			cfg.RedisPrefix = prefix
		}
	}
	return cfg
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

func parseNonNegativeInt(raw string) (int, bool) {
	parsed, errParse := strconv.Atoi(strings.TrimSpace(raw))
	if errParse != nil || parsed < 0 {
		return 0, false
	}
	return parsed, true
}
