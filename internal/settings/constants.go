package settings

// DB config keys and defaults for game tunables.
const (
	// XPMultiplierKey scales every XP award.
	XPMultiplierKey = "XP_MULTIPLIER"
	// LevelXPStepKey is the quadratic coefficient of the level curve.
	LevelXPStepKey = "LEVEL_XP_STEP"
	// GemstonesOnLevelUpKey is the gemstone reward per level gained.
	GemstonesOnLevelUpKey = "GEMSTONES_ON_LEVEL_UP"
	// MinResurrectionHPKey is the HP a revived user comes back with.
	MinResurrectionHPKey = "MIN_RESURRECTION_HP"
	// ResurrectionDamageKey is the total damage split across guildmates on revival.
	ResurrectionDamageKey = "GUILDMEMBER_RESURRECTION_DAMAGE"
	// GuildMaxMembersKey caps guild membership.
	GuildMaxMembersKey = "GUILD_MAX_MEMBERS"
	// DailyManaKey is the mana restored by the daily regeneration.
	DailyManaKey = "DAILY_MANA"
	// DailyTurnsKey is the turn allowance restored by the daily regeneration.
	DailyTurnsKey = "DAILY_TURNS"
	// CastRateLimitKey is the number of casts a user may resolve per window.
	CastRateLimitKey = "CAST_RATE_LIMIT"
	// CastRateWindowKey is the cast rate limit window length in seconds.
	CastRateWindowKey = "CAST_RATE_LIMIT_WINDOW"
	// RateLimitRedisEnabledKey toggles Redis-backed rate limiting.
	RateLimitRedisEnabledKey = "RATE_LIMIT_REDIS_ENABLED"
	// RateLimitRedisAddrKey defines the Redis address for rate limiting.
	RateLimitRedisAddrKey = "RATE_LIMIT_REDIS_ADDR"
	// RateLimitRedisPasswordKey defines the Redis password for rate limiting.
	RateLimitRedisPasswordKey = "RATE_LIMIT_REDIS_PASSWORD"
	// RateLimitRedisDBKey defines the Redis DB index for rate limiting.
	RateLimitRedisDBKey = "RATE_LIMIT_REDIS_DB"
	// RateLimitRedisPrefixKey defines the Redis key prefix for rate limiting.
	RateLimitRedisPrefixKey = "RATE_LIMIT_REDIS_PREFIX"

	// DefaultXPMultiplier is the fallback XP multiplier.
	DefaultXPMultiplier = 1
	// DefaultLevelXPStep is the fallback level curve coefficient.
	DefaultLevelXPStep = 100
	// DefaultGemstonesOnLevelUp is the fallback gemstone reward per level.
	DefaultGemstonesOnLevelUp = 2
	// DefaultMinResurrectionHP is the fallback revival HP.
	DefaultMinResurrectionHP = 1
	// DefaultResurrectionDamage is the fallback guild-wide revival damage.
	DefaultResurrectionDamage = 10
	// DefaultGuildMaxMembers is the fallback membership cap.
	DefaultGuildMaxMembers = 5
	// DefaultDailyMana is the fallback daily mana regeneration.
	DefaultDailyMana = 4
	// DefaultDailyTurns is the fallback daily turn allowance.
	DefaultDailyTurns = 1
	// DefaultCastRateLimit is the fallback cast rate limit (0 means unlimited).
	DefaultCastRateLimit = 0
	// DefaultCastRateWindowSeconds is the fallback cast window length.
	DefaultCastRateWindowSeconds = 1
	// DefaultRateLimitRedisPrefix is the fallback Redis key prefix.
	DefaultRateLimitRedisPrefix = "tq:rl"
)
