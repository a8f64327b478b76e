// Package guild implements guild-wide economy operations: resurrection,
// leader succession, and membership.
package guild

import (
	"context"
	"errors"
	"fmt"

	dbutil "github.com/jonp-h/TillerQuest-sub003/internal/db"
	"github.com/jonp-h/TillerQuest-sub003/internal/gamelog"
	"github.com/jonp-h/TillerQuest-sub003/internal/models"
	"github.com/jonp-h/TillerQuest-sub003/internal/settings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Validation failures for guild operations.
var (
	// ErrNoGuild indicates the user is not in a guild.
	ErrNoGuild = errors.New("user has no guild")
	// ErrGuildFull indicates the guild reached its membership cap.
	ErrGuildFull = errors.New("guild is full")
	// ErrGuildArchived indicates the guild is archived and closed to play.
	ErrGuildArchived = errors.New("guild is archived")
	// ErrInvalidLeader indicates an illegal leadership transition.
	ErrInvalidLeader = errors.New("invalid guild leader")
	// ErrNotDead indicates a resurrection attempt on a living user.
	ErrNotDead = errors.New("user is not dead")
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrGuildNotFound indicates the referenced guild does not exist.
	ErrGuildNotFound = errors.New("guild not found")
)

// Economy executes guild-wide transactional operations.
type Economy struct {
	db *gorm.DB
}

// NewEconomy constructs an Economy over the given store handle.
func NewEconomy(db *gorm.DB) *Economy {
	return &Economy{db: db}
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if dbutil.IsSQLite(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Resurrect revives a dead guild member and splits the configured damage
// across the other living members.
//
// The split uses floor division; the remainder lands on the first members in
// ascending username order so the total dealt equals the configured constant.
// Members are clamped at 0 HP.
func (e *Economy) Resurrect(ctx context.Context, deadUserID uint64) error {
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dead models.User
		if errFind := lockForUpdate(tx).Where("id = ?", deadUserID).Take(&dead).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", errFind)
		}
		if dead.Alive() {
			return ErrNotDead
		}
		if dead.GuildName == nil {
			return ErrNoGuild
		}

		cfg := settings.LoadGameConfig(ctx, tx)
		dead.HP = cfg.MinResurrectionHP

		// Lock the full member list before computing the split so nobody is
		// read at stale HP.
		var members []models.User
		errFind := lockForUpdate(tx).
			Where("guild_name = ? AND id <> ? AND hp > 0", *dead.GuildName, dead.ID).
			Order("username ASC").
			Find(&members).Error
		if errFind != nil {
			return fmt.Errorf("load guild members: %w", errFind)
		}

		shares := splitDamage(cfg.ResurrectionDamage, len(members))
		for i := range members {
			members[i].HP = max(members[i].HP-shares[i], 0)
			if errSave := tx.Save(&members[i]).Error; errSave != nil {
				return fmt.Errorf("save member %d: %w", members[i].ID, errSave)
			}
		}
		if errSave := tx.Save(&dead).Error; errSave != nil {
			return fmt.Errorf("save revived user: %w", errSave)
		}

		deadID := dead.ID
		return gamelog.Append(tx, gamelog.Entry{
			UserID:  &deadID,
			Message: fmt.Sprintf("%s was resurrected; %s shared %d damage", dead.Username, *dead.GuildName, cfg.ResurrectionDamage),
			Global:  true,
			Details: map[string]any{"guild": *dead.GuildName, "damage": cfg.ResurrectionDamage, "members": len(members)},
		})
	})
	if errTx != nil {
		if isGuildValidation(errTx) {
			return errTx
		}
		log.WithError(errTx).WithField("user_id", deadUserID).Error("guild: resurrect failed")
		return fmt.Errorf("guild: resurrect: %w", errTx)
	}
	return nil
}

// splitDamage divides total across n members: floor share for everyone, the
// remainder assigned one point each to the first members in order.
func splitDamage(total, n int) []int {
	shares := make([]int, n)
	if n == 0 || total <= 0 {
		return shares
	}
	base := total / n
	remainder := total % n
	for i := range shares {
		shares[i] = base
		if i < remainder {
			shares[i]++
		}
	}
	return shares
}

// PromoteNextLeader atomically promotes the designated successor.
func (e *Economy) PromoteNextLeader(ctx context.Context, guildName string) error {
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Guild
		if errFind := lockForUpdate(tx).Where("name = ?", guildName).Take(&g).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrGuildNotFound
			}
			return fmt.Errorf("load guild: %w", errFind)
		}
		if g.NextGuildLeader == nil {
			return ErrInvalidLeader
		}

		var successorCount int64
		errCount := tx.Model(&models.User{}).
			Where("id = ? AND guild_name = ?", *g.NextGuildLeader, g.Name).
			Count(&successorCount).Error
		if errCount != nil {
			return fmt.Errorf("check successor: %w", errCount)
		}
		if successorCount == 0 {
			return ErrInvalidLeader
		}

		g.GuildLeader = g.NextGuildLeader
		g.NextGuildLeader = nil
		if errSave := tx.Save(&g).Error; errSave != nil {
			return fmt.Errorf("save guild: %w", errSave)
		}
		return gamelog.Append(tx, gamelog.Entry{
			Message: fmt.Sprintf("%s has a new leader", g.Name),
			Global:  true,
			Details: map[string]any{"guild": g.Name, "leader": *g.GuildLeader},
		})
	})
	if errTx != nil {
		if isGuildValidation(errTx) {
			return errTx
		}
		log.WithError(errTx).WithField("guild", guildName).Error("guild: promote failed")
		return fmt.Errorf("guild: promote: %w", errTx)
	}
	return nil
}

// Join adds a user to a guild, enforcing the membership cap at join time.
func (e *Economy) Join(ctx context.Context, userID uint64, guildName string) error {
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Guild
		if errFind := lockForUpdate(tx).Where("name = ?", guildName).Take(&g).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrGuildNotFound
			}
			return fmt.Errorf("load guild: %w", errFind)
		}
		if g.Archived {
			return ErrGuildArchived
		}

		cfg := settings.LoadGameConfig(ctx, tx)
		var memberCount int64
		if errCount := tx.Model(&models.User{}).Where("guild_name = ?", g.Name).Count(&memberCount).Error; errCount != nil {
			return fmt.Errorf("count members: %w", errCount)
		}
		if memberCount >= int64(cfg.GuildMaxMembers) {
			return ErrGuildFull
		}

		var user models.User
		if errFind := lockForUpdate(tx).Where("id = ?", userID).Take(&user).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", errFind)
		}
		name := g.Name
		user.GuildName = &name
		if errSave := tx.Save(&user).Error; errSave != nil {
			return fmt.Errorf("save user: %w", errSave)
		}
		return nil
	})
	if errTx != nil {
		if isGuildValidation(errTx) {
			return errTx
		}
		log.WithError(errTx).WithField("guild", guildName).Error("guild: join failed")
		return fmt.Errorf("guild: join: %w", errTx)
	}
	return nil
}

func isGuildValidation(err error) bool {
	for _, sentinel := range []error{
		ErrNoGuild,
		ErrGuildFull,
		ErrGuildArchived,
		ErrInvalidLeader,
		ErrNotDead,
		ErrUserNotFound,
		ErrGuildNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
