package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jonp-h/TillerQuest-sub003/internal/models"

	"gorm.io/gorm"
)

func TestCastAbility_EvadeAtMostOncePerEvent(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10})
	evade := seedAbility(t, db, models.Ability{
		Name: "evade",
		Type: models.AbilityTypeEvade,
		Cost: 2,
	})
	grantAbility(t, db, actor.ID, evade.ID)

	// A cosmic event granted this ability; evading must strip it.
	granted := seedAbility(t, db, models.Ability{
		Name:  "cosmic curse",
		Type:  models.AbilityTypeDamage,
		Value: intPtr(1),
	})
	grantedRow := models.UserAbility{UserID: actor.ID, AbilityID: granted.ID, FromCosmic: true}
	if errCreate := db.Create(&grantedRow).Error; errCreate != nil {
		t.Fatalf("grant cosmic ability: %v", errCreate)
	}

	if _, errCast := engine.CastAbility(context.Background(), actor.ID, "evade", nil); errCast != nil {
		t.Fatalf("first evade: %v", errCast)
	}

	var cosmicAbilities int64
	errCount := db.Model(&models.UserAbility{}).
		Where("user_id = ? AND from_cosmic = ?", actor.ID, true).
		Count(&cosmicAbilities).Error
	if errCount != nil {
		t.Fatalf("count cosmic abilities: %v", errCount)
	}
	if cosmicAbilities != 0 {
		t.Fatalf("evade left %d cosmic-granted abilities", cosmicAbilities)
	}

	var passives []models.UserPassive
	if errFind := db.Where("user_id = ?", actor.ID).Find(&passives).Error; errFind != nil {
		t.Fatalf("find passives: %v", errFind)
	}
	if len(passives) != 1 || passives[0].Kind != models.PassiveEvaded {
		t.Fatalf("expected a single evaded passive, got %+v", passives)
	}

	manaAfterFirst := reloadUser(t, db, actor.ID).Mana
	if manaAfterFirst != 8 {
		t.Fatalf("expected mana 8 after first evade, got %d", manaAfterFirst)
	}

	_, errSecond := engine.CastAbility(context.Background(), actor.ID, "evade", nil)
	if !errors.Is(errSecond, ErrAlreadyEvaded) {
		t.Fatalf("expected ErrAlreadyEvaded, got %v", errSecond)
	}
	if got := reloadUser(t, db, actor.ID); got.Mana != manaAfterFirst {
		t.Fatalf("rejected evade still charged mana: %d", got.Mana)
	}
}

func TestCastAbility_EvadeLosingInsertRaceRejectsCleanly(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10})
	evade := seedAbility(t, db, models.Ability{
		Name: "evade",
		Type: models.AbilityTypeEvade,
		Cost: 2,
	})
	grantAbility(t, db, actor.ID, evade.ID)

	// Simulate a rival evade landing between the passive check and our
	// insert: just before the evaded row is written, slip a competing row
	// into the same transaction so the unique index rejects ours.
	competed := false
	errCallback := db.Callback().Create().Before("gorm:create").Register("test:compete_evade", func(tx *gorm.DB) {
		if competed || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "user_passives" {
			return
		}
		competed = true
		errExec := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO user_passives (user_id, kind, cosmic_event, created_at) VALUES (?, ?, ?, ?)",
			actor.ID, models.PassiveEvaded, true, time.Now().UTC(),
		).Error
		if errExec != nil {
			_ = tx.AddError(errExec)
		}
	})
	if errCallback != nil {
		t.Fatalf("register callback: %v", errCallback)
	}

	_, errCast := engine.CastAbility(context.Background(), actor.ID, "evade", nil)
	if !errors.Is(errCast, ErrAlreadyEvaded) {
		t.Fatalf("expected ErrAlreadyEvaded, got %v", errCast)
	}
	if !competed {
		t.Fatalf("competing insert never ran")
	}

	// The whole cast rolled back, competing row included.
	var passives int64
	if errCount := db.Model(&models.UserPassive{}).Count(&passives).Error; errCount != nil {
		t.Fatalf("count passives: %v", errCount)
	}
	if passives != 0 {
		t.Fatalf("rejected evade left %d passive rows", passives)
	}
	if got := reloadUser(t, db, actor.ID); got.Mana != 10 {
		t.Fatalf("rejected evade charged mana: %d", got.Mana)
	}
}

func TestCastAbility_TwistOfFateSingleUse(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10})
	twist := seedAbility(t, db, models.Ability{
		Name: "twist of fate",
		Type: models.AbilityTypeTwistOfFate,
		Cost: 1,
	})
	grantAbility(t, db, actor.ID, twist.ID)

	result, errCast := engine.CastAbility(context.Background(), actor.ID, "twist of fate", nil)
	if errCast != nil {
		t.Fatalf("cast: %v", errCast)
	}

	roll, errParse := strconv.Atoi(strings.Trim(result.DiceRoll, "[]"))
	if errParse != nil {
		t.Fatalf("unparseable breakdown %q: %v", result.DiceRoll, errParse)
	}
	if roll < 1 || roll > 20 {
		t.Fatalf("1d20 roll out of bounds: %d", roll)
	}
	if roll == 20 && result.Message != twistEscalationMessage {
		t.Fatalf("max face should escalate, got %q", result.Message)
	}
	if roll != 20 && result.Message != twistConsolationMessage {
		t.Fatalf("non-max face should console, got %q", result.Message)
	}

	// The literal roll is audited regardless of outcome.
	var debugLogs int64
	errCount := db.Model(&models.Log{}).
		Where("user_id = ? AND debug = ?", actor.ID, true).
		Count(&debugLogs).Error
	if errCount != nil {
		t.Fatalf("count debug logs: %v", errCount)
	}
	if debugLogs != 1 {
		t.Fatalf("expected 1 debug audit entry, got %d", debugLogs)
	}

	_, errSecond := engine.CastAbility(context.Background(), actor.ID, "twist of fate", nil)
	if !errors.Is(errSecond, ErrAlreadyUsed) {
		t.Fatalf("expected ErrAlreadyUsed, got %v", errSecond)
	}
}
