package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/jonp-h/TillerQuest-sub003/internal/dice"
	"github.com/jonp-h/TillerQuest-sub003/internal/gamelog"
	"github.com/jonp-h/TillerQuest-sub003/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	errMigrate := db.AutoMigrate(
		&models.User{}, &models.Ability{}, &models.UserAbility{},
		&models.UserPassive{}, &models.EffectOnUser{},
		&models.Guild{}, &models.GuildEnemy{},
		&models.Log{}, &models.Setting{},
		&models.SystemMessage{}, &models.SystemMessageRead{},
	)
	if errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return db
}

func newTestEngine(db *gorm.DB) *Engine {
	return New(db, gamelog.NewNotifier(db)).WithRandFactory(func() (*rand.Rand, error) {
		return rand.New(rand.NewSource(1)), nil
	})
}

func seedUser(t *testing.T, db *gorm.DB, user models.User) *models.User {
	t.Helper()
	if user.HPMax == 0 {
		user.HPMax = 40
	}
	if user.ManaMax == 0 {
		user.ManaMax = 40
	}
	if user.Level == 0 {
		user.Level = 1
	}
	if user.SchoolClass == "" {
		user.SchoolClass = models.SchoolClassVg1
	}
	intendedHP, intendedMana := user.HP, user.Mana
	if errCreate := db.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user %s: %v", user.Username, errCreate)
	}
	// GORM skips zero-valued fields carrying a default tag on create, so force
	// the intended HP/mana through for fixtures seeded at zero.
	if errForce := db.Model(&user).Updates(map[string]any{"hp": intendedHP, "mana": intendedMana}).Error; errForce != nil {
		t.Fatalf("force hp/mana for user %s: %v", user.Username, errForce)
	}
	user.HP, user.Mana = intendedHP, intendedMana
	return &user
}

func seedAbility(t *testing.T, db *gorm.DB, ability models.Ability) *models.Ability {
	t.Helper()
	if ability.CostResource == "" {
		ability.CostResource = models.ResourceMana
	}
	if ability.Target == "" {
		ability.Target = models.TargetSelf
	}
	if errCreate := db.Create(&ability).Error; errCreate != nil {
		t.Fatalf("create ability %s: %v", ability.Name, errCreate)
	}
	return &ability
}

func grantAbility(t *testing.T, db *gorm.DB, userID, abilityID uint64) {
	t.Helper()
	row := models.UserAbility{UserID: userID, AbilityID: abilityID}
	if errCreate := db.Create(&row).Error; errCreate != nil {
		t.Fatalf("grant ability: %v", errCreate)
	}
}

func reloadUser(t *testing.T, db *gorm.DB, id uint64) models.User {
	t.Helper()
	var user models.User
	if errFind := db.Where("id = ?", id).Take(&user).Error; errFind != nil {
		t.Fatalf("reload user %d: %v", id, errFind)
	}
	return user
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestCastAbility_TurnsGrantConservation(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	guildName := "wolves"
	if errCreate := db.Create(&models.Guild{Name: guildName}).Error; errCreate != nil {
		t.Fatalf("create guild: %v", errCreate)
	}
	actor := seedUser(t, db, models.User{Username: "anna", HP: 40, Mana: 10, GuildName: &guildName})
	mate := seedUser(t, db, models.User{Username: "bjorn", HP: 40, GuildName: &guildName})
	outsider := seedUser(t, db, models.User{Username: "carl", HP: 40, Turns: 3})

	ability := seedAbility(t, db, models.Ability{
		Name:   "rally",
		Type:   models.AbilityTypeTurns,
		Value:  intPtr(2),
		Cost:   1,
		Target: models.TargetGuild,
	})
	grantAbility(t, db, actor.ID, ability.ID)

	result, errCast := engine.CastAbility(context.Background(), actor.ID, "rally", nil)
	if errCast != nil {
		t.Fatalf("cast: %v", errCast)
	}
	if result.Message == "" {
		t.Fatalf("expected a result message")
	}
	if result.DiceRoll != "" {
		t.Fatalf("turns abilities never roll dice, got %q", result.DiceRoll)
	}

	gotActor := reloadUser(t, db, actor.ID)
	gotMate := reloadUser(t, db, mate.ID)
	gotOutsider := reloadUser(t, db, outsider.ID)

	if gotActor.Turns != 2 || gotMate.Turns != 2 {
		t.Fatalf("expected both members at 2 turns, got %d and %d", gotActor.Turns, gotMate.Turns)
	}
	if gotOutsider.Turns != 3 {
		t.Fatalf("outsider turns changed: %d", gotOutsider.Turns)
	}
	if gotActor.Mana != 9 {
		t.Fatalf("expected mana 9 after cost, got %d", gotActor.Mana)
	}

	var logCount int64
	if errCount := db.Model(&models.Log{}).Count(&logCount).Error; errCount != nil {
		t.Fatalf("count logs: %v", errCount)
	}
	if logCount != 1 {
		t.Fatalf("expected 1 audit entry, got %d", logCount)
	}
}

func TestCastAbility_InsufficientResourceMutatesNothing(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 2})
	target := seedUser(t, db, models.User{Username: "bjorn", HP: 20})

	ability := seedAbility(t, db, models.Ability{
		Name:    "greater heal",
		Type:    models.AbilityTypeHeal,
		Value:   intPtr(15),
		Cost:    5,
		Target:  models.TargetSingle,
		XPGiven: 10,
	})
	grantAbility(t, db, actor.ID, ability.ID)

	_, errCast := engine.CastAbility(context.Background(), actor.ID, "greater heal", []uint64{target.ID})
	if !errors.Is(errCast, ErrInsufficientResource) {
		t.Fatalf("expected ErrInsufficientResource, got %v", errCast)
	}

	gotActor := reloadUser(t, db, actor.ID)
	gotTarget := reloadUser(t, db, target.ID)
	if gotActor.Mana != 2 || gotActor.XP != 0 {
		t.Fatalf("actor state mutated: mana=%d xp=%d", gotActor.Mana, gotActor.XP)
	}
	if gotTarget.HP != 20 {
		t.Fatalf("target state mutated: hp=%d", gotTarget.HP)
	}

	var logCount int64
	if errCount := db.Model(&models.Log{}).Count(&logCount).Error; errCount != nil {
		t.Fatalf("count logs: %v", errCount)
	}
	if logCount != 0 {
		t.Fatalf("rejected cast wrote %d audit entries", logCount)
	}
}

func TestCastAbility_ValidationFailures(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10})
	dead := seedUser(t, db, models.User{Username: "bjorn", HP: 0, Mana: 10})
	ability := seedAbility(t, db, models.Ability{
		Name:   "spark",
		Type:   models.AbilityTypeDamage,
		Value:  intPtr(3),
		Target: models.TargetSingle,
	})
	grantAbility(t, db, dead.ID, ability.ID)

	if _, errCast := engine.CastAbility(context.Background(), actor.ID, "missing", nil); !errors.Is(errCast, ErrAbilityNotFound) {
		t.Fatalf("expected ErrAbilityNotFound, got %v", errCast)
	}
	if _, errCast := engine.CastAbility(context.Background(), 9999, "spark", nil); !errors.Is(errCast, ErrActorNotFound) {
		t.Fatalf("expected ErrActorNotFound, got %v", errCast)
	}
	if _, errCast := engine.CastAbility(context.Background(), actor.ID, "spark", []uint64{dead.ID}); !errors.Is(errCast, ErrAbilityNotOwned) {
		t.Fatalf("expected ErrAbilityNotOwned, got %v", errCast)
	}
	if _, errCast := engine.CastAbility(context.Background(), dead.ID, "spark", []uint64{actor.ID}); !errors.Is(errCast, ErrActorDead) {
		t.Fatalf("expected ErrActorDead, got %v", errCast)
	}
}

func TestCastAbility_HealClampsAndRejectsDeadTargets(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10})
	hurt := seedUser(t, db, models.User{Username: "bjorn", HP: 35, HPMax: 40})
	dead := seedUser(t, db, models.User{Username: "carl", HP: 0})

	ability := seedAbility(t, db, models.Ability{
		Name:   "mend",
		Type:   models.AbilityTypeHeal,
		Value:  intPtr(50),
		Cost:   2,
		Target: models.TargetSingle,
	})
	grantAbility(t, db, actor.ID, ability.ID)

	if _, errCast := engine.CastAbility(context.Background(), actor.ID, "mend", []uint64{hurt.ID}); errCast != nil {
		t.Fatalf("cast: %v", errCast)
	}
	if got := reloadUser(t, db, hurt.ID); got.HP != 40 {
		t.Fatalf("expected heal clamped to 40, got %d", got.HP)
	}

	_, errCast := engine.CastAbility(context.Background(), actor.ID, "mend", []uint64{dead.ID})
	if !errors.Is(errCast, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for dead target, got %v", errCast)
	}
	if got := reloadUser(t, db, dead.ID); got.HP != 0 {
		t.Fatalf("dead target mutated: hp=%d", got.HP)
	}
}

func TestCastAbility_DamageFloorsAtZero(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10})
	target := seedUser(t, db, models.User{Username: "bjorn", HP: 4})

	ability := seedAbility(t, db, models.Ability{
		Name:   "smite",
		Type:   models.AbilityTypeDamage,
		Value:  intPtr(10),
		Target: models.TargetSingle,
	})
	grantAbility(t, db, actor.ID, ability.ID)

	if _, errCast := engine.CastAbility(context.Background(), actor.ID, "smite", []uint64{target.ID}); errCast != nil {
		t.Fatalf("cast: %v", errCast)
	}
	if got := reloadUser(t, db, target.ID); got.HP != 0 {
		t.Fatalf("expected hp floored at 0, got %d", got.HP)
	}
}

func TestCastAbility_DiceDamageStaysInBounds(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10})
	target := seedUser(t, db, models.User{Username: "bjorn", HP: 40})

	ability := seedAbility(t, db, models.Ability{
		Name:         "fireball",
		Type:         models.AbilityTypeDamage,
		DiceNotation: strPtr("2d6+3"),
		Target:       models.TargetSingle,
	})
	grantAbility(t, db, actor.ID, ability.ID)

	result, errCast := engine.CastAbility(context.Background(), actor.ID, "fireball", []uint64{target.ID})
	if errCast != nil {
		t.Fatalf("cast: %v", errCast)
	}
	if result.DiceRoll == "" {
		t.Fatalf("expected a dice breakdown")
	}

	delta := 40 - reloadUser(t, db, target.ID).HP
	if delta < 5 || delta > 15 {
		t.Fatalf("2d6+3 damage out of bounds: %d", delta)
	}
}

func TestCastAbility_StaticValueWinsOverDice(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10})
	target := seedUser(t, db, models.User{Username: "bjorn", HP: 40})

	ability := seedAbility(t, db, models.Ability{
		Name:         "precise strike",
		Type:         models.AbilityTypeDamage,
		Value:        intPtr(4),
		DiceNotation: strPtr("1d100"),
		Target:       models.TargetSingle,
	})
	grantAbility(t, db, actor.ID, ability.ID)

	result, errCast := engine.CastAbility(context.Background(), actor.ID, "precise strike", []uint64{target.ID})
	if errCast != nil {
		t.Fatalf("cast: %v", errCast)
	}
	if result.DiceRoll != "" {
		t.Fatalf("static value must not roll dice, got %q", result.DiceRoll)
	}
	if got := reloadUser(t, db, target.ID); got.HP != 36 {
		t.Fatalf("expected exactly 4 damage, hp=%d", got.HP)
	}
}

func TestCastAbility_AllTargetsWholeRosterWhenUnlisted(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10})
	others := []*models.User{
		seedUser(t, db, models.User{Username: "bjorn", HP: 30}),
		seedUser(t, db, models.User{Username: "carl", HP: 30}),
	}

	ability := seedAbility(t, db, models.Ability{
		Name:   "golden rain",
		Type:   models.AbilityTypeGold,
		Value:  intPtr(5),
		Cost:   1,
		Target: models.TargetAll,
	})
	grantAbility(t, db, actor.ID, ability.ID)

	if _, errCast := engine.CastAbility(context.Background(), actor.ID, "golden rain", nil); errCast != nil {
		t.Fatalf("cast: %v", errCast)
	}

	if got := reloadUser(t, db, actor.ID); got.Gold != 5 {
		t.Fatalf("actor gold = %d, want 5", got.Gold)
	}
	for _, other := range others {
		if got := reloadUser(t, db, other.ID); got.Gold != 5 {
			t.Fatalf("%s gold = %d, want 5", got.Username, got.Gold)
		}
	}

	// An explicit subset narrows the cast instead of hitting the roster.
	if _, errCast := engine.CastAbility(context.Background(), actor.ID, "golden rain", []uint64{others[0].ID}); errCast != nil {
		t.Fatalf("cast subset: %v", errCast)
	}
	if got := reloadUser(t, db, others[0].ID); got.Gold != 10 {
		t.Fatalf("listed target gold = %d, want 10", got.Gold)
	}
	if got := reloadUser(t, db, others[1].ID); got.Gold != 5 {
		t.Fatalf("unlisted target gold = %d, want 5", got.Gold)
	}
}

func TestCastAbility_MalformedNotationIsValidationFailure(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10})
	target := seedUser(t, db, models.User{Username: "bjorn", HP: 40})

	ability := seedAbility(t, db, models.Ability{
		Name:         "garbled hex",
		Type:         models.AbilityTypeDamage,
		DiceNotation: strPtr("banana"),
		Cost:         2,
		Target:       models.TargetSingle,
	})
	grantAbility(t, db, actor.ID, ability.ID)

	_, errCast := engine.CastAbility(context.Background(), actor.ID, "garbled hex", []uint64{target.ID})
	if !errors.Is(errCast, dice.ErrInvalidNotation) {
		t.Fatalf("expected ErrInvalidNotation, got %v", errCast)
	}
	if errors.Is(errCast, ErrInfrastructure) {
		t.Fatalf("bad catalog data must not surface as an infrastructure fault")
	}
	if !IsValidation(errCast) {
		t.Fatalf("expected a validation failure, got %v", errCast)
	}

	if got := reloadUser(t, db, actor.ID); got.Mana != 10 {
		t.Fatalf("rejected cast charged mana: %d", got.Mana)
	}
	if got := reloadUser(t, db, target.ID); got.HP != 40 {
		t.Fatalf("rejected cast mutated target: hp=%d", got.HP)
	}
}

func TestCastAbility_GuildOnlyRejectsOutsiders(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	guildName := "wolves"
	if errCreate := db.Create(&models.Guild{Name: guildName}).Error; errCreate != nil {
		t.Fatalf("create guild: %v", errCreate)
	}
	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10, GuildName: &guildName})
	outsider := seedUser(t, db, models.User{Username: "bjorn", HP: 40})

	ability := seedAbility(t, db, models.Ability{
		Name:      "bond",
		Type:      models.AbilityTypeBuff,
		Value:     intPtr(1),
		Target:    models.TargetSingle,
		GuildOnly: true,
	})
	grantAbility(t, db, actor.ID, ability.ID)

	_, errCast := engine.CastAbility(context.Background(), actor.ID, "bond", []uint64{outsider.ID})
	if !errors.Is(errCast, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", errCast)
	}
}

func TestCastAbility_TimedEffectRecorded(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10})
	ability := seedAbility(t, db, models.Ability{
		Name:     "stone skin",
		Type:     models.AbilityTypeBuff,
		Value:    intPtr(0),
		Duration: 30,
	})
	grantAbility(t, db, actor.ID, ability.ID)

	if _, errCast := engine.CastAbility(context.Background(), actor.ID, "stone skin", nil); errCast != nil {
		t.Fatalf("cast: %v", errCast)
	}

	var effects []models.EffectOnUser
	if errFind := db.Where("user_id = ?", actor.ID).Find(&effects).Error; errFind != nil {
		t.Fatalf("find effects: %v", errFind)
	}
	if len(effects) != 1 {
		t.Fatalf("expected 1 timed effect, got %d", len(effects))
	}
	if effects[0].EffectType != models.AbilityTypeBuff {
		t.Fatalf("unexpected effect type %q", effects[0].EffectType)
	}
}

func TestCastAbility_XPLevelUpAwardsGemstonesAndBroadcasts(t *testing.T) {
	db := openTestDB(t)
	engine := newTestEngine(db)

	actor := seedUser(t, db, models.User{Username: "anna", HP: 30, Mana: 10})
	ability := seedAbility(t, db, models.Ability{
		Name:  "enlightenment",
		Type:  models.AbilityTypeXP,
		Value: intPtr(450),
	})
	grantAbility(t, db, actor.ID, ability.ID)

	if _, errCast := engine.CastAbility(context.Background(), actor.ID, "enlightenment", nil); errCast != nil {
		t.Fatalf("cast: %v", errCast)
	}

	got := reloadUser(t, db, actor.ID)
	if got.Level != 2 {
		t.Fatalf("expected level 2, got %d", got.Level)
	}
	if got.Gemstones != 2 {
		t.Fatalf("expected 2 gemstones, got %d", got.Gemstones)
	}

	var messages int64
	if errCount := db.Model(&models.SystemMessage{}).Count(&messages).Error; errCount != nil {
		t.Fatalf("count messages: %v", errCount)
	}
	if messages != 1 {
		t.Fatalf("expected 1 level-up broadcast, got %d", messages)
	}
}
