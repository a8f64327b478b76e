package mana

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonp-h/TillerQuest-sub003/internal/models"
	"github.com/jonp-h/TillerQuest-sub003/internal/settings"

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
	if errMigrate := db.AutoMigrate(&models.User{}, &models.Setting{}, &models.Log{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return db
}

func TestRegenerateDaily_TopsUpOncePerDay(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	regen := NewRegenerator(db).WithNow(func() time.Time { return now })

	yesterday := now.Add(-24 * time.Hour)
	stale := models.User{
		Username: "anna", HP: 30, HPMax: 40,
		Mana: 38, ManaMax: 40, Level: 1, Turns: 0,
		SchoolClass: models.SchoolClassVg1,
		LastMana:    yesterday,
	}
	fresh := models.User{
		Username: "bjorn", HP: 30, HPMax: 40,
		Mana: 5, ManaMax: 40, Level: 1, Turns: 2,
		SchoolClass: models.SchoolClassVg1,
		LastMana:    now.Add(-time.Hour),
	}
	for _, user := range []*models.User{&stale, &fresh} {
		if errCreate := db.Create(user).Error; errCreate != nil {
			t.Fatalf("create user: %v", errCreate)
		}
	}

	count, errRegen := regen.RegenerateDaily(context.Background())
	if errRegen != nil {
		t.Fatalf("regenerate: %v", errRegen)
	}
	if count != 1 {
		t.Fatalf("expected 1 regenerated user, got %d", count)
	}

	cfg := settings.DefaultGameConfig()
	var got models.User
	if errFind := db.Where("id = ?", stale.ID).Take(&got).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	// 38 + 4 clamps at the cap of 40.
	if got.Mana != got.ManaMax {
		t.Fatalf("expected mana clamped at %d, got %d", got.ManaMax, got.Mana)
	}
	if got.Turns != cfg.DailyTurns {
		t.Fatalf("expected %d turns, got %d", cfg.DailyTurns, got.Turns)
	}
	if !got.LastMana.Equal(now) {
		t.Fatalf("expected last_mana stamped %v, got %v", now, got.LastMana)
	}

	var untouched models.User
	if errFind := db.Where("id = ?", fresh.ID).Take(&untouched).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if untouched.Mana != 5 || untouched.Turns != 2 {
		t.Fatalf("already-regenerated user changed: mana=%d turns=%d", untouched.Mana, untouched.Turns)
	}

	// Same day, second run: nothing left to top up.
	count, errRegen = regen.RegenerateDaily(context.Background())
	if errRegen != nil {
		t.Fatalf("second regenerate: %v", errRegen)
	}
	if count != 0 {
		t.Fatalf("expected no-op on second run, regenerated %d", count)
	}
}
