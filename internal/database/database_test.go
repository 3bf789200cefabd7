package database

import (
	"testing"

	"github.com/teamshare/backend/internal/config"
	"github.com/teamshare/backend/internal/models"
)

func TestConnectSQLite(t *testing.T) {
	db, err := Connect(config.DBConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("expected sqlite connect to succeed, got %v", err)
	}

	for _, model := range []interface{}{&models.Credential{}, &models.UserAccount{}, &models.FileRecord{}} {
		if !db.Migrator().HasTable(model) {
			t.Fatalf("expected table for %T to be migrated", model)
		}
	}
}

func TestConnectUnknownDriver(t *testing.T) {
	if _, err := Connect(config.DBConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected unsupported driver to fail")
	}
}
