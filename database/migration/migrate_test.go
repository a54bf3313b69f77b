package migration

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/kbukum/portfolio/database"
	"github.com/kbukum/portfolio/logger"
)

var testMigrations = fstest.MapFS{
	"sql/0001_notes.up.sql":   {Data: []byte("CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);")},
	"sql/0001_notes.down.sql": {Data: []byte("DROP TABLE notes;")},
	"sql/0002_tags.up.sql":    {Data: []byte("CREATE TABLE tags (id INTEGER PRIMARY KEY);")},
	"sql/0002_tags.down.sql":  {Data: []byte("DROP TABLE tags;")},
}

func TestMigrator_UpDownVersion(t *testing.T) {
	db, err := database.Open(context.Background(), database.Config{DSN: ":memory:", LogLevel: "silent"}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	m := New(db, testMigrations, "sql", logger.NewNop())

	v, dirty, err := m.Version()
	if err != nil || v != 0 || dirty {
		t.Fatalf("initial version = %d dirty=%v err=%v", v, dirty, err)
	}

	if err := m.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if !db.GormDB.Migrator().HasTable("notes") || !db.GormDB.Migrator().HasTable("tags") {
		t.Fatal("tables missing after Up")
	}
	if v, _, _ := m.Version(); v != 2 {
		t.Errorf("version = %d, want 2", v)
	}

	// re-running is a no-op
	if err := m.Up(); err != nil {
		t.Errorf("second Up: %v", err)
	}

	if err := m.Steps(-1); err != nil {
		t.Fatalf("Steps(-1): %v", err)
	}
	if db.GormDB.Migrator().HasTable("tags") {
		t.Error("tags should be dropped after one step down")
	}

	if err := m.Down(); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if db.GormDB.Migrator().HasTable("notes") {
		t.Error("notes should be dropped after Down")
	}
}
