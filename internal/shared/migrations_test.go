package shared

import (
	"testing"
	"testing/fstest"
)

func TestMigrator(t *testing.T) {
	t.Run("Load", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		migrations, err := NewMigrator(db).Load()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) < 2 {
			t.Fatalf("expected at least two migrations, got %d", len(migrations))
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
		if migrations[0].Name != "create_users" {
			t.Errorf("expected first migration name create_users, got %q", migrations[0].Name)
		}
	})

	t.Run("Load rejects incomplete pair", func(t *testing.T) {
		m := &Migrator{src: fstest.MapFS{
			"sql/0000_only_up.sql": &fstest.MapFile{Data: []byte("CREATE TABLE x (id INTEGER);")},
		}, dir: "sql"}
		if _, err := m.Load(); err == nil {
			t.Error("expected error for migration without down file")
		}
	})

	t.Run("Up And Down", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		m := NewMigrator(db)
		applied, err := m.Up()
		if err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if len(applied) < 2 {
			t.Fatalf("expected at least two applied versions, got %v", applied)
		}

		for _, table := range []string{"users", "preferences", "preference_species", "preference_breeds", "preference_sizes"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		version, err := m.Down()
		if err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}
		if version != applied[len(applied)-1] {
			t.Errorf("expected rollback of version %d, got %d", applied[len(applied)-1], version)
		}
		if _, err := db.Exec("SELECT 1 FROM preferences LIMIT 1"); err == nil {
			t.Error("preferences table should be gone after rollback")
		}
		if _, err := db.Exec("SELECT 1 FROM users LIMIT 1"); err != nil {
			t.Errorf("users table should survive a single rollback: %v", err)
		}
	})

	t.Run("Idempotent Up", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}
		applied, err := NewMigrator(db).Up()
		if err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}
		if len(applied) != 0 {
			t.Errorf("expected no pending migrations, got %v", applied)
		}
	})

	t.Run("Down with nothing applied", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error rolling back an empty database")
		}
	})
}

func TestSplitStatements(t *testing.T) {
	script := `-- header
CREATE TABLE a (id INTEGER); -- trailing
INSERT INTO a VALUES (1);

;`
	got := splitStatements(script)
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id INTEGER)" {
		t.Errorf("unexpected first statement %q", got[0])
	}
}
