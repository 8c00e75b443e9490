package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dbsmedya/formrows/internal/config"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.DatabaseConfig
		expected string
	}{
		{
			name: "basic DSN",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "forms",
				Password: "secret",
				Database: "collect",
				TLS:      "preferred",
			},
			expected: "forms:secret@tcp(localhost:3306)/collect?parseTime=true&tls=preferred",
		},
		{
			name: "DSN without database",
			cfg: &config.DatabaseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "forms",
				Password: "secret",
			},
			expected: "forms:secret@tcp(localhost:3306)/?parseTime=true&tls=preferred",
		},
		{
			name: "DSN with TLS disabled",
			cfg: &config.DatabaseConfig{
				Host:     "db",
				Port:     3307,
				User:     "forms",
				Password: "",
				Database: "collect",
				TLS:      "disable",
			},
			expected: "forms:@tcp(db:3307)/collect?parseTime=true&tls=false",
		},
		{
			name: "DSN with TLS required",
			cfg: &config.DatabaseConfig{
				Host:     "db",
				Port:     3306,
				User:     "forms",
				Password: "p@ss!w0rd",
				Database: "collect",
				TLS:      "required",
			},
			expected: "forms:p@ss!w0rd@tcp(db:3306)/collect?parseTime=true&tls=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildDSN(tt.cfg)
			if result != tt.expected {
				t.Errorf("BuildDSN() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestBuildSQLitePath(t *testing.T) {
	dsn := BuildSQLitePath(&config.DatabaseConfig{Path: "/var/lib/formrows.db"})

	if !strings.HasPrefix(dsn, "file:/var/lib/formrows.db?") {
		t.Errorf("BuildSQLitePath() = %q, should start with the file path", dsn)
	}
	for _, pragma := range []string{"busy_timeout%285000%29", "foreign_keys%281%29"} {
		if !strings.Contains(dsn, pragma) {
			t.Errorf("BuildSQLitePath() = %q, should contain %q", dsn, pragma)
		}
	}
}

func TestDriverName(t *testing.T) {
	if got := DriverName(nil); got != MySQL {
		t.Errorf("DriverName(nil) = %q, expected %q", got, MySQL)
	}
	if got := DriverName(&config.DatabaseConfig{}); got != MySQL {
		t.Errorf("DriverName(empty) = %q, expected %q", got, MySQL)
	}
	if got := DriverName(&config.DatabaseConfig{Driver: SQLite}); got != SQLite {
		t.Errorf("DriverName(sqlite) = %q, expected %q", got, SQLite)
	}
}

func TestNewManager(t *testing.T) {
	cfg := &config.DatabaseConfig{Driver: SQLite, Path: "forms.db"}

	manager := NewManager(cfg)
	if manager == nil {
		t.Fatal("NewManager() returned nil")
	}
	if manager.config != cfg {
		t.Error("manager.config should point to provided config")
	}
	if manager.DB != nil {
		t.Error("DB should be nil before Connect()")
	}
	if manager.Driver() != SQLite {
		t.Errorf("Driver() = %q, expected %q", manager.Driver(), SQLite)
	}
}

func TestManagerCloseWithoutConnect(t *testing.T) {
	manager := NewManager(&config.DatabaseConfig{Host: "localhost"})

	if err := manager.Close(); err != nil {
		t.Errorf("Close() returned error for unconnected manager: %v", err)
	}
	if err := manager.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail for unconnected manager")
	}
}

func TestConnectSQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver: SQLite,
		Path:   filepath.Join(t.TempDir(), "forms.db"),
	}

	manager := NewManager(cfg)
	if err := manager.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer manager.Close()

	if err := manager.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}

	var one int
	if err := manager.DB.QueryRow("SELECT 1").Scan(&one); err != nil || one != 1 {
		t.Errorf("SELECT 1 = %d, %v", one, err)
	}
}

func TestConnectUnsupportedDriver(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	manager := NewManager(&config.DatabaseConfig{Driver: "postgres"})
	if err := manager.Connect(ctx); err == nil {
		t.Error("Connect() should fail for an unsupported driver")
	}
}
