package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-reconciler
database:
  host: localhost
  port: 5432
  name: test_db
  user: testuser
  password: testpass
jobs:
  file: config/jobs.yaml
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-reconciler" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-reconciler")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
	if cfg.Jobs.File != "config/jobs.yaml" {
		t.Errorf("Jobs.File = %q, want %q", cfg.Jobs.File, "config/jobs.yaml")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: test-reconciler
database:
  host: localhost
  name: test_db
  user: testuser
  password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-reconciler
database:
  host: localhost
  name: test_db
  user: testuser
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Database.MaxConns != DefaultMaxConns {
		t.Errorf("Database.MaxConns = %d, want default %d", cfg.Database.MaxConns, DefaultMaxConns)
	}
	if cfg.Jobs.File != DefaultJobsFile {
		t.Errorf("Jobs.File = %q, want default %q", cfg.Jobs.File, DefaultJobsFile)
	}
	if cfg.Jobs.WatchInterval != DefaultWatchInterval {
		t.Errorf("Jobs.WatchInterval = %v, want default %v", cfg.Jobs.WatchInterval, DefaultWatchInterval)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want default %q", cfg.Logging.Level, DefaultLogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{
			name:    "missing instance id",
			cfg:     ServiceConfig{},
			wantErr: "instance.id is required",
		},
		{
			name: "missing database host",
			cfg: ServiceConfig{
				Instance: InstanceConfig{ID: "test"},
			},
			wantErr: "database.host is required",
		},
		{
			name: "missing database password",
			cfg: ServiceConfig{
				Instance: InstanceConfig{ID: "test"},
				Database: DBConfig{Host: "localhost", Name: "db", User: "user"},
			},
			wantErr: "database.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			cfg: ServiceConfig{
				Instance: InstanceConfig{ID: "test"},
				Database: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10},
			},
			wantErr: "database.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name: "bad log level",
			cfg: ServiceConfig{
				Instance: InstanceConfig{ID: "test"},
				Database: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2},
				Logging:  LoggingConfig{Level: "loud"},
			},
			wantErr: `logging.level must be one of debug/info/warn/error, got "loud"`,
		},
		{
			name: "valid config",
			cfg: ServiceConfig{
				Instance: InstanceConfig{ID: "test"},
				Database: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2},
				Logging:  LoggingConfig{Level: "info"},
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
