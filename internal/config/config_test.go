package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate points HOME at an empty temp dir and clears every variable the
// loader reads, so tests cannot see the developer's real contexts.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, v := range []string{
		"NATS_URL", "NATS_TOKEN", "NATS_CREDS", "NATS_CREDS_CONTENT",
		"JSMCP_DOMAIN", "JSMCP_TRANSPORT", "JSMCP_PORT",
		"JSMCP_BACKUP_BUCKET", "JSMCP_METRICS_URL",
	} {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GetConfigSource() != SourceDefault {
		t.Fatalf("source = %s, want %s", cfg.GetConfigSource(), SourceDefault)
	}
	if got := cfg.CurrentContext().Server; got != defaultServer {
		t.Fatalf("server = %q, want %q", got, defaultServer)
	}
	if cfg.Transport != TransportStdio {
		t.Fatalf("transport = %q, want stdio", cfg.Transport)
	}
	if cfg.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Port)
	}
}

func TestLoadServerURLWinsOverEverything(t *testing.T) {
	isolate(t)
	t.Setenv("NATS_URL", "nats://from-env:4222")

	cfg, err := Load("", "nats://from-flag:4222")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GetConfigSource() != SourceCLI {
		t.Fatalf("source = %s, want %s", cfg.GetConfigSource(), SourceCLI)
	}
	if got := cfg.CurrentContext().Server; got != "nats://from-flag:4222" {
		t.Fatalf("server = %q", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("NATS_URL", "nats://from-env:4222")
	t.Setenv("NATS_TOKEN", "s3cret")
	t.Setenv("JSMCP_DOMAIN", "hub")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GetConfigSource() != SourceEnv {
		t.Fatalf("source = %s, want %s", cfg.GetConfigSource(), SourceEnv)
	}
	ctx := cfg.CurrentContext()
	if ctx.Server != "nats://from-env:4222" || ctx.Token != "s3cret" || ctx.Domain != "hub" {
		t.Fatalf("unexpected context: %+v", ctx)
	}
}

func TestLoadConfigFile(t *testing.T) {
	home := isolate(t)

	dir := filepath.Join(home, ".config", "jsmcp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := `contexts:
  - name: prod
    server: nats://prod:4222
    creds: ./prod.creds
  - name: staging
    server: nats://staging:4222
default_context: staging
backup_bucket: file-bucket
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GetConfigSource() != SourceConfigFile {
		t.Fatalf("source = %s, want %s", cfg.GetConfigSource(), SourceConfigFile)
	}
	if got := cfg.CurrentContextName(); got != "staging" {
		t.Fatalf("current context = %q, want staging", got)
	}
	if cfg.BackupBucket != "file-bucket" {
		t.Fatalf("backup bucket = %q", cfg.BackupBucket)
	}

	// Relative creds paths resolve against the config file's directory.
	if err := cfg.SetContext("prod"); err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "prod.creds"); cfg.CurrentContext().Creds != want {
		t.Fatalf("creds = %q, want %q", cfg.CurrentContext().Creds, want)
	}
}

func TestEnvOverridesLayerOverFile(t *testing.T) {
	home := isolate(t)

	dir := filepath.Join(home, ".config", "jsmcp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := `contexts:
  - name: local
    server: nats://localhost:4222
default_context: local
port: 9000
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("JSMCP_TRANSPORT", "http")
	t.Setenv("JSMCP_PORT", "9100")
	t.Setenv("JSMCP_METRICS_URL", "http://prom:9090")
	t.Setenv("JSMCP_DOMAIN", "edge")

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport != TransportHTTP {
		t.Fatalf("transport = %q, want http", cfg.Transport)
	}
	if cfg.Port != 9100 {
		t.Fatalf("port = %d, want 9100", cfg.Port)
	}
	if cfg.MetricsURL != "http://prom:9090" {
		t.Fatalf("metrics url = %q", cfg.MetricsURL)
	}
	if cfg.CurrentContext().Domain != "edge" {
		t.Fatalf("domain = %q, want edge", cfg.CurrentContext().Domain)
	}
}

func TestSetContextUnknown(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.SetContext("nope"); err == nil {
		t.Fatal("expected error for unknown context")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CREDS_DIR", "/opt/creds")

	tests := []struct {
		name      string
		path      string
		configDir string
		want      string
	}{
		{"empty", "", "/cfg", ""},
		{"absolute", "/etc/nats/app.creds", "/cfg", "/etc/nats/app.creds"},
		{"tilde", "~/app.creds", "/cfg", filepath.Join(home, "app.creds")},
		{"bare tilde", "~", "/cfg", home},
		{"env var", "$CREDS_DIR/app.creds", "/cfg", "/opt/creds/app.creds"},
		{"braced env var", "${CREDS_DIR}/app.creds", "/cfg", "/opt/creds/app.creds"},
		{"relative", "./creds/app.creds", "/cfg", "/cfg/creds/app.creds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandPath(tt.path, tt.configDir)
			if err != nil {
				t.Fatalf("expandPath(%q): %v", tt.path, err)
			}
			if got != tt.want {
				t.Fatalf("expandPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
