package config

import (
	"testing"
	"time"
)

const testYAML = `
app:
  name: otp-service
  debug: true
server:
  port: 8080
  read_timeout: 15
  shutdown: 2
ratio: 0.25
tags: "alpha,beta,gamma"
labels: "env:dev,team:platform"
`

func newTestConfig(t *testing.T) *Viper {
	t.Helper()

	cfg, err := NewViperFromBytes("yaml", []byte(testYAML))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	return cfg
}

func TestViperGetters(t *testing.T) {
	cfg := newTestConfig(t)
	defer cfg.Close()

	if got := cfg.GetString("app.name"); got != "otp-service" {
		t.Fatalf("GetString(app.name) = %q, want %q", got, "otp-service")
	}
	if !cfg.GetBool("app.debug") {
		t.Fatal("GetBool(app.debug) = false, want true")
	}
	if got := cfg.GetInt("server.port"); got != 8080 {
		t.Fatalf("GetInt(server.port) = %d, want 8080", got)
	}
	if got := cfg.GetFloat64("ratio"); got != 0.25 {
		t.Fatalf("GetFloat64(ratio) = %v, want 0.25", got)
	}
	if got := cfg.GetSecond("server.read_timeout"); got != 15*time.Second {
		t.Fatalf("GetSecond(server.read_timeout) = %v, want 15s", got)
	}
	if got := cfg.GetMinute("server.shutdown"); got != 2*time.Minute {
		t.Fatalf("GetMinute(server.shutdown) = %v, want 2m", got)
	}
}

func TestViperGetArray(t *testing.T) {
	cfg := newTestConfig(t)
	defer cfg.Close()

	got := cfg.GetArray("tags")
	want := []string{"alpha", "beta", "gamma"}
	if len(got) != len(want) {
		t.Fatalf("GetArray(tags) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GetArray(tags)[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestViperGetMap(t *testing.T) {
	cfg := newTestConfig(t)
	defer cfg.Close()

	got := cfg.GetMap("labels")
	if got["env"] != "dev" || got["team"] != "platform" {
		t.Fatalf("GetMap(labels) = %v", got)
	}
}

func TestViperMissingKeysReturnZeroValues(t *testing.T) {
	cfg := newTestConfig(t)
	defer cfg.Close()

	if got := cfg.GetString("nope"); got != "" {
		t.Fatalf("GetString(nope) = %q, want empty", got)
	}
	if got := cfg.GetInt("nope"); got != 0 {
		t.Fatalf("GetInt(nope) = %d, want 0", got)
	}
	if cfg.GetBool("nope") {
		t.Fatal("GetBool(nope) = true, want false")
	}
	if got := cfg.GetMap("nope"); len(got) != 0 {
		t.Fatalf("GetMap(nope) = %v, want empty", got)
	}
}

func TestNewViperFromBytesRequiresType(t *testing.T) {
	if _, err := NewViperFromBytes("", []byte("a: b")); err == nil {
		t.Fatal("NewViperFromBytes() error = nil, want error")
	}
}

func TestNewViperMissingFile(t *testing.T) {
	if _, err := NewViper("/does/not/exist/config.yaml"); err == nil {
		t.Fatal("NewViper() error = nil, want error")
	}
}
