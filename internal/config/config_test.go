package config

import (
	"strings"
	"testing"
	"time"

	"github.com/vshulcz/Intfstat/internal/domain"
	"github.com/vshulcz/Intfstat/internal/services/report"
)

func load(t *testing.T, args ...string) Config {
	t.Helper()
	cfg, err := Load(args, nil)
	if err != nil {
		t.Fatalf("Load(%v): %v", args, err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := load(t)

	if cfg.Action != ActionShow {
		t.Errorf("Action = %s, want show", cfg.Action)
	}
	if cfg.Tag != "latest" {
		t.Errorf("Tag = %q, want latest", cfg.Tag)
	}
	if cfg.Namespace.All || cfg.Namespace.Namespace != domain.DefaultNamespace {
		t.Errorf("Namespace = %+v, want default namespace", cfg.Namespace)
	}
	if cfg.Scope != domain.ScopeAll {
		t.Errorf("Scope = %s, want all", cfg.Scope)
	}
	if cfg.Category != report.CategoryAll {
		t.Errorf("Category = %s, want all", cfg.Category)
	}
	if cfg.Endpoints != nil {
		t.Errorf("Endpoints = %v, want nil (local counters)", cfg.Endpoints)
	}
	if !strings.Contains(cfg.CacheDir, "intfstat-") {
		t.Errorf("CacheDir = %q, want per-user default", cfg.CacheDir)
	}
}

func TestLoad_Actions(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		action Action
	}{
		{"save", []string{"-c"}, ActionSave},
		{"delete", []string{"-d"}, ActionDelete},
		{"delete all", []string{"-D"}, ActionDeleteAll},
		{"rate", []string{"-p", "5"}, ActionRate},
		{"watch", []string{"-w", "3"}, ActionWatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := load(t, tt.args...)
			if cfg.Action != tt.action {
				t.Errorf("Action = %s, want %s", cfg.Action, tt.action)
			}
		})
	}
}

func TestLoad_MutuallyExclusiveActions(t *testing.T) {
	if _, err := Load([]string{"-c", "-D"}, nil); err == nil {
		t.Fatal("expected error for -c with -D")
	}
	if _, err := Load([]string{"-d", "-p", "2"}, nil); err == nil {
		t.Fatal("expected error for -d with -p")
	}
}

func TestLoad_Categories(t *testing.T) {
	tests := []struct {
		flag string
		want report.CategoryFilter
	}{
		{"-e", report.CategoryErrors},
		{"-f", report.CategoryFEC},
		{"-T", report.CategoryTrim},
		{"-r", report.CategoryRaw},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			cfg := load(t, tt.flag)
			if cfg.Category != tt.want {
				t.Errorf("Category = %s, want %s", cfg.Category, tt.want)
			}
		})
	}

	if _, err := Load([]string{"-e", "-f"}, nil); err == nil {
		t.Fatal("expected error for -e with -f")
	}
}

func TestLoad_Scope(t *testing.T) {
	cfg := load(t, "-s", "internal")
	if cfg.Scope != domain.ScopeInternal {
		t.Errorf("Scope = %s, want internal", cfg.Scope)
	}
	if _, err := Load([]string{"-s", "bogus"}, nil); err == nil {
		t.Fatal("expected error for invalid scope")
	}
}

func TestLoad_Namespace(t *testing.T) {
	cfg := load(t, "-n", "asic1")
	if cfg.Namespace.All || cfg.Namespace.Namespace != "asic1" {
		t.Errorf("Namespace = %+v, want asic1", cfg.Namespace)
	}
	cfg = load(t, "-n", "all")
	if !cfg.Namespace.All {
		t.Errorf("Namespace = %+v, want all namespaces", cfg.Namespace)
	}
}

func TestLoad_RatePeriod(t *testing.T) {
	cfg := load(t, "-p", "5")
	if cfg.Period != 5*time.Second {
		t.Errorf("Period = %v, want 5s", cfg.Period)
	}
}

func TestLoad_EnvOverridesTag(t *testing.T) {
	t.Setenv("INTFSTAT_TAG", "nightly")
	cfg := load(t, "-t", "manual")
	if cfg.Tag != "nightly" {
		t.Errorf("Tag = %q, want env value nightly", cfg.Tag)
	}
}

func TestLoad_CacheDirFromEnv(t *testing.T) {
	t.Setenv("INTFSTAT_CACHE_DIR", "/var/cache/intfstat")
	cfg := load(t)
	if cfg.CacheDir != "/var/cache/intfstat" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
}

func TestLoad_DialTimeout(t *testing.T) {
	cfg := load(t)
	if cfg.DialTimeout != 5*time.Second {
		t.Errorf("DialTimeout = %v, want default 5s", cfg.DialTimeout)
	}

	t.Setenv("INTFSTAT_DIAL_TIMEOUT", "2s")
	cfg = load(t)
	if cfg.DialTimeout != 2*time.Second {
		t.Errorf("DialTimeout = %v, want 2s", cfg.DialTimeout)
	}
}

func TestLoad_JSONFromEnv(t *testing.T) {
	t.Setenv("INTFSTAT_JSON", "true")
	cfg := load(t)
	if !cfg.JSON {
		t.Error("INTFSTAT_JSON=true must enable JSON output")
	}

	t.Setenv("INTFSTAT_JSON", "false")
	cfg = load(t, "-j")
	if cfg.JSON {
		t.Error("INTFSTAT_JSON=false must win over -j")
	}
}

func TestLoad_RejectsPositionalArgs(t *testing.T) {
	if _, err := Load([]string{"Ethernet0"}, nil); err == nil {
		t.Fatal("expected error for positional argument")
	}
}

func TestParseEndpoints(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    map[string]string
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"bare address", "localhost:6379", map[string]string{domain.DefaultNamespace: "localhost:6379"}, false},
		{"per namespace", "asic0=10.0.0.1:6379, asic1=10.0.0.2:6379", map[string]string{"asic0": "10.0.0.1:6379", "asic1": "10.0.0.2:6379"}, false},
		{"mixed bare and named", "asic0=10.0.0.1:6379,localhost:6379", nil, true},
		{"duplicate namespace", "a=x:1,a=y:2", nil, true},
		{"missing address", "asic0=", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEndpoints(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseEndpoints(%q): expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEndpoints(%q): %v", tt.in, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for ns, addr := range tt.want {
				if got[ns] != addr {
					t.Errorf("endpoint[%s] = %q, want %q", ns, got[ns], addr)
				}
			}
		})
	}
}
