package sysparam

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qxengine.yaml")
	body := "session_state_timeout: 42\nmax_recursion_sql_depth: 7\noracle_style_empty_string: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p := m.Get()
	if p.SessionStateTimeoutSeconds != 42 {
		t.Fatalf("SessionStateTimeoutSeconds = %d, want 42", p.SessionStateTimeoutSeconds)
	}
	if p.MaxRecursionSQLDepth != 7 {
		t.Fatalf("MaxRecursionSQLDepth = %d, want 7", p.MaxRecursionSQLDepth)
	}
	if !p.OracleStyleEmptyString {
		t.Fatal("OracleStyleEmptyString should be true")
	}
	// Untouched keys keep their compiled-in default.
	if p.MaxSubqueryCacheSize != Default().MaxSubqueryCacheSize {
		t.Fatalf("MaxSubqueryCacheSize should fall back to default, got %d", p.MaxSubqueryCacheSize)
	}
}

func TestLoadTOMLByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qxengine.toml")
	body := "max_subquery_cache_size = 55\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.Get().MaxSubqueryCacheSize; got != 55 {
		t.Fatalf("MaxSubqueryCacheSize = %d, want 55", got)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qxengine.yaml")
	if err := os.WriteFile(path, []byte("session_state_timeout: 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QXENGINE_SESSION_STATE_TIMEOUT", "99")

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.Get().SessionStateTimeoutSeconds; got != 99 {
		t.Fatalf("env override ignored: got %d, want 99", got)
	}
}

func TestOverrideResolveLeavesBaseUntouched(t *testing.T) {
	base := Default()
	depth := 3
	ov := &Override{MaxRecursionSQLDepth: &depth}

	resolved := ov.Resolve(base)
	if resolved.MaxRecursionSQLDepth != 3 {
		t.Fatalf("resolved depth = %d, want 3", resolved.MaxRecursionSQLDepth)
	}
	if base.MaxRecursionSQLDepth == 3 {
		t.Fatal("Resolve must not mutate base in place")
	}
	if resolved.SessionStateTimeoutSeconds != base.SessionStateTimeoutSeconds {
		t.Fatal("unset fields should pass through from base")
	}
}

func TestNewManagerHasCompiledDefaults(t *testing.T) {
	m := NewManager()
	if *m.Get() != *Default() {
		t.Fatalf("NewManager() = %+v, want compiled defaults %+v", m.Get(), Default())
	}
}
