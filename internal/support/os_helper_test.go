package support

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("ASCACHE_TEST_ENV", "value")
	if got := GetEnv("ASCACHE_TEST_ENV", "fallback"); got != "value" {
		t.Fatalf("GetEnv returned %s, want value", got)
	}

	if got := GetEnv("ASCACHE_TEST_ENV_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("GetEnv returned %s, want fallback", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("ASCACHE_TEST_INT", " 42 ")
	if got := GetEnvInt("ASCACHE_TEST_INT", 7); got != 42 {
		t.Fatalf("GetEnvInt returned %d, want 42", got)
	}

	t.Setenv("ASCACHE_TEST_INT_BAD", "forty-two")
	if got := GetEnvInt("ASCACHE_TEST_INT_BAD", 7); got != 7 {
		t.Fatalf("GetEnvInt with invalid value returned %d, want 7", got)
	}
}

func TestFirstEnv(t *testing.T) {
	t.Setenv("ASCACHE_FIRST_EMPTY", "  ")
	t.Setenv("ASCACHE_FIRST_SET", "legacy")

	got, ok := FirstEnv("ASCACHE_FIRST_MISSING", "ASCACHE_FIRST_EMPTY", "ASCACHE_FIRST_SET")
	if !ok || got != "legacy" {
		t.Fatalf("FirstEnv returned (%q, %v), want (legacy, true)", got, ok)
	}

	if _, ok := FirstEnv("ASCACHE_FIRST_MISSING"); ok {
		t.Fatal("FirstEnv reported a value for unset keys")
	}
}
