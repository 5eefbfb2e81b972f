package version

import "testing"

func TestBuildVersionPrefersLdflags(t *testing.T) {
	orig := buildVersion
	t.Cleanup(func() { buildVersion = orig })

	buildVersion = "v1.2.3"
	if got := BuildVersion(); got != "v1.2.3" {
		t.Fatalf("BuildVersion returned %s, want v1.2.3", got)
	}
	if got := Get().Version; got != "v1.2.3" {
		t.Fatalf("Get().Version returned %s, want v1.2.3", got)
	}
}

func TestBuildVersionFallback(t *testing.T) {
	orig := buildVersion
	t.Cleanup(func() { buildVersion = orig })

	buildVersion = "dev"
	if got := BuildVersion(); got == "" {
		t.Fatal("BuildVersion returned an empty string")
	}
}
