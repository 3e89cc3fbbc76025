package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	// Default value should be "dev"
	info := Info()
	if info != Version {
		t.Errorf("Info() = %q, want %q", info, Version)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.Contains(full, Version) {
		t.Errorf("Full() = %q, should contain Version %q", full, Version)
	}
	if !strings.Contains(full, "commit:") {
		t.Errorf("Full() = %q, should contain 'commit:'", full)
	}
	if !strings.Contains(full, "built:") {
		t.Errorf("Full() = %q, should contain 'built:'", full)
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "sfbulk/"+Version+" (") {
		t.Errorf("UserAgent() = %q, should start with sfbulk/%s", ua, Version)
	}
	if !strings.Contains(ua, runtime.GOOS) {
		t.Errorf("UserAgent() = %q, should contain GOOS %q", ua, runtime.GOOS)
	}
}
