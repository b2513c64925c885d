package container

import "testing"

func testFilterEnv(in []string) []string {
	allowlist, denylist := buildEnvFilter(nil, nil)
	e := &Executor{envAllowlist: allowlist, envDenylist: denylist}
	return e.filterEnv(in)
}

func TestFilterEnv_AllowsOnlyAllowlistedNames(t *testing.T) {
	in := []string{"PATH=/usr/bin", "HOME=/root", "SOME_RANDOM_VAR=1"}
	out := testFilterEnv(in)
	assertContainsKey(t, out, "PATH")
	assertContainsKey(t, out, "HOME")
	assertNotContainsKey(t, out, "SOME_RANDOM_VAR")
}

func TestFilterEnv_DropsDenylistedNamesEvenIfAllowlisted(t *testing.T) {
	allowlist, denylist := buildEnvFilter([]string{"AUTH", "PATH"}, nil)
	e := &Executor{envAllowlist: allowlist, envDenylist: denylist}
	out := e.filterEnv([]string{"AUTH=whatever", "PATH=/usr/bin"})
	assertNotContainsKey(t, out, "AUTH")
	assertContainsKey(t, out, "PATH")
}

func TestFilterEnv_CaseInsensitiveDenylist(t *testing.T) {
	// The default deny pattern is written in lower case; an upper-case
	// allowlisted name containing one of its terms is still dropped.
	allowlist, denylist := buildEnvFilter([]string{"GITHUB_TOKEN", "TERM"}, nil)
	e := &Executor{envAllowlist: allowlist, envDenylist: denylist}
	out := e.filterEnv([]string{"GITHUB_TOKEN=x", "TERM=xterm"})
	assertNotContainsKey(t, out, "GITHUB_TOKEN")
	assertContainsKey(t, out, "TERM")
}

func TestFilterEnv_IgnoresMalformedEntries(t *testing.T) {
	out := testFilterEnv([]string{"NOEQUALSSIGN"})
	if len(out) != 0 {
		t.Errorf("expected no entries, got %v", out)
	}
}

func TestBuildEnvFilter_UsesConfigOverridesWhenProvided(t *testing.T) {
	allowlist, denylist := buildEnvFilter([]string{"ONLY_THIS", "FORBIDDEN"}, []string{"(?i)forbidden"})
	e := &Executor{envAllowlist: allowlist, envDenylist: denylist}
	out := e.filterEnv([]string{"ONLY_THIS=1", "PATH=/usr/bin", "FORBIDDEN=x"})
	assertContainsKey(t, out, "ONLY_THIS")
	assertNotContainsKey(t, out, "PATH")
	assertNotContainsKey(t, out, "FORBIDDEN")
}

func assertContainsKey(t *testing.T, env []string, key string) {
	t.Helper()
	for _, kv := range env {
		if len(kv) > len(key) && kv[:len(key)] == key && kv[len(key)] == '=' {
			return
		}
	}
	t.Errorf("expected %s in %v", key, env)
}

func assertNotContainsKey(t *testing.T, env []string, key string) {
	t.Helper()
	for _, kv := range env {
		if len(kv) > len(key) && kv[:len(key)] == key && kv[len(key)] == '=' {
			t.Errorf("expected %s to be absent from %v", key, env)
		}
	}
}
