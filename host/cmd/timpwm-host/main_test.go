package main

import (
	"os"
	"path/filepath"
	"testing"
)

// withStdin runs fn with os.Stdin reading input.
func withStdin(t *testing.T, input string, fn func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stdin")
	if err := os.WriteFile(path, []byte(input), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	old := os.Stdin
	os.Stdin = f
	defer func() { os.Stdin = old }()
	fn()
}

func TestShellSimulated(t *testing.T) {
	*sim = true
	defer func() { *sim = false }()

	withStdin(t, "duty fan 1 100\nfreq fan 1kHz\nalign bridge edge\nhal fan 2 128\nregs TIM3\nlog\nbogus\nquit\n", func() {
		if err := shell(); err != nil {
			t.Fatalf("shell: %v", err)
		}
	})
}

func TestShellReturnsSetupErrors(t *testing.T) {
	*sim = true
	*configPath = filepath.Join(t.TempDir(), "missing.json")
	defer func() {
		*sim = false
		*configPath = ""
	}()

	if err := shell(); err == nil {
		t.Fatal("missing config accepted")
	}
}

func TestParseChannel(t *testing.T) {
	for in, want := range map[string]int{"1": 1, "ch3": 3, "CH4": 4} {
		ch, err := parseChannel(in)
		if err != nil || int(ch) != want {
			t.Errorf("parseChannel(%q) = %v, %v", in, ch, err)
		}
	}
	for _, in := range []string{"0", "5", "x"} {
		if _, err := parseChannel(in); err == nil {
			t.Errorf("parseChannel(%q) accepted", in)
		}
	}
}
