package session

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matheus3301/chatr/internal/config"
)

func TestDirHonorsChatrHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CHATR_HOME", home)

	got := Dir("main")
	want := filepath.Join(home, "profiles", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestProfilePaths(t *testing.T) {
	t.Setenv("CHATR_HOME", t.TempDir())

	if got := LockPath("test"); !strings.HasSuffix(got, filepath.Join("profiles", "test", "LOCK")) {
		t.Errorf("LockPath(test) = %q", got)
	}
	if got := DBPath("test"); !strings.HasSuffix(got, filepath.Join("profiles", "test", "chatr.db")) {
		t.Errorf("DBPath(test) = %q", got)
	}
	if got := LogPath("test"); !strings.HasSuffix(got, filepath.Join("profiles", "test", "logs", "chatr.log")) {
		t.Errorf("LogPath(test) = %q", got)
	}
}

func TestEnsureDirAndList(t *testing.T) {
	t.Setenv("CHATR_HOME", t.TempDir())

	if err := EnsureDir("work"); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir("main"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(LogDir("work"))
	if err != nil {
		t.Fatalf("log dir not created: %v", err)
	}
	if info.Mode().Perm() != 0700 {
		t.Errorf("log dir perm = %o, want 0700", info.Mode().Perm())
	}

	names, err := List()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"main", "work"}) {
		t.Errorf("List() = %v, want [main work]", names)
	}
}

func TestResolvePrecedence(t *testing.T) {
	t.Setenv("CHATR_HOME", t.TempDir())

	if got := Resolve(""); got != DefaultProfileName {
		t.Errorf("Resolve(\"\") without config = %q, want %q", got, DefaultProfileName)
	}
	if err := config.Save(ConfigPath(), &config.Config{DefaultProfile: "work"}); err != nil {
		t.Fatal(err)
	}
	if got := Resolve(""); got != "work" {
		t.Errorf("Resolve(\"\") = %q, want work from config", got)
	}
	if got := Resolve("other"); got != "other" {
		t.Errorf("Resolve(other) = %q, want flag override", got)
	}
}
