package repository

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestInit_CreatesLayout(t *testing.T) {
	dir := t.TempDir()
	h, err := Init(dir, InitOptions{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, d := range []string{h.IssuesDir(), h.TagsDir(), h.ReleasesDir(), h.TmpDir(), h.LogDir()} {
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", d)
		}
	}
	role, err := h.Role()
	if err != nil {
		t.Fatalf("Role: %v", err)
	}
	if role != RoleEndpoint {
		t.Errorf("Role = %q, want %q", role, RoleEndpoint)
	}
	if h.WorkDir() != dir {
		t.Errorf("WorkDir = %q, want %q", h.WorkDir(), dir)
	}
}

func TestInit_Exists(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir, InitOptions{}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	_, err := Init(dir, InitOptions{})
	if !errors.Is(err, ErrRepositoryExists) {
		t.Errorf("second Init error = %v, want ErrRepositoryExists", err)
	}
}

func TestInit_Force(t *testing.T) {
	dir := t.TempDir()
	h, err := Init(dir, InitOptions{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	stray := filepath.Join(h.IssuesDir(), "stray")
	if err := os.WriteFile(stray, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Init(dir, InitOptions{Force: true, Role: RoleExchange}); err != nil {
		t.Fatalf("Init --force: %v", err)
	}
	if _, err := os.Stat(stray); !os.IsNotExist(err) {
		t.Errorf("force should wipe existing content, stat err = %v", err)
	}
	role, _ := h.Role()
	if role != RoleExchange {
		t.Errorf("Role = %q, want %q", role, RoleExchange)
	}
}

func TestInit_UpgradeKeepsContent(t *testing.T) {
	dir := t.TempDir()
	h, err := Init(dir, InitOptions{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := os.RemoveAll(h.TagsDir()); err != nil {
		t.Fatal(err)
	}
	if err := h.SetLastIssue("abc"); err != nil {
		t.Fatal(err)
	}

	if _, err := Init(dir, InitOptions{Upgrade: true}); err != nil {
		t.Fatalf("Init --upgrade: %v", err)
	}
	if info, err := os.Stat(h.TagsDir()); err != nil || !info.IsDir() {
		t.Errorf("upgrade should recreate %s", h.TagsDir())
	}
	if last, _ := h.LastIssue(); last != "abc" {
		t.Errorf("LastIssue = %q, want %q", last, "abc")
	}
}

func TestInit_InvalidRole(t *testing.T) {
	_, err := Init(t.TempDir(), InitOptions{Role: "hub"})
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("error = %v, want ErrInvalidRole", err)
	}
}

func TestFind_SearchUpward(t *testing.T) {
	dir := t.TempDir()
	h, err := Init(dir, InitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found.Root() != h.Root() {
		t.Errorf("Find root = %q, want %q", found.Root(), h.Root())
	}
}

func TestFind_NotFound(t *testing.T) {
	_, err := Find(t.TempDir())
	if !errors.Is(err, ErrRepositoryNotFound) {
		t.Errorf("error = %v, want ErrRepositoryNotFound", err)
	}
}

func TestNextRelease(t *testing.T) {
	h, err := Init(t.TempDir(), InitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if name, _ := h.NextRelease(); name != "" {
		t.Errorf("NextRelease on fresh repo = %q, want empty", name)
	}
	if err := h.SetNextRelease("v1.0"); err != nil {
		t.Fatal(err)
	}
	if name, _ := h.NextRelease(); name != "v1.0" {
		t.Errorf("NextRelease = %q, want v1.0", name)
	}
	if err := h.SetNextRelease(""); err != nil {
		t.Fatal(err)
	}
	if name, _ := h.NextRelease(); name != "" {
		t.Errorf("NextRelease after clear = %q, want empty", name)
	}
	// Clearing twice is fine.
	if err := h.SetNextRelease(""); err != nil {
		t.Errorf("second clear: %v", err)
	}
}

func TestRemotes(t *testing.T) {
	h, err := Init(t.TempDir(), InitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	rs, err := h.Remotes()
	if err != nil {
		t.Fatalf("Remotes: %v", err)
	}
	if len(rs) != 0 {
		t.Fatalf("fresh repo has remotes: %v", rs)
	}

	rs["origin"] = Remote{"url": "/srv/issues", "status": RoleExchange}
	rs["backup"] = Remote{"url": "s3://bucket/issues"}
	if err := h.SaveRemotes(rs); err != nil {
		t.Fatalf("SaveRemotes: %v", err)
	}

	loaded, err := h.Remotes()
	if err != nil {
		t.Fatal(err)
	}
	if got := loaded.Names(); len(got) != 2 || got[0] != "backup" || got[1] != "origin" {
		t.Errorf("Names = %v, want [backup origin]", got)
	}
	origin, err := loaded.Get("origin")
	if err != nil {
		t.Fatal(err)
	}
	if origin.URL() != "/srv/issues" || origin.Status() != RoleExchange {
		t.Errorf("origin = %v", origin)
	}
	if _, err := loaded.Get("missing"); !errors.Is(err, ErrRemoteNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrRemoteNotFound", err)
	}
}

func TestRemotes_TolerateComments(t *testing.T) {
	h, err := Init(t.TempDir(), InitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	content := "{\n  // hand edited\n  \"origin\": {\"url\": \"/srv/issues\",},\n}\n"
	if err := os.WriteFile(h.RemotesPath(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	rs, err := h.Remotes()
	if err != nil {
		t.Fatalf("Remotes: %v", err)
	}
	if rs["origin"].URL() != "/srv/issues" {
		t.Errorf("origin url = %q", rs["origin"].URL())
	}
}
