package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"issue-lite/internal/config"
	"issue-lite/internal/diff"
)

func TestConfigSetGetUnset(t *testing.T) {
	app := setupTestApp(t)
	provider := NewTestProvider(app)

	mustRun(t, app, newConfigCmd(provider), "set", "project.name", "Frontend")
	out := mustRun(t, app, newConfigCmd(provider), "get", "project.name")
	if strings.TrimSpace(out) != "Frontend" {
		t.Errorf("get = %q", out)
	}

	// The value reached the repository config file.
	reloaded, err := loadConfig(config.Paths{Local: app.Repo.ConfigPath()})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := reloaded.Get("project.name"); v != "Frontend" {
		t.Errorf("reloaded project.name = %q", v)
	}

	mustRun(t, app, newConfigCmd(provider), "unset", "project.name")
	out = mustRun(t, app, newConfigCmd(provider), "get", "project.name")
	if !strings.Contains(out, "(not set)") {
		t.Errorf("get after unset = %q", out)
	}

	if _, err := run(t, app, newConfigCmd(provider), "set", "a..b", "x"); !errors.Is(err, config.ErrInvalidKey) {
		t.Errorf("invalid key: %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	app := setupTestApp(t)
	out := mustRun(t, app, newConfigCmd(NewTestProvider(app)), "get", config.KeyEventsLogSize)
	if strings.TrimSpace(out) != config.DefaultEventsLog {
		t.Errorf("events_log_size = %q", out)
	}
}

func TestTagNewUsesProjectName(t *testing.T) {
	app := setupTestApp(t)
	provider := NewTestProvider(app)
	app.Config.SetInMemory(config.KeyProjectName, "Frontend")
	mustRun(t, app, newTagCmd(provider), "new", "web")
	diffs, err := app.Store.TagLog("web").Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range diffs {
		if d.Action.ActionName() == diff.NameTagSetProjectName {
			found = true
		}
	}
	if !found {
		t.Errorf("tag log lacks the project name: %+v", diffs)
	}
}
