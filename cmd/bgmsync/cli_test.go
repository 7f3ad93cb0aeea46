package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"bgmsync/internal/config"
	"bgmsync/internal/manifest"
	"bgmsync/internal/testsupport"
)

func setupCLIConfig(t *testing.T, opts ...testsupport.ConfigOption) (*config.Config, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BGMSYNC_CATALOG_URL", "")
	t.Setenv("BGMSYNC_REMOTE_URL", "")

	cfg := testsupport.NewConfig(t, opts...)
	path := filepath.Join(testsupport.BaseDir(cfg), "bgmsync.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfg, path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	_, configPath := setupCLIConfig(t, testsupport.WithStubbedBinaries())

	out, _, err := runCLI(t, []string{"config", "validate"}, configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "yt-dlp")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestSyncThenHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"t1","mark":"m1","title":"No source yet"}]`))
	}))
	defer srv.Close()

	cfg, configPath := setupCLIConfig(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithCatalogURL(srv.URL+"/catalog.json"),
	)

	out, _, err := runCLI(t, []string{"sync"}, configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "Synced 0 items")

	m, err := manifest.Read(filepath.Join(cfg.Paths.DataDir, "data.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(m.Bgms) != 0 {
		t.Fatalf("expected empty manifest, got %d bgms", len(m.Bgms))
	}

	out, _, err = runCLI(t, []string{"sync"}, configPath)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	requireContains(t, out, "Catalog unchanged")

	out, _, err = runCLI(t, []string{"history", "--json"}, configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 2 || runs[0].Kind != "sync" || runs[0].Status != "ok" {
		t.Fatalf("unexpected history %+v", runs)
	}

	out, _, err = runCLI(t, []string{"history"}, configPath)
	if err != nil {
		t.Fatalf("history table: %v", err)
	}
	requireContains(t, out, "sync")
}

func TestSyncRecordsCatalogFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, configPath := setupCLIConfig(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithCatalogURL(srv.URL),
	)
	if _, _, err := runCLI(t, []string{"sync"}, configPath); err == nil {
		t.Fatal("expected sync to fail")
	}

	out, _, err := runCLI(t, []string{"history", "--json"}, configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "catalog_unavailable" {
		t.Fatalf("unexpected history %+v", runs)
	}
}

func TestPublishRequiresRemote(t *testing.T) {
	_, configPath := setupCLIConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithRemoteURL(""))

	_, _, err := runCLI(t, []string{"publish"}, configPath)
	if err == nil {
		t.Fatal("expected publish to fail without remote")
	}
	requireContains(t, err.Error(), "publish.remote_url")
}

func TestHistoryEmpty(t *testing.T) {
	_, configPath := setupCLIConfig(t)

	out, _, err := runCLI(t, []string{"history"}, configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}
