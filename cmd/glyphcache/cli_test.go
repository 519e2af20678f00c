package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glyphcache/internal/export"
	"glyphcache/internal/logging"
	"glyphcache/internal/testsupport"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	imagesDir := filepath.Join(base, "images")
	content := `
[paths]
images_dir = "` + imagesDir + `"
export_dir = "` + filepath.Join(base, "export") + `"
cache_dir = "` + filepath.Join(base, "cache") + `"
log_dir = "` + filepath.Join(base, "logs") + `"
`
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, imagesDir
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected target path in output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestCatalogCommandListsWords(t *testing.T) {
	configPath, imagesDir := writeTestConfig(t)
	testsupport.WritePNG(t, filepath.Join(imagesDir, "AB", "v1.png"), 10, 10)
	testsupport.WritePNG(t, filepath.Join(imagesDir, "AB", "v2.png"), 10, 10)

	out, err := runCommand(t, "--config", configPath, "catalog")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if !strings.Contains(out, "AB") {
		t.Fatalf("expected word in output: %q", out)
	}
	if !strings.Contains(out, "1 words, 2 items") {
		t.Fatalf("expected summary line: %q", out)
	}
}

func TestCacheStatsCommand(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := runCommand(t, "--config", configPath, "cache", "stats")
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	if !strings.Contains(out, "raw (L1)") || !strings.Contains(out, "disk") {
		t.Fatalf("expected tier rows: %q", out)
	}
}

func TestCacheWarmCommandPopulatesDiskTier(t *testing.T) {
	configPath, imagesDir := writeTestConfig(t)
	testsupport.WritePNG(t, filepath.Join(imagesDir, "AB", "v1.png"), 64, 64)

	out, err := runCommand(t, "--config", configPath, "cache", "warm")
	if err != nil {
		t.Fatalf("cache warm: %v", err)
	}
	if !strings.Contains(out, "Warmed 1 catalog items (0 already cached on disk)") {
		t.Fatalf("unexpected warm output: %q", out)
	}

	// A second warm is served from the persisted tier.
	out, err = runCommand(t, "--config", configPath, "cache", "warm")
	if err != nil {
		t.Fatalf("second warm: %v", err)
	}
	if !strings.Contains(out, "(1 already cached on disk)") {
		t.Fatalf("expected disk hit on second warm: %q", out)
	}
}

func TestBuildEngineRunsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithBatchSize(2),
		testsupport.WithCacheCapacities(16, 16),
	)
	testsupport.WritePNG(t, filepath.Join(cfg.Paths.ImagesDir, "AB", "v1.png"), 24, 24)

	ledger, err := export.OpenLedger(cfg.Paths.CacheDir)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer ledger.Close()

	engine := buildEngine(cfg, ledger, logging.NewNop())
	result, err := engine.Run(context.Background(), export.RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Counters.Regenerated != 1 || result.Counters.Failed != 0 {
		t.Fatalf("unexpected counters: %+v", result.Counters)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.ExportDir, "AB", "v1.png")); err != nil {
		t.Fatalf("expected exported file: %v", err)
	}
}

func TestNewCoordinatorHonorsDiskToggle(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDiskCacheDisabled())

	coordinator := newCoordinator(cfg, logging.NewNop())
	if root := coordinator.Disk().Root(); root != "" {
		t.Fatalf("disk tier should be disabled, got root %q", root)
	}
	if !strings.HasPrefix(cfg.Paths.CacheDir, testsupport.BaseDir(cfg)) {
		t.Fatalf("cache dir %q should live under %q", cfg.Paths.CacheDir, testsupport.BaseDir(cfg))
	}
}

func TestRunsCommandEmptyLedger(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := runCommand(t, "--config", configPath, "runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "No export runs recorded") {
		t.Fatalf("expected empty-history message: %q", out)
	}
}
