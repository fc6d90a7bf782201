package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trends-go/pkg/extractor"
	"trends-go/pkg/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dataDir := filepath.Join(dir, "data")

	fs, err := storage.NewFileStorage(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	g := extractor.PercentGrowth(120)
	ds := storage.NewRunDataset(map[string]storage.KeywordResult{
		"generator": {Keyword: "generator", Score: 85, Entries: []extractor.RisingQueryEntry{{Query: "ai generator", Growth: g, Display: g.Display(), Rank: 1}}},
	})
	summary := storage.RunSummary{RunID: "r1", TimeRange: "past_7_days", TotalSeeds: 2, FinishedAt: time.Now()}
	store := storage.NewDatasetStore(fs, "trending_data.json")
	if _, err := store.Persist(context.Background(), ds, summary); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dataDir, "trending_data.json")); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "convert", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 keywords") {
		t.Errorf("unexpected output %q", out)
	}

	site, err := store.LoadWebsite(context.Background())
	if err != nil {
		t.Fatalf("website dataset not rebuilt: %v", err)
	}
	if len(site.Data) != 1 || site.Data["generator"].Rising[0].Query != "ai generator" {
		t.Errorf("unexpected website dataset %+v", site)
	}
}

func TestFetchRequiresCredentials(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TRENDS_API_LOGIN", "")
	t.Setenv("TRENDS_API_PASSWORD", "")

	_, err := execute(t, "fetch", "--data-dir", filepath.Join(dir, "data"), "generator")
	if err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestPipelineConfigMapping(t *testing.T) {
	t.Chdir(t.TempDir())
	c, err := manager.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pc := pipelineConfig(c)
	if pc.RateLimit != 240 || pc.RateWindow != time.Minute {
		t.Errorf("unexpected limiter settings %+v", pc)
	}
	if pc.Submit.Workers != 10 || pc.Submit.Backoff.MaxAttempts != 3 || pc.Fetch.Workers != 8 {
		t.Errorf("unexpected worker settings %+v", pc)
	}
	if pc.Submit.Request.LocationName != "United States" || pc.TimeRange != "past_7_days" {
		t.Errorf("unexpected request settings %+v", pc)
	}
}
