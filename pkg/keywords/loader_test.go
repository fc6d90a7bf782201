package keywords

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoader_Load(t *testing.T) {
	input := "\uFEFFkeyword\n\"generator\"\n\n# comment\n'creator'\n  maker ,\ngenerator\nhow to\n"
	kws, err := NewLoader(LoadOptions{}).Load(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"generator", "creator", "maker", "how to"}
	if strings.Join(kws, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", kws, want)
	}
}

func TestLoader_Limit(t *testing.T) {
	input := "a\nb\nc\nd\n"
	kws, err := NewLoader(LoadOptions{Limit: 2}).Load(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(kws) != 2 || kws[1] != "b" {
		t.Errorf("unexpected keywords %v", kws)
	}
}

func TestLoader_UTF16(t *testing.T) {
	// UTF-16LE with BOM: "tool\n"
	input := []byte{0xFF, 0xFE, 't', 0, 'o', 0, 'o', 0, 'l', 0, '\n', 0}
	kws, err := NewLoader(LoadOptions{}).Load(context.Background(), strings.NewReader(string(input)))
	if err != nil {
		t.Fatal(err)
	}
	if len(kws) != 1 || kws[0] != "tool" {
		t.Errorf("unexpected keywords %q", kws)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords_list.csv")
	if err := os.WriteFile(path, []byte("generator\ncreator\n"), 0644); err != nil {
		t.Fatal(err)
	}
	kws, err := NewLoader(LoadOptions{}).LoadFile(context.Background(), path)
	if err != nil || len(kws) != 2 {
		t.Errorf("LoadFile = %v, %v", kws, err)
	}

	if _, err := NewLoader(LoadOptions{}).LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestScoreTable(t *testing.T) {
	table := NewScoreTable(map[string]int{"Widget": 42})
	cases := map[string]int{
		"generator":     85,
		"GENERATOR":     85,
		"How To":        98,
		"widget":        42,
		"unknown thing": DefaultScore,
	}
	for kw, want := range cases {
		if got := table.Score(kw); got != want {
			t.Errorf("Score(%q) = %d, want %d", kw, got, want)
		}
	}
}
