package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amishk599/screener/internal/config"
	"github.com/amishk599/screener/internal/model"
)

func TestFindPreset(t *testing.T) {
	presets := []model.Preset{{Title: "Go Engineer", Description: "go"}, {Title: "Designer", Description: "figma"}}

	if p, err := findPreset(presets, "2"); err != nil || p.Title != "Designer" {
		t.Errorf("by number: %+v, %v", p, err)
	}
	if p, err := findPreset(presets, "go engineer"); err != nil || p.Description != "go" {
		t.Errorf("by title: %+v, %v", p, err)
	}
	if _, err := findPreset(presets, "3"); err == nil {
		t.Error("expected out-of-range error")
	}
	if _, err := findPreset(presets, "Chef"); err == nil {
		t.Error("expected not-found error")
	}
}

func TestJDFlags_Resolve(t *testing.T) {
	presets := config.DefaultPresets()

	f := jdFlags{text: "inline jd"}
	if got, _ := f.resolve(presets); got != "inline jd" {
		t.Errorf("text = %q", got)
	}

	path := filepath.Join(t.TempDir(), "jd.txt")
	if err := os.WriteFile(path, []byte("from file"), 0644); err != nil {
		t.Fatal(err)
	}
	f = jdFlags{file: path}
	if got, _ := f.resolve(presets); got != "from file" {
		t.Errorf("file = %q", got)
	}

	f = jdFlags{preset: "1"}
	if got, _ := f.resolve(presets); got != presets[0].Description {
		t.Error("preset did not resolve to its description")
	}

	f = jdFlags{}
	if got, err := f.resolve(presets); got != "" || err != nil {
		t.Errorf("empty flags = %q, %v", got, err)
	}
}

func TestReadResumes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "alice.txt")
	if err := os.WriteFile(a, []byte("Alice\nGo"), 0644); err != nil {
		t.Fatal(err)
	}

	docs, err := readResumes(context.Background(), []string{a, "-"}, strings.NewReader("  Pasted text  "), silentLogger())
	if err != nil {
		t.Fatalf("readResumes: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs", len(docs))
	}
	if docs[0].FileName != "alice.txt" || docs[1].FileName != "Pasted Resume 1" || docs[1].Text != "Pasted text" {
		t.Errorf("docs = %+v", docs)
	}

	if _, err := readResumes(context.Background(), []string{"-", "-"}, strings.NewReader("x"), silentLogger()); err == nil {
		t.Error("expected error reading stdin twice")
	}
	if _, err := readResumes(context.Background(), []string{"-"}, strings.NewReader("  "), silentLogger()); err == nil {
		t.Error("expected error for no resume text")
	}
}

func TestReadBuilderData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "me.yaml")
	content := `
full_name: Jane Doe
email: jane@example.com
work_experience:
  - company: Acme
    job_title: Engineer
    start_date: "2020"
    end_date: Present
    responsibilities: Built things.
skills: Go, SQL
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := readBuilderData(path)
	if err != nil {
		t.Fatalf("readBuilderData: %v", err)
	}
	if data.FullName != "Jane Doe" || len(data.WorkExperience) != 1 || data.WorkExperience[0].JobTitle != "Engineer" {
		t.Errorf("data = %+v", data)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("fullname: typo\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := readBuilderData(bad); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoadConfig_FallsBackToEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCREENER_CONFIG", "")
	t.Setenv("UPSTREAM_MODEL", "gemini-env")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Upstream.Model != "gemini-env" {
		t.Errorf("model = %q", cfg.Upstream.Model)
	}

	if _, err := loadConfig("missing.yaml"); err == nil {
		t.Error("expected error for explicit missing file")
	}
}
