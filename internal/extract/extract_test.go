package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtract_PlainText(t *testing.T) {
	dir := t.TempDir()
	e := New(discardLogger())

	for _, name := range []string{"alice.txt", "bob.MD"} {
		path := writeFile(t, dir, name, "\n  Jane Doe\nGo developer  \n")
		got, err := e.Extract(path)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != "Jane Doe\nGo developer" {
			t.Errorf("%s: got %q", name, got)
		}
	}
}

func TestExtract_Unsupported(t *testing.T) {
	path := writeFile(t, t.TempDir(), "resume.rtf", "{\\rtf1 hi}")
	_, err := New(discardLogger()).Extract(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("err = %v", err)
	}
}

func TestExtract_Empty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "blank.txt", "   \n\t")
	_, err := New(discardLogger()).Extract(path)
	if !errors.Is(err, ErrNoText) {
		t.Errorf("err = %v, want ErrNoText", err)
	}
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New(discardLogger()).Extract(filepath.Join(t.TempDir(), "gone.txt"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestExtract_CorruptPDF(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.pdf", "this is not a pdf")
	if _, err := New(discardLogger()).Extract(path); err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
}

func TestMany_PreservesOrderAndSkipsBlank(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "c.txt", "Charlie"),
		writeFile(t, dir, "blank.txt", "  "),
		writeFile(t, dir, "a.txt", "Alice"),
		writeFile(t, dir, "b.md", "Bob"),
	}

	docs, err := New(discardLogger()).Many(context.Background(), paths)
	if err != nil {
		t.Fatalf("Many: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d docs, want 3", len(docs))
	}
	wantNames := []string{"c.txt", "a.txt", "b.md"}
	wantTexts := []string{"Charlie", "Alice", "Bob"}
	seen := map[string]bool{}
	for i, d := range docs {
		if d.FileName != wantNames[i] || d.Text != wantTexts[i] {
			t.Errorf("doc %d = %+v", i, d)
		}
		if !strings.HasPrefix(d.ID, "resume_") || seen[d.ID] {
			t.Errorf("doc %d has bad or duplicate id %q", i, d.ID)
		}
		seen[d.ID] = true
	}
}

func TestMany_FailsOnUnsupported(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.txt", "Alice"),
		writeFile(t, dir, "b.png", "binary"),
	}
	if _, err := New(discardLogger()).Many(context.Background(), paths); err == nil {
		t.Fatal("expected error for unsupported file")
	}
}

func TestDocxContentText(t *testing.T) {
	xml := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Skills:</w:t><w:tab/><w:t>Go &amp; SQL</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	got := docxContentText(xml)
	want := "Jane Doe\nSkills:\tGo & SQL\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
