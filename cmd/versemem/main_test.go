package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const kjvText = `Genesis
Gen 1:1 In the beginning God created the heaven and the earth.
Gen 1:2 And the earth was without form, and void.
John
John 3:16 For God so loved the world.
`

const zefaniaText = `<?xml version="1.0" encoding="utf-8"?>
<XMLBIBLE biblename="Test">
  <BIBLEBOOK bnumber="1" bname="Genèse">
    <CHAPTER cnumber="1">
      <VERS vnumber="1">Au commencement, Dieu créa les cieux et la terre.</VERS>
    </CHAPTER>
  </BIBLEBOOK>
</XMLBIBLE>
`

// Test helper functions

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// setupWorkspace writes a config whose sources come from a local directory
// and whose network base URL is unreachable.
func setupWorkspace(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	texts := filepath.Join(dir, "texts")
	if err := os.MkdirAll(texts, 0755); err != nil {
		t.Fatalf("failed to create texts dir: %v", err)
	}
	createTestFile(t, texts, "KJV.txt", kjvText)

	cfg := fmt.Sprintf(`data_dir: %s
log:
  level: error
sources:
  dir: %s
  base_url: http://127.0.0.1:1
fetch:
  attempts: 1
  delay: 1ms
  min_bytes: 10
`, filepath.Join(dir, "data"), texts)
	cfgPath = createTestFile(t, dir, "config.yaml", cfg)
	return dir, cfgPath
}

func runCLI(t *testing.T, cfgPath, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	all := append([]string{"--config", cfgPath}, args...)
	err := run(context.Background(), all, strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func mustRun(t *testing.T, cfgPath, stdin string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, cfgPath, stdin, args...)
	if err != nil {
		t.Fatalf("versemem %v failed: %v", args, err)
	}
	return out
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestReadCommands(t *testing.T) {
	_, cfg := setupWorkspace(t)

	assertContains(t, mustRun(t, cfg, "", "books"), "gen", "Genesis", "john", "new")
	assertContains(t, mustRun(t, cfg, "", "books", "--lang", "fr"), "Genèse", "Jean")
	assertContains(t, mustRun(t, cfg, "", "chapters", "john"), "1 2 3")
	assertContains(t, mustRun(t, cfg, "", "verses", "gen", "1"), "1 In the beginning", "2 And the earth")
	assertContains(t, mustRun(t, cfg, "", "verse", "john", "3", "16"), "John 3:16  For God so loved the world.")
	assertContains(t, mustRun(t, cfg, "", "random", "--testament", "new"), "John 3:16")
	assertContains(t, mustRun(t, cfg, "", "lookup", "Gen", "1:1-2"), "Genesis 1:1", "Genesis 1:2")

	if _, err := runCLI(t, cfg, "", "verse", "john", "3", "17"); err == nil {
		t.Error("expected error for missing verse")
	}
	if _, err := runCLI(t, cfg, "", "chapters", "exod"); err == nil {
		t.Error("expected error for unknown book")
	}
	if _, err := runCLI(t, cfg, "", "--source", "NOPE", "books"); err == nil {
		t.Error("expected error for unavailable source")
	}
}

func TestCheckAndGuess(t *testing.T) {
	_, cfg := setupWorkspace(t)

	assertContains(t, mustRun(t, cfg, "", "check", "for god so lovd the world", "--at", "John 3:16"), "match: true")
	assertContains(t, mustRun(t, cfg, "", "check", "something else", "--text", "For God so loved the world."), "match: false")
	assertContains(t, mustRun(t, cfg, "", "check", "a  B", "--text", "A, b.", "--strict"), "match: true")
	assertContains(t, mustRun(t, cfg, "", "check", "for god so lovd", "--text", "For God so loved", "--diagnose"),
		"EXPECTED", "loved", "close")

	if _, err := runCLI(t, cfg, "", "check", "x"); err == nil {
		t.Error("expected error without --text or --at")
	}
	if _, err := runCLI(t, cfg, "", "check", "x", "--text", "y", "--tolerance", "2"); err == nil {
		t.Error("expected error for tolerance out of range")
	}

	assertContains(t, mustRun(t, cfg, "", "guess", "Jean 3:16", "--at", "John 3:16", "--lang", "fr"), "correct: true")
	assertContains(t, mustRun(t, cfg, "", "guess", "Genesis 1:1", "--at", "John 3:16"), "correct: false")
}

func TestPracticeAndProgress(t *testing.T) {
	_, cfg := setupWorkspace(t)

	out := mustRun(t, cfg, "for god so loved the world\n", "practice", "--at", "John 3:16")
	assertContains(t, out, "John 3:16", "Correct", "Mastery 1/5", "1/1 correct")

	out = mustRun(t, cfg, "For God so loved the\nworld\n", "practice", "--at", "John 3:16", "--mode", "lines")
	assertContains(t, out, "line 1> ", "line 2> ", "1/1 correct")

	out = mustRun(t, cfg, "Genesis 1:1\n", "practice", "--at", "John 3:16", "--mode", "reference")
	assertContains(t, out, "It was John 3:16", "0/1 correct")

	out = mustRun(t, cfg, "", "practice", "--rounds", "3")
	assertContains(t, out, "0/0 correct")

	assertContains(t, mustRun(t, cfg, "", "progress"), "John 3:16", "started", "2/5", "2/3", "1 verses, 0 completed, 0 memorized, 67% accuracy")
	assertContains(t, mustRun(t, cfg, "", "progress", "memorize", "John", "3:16"), "memorized: true")
	assertContains(t, mustRun(t, cfg, "", "progress", "list"), "true")
	assertContains(t, mustRun(t, cfg, "", "progress", "reset"), "progress reset for KJV")
	assertContains(t, mustRun(t, cfg, "", "progress", "list"), "no progress recorded for KJV")
}

func TestSourcesCommands(t *testing.T) {
	dir, cfg := setupWorkspace(t)

	out := mustRun(t, cfg, "", "sources", "download", "KJV")
	assertContains(t, out, "KJV", "completed", "100%")

	out = mustRun(t, cfg, "", "sources")
	assertContains(t, out, "ITADIO", "KJV")
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "KJV ") && !strings.Contains(line, "yes") {
			t.Errorf("KJV not reported as stored: %q", line)
		}
	}

	if _, err := runCLI(t, cfg, "", "sources", "download", "LSG"); err == nil {
		t.Error("expected error downloading an unreachable source")
	}

	textPath := createTestFile(t, dir, "mine.txt", kjvText)
	assertContains(t, mustRun(t, cfg, "", "sources", "import", textPath, "--id", "MINE"), "imported MINE: 2 books, 3 verses")
	assertContains(t, mustRun(t, cfg, "", "--source", "MINE", "books"), "Genesis")

	xmlPath := createTestFile(t, dir, "bible.xml", zefaniaText)
	out = mustRun(t, cfg, "", "sources", "import", xmlPath)
	assertContains(t, out, "imported custom-", "1 books, 1 verses")

	assertContains(t, mustRun(t, cfg, "", "sources", "list"), "MINE", "custom-")
	assertContains(t, mustRun(t, cfg, "", "sources", "remove", "MINE"), "removed MINE")
	if _, err := runCLI(t, cfg, "", "sources", "remove"); err == nil {
		t.Error("expected error removing without ids")
	}

	binPath := createTestFile(t, dir, "blob.txt", "SQLite format 3\x00\x01\x02")
	if _, err := runCLI(t, cfg, "", "sources", "import", binPath); err == nil {
		t.Error("expected error importing a binary file")
	}
	if _, err := runCLI(t, cfg, "", "sources", "import", textPath, "--id", "../up"); err == nil {
		t.Error("expected error importing with an invalid id")
	}
	assertContains(t, mustRun(t, cfg, "", "sources", "remove", "--all"), "removed all stored sources")
}

func TestConfigAndVersion(t *testing.T) {
	dir, cfg := setupWorkspace(t)

	path := filepath.Join(dir, "new", "config.yaml")
	assertContains(t, mustRun(t, cfg, "", "config", "init", path), "wrote "+path)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := runCLI(t, cfg, "", "config", "init", path); err == nil {
		t.Error("expected error overwriting without --force")
	}
	mustRun(t, cfg, "", "config", "init", path, "--force")

	assertContains(t, mustRun(t, cfg, "", "config", "show"), "tolerance_level: 0.85", "min_bytes: 10")
	assertContains(t, mustRun(t, cfg, "", "version"), "versemem version "+version, "sqlite driver")
}
