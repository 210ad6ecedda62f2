package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-catalog/library"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LIBRARY_JOURNAL_PATH", "")
	t.Setenv("LIBRARY_SEED_PATH", "")
	t.Setenv("LIBRARY_REISSUE_POLICY", "")
	t.Setenv("LIBRARY_LOG_LEVEL", "")

	buf := new(bytes.Buffer)
	cmd := newRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestDemoCommand_Golden(t *testing.T) {
	out, err := runCLI(t, "demo")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "demo", []byte(out))
}

func TestDemoCommand_JSON(t *testing.T) {
	out, err := runCLI(t, "demo", "--format", "json")
	require.NoError(t, err)

	var report demoReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	require.Len(t, report.Handoffs, 1)
	assert.Equal(t, "the java", report.Handoffs[0].Title)
	assert.Equal(t, "John", report.Handoffs[0].ReturnedBy)
	assert.Equal(t, "Grace", report.Handoffs[0].ReassignedTo)

	require.Len(t, report.After.Issued, 2)
	assert.Equal(t, "Guest", report.After.Issued[1].Member.Type)
	assert.Equal(t, int64(7), report.After.Issued[1].Loans[0].DaysRemaining)
	assert.Empty(t, report.After.Overdue)
}

func TestDemoCommand_JournalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	_, err := runCLI(t, "demo", "--journal", path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestDemoCommand_StrictHandOffFailure(t *testing.T) {
	seed := `
books:
  - {key: a, title: Alpha, author: A, genre: G}
  - {key: b, title: Beta, author: B, genre: G}
members:
  - {key: s, kind: student, name: Sam, email: s@x, phone: "1"}
  - {key: g, kind: guest, name: Gil, email: g@x, phone: "2"}
loans:
  - {book: a, member: s}
  - {book: b, member: g}
reservations:
  - {book: a, member: g}
`
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	out, err := runCLI(t, "demo", "--seed", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Alpha returned by Sam, hand-off failed: LIMIT_REACHED")
	assert.Contains(t, out, "Alpha by A (G) - Available")

	out, err = runCLI(t, "demo", "--seed", path, "--reissue-policy", "skip-ineligible")
	require.NoError(t, err)
	assert.Contains(t, out, "Alpha returned by Sam, now available")
}

func TestSearchCommand(t *testing.T) {
	out, err := runCLI(t, "search", "JAVA")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 book(s) matching 'JAVA'")
	assert.Contains(t, out, "Issued to John")

	out, err = runCLI(t, "search", "programming", "--format", "json")
	require.NoError(t, err)
	var recs []library.BookRecord
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "the java", recs[0].Title)
	assert.Equal(t, "The Go Programming Language", recs[1].Title)

	out, err = runCLI(t, "search", "cobol")
	require.NoError(t, err)
	assert.Equal(t, "No books found matching 'cobol'.\n", out)
}

func TestHistoryCommand(t *testing.T) {
	out, err := runCLI(t, "history", "java")
	require.NoError(t, err)
	assert.Contains(t, out, "the java by Joshua Bloch")
	assert.Contains(t, out, "checkout  John")
	assert.Contains(t, out, "still out")
	assert.Contains(t, out, "reserve   Grace")
	assert.Contains(t, out, "pending")

	out, err = runCLI(t, "history", "go programming")
	require.NoError(t, err)
	assert.Contains(t, out, "no circulation recorded")
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := runCLI(t, "demo", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestRootCommand_BadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shelves: []\n"), 0o644))

	_, err := runCLI(t, "demo", "--seed", path)
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitRejected, exitCode(library.ErrLimitReached))
	assert.Equal(t, exitUsage, exitCode(errors.New("boom")))
	assert.Equal(t, exitRejected, exitCode(&exitError{code: exitRejected, err: errors.New("x")}))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncateString("abcdef", 2))
}
