package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSeed = `
books:
  - {key: java, title: the java, author: Joshua Bloch, genre: Programming}
  - {key: dune, title: Dune, author: Frank Herbert, genre: Science Fiction}
members:
  - {key: john, kind: student, name: John, email: john@x, phone: "1"}
  - {key: grace, kind: Guest, name: Grace, email: grace@x, phone: "2"}
loans:
  - {book: java, member: john}
reservations:
  - {book: java, member: grace}
`

func TestParseSeed(t *testing.T) {
	s, err := ParseSeed([]byte(sampleSeed))
	require.NoError(t, err)
	assert.Len(t, s.Books, 2)
	assert.Equal(t, "Frank Herbert", s.Books[1].Author)
	assert.Equal(t, "Guest", s.Members[1].Kind)
	assert.Equal(t, []SeedLink{{Book: "java", Member: "john"}}, s.Loans)
	assert.Equal(t, "java->grace", s.Reservations[0].String())

	empty, err := ParseSeed(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Books)

	_, err = ParseSeed([]byte("shelves: []\n"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSeed), 0o644))

	s, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Len(t, s.Members, 2)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplySeed(t *testing.T) {
	mgr, _ := newManager(t)
	s, err := ParseSeed([]byte(sampleSeed))
	require.NoError(t, err)

	res, err := mgr.ApplySeed(s)
	require.NoError(t, err)
	require.Len(t, res.Steps, 6)
	for _, st := range res.Steps {
		assert.NoError(t, st.Err, "%s %s", st.Kind, st.Ref)
	}

	java, john, grace := res.Books["java"], res.Members["john"], res.Members["grace"]
	assert.Equal(t, john.ID(), java.IssuedTo())
	assert.Equal(t, Guest, grace.Kind())
	assert.Equal(t, []*Book{java}, mgr.SearchBooks("java"))
	assert.Equal(t, grace.ID(), java.Reservations()[0])
}

func TestApplySeed_ContinuesPastErrors(t *testing.T) {
	mgr, _ := newManager(t)
	s := &Seed{
		Books: []SeedBook{
			{Key: "a", Title: "A"},
			{Key: "a", Title: "A again"},
			{Key: "b", Title: "B"},
		},
		Members: []SeedMember{
			{Key: "g", Kind: "guest", Name: "Gil", Email: "g@x", Phone: "1"},
			{Key: "dup", Kind: "student", Name: "Dup", Email: "g@x", Phone: "2"},
			{Key: "v", Kind: "visitor", Name: "Vic", Email: "v@x", Phone: "3"},
		},
		Loans: []SeedLink{
			{Book: "a", Member: "g"},
			{Book: "b", Member: "g"},
			{Book: "zzz", Member: "g"},
		},
		Reservations: []SeedLink{
			{Book: "b", Member: "g"},
		},
	}

	res, err := mgr.ApplySeed(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateMember)
	assert.ErrorIs(t, err, ErrLimitReached)
	assert.ErrorIs(t, err, ErrInvalidState)

	var failed []string
	for _, st := range res.Steps {
		if st.Err != nil {
			failed = append(failed, st.Kind+" "+st.Ref)
		}
	}
	assert.Equal(t, []string{
		"book a",
		"member dup",
		"member v",
		"loan b->g",
		"loan zzz->g",
		"reservation b->g",
	}, failed)
	assert.Len(t, mgr.GetAllBooks(), 2)
	assert.Len(t, mgr.GetAllMembers(), 1)
}
