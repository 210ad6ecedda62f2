package library

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBook(t *testing.T) {
	l, _ := newTestLibrary(t)
	b := mustAddBook(t, l, "the java", "Joshua Bloch", "Programming")
	m := mustRegister(t, l, NewStudent("John", "john@x", "1"))

	assert.Equal(t, "the java by Joshua Bloch (Programming) - Available", l.DescribeBook(b))

	_, err := l.IssueBook(b.ID(), m.ID())
	require.NoError(t, err)
	assert.Equal(t, "the java by Joshua Bloch (Programming) - Issued to John", l.DescribeBook(b))
	assert.Equal(t, "the java by Joshua Bloch (Programming) - Issued to Someone", FormatBook(b, "Someone"))
}

func TestPrintIssuedBooks(t *testing.T) {
	l, clock := newTestLibrary(t)
	m := mustRegister(t, l, NewStudent("John", "john@x", "1"))
	for _, title := range []string{"A", "B"} {
		b := mustAddBook(t, l, title, "x", "g")
		_, err := l.IssueBook(b.ID(), m.ID())
		require.NoError(t, err)
		clock.Advance(1)
	}

	var buf bytes.Buffer
	require.NoError(t, l.PrintIssuedBooks(&buf, m.ID()))
	assert.Equal(t, "A - Due in 12 days\nB - Due in 13 days\n", buf.String())

	clock.Advance(20)
	buf.Reset()
	require.NoError(t, l.PrintIssuedBooks(&buf, m.ID()))
	assert.Equal(t, "A - Due in -8 days\nB - Due in -7 days\n", buf.String())

	assert.ErrorIs(t, l.PrintIssuedBooks(&buf, uuid.New()), ErrMemberNotFound)
}
