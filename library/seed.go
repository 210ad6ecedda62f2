package library

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed describes an opening catalog: books, members, and the loans and
// reservations to replay against them. Entries refer to each other by Key,
// since identifiers are only generated when the seed is applied.
type Seed struct {
	Books        []SeedBook   `yaml:"books"`
	Members      []SeedMember `yaml:"members"`
	Loans        []SeedLink   `yaml:"loans,omitempty"`
	Reservations []SeedLink   `yaml:"reservations,omitempty"`
}

type SeedBook struct {
	Key    string `yaml:"key"`
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Genre  string `yaml:"genre"`
}

type SeedMember struct {
	Key   string `yaml:"key"`
	Kind  string `yaml:"kind"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
}

// SeedLink pairs a book key with a member key.
type SeedLink struct {
	Book   string `yaml:"book"`
	Member string `yaml:"member"`
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML seed data. Unknown fields are rejected.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &s, nil
}

// SeedStep is the outcome of applying one seed entry.
type SeedStep struct {
	Kind string // "book", "member", "loan" or "reservation"
	Ref  string
	Err  error
}

// SeedResult maps seed keys to what they became.
type SeedResult struct {
	Books   map[string]*Book
	Members map[string]*Member
	Steps   []SeedStep
}

var errDuplicateSeedKey = errors.New("duplicate seed key")

// ApplySeed adds the seed's books and members, then replays its loans and
// reservations, in file order. Failing entries do not stop the rest; their
// errors are joined into the returned error and recorded in Steps.
func (lm *LibraryManager) ApplySeed(s *Seed) (*SeedResult, error) {
	res := &SeedResult{
		Books:   make(map[string]*Book),
		Members: make(map[string]*Member),
	}
	var errs []error
	step := func(kind, ref string, err error) {
		if err != nil {
			err = fmt.Errorf("%s %q: %w", kind, ref, err)
			errs = append(errs, err)
		}
		res.Steps = append(res.Steps, SeedStep{Kind: kind, Ref: ref, Err: err})
	}

	for _, sb := range s.Books {
		if _, dup := res.Books[sb.Key]; dup {
			step("book", sb.Key, errDuplicateSeedKey)
			continue
		}
		b, err := lm.AddBook(sb.Title, sb.Author, sb.Genre)
		if err == nil {
			res.Books[sb.Key] = b
		}
		step("book", sb.Key, err)
	}

	for _, sm := range s.Members {
		if _, dup := res.Members[sm.Key]; dup {
			step("member", sm.Key, errDuplicateSeedKey)
			continue
		}
		kind, err := ParseMemberKind(sm.Kind)
		if err != nil {
			step("member", sm.Key, err)
			continue
		}
		m, err := lm.RegisterMember(kind, sm.Name, sm.Email, sm.Phone)
		if err == nil {
			res.Members[sm.Key] = m
		}
		step("member", sm.Key, err)
	}

	for _, link := range s.Loans {
		book, member, err := res.resolve(link)
		if err == nil {
			_, err = lm.IssueBook(book.ID(), member.ID())
		}
		step("loan", link.String(), err)
	}

	for _, link := range s.Reservations {
		book, member, err := res.resolve(link)
		if err == nil {
			err = lm.ReserveBook(book.ID(), member.ID())
		}
		step("reservation", link.String(), err)
	}

	return res, errors.Join(errs...)
}

func (l SeedLink) String() string { return l.Book + "->" + l.Member }

func (r *SeedResult) resolve(link SeedLink) (*Book, *Member, error) {
	book, ok := r.Books[link.Book]
	if !ok {
		return nil, nil, fmt.Errorf("unknown book key %q", link.Book)
	}
	member, ok := r.Members[link.Member]
	if !ok {
		return nil, nil, fmt.Errorf("unknown member key %q", link.Member)
	}
	return book, member, nil
}
