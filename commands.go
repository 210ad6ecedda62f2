package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"library-catalog/library"
)

type loanLine struct {
	Title         string `json:"title"`
	DaysRemaining int64  `json:"days_remaining"`
}

type memberLoans struct {
	Member library.MemberRecord `json:"member"`
	Loans  []loanLine           `json:"loans"`
}

type catalogSnapshot struct {
	Books   []library.BookRecord `json:"books"`
	Issued  []memberLoans        `json:"issued"`
	Overdue []library.BookRecord `json:"overdue"`
}

type handoff struct {
	Title        string `json:"title"`
	ReturnedBy   string `json:"returned_by"`
	ReassignedTo string `json:"reassigned_to,omitempty"`
	Error        string `json:"error,omitempty"`
}

type demoReport struct {
	Before   catalogSnapshot `json:"before"`
	Handoffs []handoff       `json:"handoffs"`
	After    catalogSnapshot `json:"after"`
}

func newDemoCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Seed the catalog, report loans, then return every reserved book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := openSeeded(cmd, opts)
			if err != nil {
				return err
			}
			defer mgr.Close()

			lib := mgr.Library()
			report := demoReport{Before: snapshot(lib)}
			report.Handoffs = returnReserved(mgr)
			report.After = snapshot(lib)

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				return writeJSON(out, report)
			}
			printSnapshot(out, lib)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "== Returning reserved books ==")
			if len(report.Handoffs) == 0 {
				fmt.Fprintln(out, "none")
			}
			for _, h := range report.Handoffs {
				switch {
				case h.Error != "":
					fmt.Fprintf(out, "%s returned by %s, hand-off failed: %s\n", h.Title, h.ReturnedBy, h.Error)
				case h.ReassignedTo != "":
					fmt.Fprintf(out, "%s returned by %s, now issued to %s\n", h.Title, h.ReturnedBy, h.ReassignedTo)
				default:
					fmt.Fprintf(out, "%s returned by %s, now available\n", h.Title, h.ReturnedBy)
				}
			}
			fmt.Fprintln(out)
			printSnapshot(out, lib)
			return nil
		},
	}
}

// returnReserved has the holder of every book with a reservation queue
// return it, in catalog order.
func returnReserved(mgr *library.LibraryManager) []handoff {
	lib := mgr.Library()
	var out []handoff
	for _, b := range lib.Books() {
		if !b.IsIssued() || len(b.Reservations()) == 0 {
			continue
		}
		h := handoff{Title: b.Title(), ReturnedBy: lib.HolderName(b)}
		res, err := mgr.ReturnBook(b.ID(), b.IssuedTo())
		if err != nil {
			h.Error = err.Error()
		} else if res.ReassignedTo != uuid.Nil {
			h.ReassignedTo = lib.HolderName(b)
		}
		out = append(out, h)
	}
	return out
}

func snapshot(lib *library.Library) catalogSnapshot {
	snap := catalogSnapshot{
		Books:   []library.BookRecord{},
		Issued:  []memberLoans{},
		Overdue: []library.BookRecord{},
	}
	for _, b := range lib.Books() {
		snap.Books = append(snap.Books, b.Snapshot(lib.HolderName(b)))
	}
	for _, m := range lib.Members() {
		statuses, err := lib.ViewIssuedBooks(m.ID())
		if err != nil || len(statuses) == 0 {
			continue
		}
		ml := memberLoans{Member: m.Snapshot()}
		for _, s := range statuses {
			ml.Loans = append(ml.Loans, loanLine{Title: s.Book.Title(), DaysRemaining: s.DaysRemaining})
		}
		snap.Issued = append(snap.Issued, ml)
	}
	for _, b := range lib.ViewOverdueBooks() {
		snap.Overdue = append(snap.Overdue, b.Snapshot(lib.HolderName(b)))
	}
	return snap
}

func printSnapshot(w io.Writer, lib *library.Library) {
	fmt.Fprintln(w, "== Catalog ==")
	for _, b := range lib.Books() {
		fmt.Fprintln(w, lib.DescribeBook(b))
	}

	fmt.Fprintln(w, "== Issued books ==")
	for _, m := range lib.Members() {
		if len(m.IssuedBooks()) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%s):\n", m.Name(), m.MemberType())
		if err := lib.PrintIssuedBooks(w, m.ID()); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	}

	fmt.Fprintln(w, "== Overdue books ==")
	overdue := lib.ViewOverdueBooks()
	if len(overdue) == 0 {
		fmt.Fprintln(w, "none")
	}
	for _, b := range overdue {
		fmt.Fprintf(w, "%s (due %s)\n", lib.DescribeBook(b), b.DueDate().Format(time.DateOnly))
	}
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search [keyword]",
		Short: "List seeded books whose title, author or genre contains keyword",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := openSeeded(cmd, opts)
			if err != nil {
				return err
			}
			defer mgr.Close()

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			books := mgr.SearchBooks(query)
			lib := mgr.Library()
			out := cmd.OutOrStdout()

			if opts.Format == "json" {
				recs := make([]library.BookRecord, 0, len(books))
				for _, b := range books {
					recs = append(recs, b.Snapshot(lib.HolderName(b)))
				}
				return writeJSON(out, recs)
			}

			if len(books) == 0 {
				fmt.Fprintf(out, "No books found matching '%s'.\n", query)
				return nil
			}

			// ID and status columns are fixed; title and author share the rest.
			free := tableWidth() - 9 - 20 - 20 - 4
			if free < 20 {
				free = 20
			}
			titleW, authorW := free*3/5, free-free*3/5

			fmt.Fprintf(out, "Found %d book(s) matching '%s':\n", len(books), query)
			fmt.Fprintf(out, "%-9s %-*s %-*s %-20s %s\n", "ID", titleW, "Title", authorW, "Author", "Genre", "Status")
			fmt.Fprintln(out, strings.Repeat("-", tableWidth()))
			for _, b := range books {
				status := "Available"
				if b.IsIssued() {
					status = "Issued to " + lib.HolderName(b)
				}
				fmt.Fprintf(out, "%-9s %-*s %-*s %-20s %s\n",
					shortID(b.ID()),
					titleW, truncateString(b.Title(), titleW),
					authorW, truncateString(b.Author(), authorW),
					truncateString(b.Genre(), 20),
					status)
			}
			return nil
		},
	}
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history [keyword]",
		Short: "Show the journaled checkouts and reservations of matching books",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := openSeeded(cmd, opts)
			if err != nil {
				return err
			}
			defer mgr.Close()

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			lib := mgr.Library()
			out := cmd.OutOrStdout()

			type bookHistory struct {
				Book         library.BookRecord          `json:"book"`
				Checkouts    []library.CheckoutRecord    `json:"checkouts"`
				Reservations []library.ReservationRecord `json:"reservations"`
			}
			var all []bookHistory
			for b := range lib.SearchBooks(query) {
				checkouts, err := mgr.CheckoutHistory(b.ID())
				if err != nil {
					return err
				}
				reservations, err := mgr.ReservationHistory(b.ID())
				if err != nil {
					return err
				}
				all = append(all, bookHistory{Book: b.Snapshot(lib.HolderName(b)), Checkouts: checkouts, Reservations: reservations})
			}

			if opts.Format == "json" {
				return writeJSON(out, all)
			}

			name := func(id uuid.UUID) string {
				if m, err := lib.Member(id); err == nil {
					return m.Name()
				}
				return shortID(id)
			}
			for _, h := range all {
				fmt.Fprintf(out, "%s by %s\n", h.Book.Title, h.Book.Author)
				if len(h.Checkouts) == 0 && len(h.Reservations) == 0 {
					fmt.Fprintln(out, "  no circulation recorded")
				}
				for _, c := range h.Checkouts {
					returned := "still out"
					if c.ReturnedOn != nil {
						returned = "returned " + *c.ReturnedOn
					}
					fmt.Fprintf(out, "  checkout  %-20s issued %s due %s, %s\n", name(c.MemberID), c.IssuedOn, c.DueOn, returned)
				}
				for _, r := range h.Reservations {
					outcome := "pending"
					if r.Outcome != "" && r.ResolvedOn != nil {
						outcome = r.Outcome + " " + *r.ResolvedOn
					}
					fmt.Fprintf(out, "  reserve   %-20s on %s, %s\n", name(r.MemberID), r.ReservedOn, outcome)
				}
			}
			return nil
		},
	}
}
