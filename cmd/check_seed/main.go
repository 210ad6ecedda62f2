package main

import (
	"fmt"
	"os"
	"strings"

	"library-catalog/library"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <seed.yaml>\n", os.Args[0])
		os.Exit(2)
	}
	path := os.Args[1]

	seed, err := library.LoadSeed(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading seed: %v\n", err)
		os.Exit(2)
	}

	// Dry run against a throwaway journal
	manager, err := library.NewLibraryManager(library.MemoryDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating journal: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	fmt.Printf("Checking %s...\n", path)
	res, _ := manager.ApplySeed(seed)

	successCount := 0
	errorCount := 0
	for _, step := range res.Steps {
		fmt.Printf("%-12s %-30s ", step.Kind, truncateString(step.Ref, 30))
		if step.Err != nil {
			fmt.Printf("ERROR - %v\n", step.Err)
			errorCount++
			continue
		}
		fmt.Println("SUCCESS")
		successCount++
	}

	fmt.Printf("\nCheck complete!\n")
	fmt.Printf("Applied: %d entries\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	// Display the resulting catalog
	if books := manager.GetAllBooks(); len(books) > 0 {
		lib := manager.Library()
		fmt.Println("\nCatalog:")
		fmt.Printf("%-9s %-40s %-25s %s\n", "ID", "Title", "Author", "Status")
		fmt.Println(strings.Repeat("-", 90))
		for _, book := range books {
			status := "Available"
			if book.IsIssued() {
				status = "Issued to " + lib.HolderName(book)
			}
			fmt.Printf("%-9s %-40s %-25s %s\n",
				strings.SplitN(book.ID().String(), "-", 2)[0],
				truncateString(book.Title(), 40),
				truncateString(book.Author(), 25),
				status)
		}
	}

	if errorCount > 0 {
		os.Exit(1)
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
