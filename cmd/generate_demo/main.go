// Command generate_demo creates a demo database with public domain books,
// two demo accounts and a few loans.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"flag"
	"log"

	"github.com/mrlokans/locallibrary/internal/demo"
	"github.com/mrlokans/locallibrary/internal/entities"
)

const defaultDemoDatabasePath = "./demo/demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	bcryptCost := flag.Int("bcrypt-cost", 12, "bcrypt cost for the demo account passwords")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	result, err := demo.BuildDatabase(*dbPath, *bcryptCost, entities.Today())
	if err != nil {
		log.Fatalf("Failed to generate demo database: %v", err)
	}

	log.Printf("Saved %d authors, %d books and %d copies (%d on loan)",
		result.Authors, result.Books, result.Instances, result.Loans)
	log.Printf("Sign in as %q or %q with password %q",
		demo.LibrarianUsername, demo.ReaderUsername, demo.AccountPassword)
	log.Println("Demo database generated successfully!")
}
