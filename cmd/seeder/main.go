//cmd/seeder/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/unclebandit/customers-app/internal/config"
	"github.com/unclebandit/customers-app/internal/db"
	"github.com/unclebandit/customers-app/internal/repository"
)

func main() {
	log.SetPrefix("[SEEDER] ")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	handle, err := db.Open(db.Options{Driver: cfg.DBDriver, Path: cfg.DBPath, DSN: cfg.DatabaseURL})
	if err != nil {
		log.Fatal(err)
	}
	defer handle.Close()

	file, err := os.Open(cfg.SeedFile)
	if err != nil {
		log.Fatalf("failed to read %s: %v", cfg.SeedFile, err)
	}
	defer file.Close()

	n, err := seed(context.Background(), &repository.CustomerRepository{DB: handle}, file)
	if err != nil {
		log.Fatalf("failed to seed %s: %v", cfg.SeedFile, err)
	}
	fmt.Printf("Seeded %d customers from %s\n", n, cfg.SeedFile)
}

func seed(ctx context.Context, repo *repository.CustomerRepository, r io.Reader) (int, error) {
	names, err := readNames(r)
	if err != nil {
		return 0, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	created, err := repo.CreateMany(ctx, names)
	if err != nil {
		return 0, err
	}
	return len(created), nil
}

// readNames returns one name per line. Blank lines are skipped; everything
// else is kept verbatim apart from the line ending.
func readNames(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}
	return names, nil
}
