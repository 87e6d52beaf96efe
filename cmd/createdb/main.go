// Command createdb builds a fresh POS database from db/schema.sql and seeds
// the default roles, outlet, tax and administrator account.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/FrandeScarlet/minimarket/app/config"
	"github.com/FrandeScarlet/minimarket/app/database"
)

func main() {
	baseDir, err := config.ResolveBaseDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	os.Exit(run(context.Background(), cfg, os.Stdin, os.Stdout))
}

// run creates the database and returns the process exit code.
func run(ctx context.Context, cfg *config.AppConfig, in io.Reader, out io.Writer) int {
	reader := bufio.NewReader(in)
	result, err := database.Bootstrap(ctx, database.BootstrapOptions{
		DBPath:       cfg.DBPath(),
		SchemaPath:   cfg.SchemaPath(),
		Out:          out,
		TaxRate:      cfg.Tax.DefaultRate,
		TaxAutoApply: cfg.Tax.AutoApply,
		Confirm: func(path string) bool {
			fmt.Fprintf(out, "Database %s already exists. Overwrite? [y/N]: ", path)
			answer, _ := reader.ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			return answer == "y" || answer == "yes"
		},
	})
	switch {
	case errors.Is(err, database.ErrBootstrapCancelled):
		fmt.Fprintln(out, "Cancelled, existing database left unchanged.")
		return 1
	case err != nil:
		fmt.Fprintf(out, "Failed to create database: %v\n", err)
		return 1
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Admin username: %s\n", result.AdminUsername)
	fmt.Fprintf(out, "Temporary password: %s\n", result.AdminPassword)
	fmt.Fprintln(out, "The password must be changed at first login.")
	fmt.Fprintf(out, "Database created successfully: %s\n", result.DBPath)
	return 0
}
