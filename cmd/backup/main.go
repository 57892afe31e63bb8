package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"churchadmin/internal/config"
	"churchadmin/internal/database"
	"churchadmin/internal/service"
)

const usage = `Church Admin backup tool

Usage:
  backup export  [-output file]           Write every record to a JSON file
  backup import  -input file [-clear] [-yes]
                                          Restore a JSON backup into an empty database
  backup inspect -input file              Show what a backup file holds

Import refuses to run against a database that already has records.
Pass -clear to wipe it first; you are asked to type "yes" unless -yes is set.

Environment:
  DATABASE_TYPE    sqlite, postgres or mysql (default: sqlite)
  DB_PATH          SQLite database path (default: ./churchadmin.db)
  DATABASE_URL     PostgreSQL or MySQL connection URL
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "export":
		runExport(args)
	case "import":
		runImport(args)
	case "inspect":
		runInspect(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}

// openBackupService connects to the configured database and brings its schema up to date
func openBackupService() (*service.BackupService, func()) {
	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		db.Close()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	return service.NewBackupService(db), func() { db.Close() }
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("output", "", "output file (default: backup_YYYYMMDD_HHMMSS.json)")
	fs.Parse(args)

	path := *output
	if path == "" {
		path = "backup_" + time.Now().Format("20060102_150405") + ".json"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	backups, closeDB := openBackupService()
	defer closeDB()

	if err := backups.Export(path); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	if info, err := os.Stat(path); err == nil {
		log.Printf("Wrote %s (%.2f MB)", path, float64(info.Size())/1024/1024)
	}
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	input := fs.String("input", "", "backup file to restore (required)")
	wipe := fs.Bool("clear", false, "delete all existing data before importing")
	yes := fs.Bool("yes", false, "do not prompt before -clear")
	fs.Parse(args)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "import: -input is required")
		fs.PrintDefaults()
		os.Exit(2)
	}
	if _, err := os.Stat(*input); err != nil {
		log.Fatalf("Cannot read backup file: %v", err)
	}
	if *wipe && !*yes && !confirm("This deletes ALL existing data. Type 'yes' to continue: ") {
		log.Println("Import cancelled")
		return
	}

	backups, closeDB := openBackupService()
	defer closeDB()

	if *wipe {
		log.Println("Clearing existing data...")
		if err := backups.Clear(); err != nil {
			log.Fatalf("Failed to clear database: %v", err)
		}
	}

	if err := backups.Import(*input); err != nil {
		if errors.Is(err, service.ErrDatabaseNotEmpty) {
			log.Fatalf("Import failed: %v (rerun with -clear to replace it)", err)
		}
		log.Fatalf("Import failed: %v", err)
	}
	log.Println("Import complete")
}

func runInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	input := fs.String("input", "", "backup file to read (required)")
	fs.Parse(args)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "inspect: -input is required")
		os.Exit(2)
	}
	backup, err := service.ReadBackup(*input)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Version %s, exported %s\n\n", backup.Version, backup.ExportedAt.Format(time.RFC1123))
	counts := backup.Counts()
	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, table := range tables {
		fmt.Fprintf(tw, "%s\t%d\n", table, counts[table])
	}
	tw.Flush()
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}
