package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/2beens/liftlog/internal/backup"
	"github.com/2beens/liftlog/internal/config"
	"github.com/2beens/liftlog/internal/gcp"
	"github.com/2beens/liftlog/internal/logging"
	"github.com/2beens/liftlog/internal/source/gsheets"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// workout log sheet -> google drive csv backup cmd

func main() {
	env := flag.String("env", "production", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	logsPath := flag.String("logs-path", "", "backup logs file path (empty for stdout)")
	folderName := flag.String("folder", backup.DefaultFolderName, "google drive folder holding the backups")
	keep := flag.Int("keep", 30, "number of most recent backups to keep (0 keeps all)")
	timeout := flag.Duration("timeout", 5*time.Minute, "backup timeout")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      *logsPath,
		LogToStdout:      *logsPath != "",
		LogLevel:         cfg.LogLevel,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "liftlog-sheet-backup",
	})

	log.Println("starting workout log backup ...")

	if cfg.Source != config.SourceGoogleSheets {
		log.Fatalf("backup reads the google sheet, configured source is [%s]", cfg.Source)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	credentials, err := config.LoadCredentials(ctx, cfg.CredentialsFile)
	if err != nil {
		log.Fatalf("load credentials: %s", err)
	}
	credsJSON, err := credentials.JSON()
	if err != nil {
		log.Fatalf("encode credentials: %s", err)
	}

	googleClient, err := gcp.NewHTTPClient(ctx, credsJSON, gcp.ScopeSpreadsheets, gcp.ScopeDriveFile)
	if err != nil {
		log.Fatalf("google client: %s", err)
	}

	sheet, err := gsheets.NewSource(ctx, cfg.SpreadsheetKey, cfg.WorksheetName, option.WithHTTPClient(googleClient))
	if err != nil {
		log.Fatalf("sheets source: %s", err)
	}
	table, err := sheet.ReadAllRows(ctx)
	if err != nil {
		log.Fatalf("read workout log: %s", err)
	}
	log.Debugf("read %d workout log rows", table.Len())

	s, err := backup.NewGoogleDriveBackupService(ctx, *folderName, option.WithHTTPClient(googleClient))
	if err != nil {
		log.Fatalf("failed to create google drive backup service: %s", err)
	}

	file, err := s.DoBackup(ctx, table, time.Now())
	if err != nil {
		log.Fatalf("backup failed: %s", err)
	}
	log.Printf("backup done: %s [%s]", file.Name, file.Id)

	if *keep > 0 {
		pruned, err := s.Prune(ctx, *keep)
		if err != nil {
			log.Fatalf("prune old backups: %s", err)
		}
		log.Printf("pruned %d old backups", pruned)
	}
}
