// Package backup exports the workout log as CSV files into a Google Drive folder.
package backup

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"github.com/2beens/liftlog/internal/source"
	"github.com/2beens/liftlog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	DefaultFolderName = "liftlog-backup"

	folderMimeType = "application/vnd.google-apps.folder"
	csvMimeType    = "text/csv"
)

type GoogleDriveBackupService struct {
	service    *drive.Service
	folderName string
	folderID   string
}

// NewGoogleDriveBackupService finds the backups folder by name, creating it when missing.
func NewGoogleDriveBackupService(ctx context.Context, folderName string, opts ...option.ClientOption) (*GoogleDriveBackupService, error) {
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve drive client: %w", err)
	}

	s := &GoogleDriveBackupService{
		service:    driveService,
		folderName: folderName,
	}

	folderQuery := fmt.Sprintf("mimeType = '%s' and trashed = false and name = '%s'", folderMimeType, folderName)
	folders, err := driveService.
		Files.List().
		Q(folderQuery).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	switch len(folders.Files) {
	case 0:
		log.Printf("backups folder [%s] not found, creating ...", folderName)
		s.folderID, err = s.createFolder(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create backups folder: %w", err)
		}
		log.Printf("backups folder created: %s", s.folderID)
	case 1:
		s.folderID = folders.Files[0].Id
	default:
		s.folderID = folders.Files[0].Id
		log.Warnf("found %d backups folders named [%s], using the first one: %s", len(folders.Files), folderName, s.folderID)
	}

	return s, nil
}

func (s *GoogleDriveBackupService) FolderID() string {
	return s.folderID
}

func (s *GoogleDriveBackupService) createFolder(ctx context.Context) (string, error) {
	folder, err := s.service.
		Files.Create(&drive.File{
			Name:     s.folderName,
			MimeType: folderMimeType,
		}).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return folder.Id, nil
}

// BackupFiles lists the backups, newest first.
func (s *GoogleDriveBackupService) BackupFiles(ctx context.Context) ([]*drive.File, error) {
	var files []*drive.File
	err := s.service.
		Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed = false", s.folderID)).
		Fields("nextPageToken, files(id, name, createdTime)").
		Context(ctx).
		Pages(ctx, func(page *drive.FileList) error {
			files = append(files, page.Files...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list backup files: %w", err)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedTime > files[j].CreatedTime
	})
	return files, nil
}

// DoBackup uploads the whole table as one CSV named after baseTime. A second
// backup on the same day gets a _2, _3 ... suffix.
func (s *GoogleDriveBackupService) DoBackup(ctx context.Context, table source.Table, baseTime time.Time) (_ *drive.File, err error) {
	ctx, span := tracing.GlobalBackupTracer.Start(ctx, "backup.do")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	existing, err := s.BackupFiles(ctx)
	if err != nil {
		return nil, err
	}

	content, err := EncodeCSV(table)
	if err != nil {
		return nil, err
	}

	name := nextBackupFileName(existing, baseTime)
	span.SetAttributes(
		attribute.String("file", name),
		attribute.Int("rows", table.Len()),
	)

	file, err := s.service.
		Files.Create(&drive.File{
			Name:     name,
			MimeType: csvMimeType,
			Parents:  []string{s.folderID},
		}).
		Fields("id, name, parents").
		Media(bytes.NewReader(content)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("create backup file %s: %w", name, err)
	}

	log.Printf("backup %s (%s) saved with %d rows", file.Name, file.Id, table.Len())
	return file, nil
}

// Prune deletes all but the newest keep backups, returning how many were deleted.
func (s *GoogleDriveBackupService) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1, got %d", keep)
	}

	files, err := s.BackupFiles(ctx)
	if err != nil {
		return 0, err
	}
	if len(files) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, f := range files[keep:] {
		if err := s.service.Files.Delete(f.Id).Context(ctx).Do(); err != nil {
			return deleted, fmt.Errorf("delete backup %s: %w", f.Name, err)
		}
		log.Debugf("old backup deleted: %s (%s)", f.Name, f.Id)
		deleted++
	}
	return deleted, nil
}

func nextBackupFileName(existing []*drive.File, baseTime time.Time) string {
	names := make(map[string]bool, len(existing))
	for _, f := range existing {
		names[f.Name] = true
	}

	base := fmt.Sprintf("workout-log-%d-%02d-%02d", baseTime.Year(), baseTime.Month(), baseTime.Day())
	name := base + ".csv"
	for counter := 2; names[name]; counter++ {
		name = fmt.Sprintf("%s_%d.csv", base, counter)
	}
	return name
}

// EncodeCSV renders the table, header first.
func EncodeCSV(table source.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
