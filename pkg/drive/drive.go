// Package drive wraps the Google Drive v3 API for the estimate inbox
// folder: newest-first file listing, downloads, and the processed-folder
// move that marks a file as handled.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Supported MIME types in the inbox folder.
const (
	MimePDF    = "application/pdf"
	MimeXLSX   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeXLS    = "application/vnd.ms-excel"
	mimeFolder = "application/vnd.google-apps.folder"
)

// ProcessedFolderName is the subfolder handled files are moved into.
const ProcessedFolderName = "processed"

// ErrNoFile means the folder holds no file of the requested kind.
var ErrNoFile = errors.New("drive: no matching file in folder")

// File is the subset of Drive file metadata the sync cares about.
type File struct {
	ID          string
	Name        string
	MimeType    string
	CreatedTime string
}

// Manager operates on one inbox folder.
type Manager struct {
	svc      *drive.Service
	folderID string
	logger   *slog.Logger
}

// NewManager authenticates with a service account file and binds to the
// inbox folder.
func NewManager(ctx context.Context, serviceAccountFile, folderID string, logger *slog.Logger) (*Manager, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(serviceAccountFile),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("drive: authenticate: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{svc: svc, folderID: folderID, logger: logger}, nil
}

// NewManagerWithService binds to an already-built Drive service. Used by
// tests and by callers with their own credential plumbing.
func NewManagerWithService(svc *drive.Service, folderID string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{svc: svc, folderID: folderID, logger: logger}
}

// ListFiles lists folder files newest first, optionally filtered by MIME
// type.
func (m *Manager) ListFiles(ctx context.Context, mimeTypes []string, pageSize int64) ([]File, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", m.folderID)
	if len(mimeTypes) > 0 {
		conds := make([]string, 0, len(mimeTypes))
		for _, mt := range mimeTypes {
			conds = append(conds, fmt.Sprintf("mimeType='%s'", mt))
		}
		query += " and (" + strings.Join(conds, " or ") + ")"
	}

	res, err := m.svc.Files.List().
		Q(query).
		OrderBy("createdTime desc").
		PageSize(pageSize).
		Fields("files(id, name, mimeType, createdTime)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("drive: list files: %w", err)
	}

	files := make([]File, 0, len(res.Files))
	for _, f := range res.Files {
		files = append(files, File{
			ID:          f.Id,
			Name:        f.Name,
			MimeType:    f.MimeType,
			CreatedTime: f.CreatedTime,
		})
	}
	m.logger.Info("listed drive files",
		slog.String("folder", m.folderID),
		slog.Int("count", len(files)),
	)
	return files, nil
}

// LatestPDF returns the newest PDF in the folder.
func (m *Manager) LatestPDF(ctx context.Context) (*File, error) {
	return m.latest(ctx, []string{MimePDF})
}

// LatestExcel returns the newest spreadsheet in the folder.
func (m *Manager) LatestExcel(ctx context.Context) (*File, error) {
	return m.latest(ctx, []string{MimeXLSX, MimeXLS})
}

func (m *Manager) latest(ctx context.Context, mimeTypes []string) (*File, error) {
	files, err := m.ListFiles(ctx, mimeTypes, 1)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFile
	}
	return &files[0], nil
}

// Download fetches the file content.
func (m *Manager) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := m.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("drive: download %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("drive: download %s: %w", fileID, err)
	}
	m.logger.Debug("downloaded file", slog.String("file_id", fileID), slog.Int("bytes", len(data)))
	return data, nil
}

// EnsureProcessedFolder returns the ID of the processed subfolder,
// creating it on first use.
func (m *Manager) EnsureProcessedFolder(ctx context.Context) (string, error) {
	query := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='%s' and trashed=false",
		ProcessedFolderName, m.folderID, mimeFolder)
	res, err := m.svc.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive: find processed folder: %w", err)
	}
	if len(res.Files) > 0 {
		return res.Files[0].Id, nil
	}

	folder, err := m.svc.Files.Create(&drive.File{
		Name:     ProcessedFolderName,
		MimeType: mimeFolder,
		Parents:  []string{m.folderID},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive: create processed folder: %w", err)
	}
	m.logger.Info("created processed folder", slog.String("folder_id", folder.Id))
	return folder.Id, nil
}

// MoveToProcessed relocates a handled file into the processed subfolder.
func (m *Manager) MoveToProcessed(ctx context.Context, fileID, fileName string) error {
	processedID, err := m.EnsureProcessedFolder(ctx)
	if err != nil {
		return err
	}

	f, err := m.svc.Files.Get(fileID).Fields("parents").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("drive: get parents of %s: %w", fileID, err)
	}

	_, err = m.svc.Files.Update(fileID, nil).
		AddParents(processedID).
		RemoveParents(strings.Join(f.Parents, ",")).
		Fields("id, parents").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("drive: move %s to processed: %w", fileName, err)
	}

	m.logger.Info("moved file to processed folder",
		slog.String("file", fileName),
		slog.String("file_id", fileID),
	)
	return nil
}
