package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"audio-trimmer/domain/distribution"

	"google.golang.org/api/drive/v3"
)

// mockDriveService is a mock implementation for testing
type mockDriveService struct {
	files          []*drive.File
	shouldFail     bool
	failError      error
	permissionErr  error
	storageLimit   int64
	storageUsage   int64
	deletedFileIDs []string
	lastQuery      string
	uploadedName   string
	uploadedFolder string
	uploadedBody   []byte
	permissions    []*drive.Permission
}

func (m *mockDriveService) ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error) {
	m.lastQuery = query
	if m.shouldFail {
		return nil, m.failError
	}
	return m.files, nil
}

func (m *mockDriveService) GetAbout(ctx context.Context, fields string) (*drive.About, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return &drive.About{
		StorageQuota: &drive.AboutStorageQuota{
			Limit: m.storageLimit,
			Usage: m.storageUsage,
		},
	}, nil
}

func (m *mockDriveService) DeleteFile(ctx context.Context, fileID string) error {
	if m.shouldFail {
		return m.failError
	}
	m.deletedFileIDs = append(m.deletedFileIDs, fileID)
	return nil
}

func (m *mockDriveService) UploadFile(ctx context.Context, fileName, mimeType, folderID string, content io.Reader) (*drive.File, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	body, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	m.uploadedName = fileName
	m.uploadedFolder = folderID
	m.uploadedBody = body
	return &drive.File{
		Id:       "uploaded-file-id",
		Name:     fileName,
		MimeType: mimeType,
	}, nil
}

func (m *mockDriveService) CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) error {
	if m.permissionErr != nil {
		return m.permissionErr
	}
	m.permissions = append(m.permissions, permission)
	return nil
}

func newTestClient(t *testing.T, mock *mockDriveService) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), "", WithDriveService(mock))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestClient_ListFiles(t *testing.T) {
	testTime := time.Date(2025, 12, 28, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		mock      *mockDriveService
		folderID  string
		wantCount int
		wantErr   bool
		errMsg    string
	}{
		{
			name: "lists files successfully",
			mock: &mockDriveService{
				files: []*drive.File{
					{Id: "file-1", Name: "intro_trimmed.mp3", MimeType: "audio/mpeg", Size: 1000000, CreatedTime: testTime.Format(time.RFC3339)},
					{Id: "file-2", Name: "outro_trimmed.mp3", MimeType: "audio/mpeg", Size: 900000, CreatedTime: testTime.Add(-time.Hour).Format(time.RFC3339)},
				},
			},
			folderID:  "test-folder-id",
			wantCount: 2,
		},
		{
			name:      "returns empty list for empty folder",
			mock:      &mockDriveService{files: []*drive.File{}},
			folderID:  "empty-folder-id",
			wantCount: 0,
		},
		{
			name: "handles API error",
			mock: &mockDriveService{
				shouldFail: true,
				failError:  fmt.Errorf("googleapi: Error 403: permission denied"),
			},
			folderID: "test-folder-id",
			wantErr:  true,
			errMsg:   "failed to list files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.mock)

			files, err := client.ListFiles(context.Background(), tt.folderID)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				} else if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(files) != tt.wantCount {
				t.Errorf("expected %d files, got %d", tt.wantCount, len(files))
			}
			if !strings.Contains(tt.mock.lastQuery, tt.folderID) {
				t.Errorf("expected query to reference folder %q, got %q", tt.folderID, tt.mock.lastQuery)
			}
		})
	}
}

func TestClient_ListFiles_FileInfo(t *testing.T) {
	testTime := time.Date(2025, 12, 28, 10, 0, 0, 0, time.UTC)

	mock := &mockDriveService{
		files: []*drive.File{
			{Id: "file-123", Name: "intro_trimmed.mp3", MimeType: "audio/mpeg", Size: 1234567, CreatedTime: testTime.Format(time.RFC3339)},
		},
	}
	client := newTestClient(t, mock)

	files, err := client.ListFiles(context.Background(), "test-folder")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}

	file := files[0]
	if file.ID != "file-123" {
		t.Errorf("expected ID 'file-123', got %q", file.ID)
	}
	if file.Name != "intro_trimmed.mp3" {
		t.Errorf("expected Name 'intro_trimmed.mp3', got %q", file.Name)
	}
	if file.MimeType != "audio/mpeg" {
		t.Errorf("expected MimeType 'audio/mpeg', got %q", file.MimeType)
	}
	if file.Size != 1234567 {
		t.Errorf("expected Size 1234567, got %d", file.Size)
	}
	if !file.CreatedTime.Equal(testTime) {
		t.Errorf("expected CreatedTime %v, got %v", testTime, file.CreatedTime)
	}
}

func TestClient_FindFileByName(t *testing.T) {
	t.Run("returns nil when no file matches", func(t *testing.T) {
		mock := &mockDriveService{}
		client := newTestClient(t, mock)

		info, err := client.FindFileByName(context.Background(), "folder", "song_trimmed.mp3")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info != nil {
			t.Errorf("expected nil, got %+v", info)
		}
	})

	t.Run("returns first match", func(t *testing.T) {
		mock := &mockDriveService{
			files: []*drive.File{{Id: "abc", Name: "song_trimmed.mp3", Size: 42}},
		}
		client := newTestClient(t, mock)

		info, err := client.FindFileByName(context.Background(), "folder", "song_trimmed.mp3")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info == nil || info.ID != "abc" {
			t.Fatalf("expected file abc, got %+v", info)
		}
	})

	t.Run("escapes quotes in names", func(t *testing.T) {
		mock := &mockDriveService{}
		client := newTestClient(t, mock)

		if _, err := client.FindFileByName(context.Background(), "folder", "it's_trimmed.mp3"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(mock.lastQuery, `name = 'it\'s_trimmed.mp3'`) {
			t.Errorf("expected escaped name in query, got %q", mock.lastQuery)
		}
	})
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantZero bool
	}{
		{name: "valid RFC3339 time", input: "2025-12-28T10:00:00Z", wantZero: false},
		{name: "invalid time format", input: "invalid", wantZero: true},
		{name: "empty string", input: "", wantZero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseTime(tt.input)
			if tt.wantZero && !result.IsZero() {
				t.Error("expected zero time, got non-zero")
			}
			if !tt.wantZero && result.IsZero() {
				t.Error("expected non-zero time, got zero")
			}
		})
	}
}

func TestClient_GetStorageQuota(t *testing.T) {
	tests := []struct {
		name          string
		mock          *mockDriveService
		wantTotal     int64
		wantUsed      int64
		wantAvailable int64
		wantErr       bool
	}{
		{
			name: "returns storage quota successfully",
			mock: &mockDriveService{
				storageLimit: 15000000000, // 15 GB
				storageUsage: 5000000000,  // 5 GB
			},
			wantTotal:     15000000000,
			wantUsed:      5000000000,
			wantAvailable: 10000000000,
		},
		{
			name:          "reports unlimited storage as negative availability",
			mock:          &mockDriveService{storageUsage: 100},
			wantUsed:      100,
			wantAvailable: -1,
		},
		{
			name: "handles API error",
			mock: &mockDriveService{
				shouldFail: true,
				failError:  fmt.Errorf("API error"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.mock)
			storage, err := client.GetStorageQuota(context.Background())

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if storage.TotalBytes != tt.wantTotal {
				t.Errorf("expected TotalBytes %d, got %d", tt.wantTotal, storage.TotalBytes)
			}
			if storage.UsedBytes != tt.wantUsed {
				t.Errorf("expected UsedBytes %d, got %d", tt.wantUsed, storage.UsedBytes)
			}
			if storage.AvailableBytes != tt.wantAvailable {
				t.Errorf("expected AvailableBytes %d, got %d", tt.wantAvailable, storage.AvailableBytes)
			}
		})
	}
}

func TestClient_DeletePermanently(t *testing.T) {
	mock := &mockDriveService{}
	client := newTestClient(t, mock)

	if err := client.DeletePermanently(context.Background(), "file-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.deletedFileIDs) != 1 || mock.deletedFileIDs[0] != "file-1" {
		t.Errorf("expected file-1 deleted, got %v", mock.deletedFileIDs)
	}

	failing := &mockDriveService{shouldFail: true, failError: fmt.Errorf("API error")}
	client = newTestClient(t, failing)
	err := client.DeletePermanently(context.Background(), "file-2")
	if err == nil || !strings.Contains(err.Error(), "file-2") {
		t.Errorf("expected error mentioning file-2, got %v", err)
	}
}

func TestClient_UploadAndShare(t *testing.T) {
	content := []byte("ID3 fake mp3 data")

	t.Run("uploads content and shares with anyone", func(t *testing.T) {
		mock := &mockDriveService{}
		client := newTestClient(t, mock)

		result, err := client.UploadAndShare(context.Background(), distribution.UploadRequest{
			FileName: "song_trimmed.mp3",
			FolderID: "folder-1",
			MimeType: "audio/mpeg",
			Content:  content,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !bytes.Equal(mock.uploadedBody, content) {
			t.Errorf("uploaded body mismatch: got %q", mock.uploadedBody)
		}
		if mock.uploadedFolder != "folder-1" {
			t.Errorf("expected folder-1, got %q", mock.uploadedFolder)
		}
		if len(mock.permissions) != 1 || mock.permissions[0].Type != "anyone" || mock.permissions[0].Role != "reader" {
			t.Errorf("expected anyone/reader permission, got %+v", mock.permissions)
		}
		if result.Size != int64(len(content)) {
			t.Errorf("expected size %d, got %d", len(content), result.Size)
		}
		if result.ShareableURL != "https://drive.google.com/file/d/uploaded-file-id/view?usp=sharing" {
			t.Errorf("unexpected URL %q", result.ShareableURL)
		}
	})

	t.Run("reports permission failure", func(t *testing.T) {
		mock := &mockDriveService{permissionErr: fmt.Errorf("forbidden")}
		client := newTestClient(t, mock)

		_, err := client.UploadAndShare(context.Background(), distribution.UploadRequest{
			FileName: "song_trimmed.mp3",
			MimeType: "audio/mpeg",
			Content:  content,
		})
		if err == nil || !strings.Contains(err.Error(), "failed to share") {
			t.Errorf("expected share error, got %v", err)
		}
	})
}
