//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"audio-trimmer/cmd"
	"audio-trimmer/infrastructure/drive"

	"github.com/cucumber/godog"
	gdrive "google.golang.org/api/drive/v3"
)

// fakeDriveService keeps uploaded files in memory
type fakeDriveService struct {
	files      map[string]*gdrive.File
	contents   map[string][]byte
	limit      int64
	usage      int64
	nextID     int
	shared     map[string]bool
	deletedIDs []string
}

func newFakeDriveService() *fakeDriveService {
	return &fakeDriveService{
		files:    make(map[string]*gdrive.File),
		contents: make(map[string][]byte),
		shared:   make(map[string]bool),
		limit:    15 << 30,
	}
}

func (f *fakeDriveService) ListFiles(ctx context.Context, query, fields, orderBy string) ([]*gdrive.File, error) {
	var result []*gdrive.File
	for _, file := range f.files {
		if strings.Contains(query, "name = '"+file.Name+"'") {
			result = append(result, file)
		}
	}
	return result, nil
}

func (f *fakeDriveService) GetAbout(ctx context.Context, fields string) (*gdrive.About, error) {
	return &gdrive.About{StorageQuota: &gdrive.AboutStorageQuota{Limit: f.limit, Usage: f.usage}}, nil
}

func (f *fakeDriveService) DeleteFile(ctx context.Context, fileID string) error {
	file, ok := f.files[fileID]
	if !ok {
		return fmt.Errorf("file %s not found", fileID)
	}
	f.usage -= file.Size
	delete(f.files, fileID)
	delete(f.contents, fileID)
	f.deletedIDs = append(f.deletedIDs, fileID)
	return nil
}

func (f *fakeDriveService) UploadFile(ctx context.Context, fileName, mimeType, folderID string, content io.Reader) (*gdrive.File, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	f.nextID++
	id := fmt.Sprintf("file-%d", f.nextID)
	file := &gdrive.File{Id: id, Name: fileName, MimeType: mimeType, Size: int64(len(data)), Parents: []string{folderID}}
	f.files[id] = file
	f.contents[id] = data
	f.usage += int64(len(data))
	return file, nil
}

func (f *fakeDriveService) CreatePermission(ctx context.Context, fileID string, permission *gdrive.Permission) error {
	if permission.Type == "anyone" && permission.Role == "reader" {
		f.shared[fileID] = true
	}
	return nil
}

func (f *fakeDriveService) byName(name string) *gdrive.File {
	for _, file := range f.files {
		if file.Name == name {
			return file
		}
	}
	return nil
}

type uploadContext struct {
	tempDir string
	service *fakeDriveService
	output  *bytes.Buffer
	err     error
}

// SharedUploadContext is reset before each scenario via Before hook
var SharedUploadContext = &uploadContext{}

func InitializeUploadScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "upload-test-*")
		if err != nil {
			return c, err
		}
		SharedUploadContext = &uploadContext{
			tempDir: tempDir,
			service: newFakeDriveService(),
			output:  &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedUploadContext.tempDir != "" {
			os.RemoveAll(SharedUploadContext.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a trimmed file "([^"]*)" of (\d+) bytes$`, aTrimmedFileOfBytes)
	ctx.Step(`^Drive already holds "([^"]*)"$`, driveAlreadyHolds)
	ctx.Step(`^Drive has (\d+) bytes of free storage$`, driveHasFreeStorage)
	ctx.Step(`^I upload "([^"]*)"$`, iUpload)
	ctx.Step(`^the upload should succeed$`, theUploadShouldSucceed)
	ctx.Step(`^the upload should fail with "([^"]*)"$`, theUploadShouldFailWith)
	ctx.Step(`^Drive should hold (\d+) files? named "([^"]*)"$`, driveShouldHoldFilesNamed)
	ctx.Step(`^"([^"]*)" should be shared with anyone who has the link$`, shouldBeSharedWithAnyone)
	ctx.Step(`^the upload output should contain "([^"]*)"$`, theUploadOutputShouldContain)
}

func aTrimmedFileOfBytes(name string, size int) error {
	return os.WriteFile(filepath.Join(SharedUploadContext.tempDir, name), bytes.Repeat([]byte{0xFF}, size), 0644)
}

func driveAlreadyHolds(name string) error {
	_, err := SharedUploadContext.service.UploadFile(context.Background(), name, "audio/mpeg", "folder", strings.NewReader("old"))
	return err
}

func driveHasFreeStorage(n int) error {
	s := SharedUploadContext.service
	s.limit = s.usage + int64(n)
	return nil
}

func iUpload(name string) error {
	u := SharedUploadContext
	client, err := drive.NewClient(context.Background(), "", drive.WithDriveService(u.service))
	if err != nil {
		return err
	}
	u.err = cmd.RunUploadWithDependencies(
		context.Background(),
		client,
		"folder",
		[]string{filepath.Join(u.tempDir, name)},
		u.output,
	)
	return nil
}

func theUploadShouldSucceed() error {
	if err := SharedUploadContext.err; err != nil {
		return fmt.Errorf("expected upload to succeed, got %v", err)
	}
	return nil
}

func theUploadShouldFailWith(text string) error {
	err := SharedUploadContext.err
	if err == nil || !strings.Contains(err.Error(), text) {
		return fmt.Errorf("expected error containing %q, got %v", text, err)
	}
	return nil
}

func driveShouldHoldFilesNamed(n int, name string) error {
	count := 0
	for _, file := range SharedUploadContext.service.files {
		if file.Name == name {
			count++
		}
	}
	if count != n {
		return fmt.Errorf("expected %d files named %s, found %d", n, name, count)
	}
	return nil
}

func shouldBeSharedWithAnyone(name string) error {
	s := SharedUploadContext.service
	file := s.byName(name)
	if file == nil {
		return fmt.Errorf("%s was not uploaded", name)
	}
	if !s.shared[file.Id] {
		return fmt.Errorf("%s is not shared", name)
	}
	return nil
}

func theUploadOutputShouldContain(text string) error {
	out := SharedUploadContext.output.String()
	if !strings.Contains(out, text) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", text, out)
	}
	return nil
}
