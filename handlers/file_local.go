package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const localUploadDir = "./uploads"

// uploadToLocal writes the file under ./uploads with a uuid-prefixed
// name and returns the serving path.
func uploadToLocal(file multipart.File, filename string) (string, error) {
	if err := os.MkdirAll(localUploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + "_" + filepath.Base(filename)
	dst, err := os.Create(filepath.Join(localUploadDir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return "/uploads/" + name, nil
}
