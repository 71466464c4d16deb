package imagestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"storefront/internal/apperr"
)

const MaxImageSize = 5 << 20

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Store persists uploaded product images and returns the reference kept on the product.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Local writes images under <root>/uploads and hands out /uploads/<name> references.
type Local struct {
	root string
}

// NewLocal resolves root to an absolute path so relative roots such as "." still
// pass the containment check in Delete.
func NewLocal(root string) *Local {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}
	return &Local{root: abs}
}

// Save sniffs the content type instead of trusting the file name; filename is only
// used in error messages.
func (l *Local) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload %s: %w", filename, err)
	}
	if len(data) == 0 {
		return "", apperr.Validation("image %s is empty", filename)
	}
	if len(data) > MaxImageSize {
		return "", apperr.Validation("image %s is too large (max 5MB)", filename)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return "", apperr.Validation("unsupported image type %s", mtype.String())
	}

	dir := filepath.Join(l.root, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + mtype.Extension()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return "/uploads/" + name, nil
}

// Delete removes an uploaded image. References outside uploads/ (placeholders,
// external URLs) are rejected, and a missing file is not an error.
func (l *Local) Delete(_ context.Context, ref string) error {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return nil
	}

	cleanRel := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(trimmed, "/")), "/")
	if !strings.HasPrefix(cleanRel, "uploads/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", ref)
	}

	target := filepath.Join(l.root, filepath.FromSlash(cleanRel))
	rel, err := filepath.Rel(l.root, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to delete path outside root: %s", ref)
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsUpload reports whether ref points at a locally stored upload.
func IsUpload(ref string) bool {
	return strings.HasPrefix(strings.TrimPrefix(strings.TrimSpace(ref), "/"), "uploads/")
}
