package object

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	qrDirName        = "qr_codes"
	signatureDirName = "signatures"
)

// LocalStore writes assets under baseDir in two fixed subfolders. Returned
// references are paths relative to baseDir, which double as stable URLs
// under the static file mount.
type LocalStore struct {
	baseDir string
	urlBase string
	log     *zap.Logger
}

// NewLocalStore creates the two subdirectories up front. urlBase is the
// public mount prefix, e.g. "/uploads".
func NewLocalStore(baseDir, urlBase string, log *zap.Logger) (*LocalStore, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		return nil, fmt.Errorf("object base dir is required")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve object base dir: %w", err)
	}
	for _, sub := range []string{qrDirName, signatureDirName} {
		if err := os.MkdirAll(filepath.Join(abs, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create object dir %s: %w", sub, err)
		}
	}
	return &LocalStore{
		baseDir: abs,
		urlBase: strings.TrimRight(urlBase, "/"),
		log:     log,
	}, nil
}

func (l *LocalStore) SaveQR(_ context.Context, png []byte, _, sessionName string) (string, error) {
	// Two random digits keep re-issued QR files from clobbering each other.
	name := fmt.Sprintf("%s_%02d.png", sanitizeComponent(sessionName), randomDigits())
	return l.write(qrDirName, name, png)
}

func (l *LocalStore) SaveSignature(_ context.Context, image []byte, _, sessionName, identityNumber string) (string, error) {
	name := fmt.Sprintf("%s_%s.png", sanitizeComponent(sessionName), sanitizeComponent(identityNumber))
	return l.write(signatureDirName, name, image)
}

// write persists payload under subdir/name after verifying that the joined
// path still resolves inside the intended subdirectory. Sanitization should
// guarantee that already; the check catches any gap it leaves.
func (l *LocalStore) write(subdir, name string, payload []byte) (string, error) {
	dir := filepath.Join(l.baseDir, subdir)
	path := filepath.Join(dir, name)
	if !pathInside(dir, path) {
		return "", fmt.Errorf("object name escapes storage directory: %q", name)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write object %s: %w", name, err)
	}
	return subdir + "/" + name, nil
}

func (l *LocalStore) QRURL(ref string) string        { return l.url(ref) }
func (l *LocalStore) SignatureURL(ref string) string { return l.url(ref) }

func (l *LocalStore) url(ref string) string {
	if ref == "" {
		return ""
	}
	return l.urlBase + "/" + strings.TrimLeft(ref, "/")
}

func (l *LocalStore) DeleteQR(_ context.Context, ref string) bool        { return l.remove(ref) }
func (l *LocalStore) DeleteSignature(_ context.Context, ref string) bool { return l.remove(ref) }

// DeleteSessionAssets is a no-op for the local layout: assets are not
// grouped by session on disk, the cascade deletes them by reference.
func (l *LocalStore) DeleteSessionAssets(context.Context, string, string) bool { return true }

func (l *LocalStore) remove(ref string) bool {
	if ref == "" {
		return false
	}
	path := filepath.Join(l.baseDir, filepath.FromSlash(ref))
	if !pathInside(l.baseDir, path) {
		return false
	}
	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) && l.log != nil {
			l.log.Warn("object delete failed", zap.String("ref", ref), zap.Error(err))
		}
		return false
	}
	return true
}

// pathInside reports whether path resolves under dir after cleaning.
func pathInside(dir, path string) bool {
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func randomDigits() int {
	n, err := rand.Int(rand.Reader, big.NewInt(100))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}
