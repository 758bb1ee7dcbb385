package object

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLocalStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/static", zap.NewNop())
	require.NoError(t, err)
	return store, dir
}

func TestLocalStoreSaveAndDeleteQR(t *testing.T) {
	store, dir := newTestLocalStore(t)
	ctx := context.Background()

	ref, err := store.SaveQR(ctx, []byte("png-bytes"), "owner-1", "Workplace Safety")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, qrDirName+"/"))

	payload, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(ref)))
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), payload)

	require.Equal(t, "/static/"+ref, store.QRURL(ref))

	require.True(t, store.DeleteQR(ctx, ref))
	require.False(t, store.DeleteQR(ctx, ref), "second delete finds nothing")
}

func TestLocalStoreSaveSignatureUsesIdentity(t *testing.T) {
	store, dir := newTestLocalStore(t)

	ref, err := store.SaveSignature(context.Background(), []byte("sig"), "owner-1", "Fire Drill_AB12CD34", "123456")
	require.NoError(t, err)
	require.Equal(t, signatureDirName+"/Fire_Drill_AB12CD34_123456.png", ref)

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(ref)))
	require.NoError(t, err)
}

func TestLocalStoreSignaturesKeyedBySessionFolder(t *testing.T) {
	store, dir := newTestLocalStore(t)
	ctx := context.Background()

	// Same topic and identity, different session folders: neither file may
	// shadow the other.
	first, err := store.SaveSignature(ctx, []byte("first"), "owner-1", "Fire Drill_AB12CD34", "123456")
	require.NoError(t, err)
	second, err := store.SaveSignature(ctx, []byte("second"), "owner-1", "Fire Drill_EE99FF00", "123456")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	payload, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(first)))
	require.NoError(t, err)
	require.Equal(t, []byte("first"), payload)

	require.True(t, store.DeleteSignature(ctx, second))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(first)))
	require.NoError(t, err, "deleting one session's signature leaves the other's")
}

func TestLocalStoreHostileNamesStayInside(t *testing.T) {
	store, dir := newTestLocalStore(t)
	ctx := context.Background()

	ref, err := store.SaveSignature(ctx, []byte("sig"), "owner", "../../etc", "../passwd")
	require.NoError(t, err)

	full := filepath.Join(dir, filepath.FromSlash(ref))
	rel, err := filepath.Rel(dir, full)
	require.NoError(t, err)
	require.False(t, strings.HasPrefix(rel, ".."))

	// The sanitized file exists inside the signatures dir, nowhere else.
	_, err = os.Stat(filepath.Join(dir, signatureDirName, "etc_passwd.png"))
	require.NoError(t, err)
}

func TestLocalStoreRemoveRejectsEscapingRef(t *testing.T) {
	store, dir := newTestLocalStore(t)

	outside := filepath.Join(filepath.Dir(dir), "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep me"), 0o644))

	require.False(t, store.DeleteSignature(context.Background(), "../victim.txt"))
	_, err := os.Stat(outside)
	require.NoError(t, err, "file outside the store must survive")
}

func TestLocalStoreDeleteSessionAssetsIsNoop(t *testing.T) {
	store, _ := newTestLocalStore(t)
	require.True(t, store.DeleteSessionAssets(context.Background(), "owner", "any"))
}

func TestLocalStoreEmptyRef(t *testing.T) {
	store, _ := newTestLocalStore(t)
	require.Equal(t, "", store.QRURL(""))
	require.False(t, store.DeleteQR(context.Background(), ""))
}
