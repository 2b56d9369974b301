package seal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSealer(t *testing.T) (*Sealer, string) {
	t.Helper()
	root := t.TempDir()
	store := FSStore{Root: root}
	require.NoError(t, store.Put(context.Background(), "templates/standard_lease.pdf", []byte("LEASE AGREEMENT BODY")))
	return New(TextStamper{}, store, "templates/standard_lease.pdf"), root
}

func TestSealAndVerify(t *testing.T) {
	s, _ := newTestSealer(t)
	ctx := context.Background()

	path, hash, err := s.Seal(ctx, 7, "Alice Tenant", "2024-05-10")
	require.NoError(t, err)
	assert.Equal(t, "signed-leases/lease_7.pdf", path)
	assert.Len(t, hash, 64)

	// хэш пересчитывается из сохранённого артефакта
	require.NoError(t, s.Verify(ctx, path, hash))
}

func TestVerifyDetectsTampering(t *testing.T) {
	s, root := newTestSealer(t)
	ctx := context.Background()

	path, hash, err := s.Seal(ctx, 9, "Bob", "2024-06-01")
	require.NoError(t, err)

	full := filepath.Join(root, filepath.FromSlash(path))
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	data[0] ^= 0x01
	require.NoError(t, os.WriteFile(full, data, 0o644))

	assert.ErrorIs(t, s.Verify(ctx, path, hash), ErrIntegrity)
}

func TestStampContainsSignerAndDate(t *testing.T) {
	out, err := TextStamper{}.Stamp([]byte("BODY"), "Alice", "2024-05-10")
	require.NoError(t, err)
	assert.Contains(t, string(out), "Signed by: Alice")
	assert.Contains(t, string(out), "Date: 2024-05-10")
	assert.Contains(t, string(out), "BODY")
}
