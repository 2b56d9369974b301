package tarball

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(t *testing.T, blob []byte) map[string]string {
	t.Helper()
	gr, err := gzip.NewReader(bytes.NewReader(blob))
	require.NoError(t, err)
	tr := tar.NewReader(gr)
	out := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		out[hdr.Name] = string(data)
	}
	return out
}

func TestBuildDeterministic(t *testing.T) {
	files := []File{
		{Name: "signed-leases/lease_2.pdf", Data: []byte("two")},
		{Name: "signed-leases/lease_1.pdf", Data: []byte("one")},
	}
	extra := map[string][]byte{"manifest.csv": []byte("lease_id,path\n")}

	a, sumA, err := Build(files, extra)
	require.NoError(t, err)
	b, sumB, err := Build(files, extra)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, sumA, sumB)
	assert.Len(t, sumA, 64)

	got := entries(t, a)
	assert.Equal(t, "one", got["signed-leases/lease_1.pdf"])
	assert.Equal(t, "two", got["signed-leases/lease_2.pdf"])
	assert.Equal(t, "lease_id,path\n", got["manifest.csv"])
}

func TestBuildSanitizesPaths(t *testing.T) {
	blob, _, err := Build([]File{
		{Name: "/abs/path.pdf", Data: []byte("x")},
		{Name: "a/../b.pdf", Data: []byte("y")},
		{Name: ".", Data: []byte("skip")},
	}, nil)
	require.NoError(t, err)

	got := entries(t, blob)
	assert.Equal(t, "x", got["abs/path.pdf"])
	assert.Equal(t, "y", got["b.pdf"])
	assert.Len(t, got, 2)
}
