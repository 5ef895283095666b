package varigen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFasta = `>1 test chromosome one
ACGTACGTAC
gtacgtacgt
>2
TTTTAAAA
>MT mitochondrial
CCCCC
`

func writeFasta(t *testing.T, name, contents string, compress bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	if compress {
		gz := gzip.NewWriter(f)
		_, err = gz.Write([]byte(contents))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
	} else {
		_, err = f.WriteString(contents)
		require.NoError(t, err)
	}
	return path
}

func TestFastaSourcePlain(t *testing.T) {
	path := writeFasta(t, "ref.fa", testFasta, false)
	src := NewFastaSource(path, []string{"1", "2"})

	length, err := src.Length("1")
	require.NoError(t, err)
	assert.Equal(t, 20, length)

	// Soft-masked (lowercase) bases are uppercased.
	b, err := src.BaseAt("1", 10)
	require.NoError(t, err)
	assert.Equal(t, byte('G'), b)

	b, err = src.BaseAt("2", 0)
	require.NoError(t, err)
	assert.Equal(t, byte('T'), b)
}

func TestFastaSourceGzip(t *testing.T) {
	path := writeFasta(t, "ref.fa.gz", testFasta, true)
	src := NewFastaSource(path, []string{"1"})

	length, err := src.Length("1")
	require.NoError(t, err)
	assert.Equal(t, 20, length)
}

func TestFastaSourceFiltersChromosomes(t *testing.T) {
	path := writeFasta(t, "ref.fa", testFasta, false)
	src := NewFastaSource(path, []string{"1"})

	_, err := src.Length("MT")
	require.ErrorIs(t, err, ErrReferenceAccess)
}

func TestFastaSourceBounds(t *testing.T) {
	path := writeFasta(t, "ref.fa", testFasta, false)
	src := NewFastaSource(path, []string{"2"})

	_, err := src.BaseAt("2", 8)
	require.ErrorIs(t, err, ErrReferenceAccess)
	_, err = src.BaseAt("2", -1)
	require.ErrorIs(t, err, ErrReferenceAccess)
}

func TestFastaSourceMissingFile(t *testing.T) {
	src := NewFastaSource(filepath.Join(t.TempDir(), "nope.fa"), []string{"1"})
	_, err := src.Length("1")
	require.Error(t, err)
}

func TestFastaSourceHeaderNameIsFirstToken(t *testing.T) {
	path := writeFasta(t, "ref.fa", testFasta, false)
	src := NewFastaSource(path, []string{"MT"})

	length, err := src.Length("MT")
	require.NoError(t, err)
	assert.Equal(t, 5, length)
}
