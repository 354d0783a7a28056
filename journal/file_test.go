package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVFile(t *testing.T) {
	t.Parallel()

	trades := []Trade{
		sampleTrade("2024-01-02", "EURUSD", 50),
		sampleTrade("2024-01-03", "XAUUSD", -20),
	}
	trades[0].ID = "A"
	trades[1].ID = "B"

	for _, name := range []string{"trades.csv", "trades.csv.xz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteCSVFile(path, trades))

			_, err := os.Stat(path + ".part")
			assert.True(t, os.IsNotExist(err))

			got, err := ReadCSVFile(path)
			require.NoError(t, err)
			assert.Equal(t, trades, got)
		})
	}
}

func TestCSVFile_Compressed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv.xz")
	require.NoError(t, WriteCSVFile(path, []Trade{sampleTrade("2024-01-02", "EURUSD", 1)}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	// xz stream magic
	assert.Equal(t, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}, raw[:6])
}

func TestReadCSVFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := ReadCSVFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
