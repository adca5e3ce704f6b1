package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"serotonyl.ru/casino-bot/internal/storage"
	"serotonyl.ru/casino-bot/internal/storage/storagetest"
)

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := Open(filepath.Join(t.TempDir(), "casino.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
