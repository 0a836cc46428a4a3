package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteLedgerRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer l.Close()

	has, err := l.Contains(ctx, "100")
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, l.Add(ctx, "100"))
	has, err = l.Contains(ctx, "100")
	require.NoError(t, err)
	require.True(t, has)

	// Re-adding is a harmless no-op.
	require.NoError(t, l.Add(ctx, "100"))
	n, err := l.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSQLiteLedgerSurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, l.Add(ctx, "7"))
	require.NoError(t, l.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	has, err := reopened.Contains(ctx, "7")
	require.NoError(t, err)
	require.True(t, has)
}

func TestFileLedgerRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ids.txt")

	l, err := OpenFile(path)
	require.NoError(t, err)
	defer l.Close()

	has, err := l.Contains(ctx, "200")
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, l.Add(ctx, "200"))
	require.NoError(t, l.Add(ctx, "200"))
	require.NoError(t, l.Add(ctx, "201"))

	n, err := l.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestFileLedgerSurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ids.txt")

	l, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, l.Add(ctx, "300"))
	require.NoError(t, l.Close())

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	defer reopened.Close()

	has, err := reopened.Contains(ctx, "300")
	require.NoError(t, err)
	require.True(t, has)

	has, err = reopened.Contains(ctx, "999")
	require.NoError(t, err)
	require.False(t, has)
}
