package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/myquiz/backend/internal/config"
	"github.com/myquiz/backend/internal/store/memory"
	"github.com/myquiz/backend/internal/store/sqlite"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"argument", "", []string{"hash-password", "--cost", "4", "s3cret"}},
		{"stdin", "s3cret\n", []string{"hash-password", "--cost", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, tt.args...)
			require.NoError(t, err)

			hash := strings.TrimSpace(out)
			assert.True(t, strings.HasPrefix(hash, "$2a$04$"), "hash %q", hash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
		})
	}
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := execute(t, "", "hash-password")
	require.Error(t, err)
}

func TestMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "quiz.db")

	out, err := execute(t, "", "migrate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "migrated to version 1")

	out, err = execute(t, "", "migrate", "--path", path)
	require.NoError(t, err, "migrating twice is a no-op")
	assert.Contains(t, out, "version 1")
}

func TestOpenStore(t *testing.T) {
	logger := discardLogger()

	st, err := openStore(context.Background(), &config.Config{StoreDriver: config.DriverMemory}, logger)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, st)

	path := filepath.Join(t.TempDir(), "quiz.db")
	st, err = openStore(context.Background(), &config.Config{StoreDriver: config.DriverSQLite, SQLitePath: path}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })
	assert.IsType(t, &sqlite.Store{}, st)
	require.NoError(t, st.Ping(context.Background()))
}

func TestOpenStoreMongoUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for server selection timeout")
	}
	_, err := openStore(context.Background(), &config.Config{
		StoreDriver: config.DriverMongo,
		MongoURI:    "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200",
	}, discardLogger())
	require.Error(t, err)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
