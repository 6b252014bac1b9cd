package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/engtrack/internal/service"
)

func runUsers(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := buildRoot()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func useTempDatabase(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENGTRACK_DATABASE_URL", "sqlite://"+filepath.Join(dir, "engtrack.db"))
	t.Setenv("ENGTRACK_USERS_FILE", filepath.Join(dir, "missing.json"))
	return dir
}

func TestImportCommandReportsCounts(t *testing.T) {
	dir := useTempDatabase(t)
	path := filepath.Join(dir, "usuarios.json")
	body := `{"usuarios": [
		{"login": "ana", "nome": "Ana Lima", "senha": "s3cret", "is_admin": true},
		{"login": "bruno", "nome": "Bruno Reis", "senha": "s3cret"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	out, err := runUsers(t, "import", path)
	require.NoError(t, err)
	require.Equal(t, "imported 2 user(s), skipped 0\n", out)

	out, err = runUsers(t, "import", path)
	require.NoError(t, err)
	require.Equal(t, "imported 0 user(s), skipped 2\n", out)
}

func TestImportCommandFailsOnInvalidFile(t *testing.T) {
	dir := useTempDatabase(t)
	path := filepath.Join(dir, "usuarios.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"usuarios": [{"login": "ana", "senha": ""}]}`), 0o600))

	_, err := runUsers(t, "import", path)
	require.ErrorIs(t, err, service.ErrInvalidUserFile)
}

func TestAdminCommandsFlipRole(t *testing.T) {
	dir := useTempDatabase(t)
	path := filepath.Join(dir, "usuarios.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"users": [{"login": "bruno", "password": "s3cret"}]}`), 0o600))
	_, err := runUsers(t, "import", path)
	require.NoError(t, err)

	out, err := runUsers(t, "grant-admin", "bruno")
	require.NoError(t, err)
	require.Equal(t, "bruno updated\n", out)

	_, err = runUsers(t, "revoke-admin", "bruno")
	require.NoError(t, err)

	_, err = runUsers(t, "grant-admin", "nobody")
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := runUsers(t, "hash-password", "s3cret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(hash, "$2"), hash)
	require.True(t, service.CheckPassword(hash, "s3cret"))
}
