package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeganHarrison/alleato-core/internal/config"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
)

func TestLocalStoreOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fm"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fm", "rows.json"), []byte(`[]`), 0o644))

	st, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	require.Equal(t, "local", st.Type())

	rc, err := st.Open(context.Background(), "fm/rows.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))

	_, err = st.Open(context.Background(), "fm/missing.json")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	_, err = st.Open(context.Background(), "../etc/passwd")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{})
	require.Error(t, err)
}

func TestBuildEndpoint(t *testing.T) {
	require.Equal(t, "", buildEndpoint("", true))
	require.Equal(t, "https://minio.local:9000", buildEndpoint("minio.local:9000/", true))
	require.Equal(t, "http://minio.local", buildEndpoint("minio.local", false))
	require.Equal(t, "https://s3.example.com", buildEndpoint("https://s3.example.com", false))
}
