package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fileingest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  token: \"1:abc\"\nstorage:\n  content: memory\n  records: memory\n"), 0o644))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"check-config", "--config", path})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "config ok: grpc :50051, content=memory, records=memory")
}

func TestCheckConfigCommandRejectsMissingToken(t *testing.T) {
	t.Setenv("FILEINGEST_TELEGRAM_TOKEN", "")
	path := filepath.Join(t.TempDir(), "fileingest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  content: memory\n"), 0o644))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"check-config", "--config", path})

	assert.ErrorContains(t, root.Execute(), "telegram.token is required")
}
