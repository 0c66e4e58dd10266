package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMessage(t *testing.T) {
	dir := t.TempDir()

	update := filepath.Join(dir, "update.json")
	require.NoError(t, os.WriteFile(update, []byte(`{"update_id":1,"message":{"message_id":5,"document":{"file_id":"BQAC","file_name":"a.pdf","mime_type":"application/pdf","file_size":10}}}`), 0o644))
	msg, err := readMessage(update)
	require.NoError(t, err)
	require.NotNil(t, msg.Document)
	assert.Equal(t, "BQAC", msg.Document.FileID)
	assert.Equal(t, 10, msg.Document.FileSize)

	bare := filepath.Join(dir, "message.json")
	require.NoError(t, os.WriteFile(bare, []byte(`{"message_id":6,"photo":[{"file_id":"s","width":90,"height":90},{"file_id":"l","width":800,"height":800}]}`), 0o644))
	msg, err = readMessage(bare)
	require.NoError(t, err)
	require.Len(t, msg.Photo, 2)
	assert.Equal(t, "s", msg.Photo[0].FileID)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"message_id":`), 0o644))
	_, err = readMessage(broken)
	assert.Error(t, err)

	_, err = readMessage(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"document", "photo", "get"})
}
