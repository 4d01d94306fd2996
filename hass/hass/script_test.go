package hass

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestScriptName(t *testing.T) {
	assert.Equal(t, "key_power", ScriptName("KEY_POWER"))
	assert.Equal(t, "vol_up", ScriptName("Vol-Up"))
}

func TestEntityID(t *testing.T) {
	assert.Equal(t, "remote.living_room", EntityID("living_room"))
	assert.Equal(t, "remote.living_room", EntityID("remote.living_room"))
	assert.Equal(t, "remote.media.tv", EntityID("media.tv"))
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, map[string]string{"KEY-POWER": "JgAKAE4TJxMTExMAAsU=", "KEY_MUTE": "JgA="}, "living_room")
	require.NoError(t, err)

	out := buf.String()
	assert.Less(t, strings.Index(out, "key_mute:"), strings.Index(out, "key_power:"))
	assert.Contains(t, out, "alias: KEY-POWER")
	assert.Contains(t, out, "service: remote.send_command")

	var back map[string]Script
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	require.Len(t, back, 2)
	assert.Equal(t, NewScript("KEY-POWER", "JgAKAE4TJxMTExMAAsU=", "remote.living_room"), back["key_power"])
	assert.Equal(t, "b64:JgA=", back["key_mute"].Sequence[0].Data.Command)
}

func TestBuildScriptsDuplicate(t *testing.T) {
	_, err := BuildScripts(map[string]string{"KEY-UP": "a", "key_up": "b"}, "tv")
	assert.ErrorIs(t, err, ErrDuplicateScript)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	err := WriteFile(filepath.Join(dir, "scripts.txt"), map[string]string{"K": "JgA="}, "tv")
	assert.ErrorIs(t, err, ErrBadExtension)

	path := filepath.Join(dir, "scripts.yaml")
	require.NoError(t, WriteFile(path, map[string]string{"K": "JgA="}, "tv"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "entity_id: remote.tv")
	assert.Contains(t, string(data), "command: b64:JgA=")
}
