package combat_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/zenbeasts/internal/game/combat"
)

func TestLoadTranscript_YAML(t *testing.T) {
	tr := recordedMatch(t)
	var buf bytes.Buffer
	require.NoError(t, combat.WriteTranscriptYAML(&buf, tr))
	assert.Contains(t, buf.String(), "status: challenger_won")

	path := filepath.Join(t.TempDir(), "match.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	back, err := combat.LoadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, tr, back)
	assert.NoError(t, combat.Replay(back))
}

func TestLoadTranscript_JSON(t *testing.T) {
	tr := recordedMatch(t)
	raw, err := json.Marshal(tr)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "match.JSON")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	back, err := combat.LoadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, tr, back)
}

func TestLoadTranscript_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := combat.LoadTranscript(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("status: sideways\n"), 0o600))
	_, err = combat.LoadTranscript(bad)
	assert.ErrorContains(t, err, "parsing transcript")
}

func TestWriteTurnsCSV(t *testing.T) {
	tr := recordedMatch(t)
	var buf bytes.Buffer
	require.NoError(t, combat.WriteTurnsCSV(&buf, tr))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1+len(tr.Turns))
	assert.Equal(t, "session_id,turn,side,ability,trait,level,effect,energy_cost,timestamp", lines[0])
	last := tr.Turns[4]
	assert.Equal(t, fmt.Sprintf("%d,4,challenger,strength,%d,%d,%d,%d,%d",
		tr.SessionID, last.Trait, last.Level, last.Effect, last.Energy, last.Timestamp), lines[5])
}
