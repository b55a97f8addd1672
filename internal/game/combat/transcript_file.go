package combat

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// LoadTranscript reads a transcript file. Files ending in .json are decoded
// as JSON and everything else as YAML.
//
// Precondition: path names a readable file.
// Postcondition: Returns the decoded transcript or a non-nil error.
func LoadTranscript(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("reading transcript %s: %w", path, err)
	}
	var t Transcript
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &t)
	} else {
		err = yaml.Unmarshal(data, &t)
	}
	if err != nil {
		return Transcript{}, fmt.Errorf("parsing transcript %s: %w", path, err)
	}
	return t, nil
}

// WriteTranscriptYAML encodes t to w as YAML.
func WriteTranscriptYAML(w io.Writer, t Transcript) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encoding transcript %d: %w", t.SessionID, err)
	}
	return enc.Close()
}

// turnRow is the CSV layout of one TurnRecord.
type turnRow struct {
	Session   uint64 `csv:"session_id"`
	Turn      uint8  `csv:"turn"`
	Side      string `csv:"side"`
	Ability   string `csv:"ability"`
	Trait     uint8  `csv:"trait"`
	Level     uint8  `csv:"level"`
	Effect    uint16 `csv:"effect"`
	Energy    uint8  `csv:"energy_cost"`
	Timestamp int64  `csv:"timestamp"`
}

// WriteTurnsCSV writes one CSV row per recorded turn, with a header.
func WriteTurnsCSV(w io.Writer, t Transcript) error {
	rows := make([]turnRow, 0, len(t.Turns))
	for _, r := range t.Turns {
		rows = append(rows, turnRow{
			Session:   t.SessionID,
			Turn:      r.Turn,
			Side:      r.Side.String(),
			Ability:   r.Ability.String(),
			Trait:     r.Trait,
			Level:     r.Level,
			Effect:    r.Effect,
			Energy:    r.Energy,
			Timestamp: r.Timestamp,
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("encoding turns of session %d: %w", t.SessionID, err)
	}
	return nil
}
