// Package main verifies a combat transcript offline by recomputing every turn
// from the session seed. With -fetch it first downloads the transcript from a
// running server and prints it as YAML; -csv prints the turns as CSV.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/cory-johannsen/zenbeasts/internal/game/combat"
)

func main() {
	file := flag.String("file", "", "transcript file (.json or .yaml)")
	fetch := flag.String("fetch", "", "server base URL to download the transcript from, e.g. http://localhost:8080")
	session := flag.Uint64("session", 0, "session id to fetch")
	asCSV := flag.Bool("csv", false, "print the verified turns as CSV")
	flag.Parse()

	var (
		tr  combat.Transcript
		err error
	)
	switch {
	case *fetch != "":
		tr, err = download(*fetch, *session)
		if err == nil {
			err = combat.WriteTranscriptYAML(os.Stdout, tr)
		}
	case *file != "":
		tr, err = combat.LoadTranscript(*file)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}

	if err := combat.Replay(tr); err != nil {
		fmt.Fprintf(os.Stderr, "session %d: transcript rejected: %v\n", tr.SessionID, err)
		os.Exit(1)
	}
	if *asCSV {
		if err := combat.WriteTurnsCSV(os.Stdout, tr); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Fprintf(os.Stderr, "session %d: %d turns verified, status %s\n", tr.SessionID, len(tr.Turns), tr.Status)
}

func download(base string, id uint64) (combat.Transcript, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(fmt.Sprintf("%s/api/v1/combats/%d/transcript", base, id))
	if err != nil {
		return combat.Transcript{}, fmt.Errorf("fetching transcript: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return combat.Transcript{}, fmt.Errorf("fetching transcript: %s", resp.Status)
	}
	var tr combat.Transcript
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return combat.Transcript{}, fmt.Errorf("decoding transcript: %w", err)
	}
	return tr, nil
}
