// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// Package journal records committed state transitions in a local sqlite
// database, for inspection after the fact.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

type (
	// Record is one committed transition: which state the component entered,
	// and when.
	Record struct {
		ID         string `json:"id"`
		RunID      string `json:"runId"`
		State      string `json:"state"`
		DeviceTime string `json:"deviceTime"`
		Details    string `json:"details,omitempty"`
	}

	Journal struct {
		dbFilePath string
	}
)

func New(dbFilePath string) *Journal {
	return &Journal{dbFilePath: dbFilePath}
}

// Init creates the transitions table if it does not exist yet.
func (j *Journal) Init() error {
	db, err := j.open()
	if err != nil {
		return err
	}
	defer closeDB(db)

	_, err = db.Exec("CREATE TABLE IF NOT EXISTS transitions(seq INTEGER PRIMARY KEY, json_string TEXT NOT NULL);")
	if err != nil {
		return fmt.Errorf("failed to create transitions table: %w", err)
	}
	return nil
}

// Append stores one transition record, assigning it an id and device time if
// the caller did not.
func (j *Journal) Append(record *Record) error {
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}
	if record.DeviceTime == "" {
		record.DeviceTime = time.Now().Format(time.RFC3339)
	}
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal transition record: %w", err)
	}

	db, err := j.open()
	if err != nil {
		return err
	}
	defer closeDB(db)

	_, err = db.Exec("INSERT INTO transitions (json_string) VALUES (?);", string(recordJSON))
	if err != nil {
		return fmt.Errorf("failed to insert transition record: %w", err)
	}
	return nil
}

// List returns all recorded transitions in commit order, along with the
// highest sequence number seen (-1 when the journal is empty).
func (j *Journal) List() ([]Record, int, error) {
	db, err := j.open()
	if err != nil {
		return nil, -1, err
	}
	defer closeDB(db)

	rows, err := db.Query("SELECT seq, json_string FROM transitions ORDER BY seq;")
	if err != nil {
		return nil, -1, fmt.Errorf("failed to select transitions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Err(closeErr).Msgf("failed to close rows")
		}
	}()

	maxSeq := -1
	var records []Record
	for rows.Next() {
		var recordJSON string
		var seq int
		if err := rows.Scan(&seq, &recordJSON); err != nil {
			return nil, -1, fmt.Errorf("failed to scan transition record: %w", err)
		}
		var record Record
		if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
			return nil, -1, fmt.Errorf("failed to unmarshal transition record: %w", err)
		}
		if maxSeq < seq {
			maxSeq = seq
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, -1, fmt.Errorf("error iterating over rows: %w", err)
	}
	return records, maxSeq, nil
}

// Prune deletes all transitions up to and including the given sequence
// number.
func (j *Journal) Prune(maxSeq int) error {
	db, err := j.open()
	if err != nil {
		return err
	}
	defer closeDB(db)

	_, err = db.Exec("DELETE FROM transitions WHERE seq <= ?;", maxSeq)
	if err != nil {
		return fmt.Errorf("failed to prune transitions: %w", err)
	}
	return nil
}

func (j *Journal) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", j.dbFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Err(err).Msgf("failed to close database")
	}
}
