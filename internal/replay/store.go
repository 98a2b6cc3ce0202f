// Package replay persists match recordings: the seed, the tick-stamped
// command log, and the final score. A recording plus the same binary is
// enough to re-simulate the match bit for bit.
package replay

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/duxbuse/waryes-sub005/internal/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id TEXT PRIMARY KEY,
	seed TEXT NOT NULL,
	tick_rate INTEGER NOT NULL,
	keyframe_interval INTEGER NOT NULL,
	planner_budget INTEGER NOT NULL,
	map_cols INTEGER NOT NULL,
	map_rows INTEGER NOT NULL,
	battle_tick INTEGER NOT NULL DEFAULT 0,
	final_tick INTEGER NOT NULL DEFAULT 0,
	final_digest INTEGER NOT NULL DEFAULT 0,
	scores TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS commands (
	match_id TEXT NOT NULL,
	tick INTEGER NOT NULL,
	idx INTEGER NOT NULL,
	payload TEXT NOT NULL,
	PRIMARY KEY (match_id, tick, idx)
);
`

// MatchRecord is one stored match header. Map dimensions are kept so a
// replay can rebuild the same terrain the live match ran on.
type MatchRecord struct {
	ID          string
	Config      sim.Config
	MapCols     int
	MapRows     int
	BattleTick  uint64
	FinalTick   uint64
	FinalDigest uint64
	Scores      map[sim.Team]int64
}

// Store is a SQLite-backed recording of matches and their command logs.
type Store struct {
	db *sql.DB
}

// Open creates or opens a recording database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("replay: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// CreateMatch records a new match header before the first tick runs.
func (s *Store) CreateMatch(id string, cfg sim.Config, mapCols, mapRows int) error {
	_, err := s.db.Exec(
		`INSERT INTO matches (id, seed, tick_rate, keyframe_interval, planner_budget, map_cols, map_rows)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, cfg.Seed, cfg.TickRate, cfg.KeyframeInterval, cfg.PlannerBudget, mapCols, mapRows,
	)
	if err != nil {
		return fmt.Errorf("replay: create match %s: %w", id, err)
	}
	return nil
}

// MarkBattleStart records the tick at which the setup phase ended.
func (s *Store) MarkBattleStart(matchID string, tick uint64) error {
	_, err := s.db.Exec(`UPDATE matches SET battle_tick = ? WHERE id = ?`, tick, matchID)
	if err != nil {
		return fmt.Errorf("replay: mark battle start for %s: %w", matchID, err)
	}
	return nil
}

// RecordCommands appends the commands applied at one tick. Index order
// within a tick matches application order.
func (s *Store) RecordCommands(matchID string, tick uint64, commands []sim.Command) error {
	if len(commands) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replay: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO commands (match_id, tick, idx, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("replay: prepare: %w", err)
	}
	defer stmt.Close()

	for i, cmd := range commands {
		payload, err := json.Marshal(cmd)
		if err != nil {
			return fmt.Errorf("replay: encode command %d at tick %d: %w", i, tick, err)
		}
		if _, err := stmt.Exec(matchID, tick, i, string(payload)); err != nil {
			return fmt.Errorf("replay: insert command %d at tick %d: %w", i, tick, err)
		}
	}
	return tx.Commit()
}

// FinishMatch stamps the final tick, digest, and score onto the header.
func (s *Store) FinishMatch(matchID string, finalTick, digest uint64, scores map[sim.Team]int64) error {
	encoded, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("replay: encode scores: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE matches SET final_tick = ?, final_digest = ?, scores = ? WHERE id = ?`,
		finalTick, int64(digest), string(encoded), matchID,
	)
	if err != nil {
		return fmt.Errorf("replay: finish match %s: %w", matchID, err)
	}
	return nil
}

// Match loads one match header.
func (s *Store) Match(id string) (MatchRecord, error) {
	row := s.db.QueryRow(
		`SELECT seed, tick_rate, keyframe_interval, planner_budget, map_cols, map_rows,
		        battle_tick, final_tick, final_digest, scores
		 FROM matches WHERE id = ?`, id,
	)
	var record MatchRecord
	var digest int64
	var scores string
	record.ID = id
	err := row.Scan(
		&record.Config.Seed, &record.Config.TickRate, &record.Config.KeyframeInterval,
		&record.Config.PlannerBudget, &record.MapCols, &record.MapRows,
		&record.BattleTick, &record.FinalTick, &digest, &scores,
	)
	if err != nil {
		return MatchRecord{}, fmt.Errorf("replay: load match %s: %w", id, err)
	}
	record.FinalDigest = uint64(digest)
	record.Scores = make(map[sim.Team]int64)
	if err := json.Unmarshal([]byte(scores), &record.Scores); err != nil {
		return MatchRecord{}, fmt.Errorf("replay: decode scores for %s: %w", id, err)
	}
	return record, nil
}

// Matches lists stored match IDs, newest first.
func (s *Store) Matches() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM matches ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("replay: list matches: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("replay: scan match id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Commands loads the full command log in application order.
func (s *Store) Commands(matchID string) ([]sim.Command, error) {
	rows, err := s.db.Query(
		`SELECT payload FROM commands WHERE match_id = ? ORDER BY tick, idx`, matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("replay: load commands for %s: %w", matchID, err)
	}
	defer rows.Close()

	var commands []sim.Command
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("replay: scan command: %w", err)
		}
		var cmd sim.Command
		if err := json.Unmarshal([]byte(payload), &cmd); err != nil {
			return nil, fmt.Errorf("replay: decode command: %w", err)
		}
		commands = append(commands, cmd)
	}
	return commands, rows.Err()
}
