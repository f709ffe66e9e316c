package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"telegram_parser/internal/assembler"
	"telegram_parser/internal/batch"
	"telegram_parser/internal/telegram"
)

// LocalTelegram represents an archived telegram row in SQLite.
type LocalTelegram struct {
	RowID       int64
	MessageID   string
	BatchID     string
	MessageType string
	FlightID    string
	AirportCode string
	Region      string
	Source      string
	RawText     string
	IsValid     bool
	ErrorsJSON  string
	CreatedAt   time.Time
}

// LocalDB wraps a SQLite database for single-node deployments, covering
// the telegram archive, flight records and batch status in one file.
type LocalDB struct {
	db *sql.DB
}

// OpenLocal opens or creates a SQLite database at the given path.
func OpenLocal(path string) (*LocalDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createLocalSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &LocalDB{db: db}, nil
}

// Close closes the database connection.
func (d *LocalDB) Close() error {
	return d.db.Close()
}

// createLocalSchema creates the database tables and indices.
func createLocalSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS telegrams (
		rowid INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL UNIQUE,
		batch_id TEXT,
		message_type TEXT NOT NULL,
		flight_id TEXT,
		airport_code TEXT,
		region TEXT,
		source TEXT,
		raw_text TEXT NOT NULL,
		is_valid INTEGER NOT NULL DEFAULT 1,
		errors_json TEXT,
		created_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_telegrams_type ON telegrams(message_type);
	CREATE INDEX IF NOT EXISTS idx_telegrams_flight ON telegrams(flight_id);
	CREATE INDEX IF NOT EXISTS idx_telegrams_batch ON telegrams(batch_id);
	CREATE INDEX IF NOT EXISTS idx_telegrams_region ON telegrams(region);

	CREATE TABLE IF NOT EXISTS flight_records (
		flight_id TEXT PRIMARY KEY,
		aircraft_type TEXT NOT NULL,
		departure_airport TEXT,
		departure_time TEXT,
		arrival_airport TEXT,
		arrival_time TEXT,
		duration_minutes INTEGER,
		region_departure TEXT,
		region_arrival TEXT,
		distance_km REAL,
		route TEXT,
		date_of_flight TEXT,
		operator_name TEXT,
		flight_purpose TEXT,
		state TEXT NOT NULL,
		prior_state TEXT,
		is_valid INTEGER NOT NULL DEFAULT 1,
		record_json TEXT NOT NULL,
		updated_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_flight_records_state ON flight_records(state);

	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		total INTEGER NOT NULL,
		processed INTEGER NOT NULL,
		valid INTEGER NOT NULL,
		invalid INTEGER NOT NULL,
		error_message TEXT,
		source TEXT,
		start_time TEXT NOT NULL,
		end_time TEXT
	);

	-- FTS5 virtual table for full-text search on raw telegram text.
	CREATE VIRTUAL TABLE IF NOT EXISTS telegrams_fts USING fts5(
		raw_text,
		content='telegrams',
		content_rowid='rowid'
	);

	-- Triggers to keep FTS index in sync.
	CREATE TRIGGER IF NOT EXISTS telegrams_ai AFTER INSERT ON telegrams BEGIN
		INSERT INTO telegrams_fts(rowid, raw_text) VALUES (new.rowid, new.raw_text);
	END;

	CREATE TRIGGER IF NOT EXISTS telegrams_ad AFTER DELETE ON telegrams BEGIN
		INSERT INTO telegrams_fts(telegrams_fts, rowid, raw_text) VALUES('delete', old.rowid, old.raw_text);
	END;

	CREATE TRIGGER IF NOT EXISTS telegrams_au AFTER UPDATE ON telegrams BEGIN
		INSERT INTO telegrams_fts(telegrams_fts, rowid, raw_text) VALUES('delete', old.rowid, old.raw_text);
		INSERT INTO telegrams_fts(rowid, raw_text) VALUES (new.rowid, new.raw_text);
	END;
	`

	_, err := db.Exec(schema)
	return err
}

// SaveTelegram archives a parsed telegram. Re-inserting the same message
// id replaces the previous row.
func (d *LocalDB) SaveTelegram(msg *telegram.ParsedMessage) (int64, error) {
	errorsJSON, err := json.Marshal(msg.Errors)
	if err != nil {
		return 0, fmt.Errorf("marshal errors: %w", err)
	}

	valid := 0
	if msg.IsValid() {
		valid = 1
	}

	result, err := d.db.Exec(`
		INSERT INTO telegrams (message_id, batch_id, message_type, flight_id, airport_code, region, source, raw_text, is_valid, errors_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (message_id) DO UPDATE SET
			batch_id = excluded.batch_id,
			message_type = excluded.message_type,
			flight_id = excluded.flight_id,
			airport_code = excluded.airport_code,
			region = excluded.region,
			source = excluded.source,
			raw_text = excluded.raw_text,
			is_valid = excluded.is_valid,
			errors_json = excluded.errors_json
	`, msg.ID, msg.BatchID, string(msg.Type), msg.FlightID, msg.AirportCode,
		msg.Region, string(msg.Source), msg.RawText, valid, string(errorsJSON))
	if err != nil {
		return 0, fmt.Errorf("insert telegram: %w", err)
	}

	return result.LastInsertId()
}

// LocalQueryParams contains filtering options for querying telegrams.
type LocalQueryParams struct {
	MessageID   string // Filter by message id (exact match).
	BatchID     string // Filter by batch id (exact match).
	MessageType string // Filter by message type (exact match).
	FlightID    string // Filter by flight id (exact match).
	InvalidOnly bool   // Only show telegrams with validation errors.
	FullText    string // FTS5 full-text search on raw_text.
	Limit       int    // Max results (default 100).
	Offset      int    // Pagination offset.
}

// QueryTelegrams retrieves archived telegrams matching the parameters.
func (d *LocalDB) QueryTelegrams(p LocalQueryParams) ([]LocalTelegram, error) {
	var conditions []string
	var args []interface{}

	if p.MessageID != "" {
		conditions = append(conditions, "message_id = ?")
		args = append(args, p.MessageID)
	}
	if p.BatchID != "" {
		conditions = append(conditions, "batch_id = ?")
		args = append(args, p.BatchID)
	}
	if p.MessageType != "" {
		conditions = append(conditions, "message_type = ?")
		args = append(args, p.MessageType)
	}
	if p.FlightID != "" {
		conditions = append(conditions, "flight_id = ?")
		args = append(args, p.FlightID)
	}
	if p.InvalidOnly {
		conditions = append(conditions, "is_valid = 0")
	}

	// FTS5 search requires a JOIN with the virtual table.
	var query string
	if p.FullText != "" {
		query = `SELECT t.rowid, t.message_id, t.batch_id, t.message_type, t.flight_id,
				t.airport_code, t.region, t.source, t.raw_text, t.is_valid, t.errors_json, t.created_at
				FROM telegrams t
				JOIN telegrams_fts fts ON t.rowid = fts.rowid
				WHERE telegrams_fts MATCH ?`
		args = append([]interface{}{p.FullText}, args...)
		if len(conditions) > 0 {
			query += " AND " + strings.Join(conditions, " AND ")
		}
	} else {
		query = `SELECT rowid, message_id, batch_id, message_type, flight_id,
				airport_code, region, source, raw_text, is_valid, errors_json, created_at
				FROM telegrams`
		if len(conditions) > 0 {
			query += " WHERE " + strings.Join(conditions, " AND ")
		}
	}

	limit := 100
	if p.Limit > 0 {
		limit = p.Limit
	}
	query += fmt.Sprintf(" ORDER BY rowid ASC LIMIT %d OFFSET %d", limit, p.Offset)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query telegrams: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var telegrams []LocalTelegram
	for rows.Next() {
		var t LocalTelegram
		var batchID, flightID, airport, region, source, errorsJSON, createdAt sql.NullString
		var valid sql.NullInt64

		err := rows.Scan(&t.RowID, &t.MessageID, &batchID, &t.MessageType, &flightID,
			&airport, &region, &source, &t.RawText, &valid, &errorsJSON, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		t.BatchID = batchID.String
		t.FlightID = flightID.String
		t.AirportCode = airport.String
		t.Region = region.String
		t.Source = source.String
		t.ErrorsJSON = errorsJSON.String
		t.IsValid = valid.Int64 == 1
		if createdAt.Valid {
			t.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt.String)
		}

		telegrams = append(telegrams, t)
	}

	return telegrams, rows.Err()
}

// SaveFlightRecord inserts or updates an assembled flight record. The full
// record is kept as JSON alongside the queryable columns.
func (d *LocalDB) SaveFlightRecord(rec assembler.FlightRecord) error {
	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	var depTime, arrTime string
	if rec.DepartureTime != nil {
		depTime = rec.DepartureTime.String()
	}
	if rec.ArrivalTime != nil {
		arrTime = rec.ArrivalTime.String()
	}
	valid := 0
	if rec.IsValid {
		valid = 1
	}

	_, err = d.db.Exec(`
		INSERT INTO flight_records (flight_id, aircraft_type, departure_airport, departure_time,
			arrival_airport, arrival_time, duration_minutes, region_departure, region_arrival,
			distance_km, route, date_of_flight, operator_name, flight_purpose,
			state, prior_state, is_valid, record_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT (flight_id) DO UPDATE SET
			aircraft_type = excluded.aircraft_type,
			departure_airport = excluded.departure_airport,
			departure_time = excluded.departure_time,
			arrival_airport = excluded.arrival_airport,
			arrival_time = excluded.arrival_time,
			duration_minutes = excluded.duration_minutes,
			region_departure = excluded.region_departure,
			region_arrival = excluded.region_arrival,
			distance_km = excluded.distance_km,
			route = excluded.route,
			date_of_flight = excluded.date_of_flight,
			operator_name = excluded.operator_name,
			flight_purpose = excluded.flight_purpose,
			state = excluded.state,
			prior_state = excluded.prior_state,
			is_valid = excluded.is_valid,
			record_json = excluded.record_json,
			updated_at = excluded.updated_at
	`, rec.FlightID, string(rec.AircraftType), rec.DepartureAirport, depTime,
		rec.ArrivalAirport, arrTime, rec.DurationMinutes, rec.RegionDeparture, rec.RegionArrival,
		rec.DistanceKm, rec.Route, rec.DateOfFlight, rec.OperatorName, rec.FlightPurpose,
		string(rec.State), string(rec.PriorState), valid, string(recordJSON))
	if err != nil {
		return fmt.Errorf("upsert flight record: %w", err)
	}
	return nil
}

// GetFlightRecord retrieves a flight record by flight id.
func (d *LocalDB) GetFlightRecord(flightID string) (*assembler.FlightRecord, error) {
	var recordJSON string
	err := d.db.QueryRow(`SELECT record_json FROM flight_records WHERE flight_id = ?`, flightID).Scan(&recordJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec assembler.FlightRecord
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

// ListFlightRecords retrieves flight records, optionally filtered by state.
func (d *LocalDB) ListFlightRecords(state string, limit int) ([]assembler.FlightRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.db.Query(`
		SELECT record_json FROM flight_records
		WHERE (? = '' OR state = ?)
		ORDER BY updated_at DESC LIMIT ?
	`, state, state, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []assembler.FlightRecord
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, err
		}
		var rec assembler.FlightRecord
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveBatch inserts or updates a batch status snapshot.
func (d *LocalDB) SaveBatch(snap batch.Snapshot, source string) error {
	var endTime interface{}
	if snap.EndTime != nil {
		endTime = snap.EndTime.Format(time.RFC3339)
	}
	_, err := d.db.Exec(`
		INSERT INTO batches (id, status, total, processed, valid, invalid, error_message, source, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			processed = excluded.processed,
			valid = excluded.valid,
			invalid = excluded.invalid,
			error_message = excluded.error_message,
			end_time = excluded.end_time
	`, snap.ID, string(snap.Status), snap.Total, snap.Processed, snap.Valid, snap.Invalid,
		snap.ErrorMessage, source, snap.StartTime.Format(time.RFC3339), endTime)
	return err
}

// GetBatch retrieves a batch status snapshot by id.
func (d *LocalDB) GetBatch(batchID string) (*batch.Snapshot, error) {
	var snap batch.Snapshot
	var status string
	var errMsg, source, startTime, endTime sql.NullString
	err := d.db.QueryRow(`
		SELECT id, status, total, processed, valid, invalid, error_message, source, start_time, end_time
		FROM batches WHERE id = ?
	`, batchID).Scan(&snap.ID, &status, &snap.Total, &snap.Processed, &snap.Valid, &snap.Invalid,
		&errMsg, &source, &startTime, &endTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap.Status = batch.Status(status)
	snap.ErrorMessage = errMsg.String
	if startTime.Valid {
		snap.StartTime, _ = time.Parse(time.RFC3339, startTime.String)
	}
	if endTime.Valid {
		t, perr := time.Parse(time.RFC3339, endTime.String)
		if perr == nil {
			snap.EndTime = &t
		}
	}
	return &snap, nil
}

// LocalStats contains aggregate statistics about the local archive.
type LocalStats struct {
	TotalTelegrams int
	ByMessageType  map[string]int
	ByRegion       map[string]int
	Invalid        int
	FlightRecords  int
}

// GetStats returns statistics about the local archive.
func (d *LocalDB) GetStats() (*LocalStats, error) {
	stats := &LocalStats{
		ByMessageType: make(map[string]int),
		ByRegion:      make(map[string]int),
	}

	row := d.db.QueryRow("SELECT COUNT(*) FROM telegrams")
	if err := row.Scan(&stats.TotalTelegrams); err != nil {
		return nil, err
	}

	rows, err := d.db.Query("SELECT message_type, COUNT(*) FROM telegrams GROUP BY message_type ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByMessageType[typ] = count
	}
	_ = rows.Close()

	rows, err = d.db.Query("SELECT region, COUNT(*) FROM telegrams WHERE region != '' GROUP BY region ORDER BY COUNT(*) DESC LIMIT 20")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var region string
		var count int
		if err := rows.Scan(&region, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByRegion[region] = count
	}
	_ = rows.Close()

	row = d.db.QueryRow("SELECT COUNT(*) FROM telegrams WHERE is_valid = 0")
	if err := row.Scan(&stats.Invalid); err != nil {
		return nil, err
	}

	row = d.db.QueryRow("SELECT COUNT(*) FROM flight_records")
	if err := row.Scan(&stats.FlightRecords); err != nil {
		return nil, err
	}

	return stats, nil
}

// CountByType returns telegram counts grouped by message type.
func (d *LocalDB) CountByType() (map[string]int, error) {
	counts := make(map[string]int)
	rows, err := d.db.Query("SELECT message_type, COUNT(*) FROM telegrams GROUP BY message_type")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, err
		}
		counts[typ] = count
	}
	return counts, rows.Err()
}
