// Package storage persists parsed telegrams, assembled flight records and
// batch status. ClickHouse holds the append-only telegram archive,
// PostgreSQL the mutable flight record state, and SQLite serves as a
// self-contained store for single-node deployments.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"telegram_parser/internal/telegram"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for the telegram archive.
type ClickHouseDB struct {
	conn driver.Conn
}

// Conn returns the underlying ClickHouse connection for direct queries.
func (d *ClickHouseDB) Conn() driver.Conn {
	return d.conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS telegrams (
			id              String,
			batch_id        LowCardinality(String),
			message_type    LowCardinality(String),
			flight_id       LowCardinality(String),
			aircraft_type   LowCardinality(String),
			airport_code    LowCardinality(String),
			event_time      String,
			latitude        Nullable(Float64),
			longitude       Nullable(Float64),
			region          LowCardinality(String),
			route           String,
			source          LowCardinality(String),
			raw_text        String,
			is_valid        UInt8,
			errors_json     String,
			created_at      DateTime64(3) DEFAULT now64(3)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(created_at)
		ORDER BY (message_type, flight_id, created_at, id)
		SETTINGS index_granularity = 8192`,
	}

	for _, q := range queries {
		if err := d.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	// Add bloom filter index for full-text search (ignore error if already exists).
	_ = d.conn.Exec(ctx, `ALTER TABLE telegrams ADD INDEX IF NOT EXISTS idx_raw_text_bloom raw_text TYPE tokenbf_v1(32768, 3, 0) GRANULARITY 1`)

	return nil
}

// CHTelegram represents an archived telegram row in ClickHouse.
type CHTelegram struct {
	ID           string
	BatchID      string
	MessageType  string
	FlightID     string
	AircraftType string
	AirportCode  string
	EventTime    string
	Latitude     *float64
	Longitude    *float64
	Region       string
	Route        string
	Source       string
	RawText      string
	IsValid      bool
	ErrorsJSON   string
	CreatedAt    time.Time
}

// chRow flattens a parsed message into insertable column values.
func chRow(msg *telegram.ParsedMessage) ([]interface{}, error) {
	errorsJSON, err := json.Marshal(msg.Errors)
	if err != nil {
		return nil, fmt.Errorf("marshal errors: %w", err)
	}

	var eventTime string
	if msg.EventTime != nil {
		eventTime = msg.EventTime.String()
	}
	var lat, lon *float64
	if msg.Coordinates != nil {
		la, lo := msg.Coordinates.Lat, msg.Coordinates.Lon
		lat, lon = &la, &lo
	}

	valid := uint8(0)
	if msg.IsValid() {
		valid = 1
	}

	return []interface{}{
		msg.ID, msg.BatchID, string(msg.Type), msg.FlightID,
		string(msg.AircraftType), msg.AirportCode, eventTime,
		lat, lon, msg.Region, msg.Route, string(msg.Source),
		msg.RawText, valid, string(errorsJSON),
	}, nil
}

const chInsertColumns = `INSERT INTO telegrams (id, batch_id, message_type, flight_id, aircraft_type, airport_code, event_time, latitude, longitude, region, route, source, raw_text, is_valid, errors_json)`

// Insert archives a single parsed telegram.
func (d *ClickHouseDB) Insert(ctx context.Context, msg *telegram.ParsedMessage) error {
	row, err := chRow(msg)
	if err != nil {
		return err
	}
	if err := d.conn.Exec(ctx, chInsertColumns+` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, row...); err != nil {
		return fmt.Errorf("insert telegram: %w", err)
	}
	return nil
}

// InsertBatch archives multiple parsed telegrams efficiently.
func (d *ClickHouseDB) InsertBatch(ctx context.Context, msgs []*telegram.ParsedMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, chInsertColumns)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, msg := range msgs {
		row, err := chRow(msg)
		if err != nil {
			return err
		}
		if err := batch.Append(row...); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// CHQueryParams contains filtering options for querying the archive.
type CHQueryParams struct {
	ID          string
	BatchID     string
	MessageType string
	FlightID    string
	Region      string
	InvalidOnly bool
	FullText    string // LIKE match on raw_text.
	Limit       int
	Offset      int
	OrderBy     string
	OrderDesc   bool
}

// Query retrieves archived telegrams matching the given parameters.
func (d *ClickHouseDB) Query(ctx context.Context, p CHQueryParams) ([]CHTelegram, error) {
	var conditions []string
	var args []interface{}

	if p.ID != "" {
		conditions = append(conditions, "id = ?")
		args = append(args, p.ID)
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
	if p.Region != "" {
		conditions = append(conditions, "region = ?")
		args = append(args, p.Region)
	}
	if p.InvalidOnly {
		conditions = append(conditions, "is_valid = 0")
	}
	if p.FullText != "" {
		conditions = append(conditions, "raw_text LIKE ?")
		args = append(args, "%"+p.FullText+"%")
	}

	query := `SELECT id, batch_id, message_type, flight_id, aircraft_type, airport_code, event_time, latitude, longitude, region, route, source, raw_text, is_valid, errors_json, created_at FROM telegrams`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Order by.
	orderField := "created_at"
	if p.OrderBy != "" {
		switch p.OrderBy {
		case "created_at", "message_type", "flight_id", "region", "batch_id":
			orderField = p.OrderBy
		}
	}
	direction := "ASC"
	if p.OrderDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", orderField, direction)

	// Limit and offset.
	limit := 100
	if p.Limit > 0 {
		limit = p.Limit
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, p.Offset)

	rows, err := d.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query telegrams: %w", err)
	}
	defer rows.Close()

	var telegrams []CHTelegram
	for rows.Next() {
		var t CHTelegram
		var valid uint8
		err := rows.Scan(&t.ID, &t.BatchID, &t.MessageType, &t.FlightID, &t.AircraftType,
			&t.AirportCode, &t.EventTime, &t.Latitude, &t.Longitude, &t.Region,
			&t.Route, &t.Source, &t.RawText, &valid, &t.ErrorsJSON, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		t.IsValid = valid != 0
		telegrams = append(telegrams, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return telegrams, nil
}

// GetByID retrieves a single archived telegram by message id.
func (d *ClickHouseDB) GetByID(ctx context.Context, id string) (*CHTelegram, error) {
	telegrams, err := d.Query(ctx, CHQueryParams{ID: id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(telegrams) == 0 {
		return nil, nil
	}
	return &telegrams[0], nil
}

// CHStats contains aggregate statistics about archived telegrams.
type CHStats struct {
	TotalTelegrams uint64
	ByMessageType  map[string]uint64
	ByRegion       map[string]uint64
	Invalid        uint64
}

// GetStats returns statistics about the telegram archive.
func (d *ClickHouseDB) GetStats(ctx context.Context) (*CHStats, error) {
	stats := &CHStats{
		ByMessageType: make(map[string]uint64),
		ByRegion:      make(map[string]uint64),
	}

	// Total telegrams.
	row := d.conn.QueryRow(ctx, "SELECT count() FROM telegrams")
	if err := row.Scan(&stats.TotalTelegrams); err != nil {
		return nil, err
	}

	// By message type.
	rows, err := d.conn.Query(ctx, "SELECT message_type, count() FROM telegrams GROUP BY message_type ORDER BY count() DESC")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var typ string
		var count uint64
		if err := rows.Scan(&typ, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan message type stats: %w", err)
		}
		stats.ByMessageType[typ] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate message type stats: %w", err)
	}
	rows.Close()

	// By region.
	rows, err = d.conn.Query(ctx, "SELECT region, count() FROM telegrams WHERE region != '' GROUP BY region ORDER BY count() DESC LIMIT 20")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var region string
		var count uint64
		if err := rows.Scan(&region, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan region stats: %w", err)
		}
		stats.ByRegion[region] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate region stats: %w", err)
	}
	rows.Close()

	// Invalid telegrams.
	row = d.conn.QueryRow(ctx, "SELECT count() FROM telegrams WHERE is_valid = 0")
	if err := row.Scan(&stats.Invalid); err != nil {
		return nil, err
	}

	return stats, nil
}

// Count returns the total number of telegrams, optionally filtered by
// message type.
func (d *ClickHouseDB) Count(ctx context.Context, messageType string) (uint64, error) {
	var count uint64
	var err error
	if messageType != "" {
		row := d.conn.QueryRow(ctx, "SELECT count() FROM telegrams WHERE message_type = ?", messageType)
		err = row.Scan(&count)
	} else {
		row := d.conn.QueryRow(ctx, "SELECT count() FROM telegrams")
		err = row.Scan(&count)
	}
	return count, err
}

// CountByType returns telegram counts grouped by message type.
func (d *ClickHouseDB) CountByType(ctx context.Context) (map[string]uint64, error) {
	counts := make(map[string]uint64)
	rows, err := d.conn.Query(ctx, "SELECT message_type, count() FROM telegrams GROUP BY message_type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var typ string
		var count uint64
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, fmt.Errorf("scan count by type: %w", err)
		}
		counts[typ] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate count by type: %w", err)
	}
	return counts, nil
}

// Distinct returns distinct values for a given column.
func (d *ClickHouseDB) Distinct(ctx context.Context, column string) ([]string, error) {
	// Validate column name to prevent SQL injection.
	validColumns := map[string]bool{
		"message_type":  true,
		"flight_id":     true,
		"airport_code":  true,
		"region":        true,
		"aircraft_type": true,
	}
	if !validColumns[column] {
		return nil, fmt.Errorf("invalid column: %s", column)
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM telegrams WHERE %s != '' ORDER BY %s", column, column, column)
	rows, err := d.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct values: %w", err)
	}
	return values, nil
}
