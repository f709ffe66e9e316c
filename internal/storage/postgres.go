package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram_parser/internal/assembler"
	"telegram_parser/internal/batch"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB wraps a PostgreSQL connection pool for flight record and
// batch state storage.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// Pool returns the underlying connection pool for advanced operations.
func (d *PostgresDB) Pool() *pgxpool.Pool {
	return d.pool
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	-- Assembled flight records, one row per flight id, upserted on every
	-- mutating telegram.
	CREATE TABLE IF NOT EXISTS flight_records (
		flight_id           TEXT PRIMARY KEY,
		aircraft_type       TEXT NOT NULL,
		departure_airport   TEXT,
		departure_time      TEXT,
		arrival_airport     TEXT,
		arrival_time        TEXT,
		duration_minutes    INTEGER,
		departure_lat       DOUBLE PRECISION,
		departure_lon       DOUBLE PRECISION,
		arrival_lat         DOUBLE PRECISION,
		arrival_lon         DOUBLE PRECISION,
		region_departure    TEXT,
		region_arrival      TEXT,
		distance_km         DOUBLE PRECISION,
		route               TEXT,
		date_of_flight      TEXT,
		operator_name       TEXT,
		flight_purpose      TEXT,
		state               TEXT NOT NULL,
		prior_state         TEXT,
		is_valid            BOOLEAN NOT NULL DEFAULT TRUE,
		message_ids         JSONB,
		first_seen          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_flight_records_state ON flight_records(state);
	CREATE INDEX IF NOT EXISTS idx_flight_records_region ON flight_records(region_departure);
	CREATE INDEX IF NOT EXISTS idx_flight_records_updated ON flight_records(updated_at);

	-- Batch status snapshots.
	CREATE TABLE IF NOT EXISTS batches (
		id              TEXT PRIMARY KEY,
		status          TEXT NOT NULL,
		total           INTEGER NOT NULL,
		processed       INTEGER NOT NULL,
		valid           INTEGER NOT NULL,
		invalid         INTEGER NOT NULL,
		error_message   TEXT,
		source          TEXT,
		start_time      TIMESTAMPTZ NOT NULL,
		end_time        TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_batches_status ON batches(status);
	CREATE INDEX IF NOT EXISTS idx_batches_start ON batches(start_time);
	`

	_, err := d.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// UpsertFlightRecord inserts or updates an assembled flight record.
func (d *PostgresDB) UpsertFlightRecord(ctx context.Context, rec assembler.FlightRecord) error {
	var depTime, arrTime string
	if rec.DepartureTime != nil {
		depTime = rec.DepartureTime.String()
	}
	if rec.ArrivalTime != nil {
		arrTime = rec.ArrivalTime.String()
	}
	var depLat, depLon, arrLat, arrLon *float64
	if rec.DepartureCoordinates != nil {
		depLat, depLon = &rec.DepartureCoordinates.Lat, &rec.DepartureCoordinates.Lon
	}
	if rec.ArrivalCoordinates != nil {
		arrLat, arrLon = &rec.ArrivalCoordinates.Lat, &rec.ArrivalCoordinates.Lon
	}
	messageIDs, err := json.Marshal(rec.ContributingMessageIDs)
	if err != nil {
		return fmt.Errorf("marshal message ids: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO flight_records (flight_id, aircraft_type, departure_airport, departure_time,
			arrival_airport, arrival_time, duration_minutes,
			departure_lat, departure_lon, arrival_lat, arrival_lon,
			region_departure, region_arrival, distance_km,
			route, date_of_flight, operator_name, flight_purpose,
			state, prior_state, is_valid, message_ids, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, NOW())
		ON CONFLICT (flight_id) DO UPDATE SET
			aircraft_type = EXCLUDED.aircraft_type,
			departure_airport = EXCLUDED.departure_airport,
			departure_time = EXCLUDED.departure_time,
			arrival_airport = EXCLUDED.arrival_airport,
			arrival_time = EXCLUDED.arrival_time,
			duration_minutes = EXCLUDED.duration_minutes,
			departure_lat = EXCLUDED.departure_lat,
			departure_lon = EXCLUDED.departure_lon,
			arrival_lat = EXCLUDED.arrival_lat,
			arrival_lon = EXCLUDED.arrival_lon,
			region_departure = EXCLUDED.region_departure,
			region_arrival = EXCLUDED.region_arrival,
			distance_km = EXCLUDED.distance_km,
			route = EXCLUDED.route,
			date_of_flight = EXCLUDED.date_of_flight,
			operator_name = EXCLUDED.operator_name,
			flight_purpose = EXCLUDED.flight_purpose,
			state = EXCLUDED.state,
			prior_state = EXCLUDED.prior_state,
			is_valid = EXCLUDED.is_valid,
			message_ids = EXCLUDED.message_ids,
			updated_at = NOW()
	`, rec.FlightID, string(rec.AircraftType), rec.DepartureAirport, depTime,
		rec.ArrivalAirport, arrTime, rec.DurationMinutes,
		depLat, depLon, arrLat, arrLon,
		rec.RegionDeparture, rec.RegionArrival, rec.DistanceKm,
		rec.Route, rec.DateOfFlight, rec.OperatorName, rec.FlightPurpose,
		string(rec.State), string(rec.PriorState), rec.IsValid, messageIDs)
	return err
}

// PGFlightRecord is a flight record row read back from PostgreSQL.
type PGFlightRecord struct {
	FlightID         string
	AircraftType     string
	DepartureAirport string
	DepartureTime    string
	ArrivalAirport   string
	ArrivalTime      string
	DurationMinutes  *int
	DepartureLat     *float64
	DepartureLon     *float64
	ArrivalLat       *float64
	ArrivalLon       *float64
	RegionDeparture  string
	RegionArrival    string
	DistanceKm       *float64
	Route            string
	DateOfFlight     string
	OperatorName     string
	FlightPurpose    string
	State            string
	PriorState       string
	IsValid          bool
	MessageIDs       []string
	FirstSeen        time.Time
	UpdatedAt        time.Time
}

const pgRecordColumns = `flight_id, aircraft_type, departure_airport, departure_time,
	arrival_airport, arrival_time, duration_minutes,
	departure_lat, departure_lon, arrival_lat, arrival_lon,
	region_departure, region_arrival, distance_km,
	route, date_of_flight, operator_name, flight_purpose,
	state, prior_state, is_valid, message_ids, first_seen, updated_at`

func scanPGRecord(row pgx.Row) (*PGFlightRecord, error) {
	var r PGFlightRecord
	var messageIDs []byte
	err := row.Scan(&r.FlightID, &r.AircraftType, &r.DepartureAirport, &r.DepartureTime,
		&r.ArrivalAirport, &r.ArrivalTime, &r.DurationMinutes,
		&r.DepartureLat, &r.DepartureLon, &r.ArrivalLat, &r.ArrivalLon,
		&r.RegionDeparture, &r.RegionArrival, &r.DistanceKm,
		&r.Route, &r.DateOfFlight, &r.OperatorName, &r.FlightPurpose,
		&r.State, &r.PriorState, &r.IsValid, &messageIDs, &r.FirstSeen, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(messageIDs, &r.MessageIDs)
	return &r, nil
}

// GetFlightRecord retrieves a flight record by flight id.
func (d *PostgresDB) GetFlightRecord(ctx context.Context, flightID string) (*PGFlightRecord, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT `+pgRecordColumns+` FROM flight_records WHERE flight_id = $1`, flightID)
	rec, err := scanPGRecord(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListFlightRecords retrieves flight records, optionally filtered by state
// and departure region.
func (d *PostgresDB) ListFlightRecords(ctx context.Context, state, region string, limit int) ([]PGFlightRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.pool.Query(ctx, `
		SELECT `+pgRecordColumns+`
		FROM flight_records
		WHERE ($1 = '' OR state = $1)
		  AND ($2 = '' OR region_departure = $2)
		ORDER BY updated_at DESC
		LIMIT $3
	`, state, region, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PGFlightRecord
	for rows.Next() {
		rec, err := scanPGRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// CountByState returns flight record counts grouped by state.
func (d *PostgresDB) CountByState(ctx context.Context) (map[string]int, error) {
	rows, err := d.pool.Query(ctx, `SELECT state, count(*) FROM flight_records GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		counts[state] = count
	}
	return counts, rows.Err()
}

// SaveBatch inserts or updates a batch status snapshot.
func (d *PostgresDB) SaveBatch(ctx context.Context, snap batch.Snapshot, source string) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO batches (id, status, total, processed, valid, invalid, error_message, source, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			processed = EXCLUDED.processed,
			valid = EXCLUDED.valid,
			invalid = EXCLUDED.invalid,
			error_message = EXCLUDED.error_message,
			end_time = EXCLUDED.end_time
	`, snap.ID, string(snap.Status), snap.Total, snap.Processed, snap.Valid, snap.Invalid,
		snap.ErrorMessage, source, snap.StartTime, snap.EndTime)
	return err
}

// GetBatch retrieves a batch status snapshot by id.
func (d *PostgresDB) GetBatch(ctx context.Context, batchID string) (*batch.Snapshot, error) {
	var snap batch.Snapshot
	var status, errMsg, source string
	err := d.pool.QueryRow(ctx, `
		SELECT id, status, total, processed, valid, invalid, COALESCE(error_message, ''), COALESCE(source, ''), start_time, end_time
		FROM batches WHERE id = $1
	`, batchID).Scan(&snap.ID, &status, &snap.Total, &snap.Processed, &snap.Valid, &snap.Invalid,
		&errMsg, &source, &snap.StartTime, &snap.EndTime)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap.Status = batch.Status(status)
	snap.ErrorMessage = errMsg
	return &snap, nil
}
