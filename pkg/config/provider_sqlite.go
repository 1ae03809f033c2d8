package config

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS stations (
	id   INTEGER PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT
);
CREATE TABLE IF NOT EXISTS storage_postgres (
	id                INTEGER PRIMARY KEY CHECK (id = 1),
	connection_string TEXT NOT NULL,
	max_conns         INTEGER,
	auto_migrate      BOOLEAN DEFAULT 0,
	health_interval   TEXT
);
CREATE TABLE IF NOT EXISTS events_kafka (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	brokers       TEXT NOT NULL,
	topic         TEXT,
	batch_timeout TEXT
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Keys in the settings table
const (
	settingRESTListenAddr     = "rest.listen_addr"
	settingRESTPort           = "rest.port"
	settingRESTCert           = "rest.cert"
	settingRESTKey            = "rest.key"
	settingMaxSearchRangeDays = "climate.max_search_range_days"
	settingPrecipThresholds   = "climate.precip_thresholds"
	settingSnowThresholds     = "climate.snow_thresholds"
	settingLogLevel           = "log.level"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// InitSchema creates the configuration tables if they do not exist
func (s *SQLiteProvider) InitSchema() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create config schema: %w", err)
	}
	return nil
}

// LoadConfig loads the complete configuration from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	stations, err := s.GetStations()
	if err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}
	config.Stations = stations

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	kafka, err := s.getKafka()
	if err != nil {
		return nil, fmt.Errorf("failed to load events config: %w", err)
	}
	config.Events.Kafka = kafka

	settings, err := s.getSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := applySettings(config, settings); err != nil {
		return nil, err
	}

	return config, nil
}

// GetStations returns station configurations
func (s *SQLiteProvider) GetStations() ([]StationData, error) {
	rows, err := s.db.Query(`SELECT id, code, COALESCE(name, '') FROM stations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []StationData
	for rows.Next() {
		var st StationData
		if err := rows.Scan(&st.ID, &st.Code, &st.Name); err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// GetStorageConfig returns storage configuration
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	var (
		pg             PostgresData
		maxConns       sql.NullInt32
		healthInterval sql.NullString
	)
	err := s.db.QueryRow(`SELECT connection_string, max_conns, auto_migrate, health_interval
		FROM storage_postgres WHERE id = 1`).Scan(&pg.ConnectionString, &maxConns, &pg.AutoMigrate, &healthInterval)
	if errors.Is(err, sql.ErrNoRows) {
		return &StorageData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query storage config: %w", err)
	}
	pg.MaxConns = maxConns.Int32
	pg.HealthInterval = healthInterval.String
	return &StorageData{Postgres: &pg}, nil
}

func (s *SQLiteProvider) getKafka() (*KafkaData, error) {
	var brokers string
	var topic, timeout sql.NullString
	err := s.db.QueryRow(`SELECT brokers, topic, batch_timeout FROM events_kafka WHERE id = 1`).
		Scan(&brokers, &topic, &timeout)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &KafkaData{
		Brokers:      splitList(brokers),
		Topic:        topic.String,
		BatchTimeout: timeout.String,
	}, nil
}

func (s *SQLiteProvider) getSettings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

func applySettings(c *ConfigData, settings map[string]string) error {
	var err error
	c.REST.ListenAddr = settings[settingRESTListenAddr]
	c.REST.Cert = settings[settingRESTCert]
	c.REST.Key = settings[settingRESTKey]
	c.Log.Level = settings[settingLogLevel]

	if v, ok := settings[settingRESTPort]; ok {
		if c.REST.Port, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", settingRESTPort, v, err)
		}
	}
	if v, ok := settings[settingMaxSearchRangeDays]; ok {
		if c.Climate.MaxSearchRangeDays, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", settingMaxSearchRangeDays, v, err)
		}
	}
	if c.Climate.PrecipThresholds, err = parseFloats(settings[settingPrecipThresholds]); err != nil {
		return fmt.Errorf("invalid %s: %w", settingPrecipThresholds, err)
	}
	if c.Climate.SnowThresholds, err = parseFloats(settings[settingSnowThresholds]); err != nil {
		return fmt.Errorf("invalid %s: %w", settingSnowThresholds, err)
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	if err := s.InitSchema(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"stations", "storage_postgres", "events_kafka", "settings"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, st := range configData.Stations {
		if _, err := tx.Exec(`INSERT INTO stations (id, code, name) VALUES (?, ?, ?)`,
			st.ID, st.Code, nullString(st.Name)); err != nil {
			return fmt.Errorf("failed to insert station %d: %w", st.ID, err)
		}
	}

	if pg := configData.Storage.Postgres; pg != nil {
		if _, err := tx.Exec(`INSERT INTO storage_postgres (id, connection_string, max_conns, auto_migrate, health_interval)
			VALUES (1, ?, ?, ?, ?)`, pg.ConnectionString, pg.MaxConns, pg.AutoMigrate, nullString(pg.HealthInterval)); err != nil {
			return fmt.Errorf("failed to insert storage config: %w", err)
		}
	}

	if k := configData.Events.Kafka; k != nil {
		if _, err := tx.Exec(`INSERT INTO events_kafka (id, brokers, topic, batch_timeout) VALUES (1, ?, ?, ?)`,
			strings.Join(k.Brokers, ","), nullString(k.Topic), nullString(k.BatchTimeout)); err != nil {
			return fmt.Errorf("failed to insert kafka config: %w", err)
		}
	}

	settings := map[string]string{
		settingRESTListenAddr:   configData.REST.ListenAddr,
		settingRESTCert:         configData.REST.Cert,
		settingRESTKey:          configData.REST.Key,
		settingLogLevel:         configData.Log.Level,
		settingPrecipThresholds: formatFloats(configData.Climate.PrecipThresholds),
		settingSnowThresholds:   formatFloats(configData.Climate.SnowThresholds),
	}
	if configData.REST.Port != 0 {
		settings[settingRESTPort] = strconv.Itoa(configData.REST.Port)
	}
	if configData.Climate.MaxSearchRangeDays != 0 {
		settings[settingMaxSearchRangeDays] = strconv.Itoa(configData.Climate.MaxSearchRangeDays)
	}
	for k, v := range settings {
		if v == "" {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("failed to insert setting %s: %w", k, err)
		}
	}

	return tx.Commit()
}

// IsReadOnly returns false; SaveConfig can write to the database
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloats(s string) ([]float64, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
