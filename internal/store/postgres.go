package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"smart-factory/bridge/internal/config"
	"smart-factory/bridge/internal/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, cfg *config.Config) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxConns)
	db.SetMaxIdleConns(cfg.DBMaxConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return NewPostgresStoreFromDB(db), nil
}

func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertTelemetry writes one row into the factory's telemetry table. Columns
// are sorted so the statement text is stable for a given subsystem.
func (s *PostgresStore) InsertTelemetry(ctx context.Context, partition string, rec *domain.Record) error {
	if partition == "" {
		return errors.New("insert telemetry: empty partition")
	}

	cols := rec.Columns()
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	quoted := make([]string, len(names))
	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		quoted[i] = pgx.Identifier{name}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = cols[name]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{partition}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s failed: %w", partition, err)
	}
	return nil
}

func (s *PostgresStore) UpdateFactoryLastSeen(ctx context.Context, factoryID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE factories SET last_data_received = $1 WHERE id = $2`,
		at, factoryID,
	)
	if err != nil {
		return fmt.Errorf("update factory %d last seen: %w", factoryID, err)
	}
	return nil
}

func (s *PostgresStore) FindOpenAlert(ctx context.Context, factoryID int64, system string, alertType domain.AlertType) (*domain.Alert, error) {
	query := `
		SELECT id, factory_id, system_name, alert_type, severity, message, acknowledged, created_at
		FROM system_alerts
		WHERE factory_id = $1
		  AND system_name = $2
		  AND alert_type = $3
		  AND acknowledged = false
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		a        domain.Alert
		typ      string
		severity string
	)
	err := s.db.QueryRowContext(ctx, query, factoryID, system, string(alertType)).Scan(
		&a.ID,
		&a.FactoryID,
		&a.SystemName,
		&typ,
		&severity,
		&a.Message,
		&a.Acknowledged,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open alert: %w", err)
	}
	a.Type = domain.AlertType(typ)
	a.Severity = domain.AlertSeverity(severity)
	return &a, nil
}

func (s *PostgresStore) InsertAlert(ctx context.Context, alert *domain.Alert) error {
	query := `
		INSERT INTO system_alerts
			(factory_id, system_name, alert_type, severity, message, acknowledged, created_at)
		VALUES
			($1, $2, $3, $4, $5, false, $6)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		alert.FactoryID,
		alert.SystemName,
		string(alert.Type),
		string(alert.Severity),
		alert.Message,
		alert.CreatedAt,
	).Scan(&alert.ID)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateAlert(ctx context.Context, id int64, update domain.AlertUpdate) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE system_alerts SET message = $1, created_at = $2 WHERE id = $3 AND acknowledged = false`,
		update.Message, update.CreatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("update alert %d: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) AcknowledgeAlert(ctx context.Context, id int64, at time.Time, actor string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE system_alerts SET acknowledged = true, acknowledged_at = $1, acknowledged_by = $2 WHERE id = $3 AND acknowledged = false`,
		at, actor, id,
	)
	if err != nil {
		return fmt.Errorf("acknowledge alert %d: %w", id, err)
	}
	return nil
}
