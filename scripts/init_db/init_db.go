package main

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"smart-factory/bridge/internal/config"
	"smart-factory/bridge/internal/domain"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode,
	)

	ctx := context.Background()

	fmt.Println("Connecting to PostgreSQL...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure PostgreSQL is running:\n  docker-compose up -d postgres", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_factories_table(ctx, conn, cfg)
	step2_telemetry_tables(ctx, conn, cfg)
	step3_alerts_table(ctx, conn)
	step4_indexes(ctx, conn, cfg)
	step5_verify(ctx, conn, cfg)

	fmt.Println("\n✅ Database initialised successfully")
	fmt.Println("   Run next: go run ./scripts/seed_redis")
}

// ─────────────────────────────────────────────────────────────
// Step 1: factories table
// ─────────────────────────────────────────────────────────────
func step1_factories_table(ctx context.Context, conn *pgx.Conn, cfg *config.Config) {
	fmt.Println("\n── Step 1: factories table ─────────────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS factories (
			id                  BIGINT       PRIMARY KEY,
			factory_key         TEXT         NOT NULL UNIQUE,
			-- touched after every stored reading
			last_data_received  TIMESTAMPTZ
		);
	`, "factories table created")

	for _, key := range sortedKeys(cfg.FactoryIDs) {
		execOrFatal(ctx, conn,
			`INSERT INTO factories (id, factory_key) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING;`,
			fmt.Sprintf("factory %-12s → id %d", key, cfg.FactoryIDs[key]),
			cfg.FactoryIDs[key], key,
		)
	}
}

// ─────────────────────────────────────────────────────────────
// Step 2: one telemetry table per factory
// ─────────────────────────────────────────────────────────────

// columnTypes covers every canonical column any subsystem can emit.
var columnTypes = map[string]string{
	domain.ColFireSensorVal:  "DOUBLE PRECISION",
	domain.ColFireStatus:     "TEXT",
	domain.ColSirenState:     "TEXT",
	domain.ColSprinklerState: "TEXT",
	domain.ColOrderCount:     "DOUBLE PRECISION",
	domain.ColConveyorSpeed:  "DOUBLE PRECISION",
	domain.ColConveyorStatus: "TEXT",
	domain.ColWeightGrams:    "DOUBLE PRECISION",
	domain.ColWeightStatus:   "TEXT",
	domain.ColServoAngle:     "DOUBLE PRECISION",
	domain.ColMotionDetected: "BOOLEAN",
	domain.ColGarageDoor:     "TEXT",
	domain.ColBatteryLevel:   "DOUBLE PRECISION",
	domain.ColLEDBrightness:  "DOUBLE PRECISION",
	domain.ColTemperature:    "DOUBLE PRECISION",
	domain.ColACState:        "TEXT",
	domain.ColAC2State:       "TEXT",
	domain.ColFurnaceState:   "TEXT",
	domain.ColRFIDLastCard:   "TEXT",
	domain.ColAccessLog:      "TEXT",
	domain.ColSafeDoor:       "TEXT",
	domain.ColWebcamStatus:   "TEXT",
}

func step2_telemetry_tables(ctx context.Context, conn *pgx.Conn, cfg *config.Config) {
	fmt.Println("\n── Step 2: telemetry tables ────────────────────")

	cols := sortedKeys(columnTypes)
	for _, key := range sortedKeys(cfg.FactoryPartitions) {
		partition := cfg.FactoryPartitions[key]

		ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n", pgx.Identifier{partition}.Sanitize())
		ddl += "\t\t\tid BIGSERIAL PRIMARY KEY,\n"
		ddl += fmt.Sprintf("\t\t\t%s TEXT NOT NULL,\n", pgx.Identifier{domain.ColSystemName}.Sanitize())
		ddl += fmt.Sprintf("\t\t\t%s TIMESTAMPTZ NOT NULL", pgx.Identifier{domain.ColTimestamp}.Sanitize())
		for _, col := range cols {
			ddl += fmt.Sprintf(",\n\t\t\t%s %s", pgx.Identifier{col}.Sanitize(), columnTypes[col])
		}
		ddl += "\n\t\t);"

		execOrFatal(ctx, conn, ddl, fmt.Sprintf("%s table created for %s", partition, key))
	}
}

// ─────────────────────────────────────────────────────────────
// Step 3: system_alerts table
// ─────────────────────────────────────────────────────────────
func step3_alerts_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: system_alerts table ─────────────────")

	execOrFatal(ctx, conn, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS system_alerts (
			id               BIGSERIAL    PRIMARY KEY,
			factory_id       BIGINT       NOT NULL REFERENCES factories (id),
			system_name      TEXT         NOT NULL,

			-- must match domain.AlertType
			alert_type       TEXT         NOT NULL,
			-- must match domain.AlertSeverity
			severity         TEXT         NOT NULL,
			message          TEXT         NOT NULL,

			acknowledged     BOOLEAN      NOT NULL DEFAULT false,
			-- last assertion time; refreshed when the message changes
			created_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			acknowledged_at  TIMESTAMPTZ,
			-- operator name, or %s when the condition cleared
			acknowledged_by  TEXT,

			CONSTRAINT chk_alert_type CHECK (
				alert_type IN ('%s', '%s', '%s', '%s', '%s')
			),
			CONSTRAINT chk_severity CHECK (
				severity IN ('%s', '%s')
			)
		);
	`,
		domain.AutoResolvedActor,
		domain.AlertFireDetected, domain.AlertHighTemperature, domain.AlertLowTemperature,
		domain.AlertLowBattery, domain.AlertUnauthorizedAccess,
		domain.SeverityWarning, domain.SeverityCritical,
	), "system_alerts table created")
}

// ─────────────────────────────────────────────────────────────
// Step 4: Indexes
// ─────────────────────────────────────────────────────────────
func step4_indexes(ctx context.Context, conn *pgx.Conn, cfg *config.Config) {
	fmt.Println("\n── Step 4: Indexes ─────────────────────────────")

	indexes := []struct {
		name string
		sql  string
		why  string
	}{
		{
			name: "idx_alerts_open_unique",
			sql: fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_open_unique
				  ON system_alerts (factory_id, system_name, alert_type)
				  WHERE acknowledged = false AND alert_type <> '%s';`, domain.AlertUnauthorizedAccess),
			why: "at most one open alert per (factory, system, type)",
		},
		{
			name: "idx_alerts_factory_time",
			sql: `CREATE INDEX IF NOT EXISTS idx_alerts_factory_time
				  ON system_alerts (factory_id, created_at DESC);`,
			why: "query: recent alerts for one factory",
		},
	}

	for _, key := range sortedKeys(cfg.FactoryPartitions) {
		partition := cfg.FactoryPartitions[key]
		name := "idx_" + partition + "_system_time"
		indexes = append(indexes, struct {
			name string
			sql  string
			why  string
		}{
			name: name,
			sql: fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (system_name, timestamp DESC);`,
				pgx.Identifier{name}.Sanitize(), pgx.Identifier{partition}.Sanitize()),
			why: "query: history for one subsystem",
		})
	}

	for _, idx := range indexes {
		execOrFatal(ctx, conn, idx.sql,
			fmt.Sprintf("%-40s ← %s", idx.name, idx.why),
		)
	}
}

// ─────────────────────────────────────────────────────────────
// Step 5: Verify everything was created
// ─────────────────────────────────────────────────────────────
func step5_verify(ctx context.Context, conn *pgx.Conn, cfg *config.Config) {
	fmt.Println("\n── Step 5: Verification ────────────────────────")

	tables := []string{"factories", "system_alerts"}
	for _, key := range sortedKeys(cfg.FactoryPartitions) {
		tables = append(tables, cfg.FactoryPartitions[key])
	}
	for _, table := range tables {
		var exists bool
		err := conn.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_name = $1
			)
		`, table).Scan(&exists)
		if err != nil || !exists {
			log.Fatalf("Table %s was not created: %v", table, err)
		}
		fmt.Printf("  ✓ table: %s\n", table)
	}

	var indexCount int
	err := conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM pg_indexes
		WHERE tablename = ANY($1)
		AND indexname LIKE 'idx_%'
	`, tables).Scan(&indexCount)
	if err != nil {
		log.Fatalf("Index check failed: %v", err)
	}
	fmt.Printf("  ✓ indexes created: %d\n", indexCount)
}

// ─────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────

func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string, args ...any) {
	_, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		log.Fatalf("FAILED: %s\nError: %v\nSQL: %s", label, err, sql)
	}
	fmt.Printf("  ✓ %s\n", label)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
