package catalog

import (
	"time"

	"github.com/dbaops/mysqlpulse/internal/models"
)

// ProbeProcessList is the probe whose rows carry client peer addresses.
const ProbeProcessList = "process.active"

// Builtin returns the versioned builtin probe catalog. Every query is a
// read-only SELECT/SHOW; the engine never issues DDL/DML.
func Builtin() *Catalog {
	c := New()

	c.MustRegister(models.Probe{
		ID:       "health.ping",
		Category: models.CategoryHealthCheck,
		Query:    "SELECT 1 AS ok",
		Mode:     models.ModeScalar,
		Columns: []models.ColumnSpec{
			{Name: "ok", Kind: models.KindInt},
		},
		MetricPrefix: "health",
	})

	c.MustRegister(models.Probe{
		ID:       "health.uptime",
		Category: models.CategoryHealthCheck,
		Query:    "SHOW GLOBAL STATUS LIKE 'Uptime'",
		Mode:     models.ModeKeyValue,
		Columns: []models.ColumnSpec{
			{Name: "Variable_name", Kind: models.KindString},
			{Name: "Value", Kind: models.KindSeconds},
		},
		MetricPrefix: "health",
	})

	c.MustRegister(models.Probe{
		ID:       "status.global",
		Category: models.CategoryGlobalStatus,
		Query: "SHOW GLOBAL STATUS WHERE Variable_name IN (" +
			"'Threads_connected','Threads_running','Threads_created'," +
			"'Connections','Aborted_connects','Aborted_clients'," +
			"'Max_used_connections','Questions','Slow_queries'," +
			"'Select_full_join','Select_scan','Sort_merge_passes'," +
			"'Created_tmp_disk_tables','Created_tmp_tables'," +
			"'Open_tables','Opened_tables','Table_locks_waited'," +
			"'Innodb_row_lock_waits','Innodb_row_lock_time'," +
			"'Bytes_received','Bytes_sent')",
		Mode: models.ModeKeyValue,
		Columns: []models.ColumnSpec{
			{Name: "Variable_name", Kind: models.KindString},
			{Name: "Value", Kind: models.KindFloat},
		},
		MetricPrefix: "status",
	})

	c.MustRegister(models.Probe{
		ID:       "bufferpool.efficiency",
		Category: models.CategoryBufferPool,
		Query: "SHOW GLOBAL STATUS WHERE Variable_name IN (" +
			"'Innodb_buffer_pool_read_requests','Innodb_buffer_pool_reads'," +
			"'Innodb_buffer_pool_wait_free'," +
			"'Innodb_buffer_pool_pages_free','Innodb_buffer_pool_pages_total')",
		Mode: models.ModeKeyValue,
		Columns: []models.ColumnSpec{
			{Name: "Variable_name", Kind: models.KindString},
			{Name: "Value", Kind: models.KindFloat},
		},
		MetricPrefix: "bufferpool",
	})

	c.MustRegister(models.Probe{
		ID:       "deadlocks.count",
		Category: models.CategoryDeadlockAudit,
		Query:    "SELECT count FROM information_schema.innodb_metrics WHERE name = 'lock_deadlocks'",
		Mode:     models.ModeScalar,
		Columns: []models.ColumnSpec{
			{Name: "count", Kind: models.KindInt},
		},
		MetricPrefix: "deadlocks",
	})

	c.MustRegister(models.Probe{
		ID:       ProbeProcessList,
		Category: models.CategoryProcessMonitoring,
		Query: "SELECT id, user, host, db, command, time, state " +
			"FROM information_schema.processlist " +
			"WHERE command <> 'Sleep' ORDER BY time DESC",
		Mode: models.ModeRowSet,
		Columns: []models.ColumnSpec{
			{Name: "id", Kind: models.KindInt},
			{Name: "user", Kind: models.KindString},
			{Name: "host", Kind: models.KindString},
			{Name: "db", Kind: models.KindString},
			{Name: "command", Kind: models.KindString},
			{Name: "time", Kind: models.KindSeconds, Aggregate: models.AggregateMax},
			{Name: "state", Kind: models.KindString},
		},
		MetricPrefix: "process",
	})

	c.MustRegister(models.Probe{
		ID:       "slowquery.digests",
		Category: models.CategorySlowQuery,
		Query: "SELECT schema_name, digest_text, count_star, sum_timer_wait, max_timer_wait " +
			"FROM performance_schema.events_statements_summary_by_digest " +
			"WHERE schema_name IS NOT NULL " +
			"ORDER BY sum_timer_wait DESC LIMIT 10",
		Mode: models.ModeRowSet,
		Columns: []models.ColumnSpec{
			{Name: "schema_name", Kind: models.KindString},
			{Name: "digest_text", Kind: models.KindString},
			{Name: "count_star", Kind: models.KindInt, Aggregate: models.AggregateSum},
			{Name: "sum_timer_wait", Kind: models.KindPicoseconds, Aggregate: models.AggregateSum},
			{Name: "max_timer_wait", Kind: models.KindPicoseconds, Aggregate: models.AggregateMax},
		},
		MetricPrefix: "slowquery",
	})

	c.MustRegister(models.Probe{
		ID:       "perfschema.file_waits",
		Category: models.CategoryPerformanceSchema,
		Query: "SELECT event_name, count_star, sum_timer_wait " +
			"FROM performance_schema.events_waits_summary_global_by_event_name " +
			"WHERE event_name LIKE 'wait/io/file/innodb/%' " +
			"ORDER BY sum_timer_wait DESC LIMIT 5",
		Mode: models.ModeRowSet,
		Columns: []models.ColumnSpec{
			{Name: "event_name", Kind: models.KindString},
			{Name: "count_star", Kind: models.KindInt, Aggregate: models.AggregateSum},
			{Name: "sum_timer_wait", Kind: models.KindPicoseconds, Aggregate: models.AggregateSum},
		},
		MetricPrefix: "perfschema.file_waits",
	})

	// Full information_schema scan; may be slow on servers with many tables.
	c.MustRegister(models.Probe{
		ID:       "size.schema_bytes",
		Category: models.CategorySizeIndex,
		Query: "SELECT table_schema, CAST(SUM(data_length + index_length) AS UNSIGNED) AS total_bytes " +
			"FROM information_schema.tables " +
			"WHERE table_schema NOT IN ('mysql','sys','information_schema','performance_schema') " +
			"GROUP BY table_schema",
		Mode: models.ModeRowSet,
		Columns: []models.ColumnSpec{
			{Name: "table_schema", Kind: models.KindString},
			{Name: "total_bytes", Kind: models.KindInt, Aggregate: models.AggregateSum, Unit: "bytes"},
		},
		Timeout:      2 * time.Minute,
		MetricPrefix: "size.schemas",
	})

	// The sys schema is not installed on every server configuration; a
	// failure here is recorded as a per-probe execution error.
	c.MustRegister(models.Probe{
		ID:       "size.unused_indexes",
		Category: models.CategorySizeIndex,
		Query: "SELECT object_schema, object_name, index_name " +
			"FROM sys.schema_unused_indexes " +
			"WHERE object_schema NOT IN ('mysql','sys')",
		Mode: models.ModeRowSet,
		Columns: []models.ColumnSpec{
			{Name: "object_schema", Kind: models.KindString},
			{Name: "object_name", Kind: models.KindString},
			{Name: "index_name", Kind: models.KindString},
		},
		Timeout:      time.Minute,
		MetricPrefix: "size.unused_indexes",
	})

	c.MustRegister(models.Probe{
		ID:       "dataquality.orphan_appointments",
		Category: models.CategoryDataQuality,
		Query:    "SELECT COUNT(*) AS total FROM appointment WHERE patient_id IS NULL OR patient_id = 0",
		Mode:     models.ModeScalar,
		Columns: []models.ColumnSpec{
			{Name: "total", Kind: models.KindInt},
		},
		MetricPrefix: "dataquality.orphan_appointments",
	})

	c.MustRegister(models.Probe{
		ID:       "appointments.by_status",
		Category: models.CategoryAppointmentLookup,
		Query:    "SELECT status, COUNT(*) AS total FROM appointment GROUP BY status",
		Mode:     models.ModeKeyValue,
		Columns: []models.ColumnSpec{
			{Name: "status", Kind: models.KindString},
			{Name: "total", Kind: models.KindInt},
		},
		MetricPrefix: "appointments.status",
	})

	return c
}
