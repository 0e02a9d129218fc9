package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/dbaops/mysqlpulse/internal/models"
	"github.com/dbaops/mysqlpulse/pkg/config"
)

// ConnectionExhaustedError reports that the pool could not supply a
// connection within the configured wait bound. The affected probe is skipped
// and the run continues.
type ConnectionExhaustedError struct {
	Wait time.Duration
	Err  error
}

func (e *ConnectionExhaustedError) Error() string {
	return fmt.Sprintf("no connection available within %s: %v", e.Wait, e.Err)
}

func (e *ConnectionExhaustedError) Unwrap() error {
	return e.Err
}

// MySQLClient handles MySQL connections and probe queries.
type MySQLClient struct {
	db             *sql.DB
	addr           string
	defaultTimeout time.Duration
	connWait       time.Duration
	verbose        bool
}

// NewMySQLClient opens a connection pool for the configured DSN and pings
// the server with classified retry.
func NewMySQLClient(ctx context.Context, cfg *config.Config) (*MySQLClient, error) {
	dsnCfg, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = cfg.Workers + 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxLifetime(time.Hour)

	if err := executeWithRetry(ctx, defaultRetryConfig(), func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL at %s: %w", dsnCfg.Addr, err)
	}

	if cfg.Verbose {
		slog.Debug("connected to MySQL", slog.String("addr", dsnCfg.Addr))
	}

	return &MySQLClient{
		db:             db,
		addr:           dsnCfg.Addr,
		defaultTimeout: cfg.QueryTimeout,
		connWait:       cfg.ConnWait,
		verbose:        cfg.Verbose,
	}, nil
}

// Addr returns the server address parsed from the DSN, for report display.
func (c *MySQLClient) Addr() string {
	return c.addr
}

// RunProbe executes one probe once. A connection is checked out for the
// duration of the query only and returned on every exit path. Failures are
// recorded in the result, never retried.
func (c *MySQLClient) RunProbe(ctx context.Context, probe models.Probe) models.ExecutionResult {
	result := models.ExecutionResult{
		ProbeID:   probe.ID,
		StartedAt: time.Now(),
	}

	timeout := probe.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, c.connWait)
	conn, err := c.db.Conn(waitCtx)
	cancelWait()
	if err != nil {
		result.Duration = time.Since(result.StartedAt)
		if err := contextError(ctx); err != nil {
			result.Outcome = models.OutcomeCancelled
			result.Err = err.Error()
			return result
		}
		exhausted := &ConnectionExhaustedError{Wait: c.connWait, Err: err}
		result.Outcome = models.OutcomeSkipped
		result.Err = exhausted.Error()
		return result
	}
	defer conn.Close()

	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := conn.QueryContext(queryCtx, probe.Query)
	if err != nil {
		result.Duration = time.Since(result.StartedAt)
		result.Outcome, result.Err = classifyProbeError(ctx, queryCtx, err)
		return result
	}
	defer rows.Close()

	captured, err := captureRows(rows)
	result.Duration = time.Since(result.StartedAt)
	if err != nil {
		result.Outcome, result.Err = classifyProbeError(ctx, queryCtx, err)
		return result
	}

	result.Rows = captured
	result.Outcome = models.OutcomeSuccess

	if c.verbose {
		slog.Debug("probe completed",
			slog.String("probe", probe.ID),
			slog.Int("rows", len(captured)),
			slog.Duration("duration", result.Duration),
		)
	}

	return result
}

// Close closes the connection pool.
func (c *MySQLClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// captureRows scans every row into raw string/null values keyed by server
// column names. Type coercion is the normalizer's job.
func captureRows(rows *sql.Rows) ([]models.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var captured []models.Row
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(models.Row, len(cols))
		for i, col := range cols {
			if raw[i].Valid {
				row[col] = models.StringValue(raw[i].String)
			} else {
				row[col] = models.NullValue()
			}
		}
		captured = append(captured, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return captured, nil
}

// classifyProbeError distinguishes cancellation, timeout and server errors.
func classifyProbeError(runCtx, queryCtx context.Context, err error) (models.Outcome, string) {
	if runErr := contextError(runCtx); runErr != nil && !errors.Is(runErr, context.DeadlineExceeded) {
		return models.OutcomeCancelled, runErr.Error()
	}
	if errors.Is(queryCtx.Err(), context.DeadlineExceeded) || isTimeoutError(err) {
		return models.OutcomeTimeout, err.Error()
	}
	if errors.Is(err, context.Canceled) {
		return models.OutcomeCancelled, err.Error()
	}
	return models.OutcomeError, err.Error()
}
