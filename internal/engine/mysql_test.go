package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/dbaops/mysqlpulse/internal/models"
)

func expiredQueryCtx(t *testing.T, parent context.Context) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(parent, time.Nanosecond)
	t.Cleanup(cancel)
	<-ctx.Done()
	return ctx
}

func TestClassifyProbeErrorProbeTimeout(t *testing.T) {
	runCtx := context.Background()
	queryCtx := expiredQueryCtx(t, runCtx)

	outcome, detail := classifyProbeError(runCtx, queryCtx, context.DeadlineExceeded)
	if outcome != models.OutcomeTimeout {
		t.Fatalf("expected timeout, got %q", outcome)
	}
	if detail == "" {
		t.Fatal("expected failure detail")
	}
}

func TestClassifyProbeErrorRunTimeoutCancelsInFlight(t *testing.T) {
	runCtx, cancel := withTotalTimeoutContext(context.Background(), time.Nanosecond)
	defer cancel()
	<-runCtx.Done()

	queryCtx, cancelQuery := context.WithTimeout(runCtx, time.Minute)
	defer cancelQuery()

	// The driver surfaces the parent cancellation, not a deadline.
	outcome, _ := classifyProbeError(runCtx, queryCtx, context.Canceled)
	if outcome != models.OutcomeCancelled {
		t.Fatalf("expected cancelled, got %q", outcome)
	}
}

func TestClassifyProbeErrorUserCancellation(t *testing.T) {
	runCtx, cancel := context.WithCancel(context.Background())
	cancel()

	queryCtx, cancelQuery := context.WithTimeout(runCtx, time.Minute)
	defer cancelQuery()

	outcome, _ := classifyProbeError(runCtx, queryCtx, context.Canceled)
	if outcome != models.OutcomeCancelled {
		t.Fatalf("expected cancelled, got %q", outcome)
	}
}

func TestClassifyProbeErrorServerRejection(t *testing.T) {
	runCtx := context.Background()
	queryCtx, cancelQuery := context.WithTimeout(runCtx, time.Minute)
	defer cancelQuery()

	serverErr := &mysql.MySQLError{Number: 1146, Message: "Table 'sys.schema_unused_indexes' doesn't exist"}
	outcome, detail := classifyProbeError(runCtx, queryCtx, serverErr)
	if outcome != models.OutcomeError {
		t.Fatalf("expected error, got %q", outcome)
	}
	if !strings.Contains(detail, "doesn't exist") {
		t.Fatalf("expected server message in detail, got %q", detail)
	}
}

func TestClassifyProbeErrorServerSideTimeoutCode(t *testing.T) {
	runCtx := context.Background()
	queryCtx, cancelQuery := context.WithTimeout(runCtx, time.Minute)
	defer cancelQuery()

	serverErr := &mysql.MySQLError{Number: 3024, Message: "Query execution was interrupted, maximum statement execution time exceeded"}
	outcome, _ := classifyProbeError(runCtx, queryCtx, serverErr)
	if outcome != models.OutcomeTimeout {
		t.Fatalf("expected timeout, got %q", outcome)
	}
}

func TestConnectionExhaustedErrorMessage(t *testing.T) {
	err := &ConnectionExhaustedError{Wait: 5 * time.Second, Err: context.DeadlineExceeded}
	if !strings.Contains(err.Error(), "5s") {
		t.Fatalf("expected wait bound in message, got %q", err.Error())
	}
}
