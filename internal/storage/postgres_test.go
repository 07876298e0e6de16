package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		unique     bool
		foreignKey bool
		transient  bool
		outOfRange bool
	}{
		{name: "numeric out of range", err: &pq.Error{Code: "22003"}, outOfRange: true},
		{name: "unique violation", err: &pq.Error{Code: "23505"}, unique: true},
		{name: "foreign key violation", err: &pq.Error{Code: "23503"}, foreignKey: true},
		{name: "serialization failure", err: &pq.Error{Code: "40001"}, transient: true},
		{name: "deadlock", err: fmt.Errorf("upsert: %w", &pq.Error{Code: "40P01"}), transient: true},
		{name: "plain error", err: errors.New("boom")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.unique {
				t.Errorf("IsUniqueViolation: expected %v, got %v", tt.unique, got)
			}
			if got := IsForeignKeyViolation(tt.err); got != tt.foreignKey {
				t.Errorf("IsForeignKeyViolation: expected %v, got %v", tt.foreignKey, got)
			}
			if got := IsTransient(tt.err); got != tt.transient {
				t.Errorf("IsTransient: expected %v, got %v", tt.transient, got)
			}
			if got := IsOutOfRange(tt.err); got != tt.outOfRange {
				t.Errorf("IsOutOfRange: expected %v, got %v", tt.outOfRange, got)
			}
		})
	}
}

func TestRetryTransient(t *testing.T) {
	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := RetryTransient(context.Background(), func() error {
			calls++
			if calls < 3 {
				return &pq.Error{Code: "40001"}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := RetryTransient(context.Background(), func() error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("gives up after max tries", func(t *testing.T) {
		calls := 0
		err := RetryTransient(context.Background(), func() error {
			calls++
			return &pq.Error{Code: "40P01"}
		})
		if !IsTransient(err) {
			t.Fatalf("expected transient error, got %v", err)
		}
		if calls != defaultMaxTries {
			t.Errorf("expected %d calls, got %d", defaultMaxTries, calls)
		}
	})
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), "", Options{}); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}
