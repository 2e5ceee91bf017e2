package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	calls     int
	retention time.Duration
	deleted   int64
	err       error
}

func (f *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.calls++
	f.retention = retention
	return f.deleted, f.err
}

func TestPruneAuditLog(t *testing.T) {
	tests := []struct {
		name string
		days int
		want time.Duration
	}{
		{"a quarter of renewals", 30, 30 * 24 * time.Hour},
		{"no retention given", 0, DefaultAuditRetentionDays * 24 * time.Hour},
		{"negative retention", -5, DefaultAuditRetentionDays * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaner := &fakeCleaner{deleted: 4}

			pruned, err := PruneAuditLog(context.Background(), cleaner, CleanupAuditEventsTask{RetentionDays: tt.days})
			require.NoError(t, err)
			assert.Equal(t, int64(4), pruned)
			assert.Equal(t, tt.want, cleaner.retention)
		})
	}

	t.Run("cancelled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		cleaner := &fakeCleaner{}

		_, err := PruneAuditLog(ctx, cleaner, CleanupAuditEventsTask{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, cleaner.calls)
	})
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	t.Run("prunes once per task", func(t *testing.T) {
		cleaner := &fakeCleaner{}
		process := CleanupAuditEventsProcessor(cleaner)

		require.NoError(t, process(context.Background(), CleanupAuditEventsTask{RetentionDays: 7}))
		assert.Equal(t, 1, cleaner.calls)
	})

	t.Run("locked database fails the attempt", func(t *testing.T) {
		process := CleanupAuditEventsProcessor(&fakeCleaner{err: errors.New("database is locked")})
		assert.ErrorContains(t, process(context.Background(), CleanupAuditEventsTask{}), "database is locked")
	})

	t.Run("missing cleaner", func(t *testing.T) {
		process := CleanupAuditEventsProcessor(nil)
		assert.ErrorIs(t, process(context.Background(), CleanupAuditEventsTask{}), errNoAuditCleaner)
	})
}
