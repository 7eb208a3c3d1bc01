package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/walterra/eddo-core/internal/registry"
)

func TestIsEligibleRequiresActiveEmailSyncAndConfig(t *testing.T) {
	base := registry.Entry{
		Status: registry.StatusActive,
		Preferences: registry.Preferences{
			EmailSync:   true,
			EmailConfig: &registry.EmailConfig{Provider: "imap"},
		},
	}
	assert.True(t, isEligible(base, 15*time.Minute))

	suspended := base
	suspended.Status = registry.StatusSuspended
	assert.False(t, isEligible(suspended, 15*time.Minute))

	noSync := base
	noSync.Preferences.EmailSync = false
	assert.False(t, isEligible(noSync, 15*time.Minute))

	noConfig := base
	noConfig.Preferences.EmailConfig = nil
	assert.False(t, isEligible(noConfig, 15*time.Minute))
}

func TestIsEligibleRespectsSyncInterval(t *testing.T) {
	recent := time.Now().Add(-5 * time.Minute)
	entry := registry.Entry{
		Status: registry.StatusActive,
		Preferences: registry.Preferences{
			EmailSync:     true,
			EmailConfig:   &registry.EmailConfig{Provider: "imap"},
			EmailLastSync: &recent,
		},
	}
	assert.False(t, isEligible(entry, 15*time.Minute))

	stale := time.Now().Add(-20 * time.Minute)
	entry.Preferences.EmailLastSync = &stale
	assert.True(t, isEligible(entry, 15*time.Minute))
}

func TestIsEligibleHonorsPerUserInterval(t *testing.T) {
	lastSync := time.Now().Add(-10 * time.Minute)
	entry := registry.Entry{
		Status: registry.StatusActive,
		Preferences: registry.Preferences{
			EmailSync:         true,
			EmailConfig:       &registry.EmailConfig{Provider: "imap"},
			EmailLastSync:     &lastSync,
			EmailSyncInterval: 5, // minutes; shorter than the default gap
		},
	}
	assert.True(t, isEligible(entry, 15*time.Minute))
}
