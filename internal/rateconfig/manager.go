package rateconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/callcharge-production/internal/database"
	apperrors "github.com/callcharge-production/internal/errors"
)

// Manager keeps the tenants' rate configurations, backed by MySQL.
// Stored configurations are replaced, never modified in place, so a
// *Configuration returned by Get stays valid for a whole rating run.
type Manager struct {
	db      *database.DB
	configs map[string]*Configuration
	mu      sync.RWMutex
	logger  *zap.Logger
}

func NewManager(db *database.DB, logger *zap.Logger) *Manager {
	return &Manager{
		db:      db,
		configs: make(map[string]*Configuration),
		logger:  logger.Named("rateconfig"),
	}
}

// Load replaces the cache with every configuration stored in the database.
func (m *Manager) Load(ctx context.Context) error {
	rows, err := m.db.QueryContext(ctx, `
        SELECT tenant, config
        FROM tenant_rate_configs
    `)
	if err != nil {
		return fmt.Errorf("failed to load rate configurations: %w", err)
	}
	defer rows.Close()

	configs := make(map[string]*Configuration)
	for rows.Next() {
		var (
			tenant string
			raw    []byte
		)
		if err := rows.Scan(&tenant, &raw); err != nil {
			return fmt.Errorf("failed to scan rate configuration: %w", err)
		}

		cfg := &Configuration{}
		if err := json.Unmarshal(raw, cfg); err != nil {
			m.logger.Warn("skipping unreadable rate configuration",
				zap.String("tenant", tenant), zap.Error(err))
			continue
		}
		cfg.Tenant = tenant
		configs[tenant] = cfg
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load rate configurations: %w", err)
	}

	m.mu.Lock()
	m.configs = configs
	m.mu.Unlock()

	m.logger.Info("loaded rate configurations", zap.Int("tenants", len(configs)))
	return nil
}

// Put stores cfg for cfg.Tenant.
func (m *Manager) Put(ctx context.Context, cfg *Configuration) error {
	if cfg == nil || cfg.Tenant == "" {
		return apperrors.Input("rate configuration needs a tenant")
	}
	cfg = cfg.Clone()

	raw, err := json.Marshal(cfg)
	if err != nil {
		return apperrors.Internal("encode rate configuration", err)
	}

	if _, err := m.db.ExecContext(ctx, `
        INSERT INTO tenant_rate_configs (tenant, config)
        VALUES (?, ?)
        ON DUPLICATE KEY UPDATE config = VALUES(config), updated_at = NOW()
    `, cfg.Tenant, raw); err != nil {
		return fmt.Errorf("failed to store rate configuration for %s: %w", cfg.Tenant, err)
	}

	m.mu.Lock()
	m.configs[cfg.Tenant] = cfg
	m.mu.Unlock()

	m.logger.Info("stored rate configuration", zap.String("tenant", cfg.Tenant))
	return nil
}

// Import stores every configuration in configs.
func (m *Manager) Import(ctx context.Context, configs map[string]*Configuration) error {
	for _, name := range Tenants(configs) {
		if err := m.Put(ctx, configs[name]); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the configuration of tenant, or a MissingConfiguration error.
func (m *Manager) Get(tenant string) (*Configuration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.configs[tenant]
	if !ok {
		return nil, apperrors.MissingConfiguration(tenant)
	}
	return cfg, nil
}

// List returns the configured tenants in name order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.configs))
	for name := range m.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
