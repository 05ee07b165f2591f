// Package notify pushes committed governance state to live subscribers
// over Redis pub/sub. Admin dashboards subscribe to an account's channel
// (or the system channel) and re-render permissions the moment a
// restriction changes, with no polling.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veltacap/custodian/internal/models"
)

const publishTimeout = 2 * time.Second

const (
	// SystemChannel carries every system-controls change.
	SystemChannel = "governance:system"

	// accountChannelPrefix + account id carries that account's effective
	// restriction state after each change.
	accountChannelPrefix = "governance:account:"
)

type RedisNotifier struct {
	client *redis.Client
}

func New(redisAddr string, db int) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   db,
	})

	return &RedisNotifier{client: client}
}

func AccountChannel(accountID string) string {
	return accountChannelPrefix + accountID
}

type accountPayload struct {
	AccountID    string         `json:"account_id"`
	IsActive     bool           `json:"is_active"`
	Restrictions map[string]any `json:"restrictions"`
	PushedAt     time.Time      `json:"pushed_at"`
}

func (n *RedisNotifier) AccountChanged(account *models.Account) error {
	payload, err := json.Marshal(accountPayload{
		AccountID:    account.ID,
		IsActive:     account.IsActive,
		Restrictions: account.Restrictions,
		PushedAt:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	return n.client.Publish(ctx, AccountChannel(account.ID), payload).Err()
}

type controlsPayload struct {
	Capabilities     map[string]bool `json:"capabilities"`
	RestrictedMode   bool            `json:"restricted_mode"`
	RestrictionLevel string          `json:"restriction_level"`
	AllowedPages     []string        `json:"allowed_pages"`
	Reason           string          `json:"reason"`
	MaintenanceMode  bool            `json:"maintenance_mode"`
	PushedAt         time.Time       `json:"pushed_at"`
}

func (n *RedisNotifier) ControlsChanged(controls *models.SystemControls) error {
	capabilities := make(map[string]bool, len(models.CapabilityKeys))
	for _, key := range models.CapabilityKeys {
		capabilities[key] = *controls.Capability(key)
	}

	payload, err := json.Marshal(controlsPayload{
		Capabilities:     capabilities,
		RestrictedMode:   controls.RestrictedMode,
		RestrictionLevel: controls.RestrictionLevel,
		AllowedPages:     controls.AllowedPages,
		Reason:           controls.RestrictionReason,
		MaintenanceMode:  controls.MaintenanceMode,
		PushedAt:         time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	return n.client.Publish(ctx, SystemChannel, payload).Err()
}

// Subscribe hands back the raw pub/sub handle for an account's channel.
// Callers own the subscription lifecycle and must Close it.
func (n *RedisNotifier) Subscribe(ctx context.Context, accountID string) *redis.PubSub {
	return n.client.Subscribe(ctx, AccountChannel(accountID))
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
