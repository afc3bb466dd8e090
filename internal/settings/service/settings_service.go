package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"milsabores/internal/domain"
	apperrors "milsabores/internal/errors"
)

const (
	KeyCurrency            = "currency"
	KeyDefaultIVA          = "iva_default"
	KeyStockAlertThreshold = "stock_alert_threshold"
)

type Repository interface {
	FindAll(ctx context.Context) (map[string]string, error)
	Upsert(ctx context.Context, values map[string]string) error
}

// Bus is the part of *goredis.Client used to fan out change notifications.
type Bus interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *goredis.PubSub
}

// Patch carries the fields of an update; nil fields keep their current value.
type Patch struct {
	Currency            *string
	DefaultIVA          *decimal.Decimal
	StockAlertThreshold *int
}

type notification struct {
	Instance  string    `json:"instance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SettingsService keeps the current settings snapshot for this process. New
// baskets and return builders take their copy from Current.
type SettingsService struct {
	repo     Repository
	bus      Bus
	channel  string
	defaults domain.Settings
	instance string
	logger   *zap.Logger

	// updateMu is held across the whole read-merge-write of Update.
	updateMu sync.Mutex

	mu      sync.RWMutex
	current domain.Settings
}

func NewSettingsService(repo Repository, bus Bus, channel string, defaults domain.Settings, logger *zap.Logger) *SettingsService {
	defaults = defaults.WithDefaults()
	return &SettingsService{
		repo:     repo,
		bus:      bus,
		channel:  channel,
		defaults: defaults,
		instance: uuid.New().String(),
		logger:   logger,
		current:  defaults,
	}
}

func (s *SettingsService) Current(ctx context.Context) domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload replaces the snapshot with what is stored. Missing or unparsable
// values fall back to the configured defaults.
func (s *SettingsService) Reload(ctx context.Context) error {
	values, err := s.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	settings := s.fromValues(values)

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()

	s.logger.Info("settings loaded",
		zap.String("currency", settings.Currency),
		zap.String("ivaDefault", settings.DefaultIVA.String()),
		zap.Int("stockAlertThreshold", settings.StockAlertThreshold),
	)
	return nil
}

// Update validates and stores patch, then tells other instances to reload.
// A failed notification is logged; the stored values are already committed.
func (s *SettingsService) Update(ctx context.Context, patch Patch) (domain.Settings, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	next := s.Current(ctx)
	if patch.Currency != nil {
		next.Currency = strings.ToUpper(strings.TrimSpace(*patch.Currency))
	}
	if patch.DefaultIVA != nil {
		next.DefaultIVA = *patch.DefaultIVA
	}
	if patch.StockAlertThreshold != nil {
		next.StockAlertThreshold = *patch.StockAlertThreshold
	}

	if err := validate(next); err != nil {
		return domain.Settings{}, err
	}

	if err := s.repo.Upsert(ctx, toValues(next)); err != nil {
		return domain.Settings{}, err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.publish(ctx)
	return next, nil
}

// Listen reloads settings whenever another instance announces a change. It
// blocks until ctx is done.
func (s *SettingsService) Listen(ctx context.Context) error {
	if s.bus == nil {
		<-ctx.Done()
		return nil
	}

	pubsub := s.bus.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.channel, err)
	}
	s.logger.Info("listening for settings changes", zap.String("channel", s.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.HandleNotification(ctx, msg.Payload)
		}
	}
}

// HandleNotification reloads unless the message came from this instance.
func (s *SettingsService) HandleNotification(ctx context.Context, payload string) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		s.logger.Warn("ignoring malformed settings notification", zap.String("payload", payload), zap.Error(err))
		return
	}
	if n.Instance == s.instance {
		return
	}
	if err := s.Reload(ctx); err != nil {
		s.logger.Error("reloading settings after notification", zap.String("from", n.Instance), zap.Error(err))
	}
}

func (s *SettingsService) publish(ctx context.Context) {
	if s.bus == nil {
		return
	}
	data, err := json.Marshal(notification{Instance: s.instance, UpdatedAt: time.Now().UTC()})
	if err != nil {
		s.logger.Warn("encoding settings notification", zap.Error(err))
		return
	}
	if err := s.bus.Publish(ctx, s.channel, data).Err(); err != nil {
		s.logger.Warn("publishing settings change", zap.String("channel", s.channel), zap.Error(err))
	}
}

func (s *SettingsService) fromValues(values map[string]string) domain.Settings {
	settings := s.defaults

	if v, ok := values[KeyCurrency]; ok && strings.TrimSpace(v) != "" {
		settings.Currency = strings.ToUpper(strings.TrimSpace(v))
	}
	if v, ok := values[KeyDefaultIVA]; ok {
		iva, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			s.logger.Warn("invalid stored setting", zap.String("key", KeyDefaultIVA), zap.String("value", v))
		} else {
			settings.DefaultIVA = iva
		}
	}
	if v, ok := values[KeyStockAlertThreshold]; ok {
		threshold, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			s.logger.Warn("invalid stored setting", zap.String("key", KeyStockAlertThreshold), zap.String("value", v))
		} else {
			settings.StockAlertThreshold = threshold
		}
	}

	if err := validate(settings); err != nil {
		s.logger.Warn("stored settings out of range, using defaults", zap.Error(err))
		return s.defaults
	}
	return settings
}

func toValues(s domain.Settings) map[string]string {
	return map[string]string{
		KeyCurrency:            s.Currency,
		KeyDefaultIVA:          s.DefaultIVA.String(),
		KeyStockAlertThreshold: strconv.Itoa(s.StockAlertThreshold),
	}
}

func validate(s domain.Settings) error {
	var details []apperrors.ValidationDetail

	if len(s.Currency) != 3 || strings.IndexFunc(s.Currency, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "currency",
			Message: "currency must be a three letter ISO 4217 code",
		})
	}
	if s.DefaultIVA.IsNegative() || s.DefaultIVA.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "ivaDefault",
			Message: "ivaDefault must be between 0 and 1",
		})
	}
	if s.StockAlertThreshold < 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "stockAlertThreshold",
			Message: "stockAlertThreshold must not be negative",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid settings", details...)
	}
	return nil
}
