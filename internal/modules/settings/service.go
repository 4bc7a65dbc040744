package settings

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aldikusuma/neraca/internal/events"
)

// Service resolves display settings against their config defaults and
// validates writes. Reads go straight to the repository every time: the
// table is tiny and a stale cached value would defeat the point of runtime
// settings.
type Service struct {
	repo     *Repository
	defaults Defaults
	bus      *events.Bus
	log      zerolog.Logger
}

// NewService creates the settings service.
func NewService(repo *Repository, defaults Defaults, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		defaults: defaults,
		bus:      bus,
		log:      log.With().Str("service", "settings").Logger(),
	}
}

// HistoryFromYear returns the first year of chart history.
func (s *Service) HistoryFromYear() int {
	v, err := s.repo.GetInt(KeyHistoryFromYear, s.defaults.HistoryFromYear)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read history year setting")
		return s.defaults.HistoryFromYear
	}
	return v
}

// DefaultHorizon returns the horizon used when a run omits one. The stored
// value is clamped to the configured bounds in case an older write predates
// a bounds change.
func (s *Service) DefaultHorizon() int {
	v, err := s.repo.GetInt(KeyDefaultHorizon, s.defaults.DefaultHorizon)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read default horizon setting")
		return s.defaults.DefaultHorizon
	}
	if v < s.defaults.HorizonMin {
		v = s.defaults.HorizonMin
	}
	if v > s.defaults.HorizonMax {
		v = s.defaults.HorizonMax
	}
	return v
}

// RetentionDays returns the run log retention window.
func (s *Service) RetentionDays() int {
	v, err := s.repo.GetInt(KeyRetentionDays, s.defaults.RetentionDays)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read retention setting")
		return s.defaults.RetentionDays
	}
	return v
}

// MovingAverageWindow returns the overlay window, zero when disabled.
func (s *Service) MovingAverageWindow() int {
	v, err := s.repo.GetInt(KeyMAWindow, 0)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read moving average setting")
		return 0
	}
	return v
}

// All returns every known key with its resolved value.
func (s *Service) All() map[string]int {
	return map[string]int{
		KeyHistoryFromYear: s.HistoryFromYear(),
		KeyDefaultHorizon:  s.DefaultHorizon(),
		KeyRetentionDays:   s.RetentionDays(),
		KeyMAWindow:        s.MovingAverageWindow(),
	}
}

// Update validates and stores one setting, then announces the change.
func (s *Service) Update(key string, value int) error {
	if err := s.validate(key, value); err != nil {
		return err
	}

	if err := s.repo.SetInt(key, value); err != nil {
		return err
	}

	s.log.Info().Str("key", key).Int("value", value).Msg("Setting updated")
	if s.bus != nil {
		s.bus.Emit(events.SettingsChanged, "settings", events.SettingsChangedData{
			Key:   key,
			Value: value,
		})
	}
	return nil
}

func (s *Service) validate(key string, value int) error {
	switch key {
	case KeyHistoryFromYear:
		if value < 1900 || value > 2200 {
			return fmt.Errorf("%s must be a plausible year, got %d", key, value)
		}
	case KeyDefaultHorizon:
		if value < s.defaults.HorizonMin || value > s.defaults.HorizonMax {
			return fmt.Errorf("%s must be between %d and %d, got %d",
				key, s.defaults.HorizonMin, s.defaults.HorizonMax, value)
		}
	case KeyRetentionDays:
		if value < 0 {
			return fmt.Errorf("%s cannot be negative, got %d", key, value)
		}
	case KeyMAWindow:
		if value != 0 && (value < 2 || value > 60) {
			return fmt.Errorf("%s must be 0 (off) or between 2 and 60, got %d", key, value)
		}
	default:
		return fmt.Errorf("unknown setting key %q", key)
	}
	return nil
}
