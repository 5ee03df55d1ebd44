package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"weighttracker/internal/domain"
	"weighttracker/internal/live"
)

// SettingsService exposes the theme and language preferences as persisted,
// observable values.
type SettingsService struct {
	theme    *preference[domain.Theme]
	language *preference[domain.Language]
}

// NewSettingsService creates a SettingsService backed by the given repository.
func NewSettingsService(repo domain.SettingsRepository, log *zap.Logger) *SettingsService {
	return &SettingsService{
		theme:    newPreference(repo, log, domain.PreferenceTheme, domain.DefaultTheme, domain.ParseTheme),
		language: newPreference(repo, log, domain.PreferenceLanguage, domain.DefaultLanguage, domain.ParseLanguage),
	}
}

// Theme returns the persisted theme, or the default when unset.
func (s *SettingsService) Theme(ctx context.Context) (domain.Theme, error) {
	return s.theme.get(ctx)
}

// SetTheme persists t and publishes it to observers.
func (s *SettingsService) SetTheme(ctx context.Context, t domain.Theme) error {
	return s.theme.set(ctx, t)
}

// ObserveTheme streams the current theme and every later change.
func (s *SettingsService) ObserveTheme(ctx context.Context) (<-chan domain.Theme, error) {
	return s.theme.observe(ctx)
}

// Language returns the persisted language, or the default when unset.
func (s *SettingsService) Language(ctx context.Context) (domain.Language, error) {
	return s.language.get(ctx)
}

// SetLanguage persists l and publishes it to observers.
func (s *SettingsService) SetLanguage(ctx context.Context, l domain.Language) error {
	return s.language.set(ctx, l)
}

// ObserveLanguage streams the current language and every later change.
func (s *SettingsService) ObserveLanguage(ctx context.Context) (<-chan domain.Language, error) {
	return s.language.observe(ctx)
}

// Settings returns both preferences.
func (s *SettingsService) Settings(ctx context.Context) (domain.Settings, error) {
	t, err := s.Theme(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	l, err := s.Language(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	return domain.Settings{Theme: t, Language: l}, nil
}

// Close ends every observation stream.
func (s *SettingsService) Close() {
	s.theme.value.Close()
	s.language.value.Close()
}

// preference is one key of the key/value space, decoded permissively.
type preference[T ~string] struct {
	repo  domain.SettingsRepository
	log   *zap.Logger
	key   domain.PreferenceKey
	parse func(string) T
	value *live.Value[T]

	mu     sync.Mutex
	loaded bool
}

func newPreference[T ~string](repo domain.SettingsRepository, log *zap.Logger, key domain.PreferenceKey, def T, parse func(string) T) *preference[T] {
	return &preference[T]{
		repo:  repo,
		log:   log,
		key:   key,
		parse: parse,
		value: live.NewValue(def),
	}
}

func (p *preference[T]) get(ctx context.Context) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.loadLocked(ctx); err != nil {
		var zero T
		return zero, err
	}
	return p.value.Get(), nil
}

func (p *preference[T]) set(ctx context.Context, v T) error {
	ctx = context.WithoutCancel(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.repo.SetPreference(ctx, p.key, string(v)); err != nil {
		return storageErr("set "+string(p.key), err)
	}
	p.loaded = true
	if p.value.Get() != v {
		p.value.Set(v)
	}
	p.log.Debug("preference updated", zap.String("key", string(p.key)), zap.String("value", string(v)))
	return nil
}

// observe subscribes before loading so the observer sees the default first
// and the persisted value once it has been read.
func (p *preference[T]) observe(ctx context.Context) (<-chan T, error) {
	ch, unsubscribe := p.value.Subscribe(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.loadLocked(ctx); err != nil {
		unsubscribe()
		return nil, err
	}
	return ch, nil
}

func (p *preference[T]) loadLocked(ctx context.Context) error {
	if p.loaded {
		return nil
	}
	raw, found, err := p.repo.GetPreference(ctx, p.key)
	if err != nil {
		return storageErr("get "+string(p.key), err)
	}
	v := p.parse(raw)
	if found && string(v) != raw {
		p.log.Warn("unrecognised preference value, using default",
			zap.String("key", string(p.key)), zap.String("stored", raw), zap.String("default", string(v)))
	}
	p.loaded = true
	if p.value.Get() != v {
		p.value.Set(v)
	}
	return nil
}
