package repository

import (
	"context"
	"fmt"
)

// Preferences stores small per-visitor widget settings. The welcome bubble
// state lives in ephemeral storage so it resets with the process; the rest is
// durable.
type Preferences struct {
	durable   KV
	ephemeral KV
	suffix    string
}

func NewPreferences(durable, ephemeral KV, tableName string) *Preferences {
	return &Preferences{durable: durable, ephemeral: ephemeral, suffix: tableName}
}

func (p *Preferences) key(name string) string {
	return "bm_" + name + "_" + p.suffix
}

func (p *Preferences) WelcomeDismissed(ctx context.Context) (bool, error) {
	return getBool(ctx, p.ephemeral, p.key("welcome_dismissed"))
}

func (p *Preferences) DismissWelcome(ctx context.Context) error {
	return setBool(ctx, p.ephemeral, p.key("welcome_dismissed"), true)
}

// WidgetOpen reports the remembered open state of the widget panel.
func (p *Preferences) WidgetOpen(ctx context.Context) (bool, error) {
	return getBool(ctx, p.durable, p.key("widget_open"))
}

func (p *Preferences) SetWidgetOpen(ctx context.Context, open bool) error {
	return setBool(ctx, p.durable, p.key("widget_open"), open)
}

// LastEmail returns the email the visitor entered most recently, if any.
func (p *Preferences) LastEmail(ctx context.Context) (string, error) {
	v, _, err := p.durable.Get(ctx, p.key("email"))
	if err != nil {
		return "", fmt.Errorf("failed to load email: %w", err)
	}
	return v, nil
}

func (p *Preferences) SetLastEmail(ctx context.Context, email string) error {
	if err := p.durable.Set(ctx, p.key("email"), email); err != nil {
		return fmt.Errorf("failed to save email: %w", err)
	}
	return nil
}

func getBool(ctx context.Context, kv KV, key string) (bool, error) {
	v, ok, err := kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return ok && v == "true", nil
}

func setBool(ctx context.Context, kv KV, key string, value bool) error {
	s := "false"
	if value {
		s = "true"
	}
	if err := kv.Set(ctx, key, s); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
