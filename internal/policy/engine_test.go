package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gapii-backup/smart-assistant-widget/internal/config"
	"github.com/gapii-backup/smart-assistant-widget/internal/domain"
	"github.com/gapii-backup/smart-assistant-widget/internal/markup"
)

func TestDefaultPolicyGates(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	tests := []struct {
		name     string
		features Features
		want     markup.Gates
	}{
		{
			name:     "all features",
			features: Features{BookingEnabled: true, SupportEnabled: true},
			want: markup.Gates{
				markup.MarkerContact:    true,
				markup.MarkerBooking:    true,
				markup.MarkerNewsletter: true,
				markup.MarkerProducts:   true,
			},
		},
		{
			name:     "booking disabled",
			features: Features{SupportEnabled: true},
			want: markup.Gates{
				markup.MarkerContact:    true,
				markup.MarkerBooking:    false,
				markup.MarkerNewsletter: true,
				markup.MarkerProducts:   true,
			},
		},
		{
			name:     "nothing enabled",
			features: Features{},
			want: markup.Gates{
				markup.MarkerContact:    false,
				markup.MarkerBooking:    false,
				markup.MarkerNewsletter: true,
				markup.MarkerProducts:   true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gates, err := engine.Gates(ctx, tt.features)
			require.NoError(t, err)
			assert.Equal(t, tt.want, gates)
		})
	}
}

func TestCustomPolicy(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "markers.rego")
	require.NoError(t, os.WriteFile(path, []byte(`
package marker_policy

import rego.v1

gates := {"newsletter": false, "product_cards": true}
`), 0o644))

	content, err := LoadPolicy(path)
	require.NoError(t, err)

	engine, err := NewEngine(ctx, content)
	require.NoError(t, err)

	gates, err := engine.Gates(ctx, Features{BookingEnabled: true, SupportEnabled: true})
	require.NoError(t, err)
	assert.False(t, gates.Enabled(markup.MarkerNewsletter))
	assert.False(t, gates.Enabled(markup.MarkerBooking))
	assert.True(t, gates.Enabled(markup.MarkerProducts))
}

func TestInvalidPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package marker_policy\n\ngates := {")
	require.Error(t, err)

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.rego"))
	require.Error(t, err)
}

func TestNonBoolGate(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, "package marker_policy\n\nimport rego.v1\n\ngates := {\"booking\": \"yes\"}\n")
	require.NoError(t, err)

	_, err = engine.Gates(ctx, Features{})
	require.Error(t, err)
}

func TestNewParserFollowsFeatures(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	parser, err := NewParser(ctx, engine, &config.Config{BookingEnabled: false, SupportEnabled: true})
	require.NoError(t, err)

	blocks := parser.Parse("Call us [CONTACT_FORM] or book [BOOKING]")
	assert.Equal(t, []domain.Block{
		domain.TextRun("Call us "),
		domain.ActionButton(domain.ActionContact),
		domain.TextRun(" or book [BOOKING]"),
	}, blocks)
}
