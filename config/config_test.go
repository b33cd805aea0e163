package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireTaigaNamesMissingVariable(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		missing string
	}{
		{
			name:    "missing host",
			config:  Config{},
			missing: "TAIGA_HOST",
		},
		{
			name:    "missing username",
			config:  Config{TaigaHost: "https://taiga.example.com"},
			missing: "TAIGA_USERNAME",
		},
		{
			name: "missing slug",
			config: Config{
				TaigaHost:     "https://taiga.example.com",
				TaigaUsername: "admin",
				TaigaPassword: "secret",
			},
			missing: "TAIGA_PROJECT_SLUG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.RequireTaiga()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestRequireTaigaComplete(t *testing.T) {
	cfg := Config{
		TaigaHost:        "https://taiga.example.com",
		TaigaUsername:    "admin",
		TaigaPassword:    "secret",
		TaigaProjectSlug: "trainings",
	}

	assert.NoError(t, cfg.RequireTaiga())
}

func TestRequireTrelloNamesMissingVariable(t *testing.T) {
	cfg := Config{TrelloAPIKey: "key"}

	err := cfg.RequireTrello()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRELLO_API_TOKEN")
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TRELLO_EXPORT_JSON", "")
	t.Setenv("TAIGA_TEMPLATE_JSON", "")
	t.Setenv("TAIGA_IMPORT_JSON", "")
	t.Setenv("TRELLO_API_BASE_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "trello_export.json", cfg.TrelloExportJSON)
	assert.Equal(t, "template.json", cfg.TaigaTemplateJSON)
	assert.Equal(t, "import.json", cfg.TaigaImportJSON)
	assert.Equal(t, "https://api.trello.com", cfg.TrelloBaseURL)
}

func TestLoadConfigTrimsHostSlash(t *testing.T) {
	t.Setenv("TAIGA_HOST", "https://taiga.example.com/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://taiga.example.com", cfg.TaigaHost)
}
