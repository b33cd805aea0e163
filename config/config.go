package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Taiga API設定
	TaigaHost        string
	TaigaUsername    string
	TaigaPassword    string
	TaigaProjectSlug string

	// Trello API設定（ライブ取得モード用）
	TrelloAPIKey   string
	TrelloAPIToken string
	TrelloBoardID  string
	TrelloBaseURL  string

	// ファイルパス
	TrelloExportJSON  string
	TaigaTemplateJSON string
	TaigaImportJSON   string

	// インポートドキュメントのプロジェクト情報
	ProjectName       string
	DefaultOwnerEmail string
}

// LoadConfig は環境変数から設定を読み込みます
func LoadConfig() (*Config, error) {
	// .envファイルを読み込む
	_ = godotenv.Load()

	config := &Config{
		TaigaHost:         strings.TrimRight(os.Getenv("TAIGA_HOST"), "/"),
		TaigaUsername:     os.Getenv("TAIGA_USERNAME"),
		TaigaPassword:     os.Getenv("TAIGA_PASSWORD"),
		TaigaProjectSlug:  os.Getenv("TAIGA_PROJECT_SLUG"),
		TrelloAPIKey:      os.Getenv("TRELLO_API_KEY"),
		TrelloAPIToken:    os.Getenv("TRELLO_API_TOKEN"),
		TrelloBoardID:     os.Getenv("TRELLO_BOARD_ID"),
		TrelloBaseURL:     strings.TrimRight(getEnvWithDefault("TRELLO_API_BASE_URL", "https://api.trello.com"), "/"),
		TrelloExportJSON:  getEnvWithDefault("TRELLO_EXPORT_JSON", "trello_export.json"),
		TaigaTemplateJSON: getEnvWithDefault("TAIGA_TEMPLATE_JSON", "template.json"),
		TaigaImportJSON:   getEnvWithDefault("TAIGA_IMPORT_JSON", "import.json"),
		ProjectName:       getEnvWithDefault("PROJECT_NAME", "Trainings By Cloudbase Solutions"),
		DefaultOwnerEmail: getEnvWithDefault("DEFAULT_OWNER_EMAIL", "info@cloudbasesolutions.com"),
	}

	return config, nil
}

// RequireTaiga はTaiga APIアクセスに必要な設定が揃っているか検証します
// 不足している場合は最初に見つかった環境変数名を含むエラーを返します
func (c *Config) RequireTaiga() error {
	required := []struct {
		name  string
		value string
	}{
		{"TAIGA_HOST", c.TaigaHost},
		{"TAIGA_USERNAME", c.TaigaUsername},
		{"TAIGA_PASSWORD", c.TaigaPassword},
		{"TAIGA_PROJECT_SLUG", c.TaigaProjectSlug},
	}

	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("必須の環境変数 '%s' が設定されていません", r.name)
		}
	}

	return nil
}

// RequireTrello はTrello APIのライブ取得に必要な設定が揃っているか検証します
func (c *Config) RequireTrello() error {
	required := []struct {
		name  string
		value string
	}{
		{"TRELLO_API_KEY", c.TrelloAPIKey},
		{"TRELLO_API_TOKEN", c.TrelloAPIToken},
		{"TRELLO_BOARD_ID", c.TrelloBoardID},
	}

	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("必須の環境変数 '%s' が設定されていません", r.name)
		}
	}

	return nil
}

// デフォルト値付きで環境変数を取得
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
