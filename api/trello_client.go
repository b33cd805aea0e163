package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"trellototaiga/config"
	"trellototaiga/models"
)

// TrelloClient はTrello APIとのやり取りを処理します
// エクスポートファイルの代わりにボードから直接データを取得する場合に使用します
type TrelloClient struct {
	config  *config.Config
	client  *http.Client
	baseURL string
}

// NewTrelloClient は新しいTrelloクライアントを作成します
func NewTrelloClient(cfg *config.Config) *TrelloClient {
	baseURL := cfg.TrelloBaseURL
	if baseURL == "" {
		baseURL = "https://api.trello.com"
	}

	return &TrelloClient{
		config:  cfg,
		client:  &http.Client{},
		baseURL: baseURL,
	}
}

// get は認証クエリ付きGETリクエストを送信し、レスポンスボディをoutにデコードします
func (t *TrelloClient) get(path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", t.config.TrelloAPIKey)
	query.Set("token", t.config.TrelloAPIToken)

	requestURL := fmt.Sprintf("%s%s?%s", t.baseURL, path, query.Encode())

	req, err := http.NewRequest("GET", requestURL, nil)
	if err != nil {
		return fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("リクエスト失敗 (%d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("レスポンス解析エラー: %w", err)
	}

	return nil
}

// ListCards はボードの全カードをカスタムフィールド値付きで取得します
func (t *TrelloClient) ListCards(boardID string) ([]models.TrelloCard, error) {
	query := url.Values{}
	query.Set("customFieldItems", "true")
	query.Set("attachments", "true")

	var cards []models.TrelloCard
	if err := t.get(fmt.Sprintf("/1/boards/%s/cards", boardID), query, &cards); err != nil {
		return nil, fmt.Errorf("カード一覧取得エラー: %w", err)
	}

	return cards, nil
}

// ListCustomFields はボードのカスタムフィールド定義を取得します
func (t *TrelloClient) ListCustomFields(boardID string) ([]models.CustomField, error) {
	var fields []models.CustomField
	if err := t.get(fmt.Sprintf("/1/boards/%s/customFields", boardID), nil, &fields); err != nil {
		return nil, fmt.Errorf("カスタムフィールド一覧取得エラー: %w", err)
	}

	return fields, nil
}

// ListChecklists はボードの全チェックリストを取得します
func (t *TrelloClient) ListChecklists(boardID string) ([]models.Checklist, error) {
	var checklists []models.Checklist
	if err := t.get(fmt.Sprintf("/1/boards/%s/checklists", boardID), nil, &checklists); err != nil {
		return nil, fmt.Errorf("チェックリスト一覧取得エラー: %w", err)
	}

	return checklists, nil
}

// ListLabels はボードの全ラベルを取得します
func (t *TrelloClient) ListLabels(boardID string) ([]models.TrelloLabel, error) {
	var labels []models.TrelloLabel
	if err := t.get(fmt.Sprintf("/1/boards/%s/labels", boardID), nil, &labels); err != nil {
		return nil, fmt.Errorf("ラベル一覧取得エラー: %w", err)
	}

	return labels, nil
}
