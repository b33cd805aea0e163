package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"trellototaiga/config"
	"trellototaiga/models"
)

// TaigaClient はTaiga APIとのやり取りを処理します
type TaigaClient struct {
	config    *config.Config
	client    *http.Client
	authToken string
}

// NewTaigaClient は新しいTaigaクライアントを作成します
func NewTaigaClient(cfg *config.Config) *TaigaClient {
	return &TaigaClient{
		config: cfg,
		client: &http.Client{},
	}
}

// Auth はTaigaにユーザー名とパスワードで認証し、トークンを保持します
func (t *TaigaClient) Auth() error {
	url := fmt.Sprintf("%s/api/v1/auth", t.config.TaigaHost)

	payload := map[string]string{
		"type":     "normal",
		"username": t.config.TaigaUsername,
		"password": t.config.TaigaPassword,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("JSONエンコードエラー: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("リクエスト作成エラー: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("認証失敗: %s", string(body))
	}

	var result struct {
		AuthToken string `json:"auth_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("レスポンス解析エラー: %w", err)
	}

	if result.AuthToken == "" {
		return fmt.Errorf("認証トークンが見つかりません")
	}

	t.authToken = result.AuthToken
	return nil
}

// get は認証済みGETリクエストを送信し、レスポンスボディをoutにデコードします
func (t *TaigaClient) get(url string, out any) error {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return fmt.Errorf("リクエスト作成エラー: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.authToken)
	// ページネーションを無効化してリスト全体を一度に取得する
	req.Header.Set("x-disable-pagination", "True")

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

// FindProjectBySlug はスラッグでプロジェクトを検索します
// 見つからない場合はエラーを返します（起動時の致命的エラー）
func (t *TaigaClient) FindProjectBySlug(slug string) (*models.TaigaProject, error) {
	url := fmt.Sprintf("%s/api/v1/projects", t.config.TaigaHost)

	var projects []models.TaigaProject
	if err := t.get(url, &projects); err != nil {
		return nil, fmt.Errorf("プロジェクト一覧取得エラー: %w", err)
	}

	for i := range projects {
		if projects[i].Slug == slug {
			return &projects[i], nil
		}
	}

	return nil, fmt.Errorf("スラッグ '%s' のプロジェクトが見つかりません", slug)
}

// ListUserStoryAttributes はプロジェクトのユーザーストーリー用カスタム属性を取得します
func (t *TaigaClient) ListUserStoryAttributes(projectID int) ([]models.UserStoryAttribute, error) {
	url := fmt.Sprintf("%s/api/v1/userstory-custom-attributes?project=%d", t.config.TaigaHost, projectID)

	var attributes []models.UserStoryAttribute
	if err := t.get(url, &attributes); err != nil {
		return nil, fmt.Errorf("カスタム属性一覧取得エラー: %w", err)
	}

	return attributes, nil
}

// ListUserStories はプロジェクトの全ユーザーストーリーを取得します
func (t *TaigaClient) ListUserStories(projectID int) ([]models.UserStory, error) {
	url := fmt.Sprintf("%s/api/v1/userstories?project=%d", t.config.TaigaHost, projectID)

	var stories []models.UserStory
	if err := t.get(url, &stories); err != nil {
		return nil, fmt.Errorf("ユーザーストーリー一覧取得エラー: %w", err)
	}

	return stories, nil
}

// SetAttribute はユーザーストーリーのカスタム属性値を1件書き込みます
// 既存の属性値を読み出してからマージして更新します
func (t *TaigaClient) SetAttribute(storyID, attributeID int, value string) error {
	url := fmt.Sprintf("%s/api/v1/userstories/custom-attributes-values/%d", t.config.TaigaHost, storyID)

	// 現在の属性値とバージョンを取得
	var current struct {
		AttributesValues map[string]any `json:"attributes_values"`
		Version          int            `json:"version"`
	}
	if err := t.get(url, &current); err != nil {
		return fmt.Errorf("属性値取得エラー: %w", err)
	}

	if current.AttributesValues == nil {
		current.AttributesValues = make(map[string]any)
	}
	current.AttributesValues[fmt.Sprintf("%d", attributeID)] = value

	payload := map[string]any{
		"attributes_values": current.AttributesValues,
		"version":           current.Version,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("JSONエンコードエラー: %w", err)
	}

	req, err := http.NewRequest("PATCH", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("リクエスト作成エラー: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("属性値更新失敗 (%d): %s", resp.StatusCode, string(body))
	}

	return nil
}
