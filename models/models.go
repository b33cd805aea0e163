package models

import (
	"fmt"
	"sort"
)

// TrelloExport はTrelloボードのエクスポートJSON全体を表します
type TrelloExport struct {
	Name         string        `json:"name"`
	Desc         string        `json:"desc"`
	Lists        []TrelloList  `json:"lists"`
	Cards        []TrelloCard  `json:"cards"`
	CustomFields []CustomField `json:"customFields"`
	Checklists   []Checklist   `json:"checklists"`
	Labels       []TrelloLabel `json:"labels"`
}

// TrelloList はTrelloのリスト（Taigaのステータスに対応）を表します
type TrelloList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TrelloCard はTrelloのカードを表します
type TrelloCard struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Desc             string            `json:"desc"`
	IDList           string            `json:"idList"`
	DateLastActivity string            `json:"dateLastActivity"`
	Closed           bool              `json:"closed"`
	Labels           []TrelloLabel     `json:"labels"`
	Attachments      []Attachment      `json:"attachments"`
	CustomFieldItems []CustomFieldItem `json:"customFieldItems"`
}

// TrelloLabel はTrelloのラベル（Taigaのタグに対応）を表します
type TrelloLabel struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Attachment はカードの添付ファイルのメタデータを表します
type Attachment struct {
	Name     string `json:"name"`
	FileName string `json:"fileName"`
	Bytes    int64  `json:"bytes"`
	Date     string `json:"date"`
}

// CustomField はTrelloのカスタムフィールド定義を表します
// Options は list 型のフィールドにのみ存在します
type CustomField struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Type    string              `json:"type"`
	Options []CustomFieldOption `json:"options"`
}

// CustomFieldOption はドロップダウンの選択肢を表します
type CustomFieldOption struct {
	ID    string           `json:"id"`
	Value CustomFieldValue `json:"value"`
}

// CustomFieldItem はカードごとのカスタムフィールド値を表します
// Value と IDValue はどちらか一方のみが設定されます
type CustomFieldItem struct {
	IDCustomField string            `json:"idCustomField"`
	Value         *CustomFieldValue `json:"value"`
	IDValue       string            `json:"idValue"`
}

// CustomFieldValue はカスタムフィールドの値本体を表します
type CustomFieldValue struct {
	Text string `json:"text,omitempty"`
	Date string `json:"date,omitempty"`
}

// Checklist はTrelloのチェックリストを表します
type Checklist struct {
	Name       string      `json:"name"`
	CheckItems []CheckItem `json:"checkItems"`
}

// CheckItem はチェックリストの項目（Taigaのタスクに対応）を表します
type CheckItem struct {
	Name  string  `json:"name"`
	State string  `json:"state"`
	Pos   float64 `json:"pos"`
}

// TaigaProject はTaiga上のプロジェクトを表します
type TaigaProject struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// UserStoryAttribute はTaigaのユーザーストーリー用カスタム属性を表します
// Extra はドロップダウン型属性の許容値リストです
type UserStoryAttribute struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Extra []string `json:"extra"`
}

// UserStory はTaiga上のユーザーストーリーを表します
type UserStory struct {
	ID      int    `json:"id"`
	Ref     int    `json:"ref"`
	Subject string `json:"subject"`
	Version int    `json:"version"`
}

// Record はTaigaインポートドキュメント内の1レコードを表します (キー→値のマップ)
type Record map[string]any

// FieldValues はカード名→(フィールド名→表示値)のマッピングを表します
type FieldValues map[string]map[string]string

// ImportDocument はTaigaの一括インポートドキュメントを表します
// テンプレートJSONをそのままデコードするため、未知のキーも保持されます
type ImportDocument map[string]any

// Catalog は指定キーのカタログ配列を返します
// キーが存在しない場合はテンプレート構造の異常として致命的エラーを返します
func (d ImportDocument) Catalog(key string) ([]any, error) {
	raw, ok := d[key]
	if !ok {
		return nil, fmt.Errorf("テンプレートにキー '%s' が見つかりません", key)
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("テンプレートのキー '%s' が配列ではありません", key)
	}
	return entries, nil
}

// Append は指定キーのカタログ配列にレコードを追加します
func (d ImportDocument) Append(key string, records ...Record) error {
	entries, err := d.Catalog(key)
	if err != nil {
		return err
	}
	for _, record := range records {
		entries = append(entries, map[string]any(record))
	}
	d[key] = entries
	return nil
}

// SortCatalogByOrder は指定キーのカタログ配列を order フィールドの昇順で安定ソートします
func (d ImportDocument) SortCatalogByOrder(key string) error {
	entries, err := d.Catalog(key)
	if err != nil {
		return err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return orderOf(entries[i]) < orderOf(entries[j])
	})
	d[key] = entries
	return nil
}

// RemapDefault はデフォルト参照フィールドが旧値を指している場合に新値へ付け替えます
func (d ImportDocument) RemapDefault(key string, oldValue, newValue any) {
	if current, ok := d[key]; ok && current == oldValue {
		d[key] = newValue
	}
}

// orderOf はレコードの order フィールドを数値として取り出します
// JSONデコード後の float64 と追加レコードの int の両方を受け付けます
func orderOf(entry any) float64 {
	record, ok := entry.(map[string]any)
	if !ok {
		return 0
	}
	switch v := record["order"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
