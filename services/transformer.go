package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"trellototaiga/config"
	"trellototaiga/models"
	"trellototaiga/utils"
)

// taigaTimestampFormat はTaigaインポートドキュメント内の日時表記です
const taigaTimestampFormat = "2006-01-02T15:04:05+0000"

// requiredDocumentKeys はテンプレートに必須のトップレベルキーです
// 欠落は構造異常として変換前に致命的エラーになります
var requiredDocumentKeys = []string{
	"us_statuses", "user_stories", "userstorycustomattributes", "tasks",
	"points", "epic_statuses", "task_statuses", "issue_types",
	"issue_statuses", "priorities", "severities", "tags_colors", "roles",
}

// labelColorMap はTrelloのラベル色名 → 16進カラーコードの固定パレットです
// 未知の色はnull（色なしタグ）になります
var labelColorMap = map[string]any{
	"green":  "#008000",
	"sky":    "sky",
	"black":  "#000000",
	"orange": "#ffa500",
	"red":    "#ff0000",
	"yellow": "#ffff00",
	"blue":   "#0000ff",
	"lime":   "#00ff00",
	"purple": "#800080",
	"pink":   "ffc0cb",
}

// TransformService はTrelloエクスポートからTaigaインポートドキュメントへの変換を担当します
type TransformService struct {
	config *config.Config
}

// NewTransformService は新しい変換サービスを作成します
func NewTransformService(cfg *config.Config) *TransformService {
	return &TransformService{
		config: cfg,
	}
}

// ReadTrelloExport はTrelloエクスポートJSONを読み込みます
func (s *TransformService) ReadTrelloExport() (*models.TrelloExport, error) {
	utils.LogInfo("Trelloエクスポートファイル '%s' を読み込みます", s.config.TrelloExportJSON)

	data, err := os.ReadFile(s.config.TrelloExportJSON)
	if err != nil {
		return nil, fmt.Errorf("エクスポートファイルオープンエラー: %w", err)
	}

	var export models.TrelloExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("エクスポートJSON解析エラー: %w", err)
	}

	utils.LogInfo("Trelloエクスポートを読み込みました: リスト=%d, カード=%d, カスタムフィールド=%d",
		len(export.Lists), len(export.Cards), len(export.CustomFields))
	return &export, nil
}

// ReadTemplate はTaigaプロジェクトテンプレートJSONを読み込みます
func (s *TransformService) ReadTemplate() (models.ImportDocument, error) {
	utils.LogInfo("Taigaテンプレートファイル '%s' を読み込みます", s.config.TaigaTemplateJSON)

	data, err := os.ReadFile(s.config.TaigaTemplateJSON)
	if err != nil {
		return nil, fmt.Errorf("テンプレートオープンエラー: %w", err)
	}

	var doc models.ImportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("テンプレートJSON解析エラー: %w", err)
	}

	return doc, nil
}

// Transform はエクスポートデータをインポートドキュメントに変換します
// テンプレート構造の異常や存在しないリスト参照は致命的エラーです
func (s *TransformService) Transform(export *models.TrelloExport, doc models.ImportDocument) error {
	// テンプレートの必須キーを最初に検証する
	for _, key := range requiredDocumentKeys {
		if _, err := doc.Catalog(key); err != nil {
			return err
		}
	}

	s.applyProjectHeader(export, doc)

	lists, err := s.mapStatuses(export, doc)
	if err != nil {
		return err
	}

	maxRef, err := s.mapUserStories(export, doc, lists)
	if err != nil {
		return err
	}

	catalog := NewFieldCatalog(export.CustomFields)
	if err := s.mapCustomAttributes(export, doc, catalog); err != nil {
		return err
	}

	if err := EnrichTemplate(doc); err != nil {
		return err
	}

	if err := s.mapChecklistTasks(export, doc, maxRef); err != nil {
		return err
	}

	s.mapTagColors(export, doc)

	return nil
}

// applyProjectHeader はプロジェクト名・説明・ウォッチャーを設定します
func (s *TransformService) applyProjectHeader(export *models.TrelloExport, doc models.ImportDocument) {
	name := s.config.ProjectName

	description := export.Desc
	if description == "" {
		description = "Imported from Trello"
	}

	doc["name"] = name
	doc["slug"] = strings.ReplaceAll(strings.ToLower(name), " ", "-")
	doc["description"] = description
	doc["watchers"] = []any{s.config.DefaultOwnerEmail}
}

// mapStatuses はTrelloのリストをus_statusesに変換します
// 戻り値はリストID → リスト名の参照表です
func (s *TransformService) mapStatuses(export *models.TrelloExport, doc models.ImportDocument) (map[string]string, error) {
	lists := make(map[string]string, len(export.Lists))

	// ステータスはエクスポート由来で全面的に作り直す
	doc["us_statuses"] = []any{}

	for i, list := range export.Lists {
		lists[list.ID] = list.Name

		err := doc.Append("us_statuses", models.Record{
			"name":        list.Name,
			"slug":        strings.ReplaceAll(strings.ToLower(list.Name), " ", "-"),
			"order":       i + 1,
			"is_closed":   false,
			"is_archived": false,
			"color":       "#70728F",
			"wip_limit":   nil,
		})
		if err != nil {
			return nil, err
		}
	}

	if len(export.Lists) > 0 {
		doc["default_us_status"] = export.Lists[0].Name
	}

	return lists, nil
}

// mapUserStories はカードをユーザーストーリーに変換します
// 戻り値は割り当てた最大のref値です（タスクref採番の起点に使う）
func (s *TransformService) mapUserStories(export *models.TrelloExport, doc models.ImportDocument, lists map[string]string) (int, error) {
	ref := 0

	for _, card := range export.Cards {
		// "test" という名前のカードは出力から除外する
		if strings.EqualFold(card.Name, "test") {
			utils.LogInfo("テストカード '%s' をスキップします", card.Name)
			continue
		}

		status, ok := lists[card.IDList]
		if !ok {
			return 0, fmt.Errorf("カード '%s' が参照するリスト '%s' が見つかりません", card.Name, card.IDList)
		}

		// refは出力されるカードの1始まりの連番
		ref++

		// 空の説明は空文字列ではなくnullとして出力する
		var description any
		if card.Desc != "" {
			description = card.Desc
		}

		tags := []any{}
		for _, label := range card.Labels {
			tag := strings.ToLower(strings.TrimSpace(label.Name))
			if tag != "" {
				tags = append(tags, tag)
			}
		}

		attachments := []any{}
		for _, attachment := range card.Attachments {
			attachments = append(attachments, map[string]any{
				"owner": s.config.DefaultOwnerEmail,
				"attached_file": map[string]any{
					"data": "",
					"name": attachment.FileName,
				},
				"created_date":  attachment.Date,
				"modified_date": attachment.Date,
				"description":   "",
				"is_deprecated": false,
				"name":          attachment.Name,
				"order":         ref,
				"sha1":          "",
				"size":          attachment.Bytes,
			})
		}

		err := doc.Append("user_stories", models.Record{
			"watchers":                 []any{},
			"attachments":              attachments,
			"history":                  []any{},
			"custom_attributes_values": map[string]any{},
			"role_points":              []any{},
			"owner":                    s.config.DefaultOwnerEmail,
			"assigned_to":              nil,
			"assigned_users":           []any{},
			"status":                   status,
			"swimlane":                 nil,
			"milestone":                nil,
			"modified_date":            card.DateLastActivity,
			"created_date":             card.DateLastActivity,
			"finish_date":              nil,
			"generated_from_issue":     nil,
			"generated_from_task":      nil,
			"from_task_ref":            nil,
			"ref":                      ref,
			"is_closed":                card.Closed,
			"backlog_order":            1711984560338393,
			"sprint_order":             1711984560338443,
			"kanban_order":             1,
			"subject":                  card.Name,
			"description":              description,
			"client_requirement":       false,
			"team_requirement":         false,
			"external_reference":       nil,
			"tribe_gig":                nil,
			"version":                  5,
			"blocked_note":             "",
			"is_blocked":               false,
			"tags":                     tags,
			"due_date":                 nil,
			"due_date_reason":          "",
		})
		if err != nil {
			return 0, err
		}
	}

	utils.LogInfo("ユーザーストーリーを変換しました: %d 件", ref)
	return ref, nil
}

// mapCustomAttributes はカスタムフィールド定義をuserstorycustomattributesに変換します
func (s *TransformService) mapCustomAttributes(export *models.TrelloExport, doc models.ImportDocument, catalog *FieldCatalog) error {
	now := time.Now().Format(taigaTimestampFormat)

	for i, field := range export.CustomFields {
		name, ok := catalog.NameForID(field.ID)
		if !ok {
			continue
		}

		err := doc.Append("userstorycustomattributes", models.Record{
			"name":          name,
			"description":   Description(name),
			"type":          catalog.AttributeType(field.ID),
			"order":         i + 1,
			"created_date":  now,
			"modified_date": now,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// mapChecklistTasks はチェックリスト項目をタスクに変換します
// refはユーザーストーリーの最大refより上から採番して衝突を避けます
func (s *TransformService) mapChecklistTasks(export *models.TrelloExport, doc models.ImportDocument, maxStoryRef int) error {
	now := time.Now().Format(taigaTimestampFormat)
	refCounter := maxStoryRef + 1
	count := 0

	for _, checklist := range export.Checklists {
		for _, item := range checklist.CheckItems {
			status := "Incomplete"
			if item.State == "complete" {
				status = "Complete"
			}

			err := doc.Append("tasks", models.Record{
				"watchers":                 []any{},
				"attachments":              []any{},
				"history":                  []any{},
				"custom_attributes_values": map[string]any{},
				"owner":                    nil,
				"status":                   status,
				"user_story":               nil,
				"milestone":                nil,
				"assigned_to":              nil,
				"modified_date":            now,
				"created_date":             now,
				"finished_date":            now,
				"ref":                      refCounter,
				"subject":                  item.Name,
				"us_order":                 item.Pos,
				"taskboard_order":          item.Pos,
				"description":              "",
				"is_iocaine":               false,
				"external_reference":       nil,
				"version":                  1,
				"blocked_note":             "",
				"is_blocked":               false,
				"tags":                     []any{},
				"due_date":                 nil,
				"due_date_reason":          "",
			})
			if err != nil {
				return err
			}

			refCounter++
			count++
		}
	}

	utils.LogInfo("チェックリスト項目をタスクに変換しました: %d 件", count)
	return nil
}

// mapTagColors はラベルをtags_colorsに変換します
func (s *TransformService) mapTagColors(export *models.TrelloExport, doc models.ImportDocument) {
	tagsColors := []any{}

	for _, label := range export.Labels {
		name := label.Name

		// 名前のない紫ラベルは "purple" という名前で出力する
		if label.Color == "purple" && name == "" {
			name = "purple"
		}

		color, ok := labelColorMap[label.Color]
		if !ok {
			color = nil
		}

		tagsColors = append(tagsColors, []any{strings.ToLower(name), color})
	}

	doc["tags_colors"] = tagsColors
}

// WriteImportDocument は変換結果をJSONファイルに書き出します
// 直列化を完了してからファイルを作成するため、部分的な出力は残りません
func (s *TransformService) WriteImportDocument(doc models.ImportDocument) error {
	utils.LogInfo("Taigaインポートファイル '%s' を作成します", s.config.TaigaImportJSON)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("JSONエンコードエラー: %w", err)
	}

	if err := os.WriteFile(s.config.TaigaImportJSON, data, 0o644); err != nil {
		return fmt.Errorf("インポートファイル書き込みエラー: %w", err)
	}

	utils.LogInfo("インポートファイルの書き込みが完了しました")
	return nil
}
