package services

import (
	"fmt"
	"sort"
	"time"

	"trellototaiga/api"
	"trellototaiga/config"
	"trellototaiga/models"
	"trellototaiga/utils"
)

// dropdownConstrainedFields はサーバー側の許容値リストに対して検証するフィールドです
var dropdownConstrainedFields = map[string]bool{
	"Trainer":  true,
	"Type":     true,
	"Duration": true,
}

// ReconcileService はインポート済みユーザーストーリーへの
// カスタム属性値の突き合わせと書き込みを処理します
type ReconcileService struct {
	config    *config.Config
	taiga     *api.TaigaClient
	trello    *api.TrelloClient
	transform *TransformService
}

// NewReconcileService は新しい突き合わせサービスを作成します
func NewReconcileService(cfg *config.Config, taiga *api.TaigaClient, trello *api.TrelloClient, transform *TransformService) *ReconcileService {
	return &ReconcileService{
		config:    cfg,
		taiga:     taiga,
		trello:    trello,
		transform: transform,
	}
}

// loadSource はカードとカスタムフィールド定義を取得します
// liveがtrueの場合はTrello APIから、そうでなければエクスポートファイルから読み込みます
func (r *ReconcileService) loadSource(live bool) ([]models.TrelloCard, []models.CustomField, error) {
	if live {
		utils.LogInfo("Trello APIからボード '%s' のデータを取得します", r.config.TrelloBoardID)

		cards, err := r.trello.ListCards(r.config.TrelloBoardID)
		if err != nil {
			return nil, nil, err
		}

		fields, err := r.trello.ListCustomFields(r.config.TrelloBoardID)
		if err != nil {
			return nil, nil, err
		}

		checklists, err := r.trello.ListChecklists(r.config.TrelloBoardID)
		if err != nil {
			return nil, nil, err
		}

		labels, err := r.trello.ListLabels(r.config.TrelloBoardID)
		if err != nil {
			return nil, nil, err
		}

		utils.LogInfo("ボード構成: カード=%d, カスタムフィールド=%d, チェックリスト=%d, ラベル=%d",
			len(cards), len(fields), len(checklists), len(labels))

		return cards, fields, nil
	}

	export, err := r.transform.ReadTrelloExport()
	if err != nil {
		return nil, nil, err
	}
	return export.Cards, export.CustomFields, nil
}

// Reconcile はカード名とユーザーストーリーのタイトルを突き合わせ、
// 解決済みのカスタムフィールド値を1件ずつ書き込みます
// 単一フィールドの書き込み失敗はログに記録してスキップし、処理を続行します
func (r *ReconcileService) Reconcile(live bool) error {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "カスタムフィールド同期")

	project, err := r.taiga.FindProjectBySlug(r.config.TaigaProjectSlug)
	if err != nil {
		return err
	}
	utils.LogInfo("対象プロジェクト: %s (id=%d)", project.Name, project.ID)

	cards, fields, err := r.loadSource(live)
	if err != nil {
		return err
	}

	catalog := NewFieldCatalog(fields)
	values := ExtractFieldValues(cards, catalog)

	attributes, err := r.taiga.ListUserStoryAttributes(project.ID)
	if err != nil {
		return err
	}

	// 属性名 → サーバー側の属性ID
	attributeIDs := make(map[string]int, len(attributes))
	attributesByID := make(map[int]*models.UserStoryAttribute, len(attributes))
	for i := range attributes {
		attributeIDs[attributes[i].Name] = attributes[i].ID
		attributesByID[attributes[i].ID] = &attributes[i]
	}

	written := 0
	skipped := 0

	// 重複したカード名は最初の1枚に集約する（既知の制限）
	processed := make(map[string]bool, len(cards))

	for _, card := range cards {
		if processed[card.Name] {
			continue
		}
		processed[card.Name] = true

		fieldValues := values[card.Name]

		// ユーザーストーリーはカードごとに再取得する
		stories, err := r.taiga.ListUserStories(project.ID)
		if err != nil {
			return err
		}

		var matched *models.UserStory
		for i := range stories {
			if stories[i].Subject == card.Name {
				matched = &stories[i]
				break
			}
		}

		if matched == nil {
			utils.LogWarn("カード '%s' に一致するユーザーストーリーが見つかりません", card.Name)
			continue
		}

		// フィールドの処理順を決定的にする
		fieldNames := make([]string, 0, len(fieldValues))
		for fieldName := range fieldValues {
			fieldNames = append(fieldNames, fieldName)
		}
		sort.Strings(fieldNames)

		for _, fieldName := range fieldNames {
			fieldValue := fieldValues[fieldName]

			attributeID, ok := attributeIDs[fieldName]
			if !ok {
				continue
			}

			// ドロップダウン制約フィールドは許容値リストに対して検証する
			if dropdownConstrainedFields[fieldName] {
				if !allowedValue(attributesByID[attributeID], fieldValue) {
					utils.LogWarn("カード '%s' のフィールド '%s' の値 '%s' は許容されていません。このフィールドをスキップします",
						card.Name, fieldName, fieldValue)
					skipped++
					continue
				}
			}

			if err := r.taiga.SetAttribute(matched.ID, attributeID, fieldValue); err != nil {
				utils.LogError("カード '%s' の属性 '%s' の設定エラー: %v", card.Name, fieldName, err)
				skipped++
				continue
			}
			written++
		}
	}

	utils.LogInfo("カスタムフィールド同期が完了しました: 書き込み=%d, スキップ=%d", written, skipped)
	return nil
}

// allowedValue は値がドロップダウン属性の許容値リストに含まれるかを返します
func allowedValue(attribute *models.UserStoryAttribute, value string) bool {
	if attribute == nil {
		return false
	}
	for _, allowed := range attribute.Extra {
		if allowed == value {
			return true
		}
	}
	return false
}

// CheckAuth はTaigaの認証とプロジェクト解決を検証します
func (r *ReconcileService) CheckAuth() error {
	if err := r.taiga.Auth(); err != nil {
		return fmt.Errorf("Taiga認証エラー: %w", err)
	}

	project, err := r.taiga.FindProjectBySlug(r.config.TaigaProjectSlug)
	if err != nil {
		return err
	}

	utils.LogInfo("Taiga認証成功: プロジェクト '%s' (id=%d)", project.Name, project.ID)
	return nil
}
