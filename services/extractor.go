package services

import (
	"time"

	"trellototaiga/models"
	"trellototaiga/utils"
)

// displayDateFormat は日付型カスタムフィールドの表示形式です（例: "01 Mar 2024"）
const displayDateFormat = "02 Jan 2006"

// ExtractFieldValues はカードごとのカスタムフィールド値を表示文字列に解決します
// 戻り値はカード名 → (フィールド名 → 表示値)のマッピングで、一度構築して使い回します
func ExtractFieldValues(cards []models.TrelloCard, catalog *FieldCatalog) models.FieldValues {
	values := make(models.FieldValues)

	for _, card := range cards {
		for _, item := range card.CustomFieldItems {
			// 定義表に無いフィールドIDは黙ってスキップする
			fieldName, ok := catalog.NameForID(item.IDCustomField)
			if !ok {
				continue
			}

			if values[card.Name] == nil {
				values[card.Name] = make(map[string]string)
			}

			if item.Value != nil {
				if item.Value.Date != "" {
					display, ok := formatFieldDate(item.Value.Date)
					if !ok {
						utils.LogWarn("カード '%s' のフィールド '%s' の日付 '%s' を解析できません",
							card.Name, fieldName, item.Value.Date)
						continue
					}
					values[card.Name][fieldName] = display
				} else {
					// 自由テキストはそのまま使う（空文字列も許容）
					values[card.Name][fieldName] = item.Value.Text
				}
			} else if item.IDValue != "" {
				if label, ok := catalog.OptionLabel(item.IDCustomField, item.IDValue); ok && label != "" {
					values[card.Name][fieldName] = label
				}
			}

			// Durationフィールドは専用の選択肢マップから派生値を合成し、
			// 主経路の解決結果より優先する
			if catalog.IsDurationField(item.IDCustomField) && item.IDValue != "" {
				if duration, ok := catalog.DurationLabel(item.IDValue); ok && duration != "" {
					values[card.Name][DurationFieldName] = duration
				}
			}
		}
	}

	return values
}

// formatFieldDate はISO-8601形式の日時を表示形式に整形します
func formatFieldDate(value string) (string, bool) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "", false
	}
	return parsed.Format(displayDateFormat), true
}
