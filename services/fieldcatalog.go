package services

import (
	"fmt"

	"trellototaiga/models"
	"trellototaiga/utils"
)

// DurationFieldName はDuration特別扱いの対象となる解決後フィールド名です
const DurationFieldName = "Duration"

// fieldAliasCandidates はTaiga側の語彙と衝突するTrelloフィールド名の
// 改名候補キューです。出現順に候補を消費し、使い切ったら元の名前を維持します
var fieldAliasCandidates = map[string][]string{
	"Exact Address": {"Duration", "Attendees"},
}

// multilineFieldNames は解決後の名前が複数行テキスト型に強制されるフィールドです
var multilineFieldNames = map[string]bool{
	"Location":  true,
	"Attendees": true,
}

// fieldDescriptions はカスタム属性の説明文カタログです
var fieldDescriptions = map[string]string{
	"Type":       "Training Type",
	"Location":   "Training Location: \"Remote\" or full address",
	"Trainer":    "The trainer that will deliver the training",
	"Start Date": "Training start date",
	"Start Time": "Training start time (local time)",
	"Timezone":   "Customer local timezone",
	"Duration":   "Training duration",
	"Contact":    "Main client contact person",
	"Attendees":  "List of attendees (name and email address)",
}

// FieldCatalog はTrelloカスタムフィールド定義から構築した参照表を保持します
type FieldCatalog struct {
	// フィールドID → 解決後（改名適用後）のフィールド名
	idToName map[string]string
	// フィールドID → (選択肢ID → 表示テキスト)
	optionLabels map[string]map[string]string
	// Durationフィールドの選択肢ID → 表示テキスト
	durationOptions map[string]string
	// フィールドID → Taigaの属性型
	attributeTypes map[string]string
}

// NewFieldCatalog はカスタムフィールド定義一覧から参照表を構築します
// 改名は候補キューを出現順に消費して決定し、最終的な名前の一意性を保証します
func NewFieldCatalog(fields []models.CustomField) *FieldCatalog {
	catalog := &FieldCatalog{
		idToName:        make(map[string]string),
		optionLabels:    make(map[string]map[string]string),
		durationOptions: make(map[string]string),
		attributeTypes:  make(map[string]string),
	}

	// 改名候補キューのコピー（構築中に消費する）
	queues := make(map[string][]string, len(fieldAliasCandidates))
	for source, candidates := range fieldAliasCandidates {
		queues[source] = append([]string(nil), candidates...)
	}

	seen := make(map[string]bool)
	assigned := make(map[string]bool)

	for _, field := range fields {
		name := field.Name

		// 候補キューから未使用のエイリアスを割り当てる
		if queue, ok := queues[name]; ok && len(queue) > 0 {
			candidate := queue[0]
			queues[field.Name] = queue[1:]
			if !seen[candidate] {
				name = candidate
				seen[candidate] = true
			}
		}

		// 最終名の衝突は数値サフィックスで一意化する
		if assigned[name] {
			base := name
			for n := 2; assigned[name]; n++ {
				name = fmt.Sprintf("%s %d", base, n)
			}
			utils.LogWarn("カスタムフィールド名 '%s' が重複したため '%s' に改名します", base, name)
		}
		assigned[name] = true

		catalog.idToName[field.ID] = name
		catalog.attributeTypes[field.ID] = resolveAttributeType(field.Type, name)

		if len(field.Options) > 0 {
			labels := make(map[string]string, len(field.Options))
			for _, option := range field.Options {
				labels[option.ID] = option.Value.Text
			}
			catalog.optionLabels[field.ID] = labels

			if name == DurationFieldName {
				catalog.durationOptions = labels
			}
		}
	}

	return catalog
}

// resolveAttributeType はTrelloの型をTaigaの属性型タグへ変換します
// list型は常にdropdownになり、複数行セットに含まれる名前はmultilineに強制されます
func resolveAttributeType(trelloType, resolvedName string) string {
	attributeType := trelloType
	if attributeType == "list" {
		attributeType = "dropdown"
	}
	if multilineFieldNames[resolvedName] {
		attributeType = "multiline"
	}
	return attributeType
}

// NameForID はフィールドIDから解決後の名前を返します
func (c *FieldCatalog) NameForID(fieldID string) (string, bool) {
	name, ok := c.idToName[fieldID]
	return name, ok
}

// OptionLabel はドロップダウン選択肢IDから表示テキストを返します
func (c *FieldCatalog) OptionLabel(fieldID, optionID string) (string, bool) {
	labels, ok := c.optionLabels[fieldID]
	if !ok {
		return "", false
	}
	label, ok := labels[optionID]
	return label, ok
}

// DurationLabel はDuration専用の選択肢マップから表示テキストを返します
func (c *FieldCatalog) DurationLabel(optionID string) (string, bool) {
	label, ok := c.durationOptions[optionID]
	return label, ok
}

// IsDurationField はフィールドの解決後の名前がDurationかどうかを返します
func (c *FieldCatalog) IsDurationField(fieldID string) bool {
	return c.idToName[fieldID] == DurationFieldName
}

// AttributeType はフィールドIDに対応するTaigaの属性型を返します
func (c *FieldCatalog) AttributeType(fieldID string) string {
	return c.attributeTypes[fieldID]
}

// Description は解決後のフィールド名に対応する説明文を返します
// カタログに無い名前はそのまま説明文として使われます
func Description(resolvedName string) string {
	if description, ok := fieldDescriptions[resolvedName]; ok {
		return description
	}
	return resolvedName
}
