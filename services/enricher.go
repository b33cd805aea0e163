package services

import (
	"fmt"

	"trellototaiga/models"
)

// dueDateEntries はユーザーストーリー・タスク・イシューで共通の期日ポリシーです
var dueDateEntries = []models.Record{
	{
		"name":        "Due soon",
		"order":       2,
		"by_default":  false,
		"color":       "#ff9900",
		"days_to_due": 14,
	},
	{
		"name":        "Past due",
		"order":       3,
		"by_default":  false,
		"color":       "#E44057",
		"days_to_due": 0,
	},
}

// pointEntries は追加するストーリーポイントの固定スケールです
var pointEntries = []models.Record{
	{"name": "?", "order": 1, "value": nil},
	{"name": "0", "order": 2, "value": 0.0},
	{"name": "1/2", "order": 3, "value": 0.5},
	{"name": "1", "order": 4, "value": 1.0},
	{"name": "2", "order": 5, "value": 2.0},
	{"name": "3", "order": 6, "value": 3.0},
	{"name": "5", "order": 7, "value": 5.0},
	{"name": "8", "order": 8, "value": 8.0},
	{"name": "10", "order": 9, "value": 10.0},
	{"name": "13", "order": 10, "value": 13.0},
	{"name": "20", "order": 11, "value": 20.0},
}

// epicStatusEntries は追加するエピックステータスです
var epicStatusEntries = []models.Record{
	{"name": "New", "slug": "new", "order": 1, "is_closed": false, "color": "#70728F"},
	{"name": "Ready", "slug": "ready", "order": 2, "is_closed": false, "color": "#E44057"},
	{"name": "In progress", "slug": "in-progress", "order": 3, "is_closed": false, "color": "#E47C40"},
	{"name": "Ready for test", "slug": "ready-for-test", "order": 4, "is_closed": false, "color": "#E4CE40"},
}

// issueTypeEntries は追加するイシュータイプです
var issueTypeEntries = []models.Record{
	{"name": "Bug", "order": 1, "color": "#E44057"},
	{"name": "Question", "order": 2, "color": "#5178D3"},
}

// issueStatusEntries は追加するイシューステータスです
var issueStatusEntries = []models.Record{
	{"name": "New", "slug": "new", "order": 1, "is_closed": false, "color": "#70728F"},
	{"name": "In progress", "slug": "in-progress", "order": 2, "is_closed": false, "color": "#40A8E4"},
	{"name": "Ready for test", "slug": "ready-for-test", "order": 3, "is_closed": false, "color": "#E47C40"},
	{"name": "Closed", "slug": "closed", "order": 4, "is_closed": true, "color": "#A8E440"},
	{"name": "Needs Info", "slug": "needs-info", "order": 5, "is_closed": false, "color": "#E44057"},
	{"name": "Rejected", "slug": "rejected", "order": 6, "is_closed": true, "color": "#A9AABC"},
}

// priorityEntries は追加する優先度です
var priorityEntries = []models.Record{
	{"name": "Low", "order": 1, "color": "#A9AABC"},
	{"name": "Normal", "order": 3, "color": "#A8E440"},
}

// severityEntries は追加する重要度です
var severityEntries = []models.Record{
	{"name": "Wishlist", "order": 1, "color": "#70728F"},
	{"name": "Minor", "order": 2, "color": "#40E47C"},
	{"name": "Normal", "order": 3, "color": "#A8E440"},
	{"name": "Important", "order": 4, "color": "#E4CE40"},
}

// stakeholderPermissions はStakeholderロールに与える限定的な権限セットです
var stakeholderPermissions = []any{
	"add_issue",
	"modify_issue",
	"delete_issue",
	"view_issues",
	"view_milestones",
	"view_project",
	"view_tasks",
	"view_us",
	"modify_wiki_page",
	"view_wiki_pages",
	"add_wiki_link",
	"delete_wiki_link",
	"view_wiki_links",
	"view_epics",
	"comment_epic",
	"comment_us",
	"comment_task",
	"comment_issue",
	"comment_wiki_page",
}

// defaultRemaps はエンリッチ後に存在しなくなったデフォルト参照の付け替え表です
var defaultRemaps = []struct {
	key      string
	oldValue string
	newValue string
}{
	{"default_points", "40", "?"},
	{"default_epic_status", "Done", "New"},
	{"default_task_status", "Needs Info", "Incomplete"},
	{"default_issue_type", "Enhancement", "Bug"},
	{"default_issue_status", "Postponed", "New"},
	{"default_priority", "High", "Normal"},
	{"default_severity", "Critical", "Normal"},
}

// EnrichTemplate はテンプレートのカタログ配列に標準語彙を追加します
// 既存エントリは破棄せず、追加後にorderで安定ソートし直します
// 同じテンプレートに2回適用するとエントリが重複する点に注意してください
func EnrichTemplate(doc models.ImportDocument) error {
	if err := enrichRoles(doc); err != nil {
		return err
	}

	sortedCatalogs := []struct {
		key     string
		entries []models.Record
	}{
		{"points", pointEntries},
		{"epic_statuses", epicStatusEntries},
		{"issue_types", issueTypeEntries},
		{"issue_statuses", issueStatusEntries},
		{"priorities", priorityEntries},
		{"severities", severityEntries},
	}

	for _, catalog := range sortedCatalogs {
		if err := doc.Append(catalog.key, catalog.entries...); err != nil {
			return err
		}
		if err := doc.SortCatalogByOrder(catalog.key); err != nil {
			return err
		}
	}

	// 期日ポリシーは追加のみでソートしない
	for _, key := range []string{"us_duedates", "task_duedates", "issue_duedates"} {
		if err := doc.Append(key, dueDateEntries...); err != nil {
			return err
		}
	}

	if err := enrichTaskStatuses(doc); err != nil {
		return err
	}

	for _, remap := range defaultRemaps {
		doc.RemapDefault(remap.key, remap.oldValue, remap.newValue)
	}

	return nil
}

// enrichRoles は標準ロールを追加します
// 大半のロールはテンプレート先頭のロールと同じ権限を引き継ぎます
func enrichRoles(doc models.ImportDocument) error {
	roles, err := doc.Catalog("roles")
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		return fmt.Errorf("テンプレートにロールが定義されていません")
	}

	firstRole, ok := roles[0].(map[string]any)
	if !ok {
		return fmt.Errorf("テンプレートのロール定義が不正です")
	}
	basePermissions := firstRole["permissions"]

	roleEntries := []models.Record{
		{"name": "UX", "slug": "ux", "order": 10, "computable": true, "permissions": basePermissions},
		{"name": "Design", "slug": "design", "order": 20, "computable": true, "permissions": basePermissions},
		{"name": "Front", "slug": "front", "order": 30, "computable": true, "permissions": basePermissions},
		{"name": "Back", "slug": "back", "order": 40, "computable": true, "permissions": basePermissions},
		{"name": "Stakeholder", "slug": "stakeholder", "order": 60, "computable": false, "permissions": stakeholderPermissions},
		{"name": "Trello", "slug": "trello", "order": 70, "computable": false, "permissions": basePermissions},
	}

	if err := doc.Append("roles", roleEntries...); err != nil {
		return err
	}
	return doc.SortCatalogByOrder("roles")
}

// enrichTaskStatuses はタスクステータスを整備します
// 既存の "Needs Info" を "Incomplete" に改名し、"Complete" を追加します
func enrichTaskStatuses(doc models.ImportDocument) error {
	statuses, err := doc.Catalog("task_statuses")
	if err != nil {
		return err
	}

	for _, entry := range statuses {
		status, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if status["name"] == "Needs Info" {
			status["name"] = "Incomplete"
			status["slug"] = "incomplete"
			status["order"] = 1
			status["is_closed"] = false
			status["color"] = "#ff8a84"
		}
	}

	return doc.Append("task_statuses", models.Record{
		"name":      "Complete",
		"slug":      "complete",
		"order":     2,
		"is_closed": true,
		"color":     "#669900",
	})
}
