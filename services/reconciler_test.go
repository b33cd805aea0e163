package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trellototaiga/api"
	"trellototaiga/config"
	"trellototaiga/models"
	"trellototaiga/utils"
)

// fakeTaiga はテスト用のTaiga APIサーバーです
type fakeTaiga struct {
	attributes []models.UserStoryAttribute
	stories    []models.UserStory
	// 書き込まれた属性ID → 値
	writes map[string]string
	// この属性IDへの書き込みは500を返す
	failAttributeID string
}

func (f *fakeTaiga) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.TaigaProject{
			{ID: 1, Name: "Trainings", Slug: "trainings"},
		})
	})

	mux.HandleFunc("/api/v1/userstory-custom-attributes", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.attributes)
	})

	mux.HandleFunc("/api/v1/userstories", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.stories)
	})

	mux.HandleFunc("/api/v1/userstories/custom-attributes-values/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]any{
				"attributes_values": map[string]any{},
				"version":           1,
			})
			return
		}

		var payload struct {
			AttributesValues map[string]string `json:"attributes_values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		for attributeID, value := range payload.AttributesValues {
			if attributeID == f.failAttributeID {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			f.writes[attributeID] = value
		}
		w.Write([]byte("{}"))
	})

	return mux
}

// fakeTrello はテスト用のTrello APIサーバーです
type fakeTrello struct {
	cards      []models.TrelloCard
	fields     []models.CustomField
	checklists []models.Checklist
	labels     []models.TrelloLabel
	// 取得されたボードリソースのパス
	requested map[string]bool
}

func (f *fakeTrello) handler() http.Handler {
	serve := func(payload func() any) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.requested[r.URL.Path] = true
			json.NewEncoder(w).Encode(payload())
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/1/boards/board1/cards", serve(func() any { return f.cards }))
	mux.HandleFunc("/1/boards/board1/customFields", serve(func() any { return f.fields }))
	mux.HandleFunc("/1/boards/board1/checklists", serve(func() any { return f.checklists }))
	mux.HandleFunc("/1/boards/board1/labels", serve(func() any { return f.labels }))
	return mux
}

// writeExportFixture はTrelloエクスポートJSONを一時ファイルに書き出します
func writeExportFixture(t *testing.T, export *models.TrelloExport) string {
	t.Helper()

	data, err := json.Marshal(export)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "trello_export.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func newTestReconciler(t *testing.T, fake *fakeTaiga, export *models.TrelloExport) *ReconcileService {
	t.Helper()

	if fake.writes == nil {
		fake.writes = make(map[string]string)
	}

	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	cfg := &config.Config{
		TaigaHost:        strings.TrimRight(server.URL, "/"),
		TaigaProjectSlug: "trainings",
		TrelloExportJSON: writeExportFixture(t, export),
	}

	taigaClient := api.NewTaigaClient(cfg)
	transformService := NewTransformService(cfg)
	return NewReconcileService(cfg, taigaClient, nil, transformService)
}

func newLiveTestReconciler(t *testing.T, fake *fakeTaiga, board *fakeTrello) *ReconcileService {
	t.Helper()

	if fake.writes == nil {
		fake.writes = make(map[string]string)
	}
	if board.requested == nil {
		board.requested = make(map[string]bool)
	}

	taigaServer := httptest.NewServer(fake.handler())
	t.Cleanup(taigaServer.Close)

	trelloServer := httptest.NewServer(board.handler())
	t.Cleanup(trelloServer.Close)

	cfg := &config.Config{
		TaigaHost:        strings.TrimRight(taigaServer.URL, "/"),
		TaigaProjectSlug: "trainings",
		TrelloAPIKey:     "key",
		TrelloAPIToken:   "token",
		TrelloBoardID:    "board1",
		TrelloBaseURL:    trelloServer.URL,
	}

	taigaClient := api.NewTaigaClient(cfg)
	trelloClient := api.NewTrelloClient(cfg)
	transformService := NewTransformService(cfg)
	return NewReconcileService(cfg, taigaClient, trelloClient, transformService)
}

func TestReconcileDropdownValidationSkipsInvalidValue(t *testing.T) {
	export := &models.TrelloExport{
		CustomFields: []models.CustomField{
			{
				ID:   "f1",
				Name: "Trainer",
				Type: "list",
				Options: []models.CustomFieldOption{
					{ID: "opt1", Value: models.CustomFieldValue{Text: "Mallory"}},
				},
			},
			{ID: "f2", Name: "Contact", Type: "text"},
		},
		Cards: []models.TrelloCard{
			{
				Name: "Kickoff",
				CustomFieldItems: []models.CustomFieldItem{
					{IDCustomField: "f1", IDValue: "opt1"},
					{IDCustomField: "f2", Value: &models.CustomFieldValue{Text: "John Doe"}},
				},
			},
		},
	}

	fake := &fakeTaiga{
		attributes: []models.UserStoryAttribute{
			{ID: 10, Name: "Trainer", Type: "dropdown", Extra: []string{"Alice", "Bob"}},
			{ID: 11, Name: "Contact", Type: "text"},
		},
		stories: []models.UserStory{
			{ID: 100, Ref: 1, Subject: "Kickoff", Version: 1},
		},
	}

	reconciler := newTestReconciler(t, fake, export)
	require.NoError(t, reconciler.Reconcile(false))

	// 許容値に無いTrainerはスキップされ、Contactは書き込まれる
	assert.NotContains(t, fake.writes, "10")
	assert.Equal(t, "John Doe", fake.writes["11"])
}

func TestReconcileValidDropdownValueWritten(t *testing.T) {
	export := &models.TrelloExport{
		CustomFields: []models.CustomField{
			{
				ID:   "f1",
				Name: "Trainer",
				Type: "list",
				Options: []models.CustomFieldOption{
					{ID: "opt1", Value: models.CustomFieldValue{Text: "Alice"}},
				},
			},
		},
		Cards: []models.TrelloCard{
			{
				Name: "Kickoff",
				CustomFieldItems: []models.CustomFieldItem{
					{IDCustomField: "f1", IDValue: "opt1"},
				},
			},
		},
	}

	fake := &fakeTaiga{
		attributes: []models.UserStoryAttribute{
			{ID: 10, Name: "Trainer", Type: "dropdown", Extra: []string{"Alice", "Bob"}},
		},
		stories: []models.UserStory{
			{ID: 100, Ref: 1, Subject: "Kickoff", Version: 1},
		},
	}

	reconciler := newTestReconciler(t, fake, export)
	require.NoError(t, reconciler.Reconcile(false))

	assert.Equal(t, "Alice", fake.writes["10"])
}

func TestReconcileUnmatchedTitleSkipsCard(t *testing.T) {
	export := &models.TrelloExport{
		CustomFields: []models.CustomField{
			{ID: "f1", Name: "Contact", Type: "text"},
		},
		Cards: []models.TrelloCard{
			{
				Name: "Ghost",
				CustomFieldItems: []models.CustomFieldItem{
					{IDCustomField: "f1", Value: &models.CustomFieldValue{Text: "John Doe"}},
				},
			},
		},
	}

	fake := &fakeTaiga{
		attributes: []models.UserStoryAttribute{
			{ID: 11, Name: "Contact", Type: "text"},
		},
		stories: []models.UserStory{
			{ID: 100, Ref: 1, Subject: "Kickoff", Version: 1},
		},
	}

	reconciler := newTestReconciler(t, fake, export)
	require.NoError(t, reconciler.Reconcile(false))

	assert.Empty(t, fake.writes)
}

func TestReconcileUnmatchedTitleWarnsWithoutValues(t *testing.T) {
	export := &models.TrelloExport{
		CustomFields: []models.CustomField{
			{ID: "f1", Name: "Contact", Type: "text"},
		},
		Cards: []models.TrelloCard{
			// フィールド値を持たないカード
			{Name: "Ghost"},
		},
	}

	fake := &fakeTaiga{
		attributes: []models.UserStoryAttribute{
			{ID: 11, Name: "Contact", Type: "text"},
		},
		stories: []models.UserStory{
			{ID: 100, Ref: 1, Subject: "Kickoff", Version: 1},
		},
	}

	var buf bytes.Buffer
	utils.WarnLogger.SetOutput(&buf)
	defer utils.WarnLogger.SetOutput(os.Stdout)

	reconciler := newTestReconciler(t, fake, export)
	require.NoError(t, reconciler.Reconcile(false))

	// 書き込む値が無くても不一致タイトルは警告される
	assert.Contains(t, buf.String(), "Ghost")
	assert.Empty(t, fake.writes)
}

func TestReconcileLiveSourceFetchesBoard(t *testing.T) {
	board := &fakeTrello{
		cards: []models.TrelloCard{
			{
				Name: "Kickoff",
				CustomFieldItems: []models.CustomFieldItem{
					{IDCustomField: "f1", Value: &models.CustomFieldValue{Text: "John Doe"}},
				},
			},
		},
		fields: []models.CustomField{
			{ID: "f1", Name: "Contact", Type: "text"},
		},
		checklists: []models.Checklist{
			{Name: "Prep", CheckItems: []models.CheckItem{{Name: "Book room"}}},
		},
		labels: []models.TrelloLabel{
			{Name: "urgent", Color: "red"},
		},
	}

	fake := &fakeTaiga{
		attributes: []models.UserStoryAttribute{
			{ID: 11, Name: "Contact", Type: "text"},
		},
		stories: []models.UserStory{
			{ID: 100, Ref: 1, Subject: "Kickoff", Version: 1},
		},
	}

	reconciler := newLiveTestReconciler(t, fake, board)
	require.NoError(t, reconciler.Reconcile(true))

	assert.Equal(t, "John Doe", fake.writes["11"])

	// ライブモードではボードの全リソースを取得する
	for _, path := range []string{
		"/1/boards/board1/cards",
		"/1/boards/board1/customFields",
		"/1/boards/board1/checklists",
		"/1/boards/board1/labels",
	} {
		assert.True(t, board.requested[path], path)
	}
}

func TestReconcileWriteFailureContinues(t *testing.T) {
	export := &models.TrelloExport{
		CustomFields: []models.CustomField{
			{ID: "f1", Name: "Contact", Type: "text"},
			{ID: "f2", Name: "Timezone", Type: "text"},
		},
		Cards: []models.TrelloCard{
			{
				Name: "Kickoff",
				CustomFieldItems: []models.CustomFieldItem{
					{IDCustomField: "f1", Value: &models.CustomFieldValue{Text: "John Doe"}},
					{IDCustomField: "f2", Value: &models.CustomFieldValue{Text: "UTC"}},
				},
			},
		},
	}

	fake := &fakeTaiga{
		attributes: []models.UserStoryAttribute{
			{ID: 11, Name: "Contact", Type: "text"},
			{ID: 12, Name: "Timezone", Type: "text"},
		},
		stories: []models.UserStory{
			{ID: 100, Ref: 1, Subject: "Kickoff", Version: 1},
		},
		failAttributeID: "11",
	}

	reconciler := newTestReconciler(t, fake, export)
	// 単一フィールドの書き込み失敗は処理全体を中断しない
	require.NoError(t, reconciler.Reconcile(false))

	assert.NotContains(t, fake.writes, "11")
	assert.Equal(t, "UTC", fake.writes["12"])
}

func TestReconcileUnregisteredFieldSkippedSilently(t *testing.T) {
	export := &models.TrelloExport{
		CustomFields: []models.CustomField{
			{ID: "f1", Name: "Location", Type: "text"},
		},
		Cards: []models.TrelloCard{
			{
				Name: "Kickoff",
				CustomFieldItems: []models.CustomFieldItem{
					{IDCustomField: "f1", Value: &models.CustomFieldValue{Text: "Remote"}},
				},
			},
		},
	}

	fake := &fakeTaiga{
		// サーバー側にLocation属性が存在しない
		attributes: []models.UserStoryAttribute{
			{ID: 11, Name: "Contact", Type: "text"},
		},
		stories: []models.UserStory{
			{ID: 100, Ref: 1, Subject: "Kickoff", Version: 1},
		},
	}

	reconciler := newTestReconciler(t, fake, export)
	require.NoError(t, reconciler.Reconcile(false))

	assert.Empty(t, fake.writes)
}
