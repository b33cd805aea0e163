package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"trellototaiga/api"
	"trellototaiga/config"
	"trellototaiga/services"
	"trellototaiga/utils"
)

func main() {
	// コマンドラインフラグの定義
	convertOnly := flag.Bool("convert-only", false, "インポートファイルの変換のみを実行する")
	syncOnly := flag.Bool("sync-only", false, "カスタムフィールドの同期のみを実行する")
	live := flag.Bool("live", false, "同期時にTrello APIから直接取得する")
	help := flag.Bool("help", false, "ヘルプを表示する")

	// フラグのパース
	flag.Parse()

	// ヘルプフラグが指定された場合はヘルプを表示
	if *help {
		printHelp()
		return
	}

	// 開始時間の記録
	startTime := time.Now()

	// 設定の読み込み
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("設定の読み込みに失敗しました: %v", err)
		os.Exit(1)
	}

	utils.LogInfo("Trello → Taiga 移行ツール (v1.0.0)")

	// 必要なサービスの初期化
	taigaClient := api.NewTaigaClient(cfg)
	trelloClient := api.NewTrelloClient(cfg)
	transformService := services.NewTransformService(cfg)
	reconcileService := services.NewReconcileService(cfg, taigaClient, trelloClient, transformService)

	// 変換フェーズ
	if !*syncOnly {
		utils.LogInfo("インポートファイルの変換を開始します")
		if err := runConvert(transformService); err != nil {
			utils.LogError("変換エラー: %v", err)
			os.Exit(1)
		}
	}

	// 変換のみの場合はここで終了
	if *convertOnly {
		elapsed := time.Since(startTime)
		utils.LogInfo("変換が完了しました。合計実行時間: %s", elapsed)
		return
	}

	// 同期フェーズ（Taigaへのインポートが済んでいることが前提）
	if err := cfg.RequireTaiga(); err != nil {
		utils.LogError("設定エラー: %v", err)
		os.Exit(1)
	}

	if *live {
		if err := cfg.RequireTrello(); err != nil {
			utils.LogError("設定エラー: %v", err)
			os.Exit(1)
		}
	}

	if err := taigaClient.Auth(); err != nil {
		utils.LogError("Taiga認証エラー: %v", err)
		os.Exit(1)
	}
	utils.LogInfo("Taiga認証成功")

	utils.LogInfo("カスタムフィールドの同期を開始します")
	if err := reconcileService.Reconcile(*live); err != nil {
		utils.LogError("カスタムフィールド同期エラー: %v", err)
		os.Exit(1)
	}

	// 合計実行時間の表示
	elapsed := time.Since(startTime)
	utils.LogInfo("移行処理が完了しました。合計実行時間: %s", elapsed)
}

// runConvert は変換フェーズを実行します
func runConvert(transformService *services.TransformService) error {
	export, err := transformService.ReadTrelloExport()
	if err != nil {
		return err
	}

	doc, err := transformService.ReadTemplate()
	if err != nil {
		return err
	}

	if err := transformService.Transform(export, doc); err != nil {
		return err
	}

	return transformService.WriteImportDocument(doc)
}

// ヘルプメッセージを表示する関数
func printHelp() {
	fmt.Printf(`
Trello → Taiga 移行ツール

使用方法:
  %s [オプション]

オプション:
  -convert-only       インポートファイルの変換のみを実行する
  -sync-only          カスタムフィールドの同期のみを実行する
  -live               同期時にTrello APIから直接取得する
  -help               このヘルプを表示する

環境変数:
  TAIGA_HOST          TaigaのURL (同期時に必須)
  TAIGA_USERNAME      Taigaのユーザー名 (同期時に必須)
  TAIGA_PASSWORD      Taigaのパスワード (同期時に必須)
  TAIGA_PROJECT_SLUG  対象プロジェクトのスラッグ (同期時に必須)
  TRELLO_API_KEY      TrelloのAPIキー (-live 指定時に必須)
  TRELLO_API_TOKEN    TrelloのAPIトークン (-live 指定時に必須)
  TRELLO_BOARD_ID     TrelloのボードID (-live 指定時に必須)
  TRELLO_EXPORT_JSON  TrelloエクスポートJSONパス (デフォルト: trello_export.json)
  TAIGA_TEMPLATE_JSON TaigaテンプレートJSONパス (デフォルト: template.json)
  TAIGA_IMPORT_JSON   出力するインポートJSONパス (デフォルト: import.json)

例:
  # 変換と同期をまとめて実行（間にTaigaへの手動インポートが必要）
  %s

  # 変換のみを実行
  %s -convert-only

  # 同期のみを実行
  %s -sync-only

  # Trello APIから直接取得して同期
  %s -sync-only -live
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}
