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
	trelloExport := flag.String("input", "", "TrelloエクスポートJSONのパス（指定しない場合は環境変数から取得）")
	live := flag.Bool("live", false, "エクスポートファイルの代わりにTrello APIから取得する")
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

	utils.LogInfo("Taiga カスタムフィールド同期ツール")

	// 設定の読み込み
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("設定の読み込みに失敗しました: %v", err)
		os.Exit(1)
	}

	// 必須パラメータの検証
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

	// コマンドラインでパスが指定された場合、設定を上書き
	if *trelloExport != "" {
		cfg.TrelloExportJSON = *trelloExport
		utils.LogInfo("入力ファイルを指定: %s", cfg.TrelloExportJSON)
	}

	// Taiga認証
	utils.LogInfo("Taigaに認証しています...")
	taigaClient := api.NewTaigaClient(cfg)
	if err := taigaClient.Auth(); err != nil {
		utils.LogError("Taiga認証エラー: %v", err)
		utils.LogError("Taigaの認証情報を確認してください。")
		os.Exit(1)
	}
	utils.LogInfo("Taiga認証成功")

	// サービスの初期化
	trelloClient := api.NewTrelloClient(cfg)
	transformService := services.NewTransformService(cfg)
	reconcileService := services.NewReconcileService(cfg, taigaClient, trelloClient, transformService)

	// カスタムフィールド値の同期実行
	utils.LogInfo("カスタムフィールド値の同期を開始します...")
	if err := reconcileService.Reconcile(*live); err != nil {
		utils.LogError("カスタムフィールド同期エラー: %v", err)
		os.Exit(1)
	}

	// 処理時間の表示
	elapsed := time.Since(startTime)
	utils.LogInfo("カスタムフィールドの同期が完了しました。処理時間: %s", elapsed)
}

// ヘルプメッセージを表示する関数
func printHelp() {
	fmt.Printf(`
Taiga カスタムフィールド同期ツール

使用方法:
  %s [オプション]

オプション:
  -input ファイル      入力するTrelloエクスポートJSON
  -live               Trello APIからカードとフィールド定義を直接取得する
  -help               このヘルプを表示する

環境変数:
  TAIGA_HOST          TaigaのURL (必須)
  TAIGA_USERNAME      Taigaのユーザー名 (必須)
  TAIGA_PASSWORD      Taigaのパスワード (必須)
  TAIGA_PROJECT_SLUG  対象プロジェクトのスラッグ (必須)
  TRELLO_API_KEY      TrelloのAPIキー (-live 指定時に必須)
  TRELLO_API_TOKEN    TrelloのAPIトークン (-live 指定時に必須)
  TRELLO_BOARD_ID     TrelloのボードID (-live 指定時に必須)
  TRELLO_EXPORT_JSON  TrelloエクスポートJSONパス (デフォルト: trello_export.json)

説明:
  このツールはTaigaにインポート済みのユーザーストーリーに対して、
  Trelloカードのカスタムフィールド値をタイトル一致で突き合わせて書き込みます。

  ドロップダウン型フィールドの値はサーバー側の許容値リストで検証され、
  一致しない値は警告を出してスキップされます。単一フィールドの書き込み失敗は
  処理全体を中断しません。

  先に export_convert で変換したファイルをTaigaにインポートしてから
  実行してください。
`, os.Args[0])
}
