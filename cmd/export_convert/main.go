package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"trellototaiga/config"
	"trellototaiga/services"
	"trellototaiga/utils"
)

func main() {
	// コマンドラインフラグの定義
	trelloExport := flag.String("input", "", "TrelloエクスポートJSONのパス（指定しない場合は環境変数から取得）")
	taigaTemplate := flag.String("template", "", "TaigaテンプレートJSONのパス（指定しない場合は環境変数から取得）")
	taigaImport := flag.String("output", "", "TaigaインポートJSONの出力先（指定しない場合は環境変数から取得）")
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

	utils.LogInfo("Trelloエクスポート → Taigaインポート 変換ツール")

	// 設定の読み込み
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("設定の読み込みに失敗しました: %v", err)
		os.Exit(1)
	}

	// コマンドラインでパスが指定された場合、設定を上書き
	if *trelloExport != "" {
		cfg.TrelloExportJSON = *trelloExport
		utils.LogInfo("入力ファイルを指定: %s", cfg.TrelloExportJSON)
	}

	if *taigaTemplate != "" {
		cfg.TaigaTemplateJSON = *taigaTemplate
		utils.LogInfo("テンプレートファイルを指定: %s", cfg.TaigaTemplateJSON)
	}

	if *taigaImport != "" {
		cfg.TaigaImportJSON = *taigaImport
		utils.LogInfo("出力ファイルを指定: %s", cfg.TaigaImportJSON)
	}

	// 変換サービスの初期化
	transformService := services.NewTransformService(cfg)

	// Trelloエクスポートの読み込み
	export, err := transformService.ReadTrelloExport()
	if err != nil {
		utils.LogError("Trelloエクスポート読み込みエラー: %v", err)
		os.Exit(1)
	}

	// テンプレートの読み込み
	doc, err := transformService.ReadTemplate()
	if err != nil {
		utils.LogError("テンプレート読み込みエラー: %v", err)
		os.Exit(1)
	}

	// Taigaインポート形式に変換
	utils.LogInfo("Taigaインポート形式に変換しています...")
	if err := transformService.Transform(export, doc); err != nil {
		utils.LogError("変換エラー: %v", err)
		os.Exit(1)
	}

	// インポートドキュメントとして保存
	if err := transformService.WriteImportDocument(doc); err != nil {
		utils.LogError("インポートファイル書き込みエラー: %v", err)
		os.Exit(1)
	}

	// 処理時間の表示
	elapsed := time.Since(startTime)
	utils.LogInfo("変換が完了しました。処理時間: %s", elapsed)
}

// ヘルプメッセージを表示する関数
func printHelp() {
	fmt.Printf(`
Trelloエクスポート → Taigaインポート 変換ツール

使用方法:
  %s [オプション]

オプション:
  -input ファイル      入力するTrelloエクスポートJSON
  -template ファイル   TaigaプロジェクトテンプレートJSON
  -output ファイル     出力するTaigaインポートJSON
  -help               このヘルプを表示する

環境変数:
  TRELLO_EXPORT_JSON  TrelloボードのエクスポートJSONパス (デフォルト: trello_export.json)
  TAIGA_TEMPLATE_JSON TaigaテンプレートJSONパス (デフォルト: template.json)
  TAIGA_IMPORT_JSON   出力するインポートJSONパス (デフォルト: import.json)
  PROJECT_NAME        インポート先プロジェクト名
  DEFAULT_OWNER_EMAIL ユーザーストーリーの所有者メールアドレス

説明:
  このツールはTrelloボードのエクスポートJSONをTaigaの一括インポート形式に
  変換します。ネットワークアクセスは行いません。

  変換されたファイルはTaigaのプロジェクトインポート機能に渡してください。
  インポート後に field_sync ツールでカスタムフィールド値を同期できます。
`, os.Args[0])
}
