package main

import (
	"flag"
	"fmt"
	"os"

	"trellototaiga/api"
	"trellototaiga/config"
	"trellototaiga/services"
	"trellototaiga/utils"
)

func main() {
	// ヘルプフラグの定義
	help := flag.Bool("help", false, "ヘルプを表示する")

	// フラグのパース
	flag.Parse()

	// ヘルプフラグが指定された場合はヘルプを表示
	if *help {
		printHelp()
		return
	}

	utils.LogInfo("Taiga認証確認ツール")

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

	// サービスの初期化
	taigaClient := api.NewTaigaClient(cfg)
	reconcileService := services.NewReconcileService(cfg, taigaClient, nil, nil)

	// 認証とプロジェクト解決のチェック
	utils.LogInfo("Taiga APIの認証を確認しています...")
	if err := reconcileService.CheckAuth(); err != nil {
		utils.LogError("Taiga認証エラー: %v", err)
		utils.LogError("認証情報とプロジェクトスラッグを確認してください。")
		os.Exit(1)
	}

	utils.LogInfo("接続先: %s", cfg.TaigaHost)
	utils.LogInfo("Taiga APIの認証情報は正常です。")
}

// ヘルプメッセージを表示する関数
func printHelp() {
	fmt.Printf(`
Taiga認証確認ツール

使用方法:
  %s [オプション]

オプション:
  -help               このヘルプを表示する

環境変数:
  TAIGA_HOST          TaigaのURL (必須)
  TAIGA_USERNAME      Taigaのユーザー名 (必須)
  TAIGA_PASSWORD      Taigaのパスワード (必須)
  TAIGA_PROJECT_SLUG  対象プロジェクトのスラッグ (必須)

説明:
  このツールはTaiga APIの認証情報と対象プロジェクトのスラッグが
  正しく設定されているかを確認します。
  認証が成功すれば、他のツールも正常に動作する可能性が高いです。
`, os.Args[0])
}
