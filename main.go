// @title CoderEdu 学习进度与成就引擎 API
// @version 1.0
// @description 测验评分、课时完成、成就解锁与课程证书签发。

// @host localhost:8080
// @BasePath /api

package main

import (
	"coder_edu_progress/internal/app"
	"coder_edu_progress/internal/config"
	"context"
	"flag"
	"log"
	"time"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)

	// 迁移完成后直接退出
	if *migrateOnly {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		application.Close(ctx)
		log.Println("数据库迁移完成，退出程序")
		return
	}

	application.Run()
}
