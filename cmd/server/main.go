// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kkj-match-go/internal/config"
	"kkj-match-go/internal/handler"
	"kkj-match-go/internal/matching"
	"kkj-match-go/internal/middleware"
	"kkj-match-go/internal/pipeline"
	"kkj-match-go/internal/repository"
	"kkj-match-go/internal/service"
	"kkj-match-go/pkg/database"
	"kkj-match-go/pkg/embedding"
	"kkj-match-go/pkg/kafka"
	"kkj-match-go/pkg/log"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 加载技能别名辞典：辞典缺失或损坏时启动失败
	aliasIndex, err := matching.LoadAliasIndex(cfg.Matching.SkillAliasesPath)
	if err != nil {
		log.Fatalf("技能别名辞典加载失败: %v", err)
	}
	log.Infof("技能别名辞典加载成功, 规范技能数: %d", aliasIndex.Size())

	// 4. 初始化数据库、Redis 与 Kafka
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	kafka.InitProducer(cfg.Kafka)

	// 5. 初始化 Repository
	companyRepo := repository.NewCompanyRepository(database.DB)
	rfpRepo := repository.NewRfpRepository(database.DB)
	snapshotRepo := repository.NewSnapshotRepository(database.DB)
	runRepo := repository.NewRunRepository(database.RDB)

	// 6. 初始化 Service (依赖注入)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	matchService := service.NewMatchService(companyRepo, snapshotRepo, rfpRepo)
	searchService := service.NewSearchService(rfpRepo, embeddingClient)
	batchService := service.NewBatchService(runRepo)

	// 7. 初始化匹配批处理 (Orchestrator) 并启动后台 Kafka 消费者
	orchestrator := pipeline.NewOrchestrator(
		companyRepo,
		rfpRepo,
		snapshotRepo,
		runRepo,
		embeddingClient,
		aliasIndex,
		cfg.Matching,
	)
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()
	go kafka.StartConsumer(consumerCtx, cfg.Kafka, orchestrator)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// 公司匹配结果（只读快照）
		companies := apiV1.Group("/companies")
		{
			companies.GET("/:companyId/matches", handler.NewMatchHandler(matchService).ListMatches)
		}

		// 匹配批处理触发与运行状态
		matchGroup := apiV1.Group("/matching")
		{
			matchGroup.POST("/recompute", handler.NewBatchHandler(batchService).TriggerRecompute)
			matchGroup.GET("/runs/latest", handler.NewBatchHandler(batchService).GetLatestRun)
			matchGroup.GET("/runs/:runId", handler.NewBatchHandler(batchService).GetRun)
		}

		// 案件混合检索
		rfps := apiV1.Group("/rfps")
		{
			rfps.GET("/search", handler.NewSearchHandler(searchService).SearchRfps)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 先停止消费新任务，再关闭 HTTP 服务器
	cancelConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
