package service

import (
	"context"
	"fmt"
	"time"

	"kkj-match-go/internal/model"
	"kkj-match-go/internal/repository"
	"kkj-match-go/pkg/kafka"
	"kkj-match-go/pkg/log"
	"kkj-match-go/pkg/tasks"
)

// BatchService 定义了匹配批处理触发与运行状态查询的业务逻辑接口。
// 触发方只负责创建 PENDING 运行记录并投递任务，实际计算在消费侧异步执行。
type BatchService interface {
	TriggerRecompute(ctx context.Context, companyID string) (*model.MatchRun, error)
	GetRun(ctx context.Context, runID string) (*model.MatchRun, error)
	GetLatestRun(ctx context.Context) (*model.MatchRun, error)
}

type batchService struct {
	runRepo repository.RunRepository
}

// NewBatchService 创建一个新的 BatchService 实例。
func NewBatchService(runRepo repository.RunRepository) BatchService {
	return &batchService{runRepo: runRepo}
}

// TriggerRecompute 创建一次新的匹配批处理运行并投递 Kafka 任务。
// companyID 为空表示全量重算。
func (s *batchService) TriggerRecompute(ctx context.Context, companyID string) (*model.MatchRun, error) {
	now := time.Now()
	run := &model.MatchRun{
		ID:        fmt.Sprintf("run-%s-%d", now.Format("20060102150405"), now.UnixNano()%1e6),
		CompanyID: companyID,
		Status:    model.RunStatusPending,
		StartedAt: now,
	}

	if err := s.runRepo.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("创建运行记录失败: %w", err)
	}

	task := tasks.MatchComputeTask{
		RunID:       run.ID,
		CompanyID:   companyID,
		RequestedAt: now,
	}
	if err := kafka.ProduceMatchTask(ctx, task); err != nil {
		return nil, fmt.Errorf("投递匹配任务失败: %w", err)
	}

	log.Infof("[BatchService] 匹配批处理已触发, RunID: %s, CompanyID: %q", run.ID, companyID)
	return run, nil
}

// GetRun 查询指定运行的状态与统计。
func (s *batchService) GetRun(ctx context.Context, runID string) (*model.MatchRun, error) {
	return s.runRepo.FindByID(ctx, runID)
}

// GetLatestRun 查询最近一次创建的运行。
func (s *batchService) GetLatestRun(ctx context.Context) (*model.MatchRun, error) {
	return s.runRepo.FindLatest(ctx)
}
