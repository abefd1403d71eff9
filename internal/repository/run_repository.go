package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kkj-match-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// runTTL 是运行记录在 Redis 中的保留时间。
const runTTL = 7 * 24 * time.Hour

// latestRunKey 指向最近一次创建的运行 ID。
const latestRunKey = "matchrun:latest"

// RunRepository 定义了批处理运行记录的存取接口，底层为 Redis JSON 值。
type RunRepository interface {
	Save(ctx context.Context, run *model.MatchRun) error
	FindByID(ctx context.Context, runID string) (*model.MatchRun, error)
	FindLatest(ctx context.Context) (*model.MatchRun, error)
}

type redisRunRepository struct {
	redisClient *redis.Client
}

// NewRunRepository 创建一个新的 RunRepository 实例。
func NewRunRepository(redisClient *redis.Client) RunRepository {
	return &redisRunRepository{redisClient: redisClient}
}

func runKey(runID string) string {
	return fmt.Sprintf("matchrun:%s", runID)
}

// Save 写入（或覆盖）一条运行记录，并更新最近运行指针。
func (r *redisRunRepository) Save(ctx context.Context, run *model.MatchRun) error {
	jsonData, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal match run: %w", err)
	}
	if err := r.redisClient.Set(ctx, runKey(run.ID), jsonData, runTTL).Err(); err != nil {
		return fmt.Errorf("failed to save match run: %w", err)
	}
	if err := r.redisClient.Set(ctx, latestRunKey, run.ID, runTTL).Err(); err != nil {
		return fmt.Errorf("failed to update latest run pointer: %w", err)
	}
	return nil
}

// FindByID 读取一条运行记录。记录不存在时返回 redis.Nil。
func (r *redisRunRepository) FindByID(ctx context.Context, runID string) (*model.MatchRun, error) {
	jsonData, err := r.redisClient.Get(ctx, runKey(runID)).Result()
	if err != nil {
		return nil, err
	}
	var run model.MatchRun
	if err := json.Unmarshal([]byte(jsonData), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match run: %w", err)
	}
	return &run, nil
}

// FindLatest 读取最近一次创建的运行记录。
func (r *redisRunRepository) FindLatest(ctx context.Context) (*model.MatchRun, error) {
	runID, err := r.redisClient.Get(ctx, latestRunKey).Result()
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, runID)
}
