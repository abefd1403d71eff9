// Package pipeline 定义了匹配批处理的核心流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"kkj-match-go/internal/config"
	"kkj-match-go/internal/matching"
	"kkj-match-go/internal/model"
	"kkj-match-go/internal/repository"
	"kkj-match-go/pkg/embedding"
	"kkj-match-go/pkg/log"
	"kkj-match-go/pkg/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/panjf2000/ants/v2"
)

// Orchestrator 封装了一次匹配批处理的所有依赖和逻辑。
// 公司之间并行、同一公司内按块串行；单个 (公司, 案件) 对的失败只计数，
// 不会中断所在公司、更不会中断整个运行。
type Orchestrator struct {
	companyRepo     repository.CompanyRepository
	rfpRepo         repository.RfpRepository
	snapshotRepo    repository.SnapshotRepository
	runRepo         repository.RunRepository
	embeddingClient embedding.Client
	idx             *matching.AliasIndex
	scorer          *matching.Scorer
	cfg             config.MatchingConfig
}

// NewOrchestrator 创建一个新的 Orchestrator 实例。
func NewOrchestrator(
	companyRepo repository.CompanyRepository,
	rfpRepo repository.RfpRepository,
	snapshotRepo repository.SnapshotRepository,
	runRepo repository.RunRepository,
	embeddingClient embedding.Client,
	idx *matching.AliasIndex,
	cfg config.MatchingConfig,
) *Orchestrator {
	return &Orchestrator{
		companyRepo:     companyRepo,
		rfpRepo:         rfpRepo,
		snapshotRepo:    snapshotRepo,
		runRepo:         runRepo,
		embeddingClient: embeddingClient,
		idx:             idx,
		scorer:          matching.NewScorer(idx),
		cfg:             cfg,
	}
}

// runCounters 是运行期间的 (公司, 案件) 对级别计数器。
type runCounters struct {
	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// Process 是匹配批处理的主函数，实现了 kafka.TaskProcessor。
// 返回非 nil 错误只发生在基础设施层面（加载公司/案件失败等），
// 此时 Kafka 消费侧会按既有的重试策略再次投递任务。
func (o *Orchestrator) Process(ctx context.Context, task tasks.MatchComputeTask) error {
	log.Infof("[Orchestrator] 开始匹配批处理, RunID: %s, CompanyID: %q", task.RunID, task.CompanyID)

	run, err := o.loadOrCreateRun(ctx, task)
	if err != nil {
		return err
	}

	// 1. 加载公司与案件
	log.Info("[Orchestrator] 步骤1: 加载公司档案与案件记录")
	companies, err := o.loadCompanies(task.CompanyID)
	if err != nil {
		log.Errorf("[Orchestrator] 加载公司档案失败, RunID: %s, Error: %v", task.RunID, err)
		return fmt.Errorf("加载公司档案失败: %w", err)
	}
	rfps, err := o.rfpRepo.FindAll()
	if err != nil {
		log.Errorf("[Orchestrator] 加载案件记录失败, RunID: %s, Error: %v", task.RunID, err)
		return fmt.Errorf("加载案件记录失败: %w", err)
	}
	log.Infof("[Orchestrator] 步骤1: 加载完成, 公司数: %d, 案件数: %d", len(companies), len(rfps))

	// 2. 运行转入 RUNNING
	now := time.Now()
	run.Status = model.RunStatusRunning
	run.StartedAt = now
	run.TotalCompanies = len(companies)
	run.TotalRfps = len(rfps)
	if err := o.runRepo.Save(ctx, run); err != nil {
		log.Warnf("[Orchestrator] 保存运行状态失败, RunID: %s, Error: %v", task.RunID, err)
	}

	// 3. 公司级并行处理
	log.Infof("[Orchestrator] 步骤2: 开始并行处理, workers: %d, chunk_size: %d", o.cfg.Workers, o.cfg.ChunkSize)
	counters := &runCounters{}
	pool, err := ants.NewPool(o.cfg.Workers)
	if err != nil {
		return fmt.Errorf("创建 worker 池失败: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, company := range companies {
		c := company
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			o.processCompany(ctx, c, rfps, now, counters)
		}); err != nil {
			wg.Done()
			counters.processed.Add(int64(len(rfps)))
			counters.failed.Add(int64(len(rfps)))
			log.Errorf("[Orchestrator] 提交公司任务失败, CompanyID: %s, Error: %v", c.ID, err)
		}
	}
	wg.Wait()

	// 4. 运行收尾
	o.finalizeRun(ctx, run, counters)
	log.Infof("[Orchestrator] 匹配批处理完成, RunID: %s, Status: %s, 成功: %d, 失败: %d, 耗时: %.1fs",
		run.ID, run.Status, run.Succeeded, run.Failed, run.ElapsedSeconds)
	return nil
}

// loadOrCreateRun 读取触发方预先创建的 PENDING 运行记录；
// 记录缺失（如 TTL 过期后重放）时用任务信息重建。
func (o *Orchestrator) loadOrCreateRun(ctx context.Context, task tasks.MatchComputeTask) (*model.MatchRun, error) {
	run, err := o.runRepo.FindByID(ctx, task.RunID)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("读取运行记录失败: %w", err)
	}
	log.Warnf("[Orchestrator] 运行记录不存在, 按任务信息重建, RunID: %s", task.RunID)
	return &model.MatchRun{
		ID:        task.RunID,
		CompanyID: task.CompanyID,
		Status:    model.RunStatusPending,
	}, nil
}

func (o *Orchestrator) loadCompanies(companyID string) ([]*model.Company, error) {
	if companyID == "" {
		return o.companyRepo.FindAll()
	}
	company, err := o.companyRepo.FindByID(companyID)
	if err != nil {
		return nil, err
	}
	return []*model.Company{company}, nil
}

// processCompany 重算单个公司对全部案件的匹配快照。
func (o *Orchestrator) processCompany(ctx context.Context, company *model.Company, rfps []*model.RFP, now time.Time, counters *runCounters) {
	// 技能正规化每个公司只做一次
	skills := o.idx.Normalize(company.Skills)
	queryText := strings.Join(skills, " ")
	log.Infof("[Orchestrator] 开始处理公司, CompanyID: %s, 正规化技能数: %d", company.ID, len(skills))

	queryVec := o.ensureSkillEmbedding(ctx, company, queryText)

	// 可选的检索收窄：只对混合检索的前 K 条案件打分
	pool := rfps
	if o.cfg.RetrievalTopK > 0 {
		candidates := matching.Rank(queryVec, queryText, rfps)
		if len(candidates) > o.cfg.RetrievalTopK {
			candidates = candidates[:o.cfg.RetrievalTopK]
		}
		pool = make([]*model.RFP, 0, len(candidates))
		for _, cand := range candidates {
			pool = append(pool, cand.RFP)
		}
		log.Infof("[Orchestrator] 检索收窄完成, CompanyID: %s, 候选案件数: %d/%d", company.ID, len(pool), len(rfps))
	}

	// 按块遍历案件；块之间检查取消信号
	for start := 0; start < len(pool); start += o.cfg.ChunkSize {
		if ctx.Err() != nil {
			log.Warnf("[Orchestrator] 收到取消信号, 中止公司处理, CompanyID: %s", company.ID)
			return
		}
		end := start + o.cfg.ChunkSize
		if end > len(pool) {
			end = len(pool)
		}
		for _, rfp := range pool[start:end] {
			counters.processed.Add(1)
			if err := o.scoreAndStore(company, skills, rfp, now); err != nil {
				counters.failed.Add(1)
				log.Errorf("[Orchestrator] 快照写入失败, CompanyID: %s, RfpID: %s, Error: %v", company.ID, rfp.ID, err)
				continue
			}
			counters.succeeded.Add(1)
		}
	}
	log.Infof("[Orchestrator] 公司处理完成, CompanyID: %s", company.ID)
}

// ensureSkillEmbedding 返回公司的技能嵌入向量，必要时调用 Embedding 服务回填。
// 回填失败时降级为纯词面检索（返回 nil），不阻断该公司的打分。
func (o *Orchestrator) ensureSkillEmbedding(ctx context.Context, company *model.Company, queryText string) []float32 {
	if len(company.SkillEmbedding) > 0 {
		return company.SkillEmbedding
	}
	if strings.TrimSpace(queryText) == "" && strings.TrimSpace(company.Description) == "" {
		return nil
	}

	input := queryText
	if company.Description != "" {
		input = queryText + "\n" + company.Description
	}
	baseDelay := time.Duration(o.cfg.EmbeddingRetryBaseMs) * time.Millisecond
	vec, err := embedding.CreateEmbeddingWithRetry(ctx, o.embeddingClient, input, o.cfg.EmbeddingRetryMax, baseDelay)
	if err != nil {
		log.Warnf("[Orchestrator] 技能嵌入生成失败, 降级为纯词面检索, CompanyID: %s, Error: %v", company.ID, err)
		return nil
	}
	if err := o.companyRepo.UpdateSkillEmbedding(company.ID, vec); err != nil {
		log.Warnf("[Orchestrator] 技能嵌入回填失败, CompanyID: %s, Error: %v", company.ID, err)
	}
	return vec
}

// scoreAndStore 对单个 (公司, 案件) 对打分并原子替换快照。写入失败时立即重试一次。
func (o *Orchestrator) scoreAndStore(company *model.Company, skills []string, rfp *model.RFP, now time.Time) error {
	factors, ng := o.scorer.Score(company, skills, rfp, now)
	result := matching.Combine(company, rfp, factors, ng, now)

	snapshot := &model.MatchSnapshot{
		CompanyID:     company.ID,
		RfpID:         rfp.ID,
		Score:         result.Score,
		MustOK:        result.MustOK,
		BudgetOK:      result.BudgetOK,
		RegionOK:      result.RegionOK,
		Factors:       result.Factors,
		SummaryPoints: result.SummaryPoints,
	}
	if err := o.snapshotRepo.Upsert(snapshot); err != nil {
		if retryErr := o.snapshotRepo.Upsert(snapshot); retryErr != nil {
			return retryErr
		}
	}
	return nil
}

// finalizeRun 汇总计数并把运行状态推进到终态。
func (o *Orchestrator) finalizeRun(ctx context.Context, run *model.MatchRun, counters *runCounters) {
	run.Processed = counters.processed.Load()
	run.Succeeded = counters.succeeded.Load()
	run.Failed = counters.failed.Load()
	if run.Processed > 0 {
		rate := float64(run.Succeeded) / float64(run.Processed) * 100
		run.SuccessRate = math.Round(rate*10) / 10
	}

	if run.Failed == 0 {
		run.Status = model.RunStatusCompleted
	} else {
		run.Status = model.RunStatusCompletedWithErrors
	}

	finished := time.Now()
	run.FinishedAt = &finished
	run.ElapsedSeconds = math.Round(finished.Sub(run.StartedAt).Seconds()*10) / 10

	if err := o.runRepo.Save(ctx, run); err != nil {
		log.Errorf("[Orchestrator] 保存运行终态失败, RunID: %s, Error: %v", run.ID, err)
	}
}
