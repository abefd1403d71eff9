package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"kkj-match-go/internal/config"
	"kkj-match-go/internal/matching"
	"kkj-match-go/internal/model"
	"kkj-match-go/internal/repository"
	"kkj-match-go/pkg/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompanyRepo struct {
	mu        sync.Mutex
	companies []*model.Company
	embedded  map[string]model.Vector
}

func (r *fakeCompanyRepo) FindByID(id string) (*model.Company, error) {
	for _, c := range r.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, errors.New("company not found")
}

func (r *fakeCompanyRepo) FindAll() ([]*model.Company, error) {
	return r.companies, nil
}

func (r *fakeCompanyRepo) UpdateSkillEmbedding(id string, embedding model.Vector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.embedded == nil {
		r.embedded = make(map[string]model.Vector)
	}
	r.embedded[id] = embedding
	return nil
}

type fakeRfpRepo struct {
	rfps []*model.RFP
}

func (r *fakeRfpRepo) FindByID(id string) (*model.RFP, error) {
	for _, rfp := range r.rfps {
		if rfp.ID == id {
			return rfp, nil
		}
	}
	return nil, errors.New("rfp not found")
}

func (r *fakeRfpRepo) FindAll() ([]*model.RFP, error) {
	return r.rfps, nil
}

func (r *fakeRfpRepo) FindBatchByIDs(ids []string) ([]*model.RFP, error) {
	var out []*model.RFP
	for _, id := range ids {
		if rfp, err := r.FindByID(id); err == nil {
			out = append(out, rfp)
		}
	}
	return out, nil
}

type fakeSnapshotRepo struct {
	mu        sync.Mutex
	snapshots map[string]*model.MatchSnapshot
	upserts   int
	failPairs map[string]bool
}

func pairKey(companyID, rfpID string) string {
	return fmt.Sprintf("%s/%s", companyID, rfpID)
}

func (r *fakeSnapshotRepo) Upsert(snapshot *model.MatchSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	key := pairKey(snapshot.CompanyID, snapshot.RfpID)
	if r.failPairs[key] {
		return errors.New("write failed")
	}
	if r.snapshots == nil {
		r.snapshots = make(map[string]*model.MatchSnapshot)
	}
	r.snapshots[key] = snapshot
	return nil
}

func (r *fakeSnapshotRepo) FindByCompany(q repository.SnapshotQuery) ([]*model.MatchSnapshot, error) {
	return nil, nil
}

func (r *fakeSnapshotRepo) CountByCompany(q repository.SnapshotQuery) (int64, error) {
	return 0, nil
}

func (r *fakeSnapshotRepo) DeleteByCompany(companyID string) error {
	return nil
}

type fakeRunRepo struct {
	mu   sync.Mutex
	runs map[string]*model.MatchRun
}

func (r *fakeRunRepo) Save(ctx context.Context, run *model.MatchRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runs == nil {
		r.runs = make(map[string]*model.MatchRun)
	}
	copied := *run
	r.runs[run.ID] = &copied
	return nil
}

func (r *fakeRunRepo) FindByID(ctx context.Context, runID string) (*model.MatchRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return nil, redis.Nil
	}
	copied := *run
	return &copied, nil
}

func (r *fakeRunRepo) FindLatest(ctx context.Context) (*model.MatchRun, error) {
	return nil, redis.Nil
}

type fakeEmbeddingClient struct {
	vec []float32
	err error
}

func (c *fakeEmbeddingClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.vec, nil
}

func testAliasIndex() *matching.AliasIndex {
	return matching.NewAliasIndex(map[string][]string{
		"JavaScript": {"JS", "js"},
		"Python":     {"python"},
	})
}

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		Workers:              2,
		ChunkSize:            2,
		EmbeddingRetryMax:    1,
		EmbeddingRetryBaseMs: 1,
	}
}

func testCompanies() []*model.Company {
	return []*model.Company{
		{ID: "c1", Skills: model.StringList{"JS"}, Regions: model.StringList{"13"}},
		{ID: "c2", Skills: model.StringList{"python"}, Regions: model.StringList{"27"}},
	}
}

func testRfps() []*model.RFP {
	deadline := time.Now().AddDate(0, 0, 10)
	return []*model.RFP{
		{ID: "r1", Title: "Webシステム開発", Description: "JavaScript開発必須", Region: "13", Deadline: &deadline},
		{ID: "r2", Title: "データ分析基盤構築", Description: "Pythonによる分析", Region: "27"},
		{ID: "r3", Title: "庁舎清掃業務", Description: "定期清掃", Region: "13"},
	}
}

func newTestOrchestrator(companyRepo *fakeCompanyRepo, rfpRepo *fakeRfpRepo, snapshotRepo *fakeSnapshotRepo, runRepo *fakeRunRepo, embClient *fakeEmbeddingClient) *Orchestrator {
	return NewOrchestrator(companyRepo, rfpRepo, snapshotRepo, runRepo, embClient, testAliasIndex(), testMatchingConfig())
}

func TestOrchestratorProcess(t *testing.T) {
	t.Run("full run completes and writes every pair", func(t *testing.T) {
		companyRepo := &fakeCompanyRepo{companies: testCompanies()}
		rfpRepo := &fakeRfpRepo{rfps: testRfps()}
		snapshotRepo := &fakeSnapshotRepo{}
		runRepo := &fakeRunRepo{}
		orch := newTestOrchestrator(companyRepo, rfpRepo, snapshotRepo, runRepo, &fakeEmbeddingClient{vec: []float32{1, 0}})

		task := tasks.MatchComputeTask{RunID: "run-1", RequestedAt: time.Now()}
		require.NoError(t, runRepo.Save(context.Background(), &model.MatchRun{ID: "run-1", Status: model.RunStatusPending}))
		require.NoError(t, orch.Process(context.Background(), task))

		run, err := runRepo.FindByID(context.Background(), "run-1")
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusCompleted, run.Status)
		assert.Equal(t, 2, run.TotalCompanies)
		assert.Equal(t, 3, run.TotalRfps)
		assert.Equal(t, int64(6), run.Processed)
		assert.Equal(t, int64(6), run.Succeeded)
		assert.Equal(t, int64(0), run.Failed)
		assert.Equal(t, 100.0, run.SuccessRate)
		require.NotNil(t, run.FinishedAt)

		assert.Len(t, snapshotRepo.snapshots, 6)
	})

	t.Run("pair failure is tolerated and counted", func(t *testing.T) {
		companyRepo := &fakeCompanyRepo{companies: testCompanies()}
		rfpRepo := &fakeRfpRepo{rfps: testRfps()}
		snapshotRepo := &fakeSnapshotRepo{failPairs: map[string]bool{pairKey("c1", "r2"): true}}
		runRepo := &fakeRunRepo{}
		orch := newTestOrchestrator(companyRepo, rfpRepo, snapshotRepo, runRepo, &fakeEmbeddingClient{vec: []float32{1, 0}})

		task := tasks.MatchComputeTask{RunID: "run-2", RequestedAt: time.Now()}
		require.NoError(t, orch.Process(context.Background(), task))

		run, err := runRepo.FindByID(context.Background(), "run-2")
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusCompletedWithErrors, run.Status)
		assert.Equal(t, int64(6), run.Processed)
		assert.Equal(t, int64(5), run.Succeeded)
		assert.Equal(t, int64(1), run.Failed)
		assert.Equal(t, 83.3, run.SuccessRate)

		assert.Len(t, snapshotRepo.snapshots, 5)
	})

	t.Run("missing run record is rebuilt from the task", func(t *testing.T) {
		companyRepo := &fakeCompanyRepo{companies: testCompanies()}
		rfpRepo := &fakeRfpRepo{rfps: testRfps()}
		snapshotRepo := &fakeSnapshotRepo{}
		runRepo := &fakeRunRepo{}
		orch := newTestOrchestrator(companyRepo, rfpRepo, snapshotRepo, runRepo, &fakeEmbeddingClient{vec: []float32{1, 0}})

		task := tasks.MatchComputeTask{RunID: "run-lost", RequestedAt: time.Now()}
		require.NoError(t, orch.Process(context.Background(), task))

		run, err := runRepo.FindByID(context.Background(), "run-lost")
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusCompleted, run.Status)
	})

	t.Run("company scoped run only touches that company", func(t *testing.T) {
		companyRepo := &fakeCompanyRepo{companies: testCompanies()}
		rfpRepo := &fakeRfpRepo{rfps: testRfps()}
		snapshotRepo := &fakeSnapshotRepo{}
		runRepo := &fakeRunRepo{}
		orch := newTestOrchestrator(companyRepo, rfpRepo, snapshotRepo, runRepo, &fakeEmbeddingClient{vec: []float32{1, 0}})

		task := tasks.MatchComputeTask{RunID: "run-3", CompanyID: "c1", RequestedAt: time.Now()}
		require.NoError(t, orch.Process(context.Background(), task))

		run, err := runRepo.FindByID(context.Background(), "run-3")
		require.NoError(t, err)
		assert.Equal(t, 1, run.TotalCompanies)
		assert.Equal(t, int64(3), run.Processed)

		assert.Len(t, snapshotRepo.snapshots, 3)
		for key := range snapshotRepo.snapshots {
			assert.Contains(t, key, "c1/")
		}
	})

	t.Run("embedding failure degrades without failing the run", func(t *testing.T) {
		companyRepo := &fakeCompanyRepo{companies: testCompanies()}
		rfpRepo := &fakeRfpRepo{rfps: testRfps()}
		snapshotRepo := &fakeSnapshotRepo{}
		runRepo := &fakeRunRepo{}
		orch := newTestOrchestrator(companyRepo, rfpRepo, snapshotRepo, runRepo, &fakeEmbeddingClient{err: errors.New("service unavailable")})

		task := tasks.MatchComputeTask{RunID: "run-4", RequestedAt: time.Now()}
		require.NoError(t, orch.Process(context.Background(), task))

		run, err := runRepo.FindByID(context.Background(), "run-4")
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusCompleted, run.Status)
		assert.Len(t, snapshotRepo.snapshots, 6)
		assert.Empty(t, companyRepo.embedded)
	})

	t.Run("embedding backfill persists once it succeeds", func(t *testing.T) {
		companyRepo := &fakeCompanyRepo{companies: testCompanies()}
		rfpRepo := &fakeRfpRepo{rfps: testRfps()}
		snapshotRepo := &fakeSnapshotRepo{}
		runRepo := &fakeRunRepo{}
		orch := newTestOrchestrator(companyRepo, rfpRepo, snapshotRepo, runRepo, &fakeEmbeddingClient{vec: []float32{1, 0}})

		task := tasks.MatchComputeTask{RunID: "run-5", RequestedAt: time.Now()}
		require.NoError(t, orch.Process(context.Background(), task))

		assert.Len(t, companyRepo.embedded, 2)
	})

	t.Run("rerun replaces snapshots instead of accumulating", func(t *testing.T) {
		companyRepo := &fakeCompanyRepo{companies: testCompanies()}
		rfpRepo := &fakeRfpRepo{rfps: testRfps()}
		snapshotRepo := &fakeSnapshotRepo{}
		runRepo := &fakeRunRepo{}
		orch := newTestOrchestrator(companyRepo, rfpRepo, snapshotRepo, runRepo, &fakeEmbeddingClient{vec: []float32{1, 0}})

		require.NoError(t, orch.Process(context.Background(), tasks.MatchComputeTask{RunID: "run-6a", RequestedAt: time.Now()}))
		require.NoError(t, orch.Process(context.Background(), tasks.MatchComputeTask{RunID: "run-6b", RequestedAt: time.Now()}))

		assert.Equal(t, 12, snapshotRepo.upserts)
		assert.Len(t, snapshotRepo.snapshots, 6)
	})
}
