package service

import (
	"errors"
	"testing"
	"time"

	"kkj-match-go/internal/model"
	"kkj-match-go/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubCompanyRepo struct {
	companies map[string]*model.Company
}

func (r *stubCompanyRepo) FindByID(id string) (*model.Company, error) {
	if c, ok := r.companies[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCompanyRepo) FindAll() ([]*model.Company, error) { return nil, nil }

func (r *stubCompanyRepo) UpdateSkillEmbedding(id string, embedding model.Vector) error { return nil }

type stubRfpRepo struct {
	rfps []*model.RFP
}

func (r *stubRfpRepo) FindByID(id string) (*model.RFP, error) {
	for _, rfp := range r.rfps {
		if rfp.ID == id {
			return rfp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRfpRepo) FindAll() ([]*model.RFP, error) { return r.rfps, nil }

func (r *stubRfpRepo) FindBatchByIDs(ids []string) ([]*model.RFP, error) {
	var out []*model.RFP
	for _, id := range ids {
		if rfp, err := r.FindByID(id); err == nil {
			out = append(out, rfp)
		}
	}
	return out, nil
}

type stubSnapshotRepo struct {
	snapshots []*model.MatchSnapshot
	lastQuery repository.SnapshotQuery
}

func (r *stubSnapshotRepo) Upsert(snapshot *model.MatchSnapshot) error { return nil }

func (r *stubSnapshotRepo) FindByCompany(q repository.SnapshotQuery) ([]*model.MatchSnapshot, error) {
	r.lastQuery = q
	return r.snapshots, nil
}

func (r *stubSnapshotRepo) CountByCompany(q repository.SnapshotQuery) (int64, error) {
	return int64(len(r.snapshots)), nil
}

func (r *stubSnapshotRepo) DeleteByCompany(companyID string) error { return nil }

func TestMatchServiceListMatches(t *testing.T) {
	now := time.Now()
	companyRepo := &stubCompanyRepo{companies: map[string]*model.Company{
		"c1": {ID: "c1", Name: "テスト株式会社"},
	}}
	rfpRepo := &stubRfpRepo{rfps: []*model.RFP{
		{ID: "r1", ExternalID: "ext-1", Title: "Webシステム開発", Region: "13"},
		{ID: "r2", ExternalID: "ext-2", Title: "清掃業務", Region: "27"},
	}}
	snapshotRepo := &stubSnapshotRepo{snapshots: []*model.MatchSnapshot{
		{CompanyID: "c1", RfpID: "r1", Score: 90, MustOK: true, UpdatedAt: now},
		{CompanyID: "c1", RfpID: "r2", Score: 40, UpdatedAt: now},
	}}
	svc := NewMatchService(companyRepo, snapshotRepo, rfpRepo)

	t.Run("assembles snapshots with rfp fields", func(t *testing.T) {
		result, err := svc.ListMatches(repository.SnapshotQuery{CompanyID: "c1"})
		require.NoError(t, err)

		assert.Equal(t, int64(2), result.Total)
		require.Len(t, result.Matches, 2)
		assert.Equal(t, "r1", result.Matches[0].RfpID)
		assert.Equal(t, "Webシステム開発", result.Matches[0].Title)
		assert.Equal(t, 90, result.Matches[0].Score)
	})

	t.Run("unknown company is an error", func(t *testing.T) {
		_, err := svc.ListMatches(repository.SnapshotQuery{CompanyID: "nope"})
		assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	})

	t.Run("pagination defaults are applied", func(t *testing.T) {
		result, err := svc.ListMatches(repository.SnapshotQuery{CompanyID: "c1", Page: 0, PageSize: 0})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Page)
		assert.Equal(t, defaultPageSize, result.PageSize)
		assert.Equal(t, "score", snapshotRepo.lastQuery.SortBy)
	})

	t.Run("page size is capped", func(t *testing.T) {
		result, err := svc.ListMatches(repository.SnapshotQuery{CompanyID: "c1", PageSize: 10_000})
		require.NoError(t, err)
		assert.Equal(t, maxPageSize, result.PageSize)
	})

	t.Run("dangling snapshots are skipped", func(t *testing.T) {
		dangling := &stubSnapshotRepo{snapshots: []*model.MatchSnapshot{
			{CompanyID: "c1", RfpID: "gone", Score: 70, UpdatedAt: now},
		}}
		svc := NewMatchService(companyRepo, dangling, rfpRepo)

		result, err := svc.ListMatches(repository.SnapshotQuery{CompanyID: "c1"})
		require.NoError(t, err)
		assert.Empty(t, result.Matches)
	})
}
