// Package service 实现了应用的核心业务逻辑。
package service

import (
	"fmt"

	"kkj-match-go/internal/model"
	"kkj-match-go/internal/repository"
	"kkj-match-go/pkg/log"
)

// 分页参数的缺省值与上限。
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// MatchService 定义了匹配结果读取的业务逻辑接口。
// 终端用户只读取批处理产生的快照，读路径上不做任何打分计算。
type MatchService interface {
	ListMatches(query repository.SnapshotQuery) (*model.MatchListDTO, error)
}

type matchService struct {
	companyRepo  repository.CompanyRepository
	snapshotRepo repository.SnapshotRepository
	rfpRepo      repository.RfpRepository
}

// NewMatchService 创建一个新的 MatchService 实例。
func NewMatchService(companyRepo repository.CompanyRepository, snapshotRepo repository.SnapshotRepository, rfpRepo repository.RfpRepository) MatchService {
	return &matchService{companyRepo: companyRepo, snapshotRepo: snapshotRepo, rfpRepo: rfpRepo}
}

// ListMatches 分页返回某公司的匹配结果，快照与案件字段在服务层拼装。
// 公司不存在时返回 gorm.ErrRecordNotFound；
// 快照指向的案件已被删除时跳过该条（快照是异步产物，允许短暂悬空）。
func (s *matchService) ListMatches(query repository.SnapshotQuery) (*model.MatchListDTO, error) {
	normalizeQuery(&query)

	if _, err := s.companyRepo.FindByID(query.CompanyID); err != nil {
		return nil, err
	}

	total, err := s.snapshotRepo.CountByCompany(query)
	if err != nil {
		return nil, fmt.Errorf("统计匹配快照失败: %w", err)
	}

	snapshots, err := s.snapshotRepo.FindByCompany(query)
	if err != nil {
		return nil, fmt.Errorf("查询匹配快照失败: %w", err)
	}

	// 先收集案件 ID，批量查出后按 ID 建映射再拼装
	rfpIDs := make([]string, 0, len(snapshots))
	for _, snap := range snapshots {
		rfpIDs = append(rfpIDs, snap.RfpID)
	}
	rfps, err := s.rfpRepo.FindBatchByIDs(rfpIDs)
	if err != nil {
		return nil, fmt.Errorf("批量查询案件失败: %w", err)
	}
	rfpMap := make(map[string]*model.RFP, len(rfps))
	for _, rfp := range rfps {
		rfpMap[rfp.ID] = rfp
	}

	matches := make([]model.MatchResultDTO, 0, len(snapshots))
	for _, snap := range snapshots {
		rfp, ok := rfpMap[snap.RfpID]
		if !ok {
			log.Warnf("[MatchService] 快照指向的案件不存在, 跳过, CompanyID: %s, RfpID: %s", snap.CompanyID, snap.RfpID)
			continue
		}
		matches = append(matches, model.MatchResultDTO{
			RfpID:         rfp.ID,
			ExternalID:    rfp.ExternalID,
			Title:         rfp.Title,
			Organization:  rfp.Organization,
			Region:        rfp.Region,
			Budget:        rfp.Budget,
			Deadline:      rfp.Deadline,
			SourceURL:     rfp.SourceURL,
			Score:         snap.Score,
			MustOK:        snap.MustOK,
			BudgetOK:      snap.BudgetOK,
			RegionOK:      snap.RegionOK,
			Factors:       snap.Factors,
			SummaryPoints: snap.SummaryPoints,
			CalculatedAt:  model.LocalTime(snap.UpdatedAt),
		})
	}

	return &model.MatchListDTO{
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
		Matches:  matches,
	}, nil
}

// normalizeQuery 把分页参数收敛到合法范围。
func normalizeQuery(q *repository.SnapshotQuery) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	if q.SortBy != "deadline" {
		q.SortBy = "score"
	}
}
