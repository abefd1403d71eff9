package repository

import (
	"kkj-match-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotQuery 是快照列表查询的过滤与分页条件。
type SnapshotQuery struct {
	CompanyID string
	Page      int
	PageSize  int
	// MinScore 非 nil 时只返回分数不低于该值的快照。
	MinScore *int
	// MustOnly 为 true 时只返回满足必须要件的快照。
	MustOnly bool
	// SortBy 支持 "score"（分数降序，默认）与 "deadline"（案件截止日升序）。
	SortBy string
}

// SnapshotRepository 定义了匹配快照的数据访问接口。
type SnapshotRepository interface {
	// Upsert 以 (company_id, rfp_id) 唯一键原子替换快照：
	// 同一对已有快照时在单条语句内更新，不存在先查后写的竞态窗口。
	Upsert(snapshot *model.MatchSnapshot) error
	FindByCompany(q SnapshotQuery) ([]*model.MatchSnapshot, error)
	CountByCompany(q SnapshotQuery) (int64, error)
	DeleteByCompany(companyID string) error
}

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建一个新的 SnapshotRepository 实例。
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Upsert 写入或替换一条快照。
func (r *snapshotRepository) Upsert(snapshot *model.MatchSnapshot) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}, {Name: "rfp_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score", "must_ok", "budget_ok", "region_ok", "factors", "summary_points", "updated_at",
		}),
	}).Create(snapshot).Error
}

// FindByCompany 按条件分页查询某公司的匹配快照。
func (r *snapshotRepository) FindByCompany(q SnapshotQuery) ([]*model.MatchSnapshot, error) {
	var snapshots []*model.MatchSnapshot
	tx := r.applyFilters(q)

	if q.SortBy == "deadline" {
		// 截止日排序需要联表；NULL 截止日排在最后
		tx = tx.Joins("JOIN rfps ON rfps.id = match_snapshots.rfp_id").
			Order("rfps.deadline IS NULL, rfps.deadline asc")
	} else {
		tx = tx.Order("score desc, rfp_id asc")
	}

	offset := (q.Page - 1) * q.PageSize
	err := tx.Offset(offset).Limit(q.PageSize).Find(&snapshots).Error
	return snapshots, err
}

// CountByCompany 返回满足过滤条件的快照总数。
func (r *snapshotRepository) CountByCompany(q SnapshotQuery) (int64, error) {
	var total int64
	err := r.applyFilters(q).Count(&total).Error
	return total, err
}

// DeleteByCompany 删除某公司的全部快照。
func (r *snapshotRepository) DeleteByCompany(companyID string) error {
	return r.db.Where("company_id = ?", companyID).Delete(&model.MatchSnapshot{}).Error
}

func (r *snapshotRepository) applyFilters(q SnapshotQuery) *gorm.DB {
	tx := r.db.Model(&model.MatchSnapshot{}).Where("company_id = ?", q.CompanyID)
	if q.MinScore != nil {
		tx = tx.Where("score >= ?", *q.MinScore)
	}
	if q.MustOnly {
		tx = tx.Where("must_ok = ?", true)
	}
	return tx
}
