package repository

import (
	"kkj-match-go/internal/model"

	"gorm.io/gorm"
)

// RfpRepository 定义了案件记录的数据访问接口。案件对匹配引擎完全只读。
type RfpRepository interface {
	FindByID(id string) (*model.RFP, error)
	FindAll() ([]*model.RFP, error)
	FindBatchByIDs(ids []string) ([]*model.RFP, error)
}

type rfpRepository struct {
	db *gorm.DB
}

// NewRfpRepository 创建一个新的 RfpRepository 实例。
func NewRfpRepository(db *gorm.DB) RfpRepository {
	return &rfpRepository{db: db}
}

// FindByID 根据主键查找案件。
func (r *rfpRepository) FindByID(id string) (*model.RFP, error) {
	var rfp model.RFP
	if err := r.db.Where("id = ?", id).First(&rfp).Error; err != nil {
		return nil, err
	}
	return &rfp, nil
}

// FindAll 按截止日升序返回全部案件。
func (r *rfpRepository) FindAll() ([]*model.RFP, error) {
	var rfps []*model.RFP
	err := r.db.Order("deadline asc").Find(&rfps).Error
	return rfps, err
}

// FindBatchByIDs 批量按主键查找案件。
func (r *rfpRepository) FindBatchByIDs(ids []string) ([]*model.RFP, error) {
	var rfps []*model.RFP
	if len(ids) == 0 {
		return rfps, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&rfps).Error
	return rfps, err
}
