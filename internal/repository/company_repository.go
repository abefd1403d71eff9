// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"kkj-match-go/internal/model"

	"gorm.io/gorm"
)

// CompanyRepository 定义了公司档案的数据访问接口。
// 公司档案由外部服务维护，匹配引擎只读；唯一的写操作是技能嵌入回填。
type CompanyRepository interface {
	FindByID(id string) (*model.Company, error)
	FindAll() ([]*model.Company, error)
	UpdateSkillEmbedding(id string, embedding model.Vector) error
}

type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository 创建一个新的 CompanyRepository 实例。
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

// FindByID 根据主键查找公司档案。
func (r *companyRepository) FindByID(id string) (*model.Company, error) {
	var company model.Company
	if err := r.db.Where("id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// FindAll 返回全部公司档案。
func (r *companyRepository) FindAll() ([]*model.Company, error) {
	var companies []*model.Company
	err := r.db.Order("id asc").Find(&companies).Error
	return companies, err
}

// UpdateSkillEmbedding 回填公司的技能嵌入向量。
func (r *companyRepository) UpdateSkillEmbedding(id string, embedding model.Vector) error {
	return r.db.Model(&model.Company{}).Where("id = ?", id).Update("skill_embedding", embedding).Error
}
