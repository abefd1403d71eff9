package model

import "time"

// Company 对应于数据库中的 'companies' 表。
// 公司档案由外部的账号/档案服务维护，匹配引擎只读取；
// 唯一的例外是 skill_embedding：技能变更后由批处理重新生成。
type Company struct {
	// ID 是公司的唯一标识符（UUID 字符串），作为主键。
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`
	// UserID 记录了拥有该公司档案的账号。
	UserID string `gorm:"type:varchar(36);not null;index" json:"userId"`
	// Name 是公司名称。
	Name string `gorm:"type:varchar(255);not null" json:"name"`
	// Description 是公司的自由文本介绍。
	Description string `gorm:"type:text" json:"description"`
	// Regions 是可承接的都道府县代码集合（顺序无关）。
	Regions StringList `gorm:"type:json" json:"regions"`
	// Skills 是原始（未正规化）的技能名称集合。
	Skills StringList `gorm:"type:json" json:"skills"`
	// NGKeywords 是排除关键词集合，命中即不推荐该案件。
	NGKeywords StringList `gorm:"type:json;column:ng_keywords" json:"ngKeywords"`
	// BudgetMin / BudgetMax 是预算范围（日元）。两者要么都设置（min <= max），要么都为空。
	BudgetMin *int64 `gorm:"column:budget_min" json:"budgetMin"`
	BudgetMax *int64 `gorm:"column:budget_max" json:"budgetMax"`
	// SkillEmbedding 是由技能与描述生成的嵌入向量，为 NULL 表示尚未生成。
	SkillEmbedding Vector    `gorm:"type:json;column:skill_embedding" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Company) TableName() string {
	return "companies"
}

// HasBudgetRange 判断公司是否申报了完整的预算范围。
func (c *Company) HasBudgetRange() bool {
	return c.BudgetMin != nil && c.BudgetMax != nil
}
