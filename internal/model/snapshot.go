package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MatchFactors 是单个 (公司, 案件) 对的打分要素明细，作为 JSON 整体存入快照。
type MatchFactors struct {
	// SkillMatch 是技能匹配度 (0.0~1.0)。
	SkillMatch float64 `json:"skill_match"`
	// Must 是必须要件判定结果。
	Must bool `json:"must"`
	// RegionCoefficient 是地域系数（命中 1.0 / 未命中 0.8）。
	RegionCoefficient float64 `json:"region_coefficient"`
	// BudgetBoost 是预算加成 (0 / 0.05 / 0.10)。
	BudgetBoost float64 `json:"budget_boost"`
	// DeadlineBoost 是截止日加成 (0~0.05)。
	DeadlineBoost float64 `json:"deadline_boost"`
}

// Value 实现 driver.Valuer 接口。
func (f MatchFactors) Value() (driver.Value, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal match factors: %w", err)
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口。
func (f *MatchFactors) Scan(value interface{}) error {
	if value == nil {
		*f = MatchFactors{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for MatchFactors: %T", value)
	}
	return json.Unmarshal(data, f)
}

// MatchSnapshot 对应于数据库中的 'match_snapshots' 表。
// 每个 (company_id, rfp_id) 对至多存在一条当前快照：重算时按唯一键 upsert 原子替换，
// 而不是先查再写。快照只由批处理产生，对终端用户只读。
type MatchSnapshot struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_company_rfp,priority:1" json:"companyId"`
	RfpID     string `gorm:"type:varchar(36);not null;uniqueIndex:idx_company_rfp,priority:2;column:rfp_id" json:"rfpId"`
	// Score 是合成后的匹配分数 (0~100)。
	Score int `gorm:"not null" json:"score"`
	// MustOK / BudgetOK / RegionOK 是三个门限标志。
	MustOK   bool `gorm:"not null;column:must_ok" json:"mustOk"`
	BudgetOK bool `gorm:"not null;column:budget_ok" json:"budgetOk"`
	RegionOK bool `gorm:"not null;column:region_ok" json:"regionOk"`
	// Factors 是打分要素明细（结构化 JSON，不是文字说明）。
	Factors MatchFactors `gorm:"type:json" json:"factors"`
	// SummaryPoints 是面向用户的匹配理由（最多 3 条）。
	SummaryPoints StringList `gorm:"type:json;column:summary_points" json:"summaryPoints"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (MatchSnapshot) TableName() string {
	return "match_snapshots"
}

// MatchResultDTO 定义了返回给前端的单条匹配结果结构（快照 + 案件字段拼装）。
type MatchResultDTO struct {
	RfpID         string       `json:"rfpId"`
	ExternalID    string       `json:"externalId"`
	Title         string       `json:"title"`
	Organization  string       `json:"organization"`
	Region        string       `json:"region"`
	Budget        *int64       `json:"budget"`
	Deadline      *time.Time   `json:"deadline"`
	SourceURL     string       `json:"sourceUrl"`
	Score         int          `json:"score"`
	MustOK        bool         `json:"mustOk"`
	BudgetOK      bool         `json:"budgetOk"`
	RegionOK      bool         `json:"regionOk"`
	Factors       MatchFactors `json:"factors"`
	SummaryPoints []string     `json:"summaryPoints"`
	CalculatedAt  LocalTime    `json:"calculatedAt"`
}

// MatchListDTO 是分页的匹配结果列表。
type MatchListDTO struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Matches  []MatchResultDTO `json:"matches"`
}

// CandidateDTO 定义了混合检索接口返回的候选案件结构。
type CandidateDTO struct {
	RfpID    string  `json:"rfpId"`
	Title    string  `json:"title"`
	Semantic float64 `json:"semantic"`
	Lexical  float64 `json:"lexical"`
	Score    float64 `json:"score"`
}
