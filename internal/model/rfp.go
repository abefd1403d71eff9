package model

import "time"

// RFP 对应于数据库中的 'rfps' 表。
// 案件记录由外部的采集管道（官公需ポータル抓取 + 嵌入生成）写入，对匹配引擎完全只读。
type RFP struct {
	// ID 是案件的唯一标识符（UUID 字符串），作为主键。
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`
	// ExternalID 是外部采购登记系统中的案件编号。
	ExternalID string `gorm:"type:varchar(100);not null;uniqueIndex" json:"externalId"`
	// Title 是案件标题。
	Title string `gorm:"type:varchar(512);not null" json:"title"`
	// Organization 是发包机关名称。
	Organization string `gorm:"type:varchar(255)" json:"organization"`
	// Category 是案件分类名称。
	Category string `gorm:"type:varchar(100)" json:"category"`
	// Description 是案件说明全文。
	Description string `gorm:"type:text" json:"description"`
	// Certification 是资格/认证要求的自由文本，可为空。
	Certification string `gorm:"type:text" json:"certification"`
	// Budget 是预算（日元）。为 NULL 表示预算未公开。
	Budget *int64 `gorm:"column:budget" json:"budget"`
	// Region 是都道府县代码。
	Region string `gorm:"type:varchar(10);not null;index" json:"region"`
	// Deadline 是应标截止日，可为 NULL。
	Deadline *time.Time `gorm:"column:deadline" json:"deadline"`
	// Embedding 是案件全文的嵌入向量。为 NULL 时该案件不参与语义检索，
	// 但仍参与关键词匹配与全量打分。
	Embedding Vector `gorm:"type:json" json:"-"`
	// SourceURL 是原始案件页面的 URL。
	SourceURL string    `gorm:"type:varchar(1024);column:source_url" json:"sourceUrl"`
	FetchedAt time.Time `gorm:"column:fetched_at" json:"fetchedAt"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (RFP) TableName() string {
	return "rfps"
}

// HasEmbedding 判断案件是否已有嵌入向量。
func (r *RFP) HasEmbedding() bool {
	return len(r.Embedding) > 0
}
