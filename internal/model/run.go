package model

import "time"

// 批处理运行的状态机：PENDING -> RUNNING -> {COMPLETED, COMPLETED_WITH_ERRORS}。
const (
	RunStatusPending             = "PENDING"
	RunStatusRunning             = "RUNNING"
	RunStatusCompleted           = "COMPLETED"
	RunStatusCompletedWithErrors = "COMPLETED_WITH_ERRORS"
)

// MatchRun 记录一次匹配批处理的状态与统计信息，以 JSON 形式存入 Redis。
// 单个 (公司, 案件) 对的失败只计数、不会中断整个运行。
type MatchRun struct {
	// ID 是运行的唯一标识符。
	ID string `json:"id"`
	// CompanyID 非空时表示只重算该公司；为空表示全量重算。
	CompanyID string `json:"companyId"`
	// Status 是当前状态，见 RunStatus* 常量。
	Status string `json:"status"`
	// TotalCompanies / TotalRfps 是本次运行覆盖的公司数与案件数。
	TotalCompanies int `json:"totalCompanies"`
	TotalRfps      int `json:"totalRfps"`
	// Processed / Succeeded / Failed 是 (公司, 案件) 对级别的计数。
	Processed int64 `json:"processed"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	// SuccessRate 是 Succeeded / Processed（百分比，保留一位小数）。
	SuccessRate float64    `json:"successRate"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt"`
	// ElapsedSeconds 是运行耗时（秒）。
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}
