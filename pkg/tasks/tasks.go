// Package tasks defines the asynchronous task payloads exchanged over Kafka.
package tasks

import "time"

// MatchComputeTask 是触发一次匹配批处理的任务。
// CompanyID 为空字符串时表示对全部企业执行批量计算。
type MatchComputeTask struct {
	RunID       string    `json:"run_id"`
	CompanyID   string    `json:"company_id,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
