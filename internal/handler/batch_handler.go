package handler

import (
	"errors"
	"net/http"

	"kkj-match-go/internal/service"
	"kkj-match-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// BatchHandler 结构体定义了匹配批处理触发与运行状态查询的处理器。
type BatchHandler struct {
	batchService service.BatchService
}

// NewBatchHandler 创建一个新的 BatchHandler 实例。
func NewBatchHandler(batchService service.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// recomputeRequest 是触发重算请求的请求体。
type recomputeRequest struct {
	// CompanyID 非空时只重算该公司；为空表示全量重算。
	CompanyID string `json:"companyId"`
}

// TriggerRecompute 是处理匹配重算触发请求的 Gin 处理函数。
// 请求同步返回新建的运行记录，实际计算在后台异步执行。
func (h *BatchHandler) TriggerRecompute(c *gin.Context) {
	var req recomputeRequest
	// 请求体可为空（全量重算），解析失败按空请求处理
	_ = c.ShouldBindJSON(&req)
	log.Infof("[BatchHandler] 收到匹配重算请求, CompanyID: %q", req.CompanyID)

	run, err := h.batchService.TriggerRecompute(c.Request.Context(), req.CompanyID)
	if err != nil {
		log.Errorf("[BatchHandler] 触发匹配重算失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "触发匹配重算失败"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"code": 202, "data": run, "message": "success"})
}

// GetRun 是处理运行状态查询请求的 Gin 处理函数。
func (h *BatchHandler) GetRun(c *gin.Context) {
	runID := c.Param("runId")
	run, err := h.batchService.GetRun(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.JSON(http.StatusNotFound, gin.H{"error": "运行记录不存在"})
			return
		}
		log.Errorf("[BatchHandler] 查询运行记录失败, RunID: %s, error: %v", runID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询运行记录失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": run, "message": "success"})
}

// GetLatestRun 是处理最近运行查询请求的 Gin 处理函数。
func (h *BatchHandler) GetLatestRun(c *gin.Context) {
	run, err := h.batchService.GetLatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.JSON(http.StatusNotFound, gin.H{"error": "尚无任何运行记录"})
			return
		}
		log.Errorf("[BatchHandler] 查询最近运行记录失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询运行记录失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": run, "message": "success"})
}
