// Package handler 包含了所有 Gin 的 HTTP 处理器。
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"kkj-match-go/internal/repository"
	"kkj-match-go/internal/service"
	"kkj-match-go/pkg/log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MatchHandler 结构体定义了匹配结果查询相关的处理器。
type MatchHandler struct {
	matchService service.MatchService
}

// NewMatchHandler 创建一个新的 MatchHandler 实例。
func NewMatchHandler(matchService service.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// ListMatches 是处理公司匹配结果列表请求的 Gin 处理函数。
// 支持 page / page_size 分页、min_score / must_only 过滤与 sort_by 排序。
func (h *MatchHandler) ListMatches(c *gin.Context) {
	companyID := c.Param("companyId")
	log.Infof("[MatchHandler] 收到匹配结果列表请求, CompanyID: %s", companyID)

	query := repository.SnapshotQuery{
		CompanyID: companyID,
		Page:      parseIntQuery(c, "page", 1),
		PageSize:  parseIntQuery(c, "page_size", 20),
		MustOnly:  c.Query("must_only") == "true",
		SortBy:    c.DefaultQuery("sort_by", "score"),
	}
	if raw := c.Query("min_score"); raw != "" {
		minScore, err := strconv.Atoi(raw)
		if err != nil || minScore < 0 || minScore > 100 {
			log.Warnf("[MatchHandler] 无效的 min_score 参数: %q", raw)
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_score 必须是 0~100 的整数"})
			return
		}
		query.MinScore = &minScore
	}

	result, err := h.matchService.ListMatches(query)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "公司不存在"})
			return
		}
		log.Errorf("[MatchHandler] 查询匹配结果失败, CompanyID: %s, error: %v", companyID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询匹配结果失败"})
		return
	}

	log.Infof("[MatchHandler] 匹配结果查询成功, CompanyID: %s, 返回 %d/%d 条", companyID, len(result.Matches), result.Total)
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": result, "message": "success"})
}

// parseIntQuery 解析正整数查询参数，解析失败或非正数时回落到缺省值。
func parseIntQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(fallback)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
