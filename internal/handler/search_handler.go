package handler

import (
	"net/http"
	"strconv"

	"kkj-match-go/internal/service"
	"kkj-match-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SearchHandler 结构体定义了案件检索相关的处理器。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// SearchRfps 是处理案件混合检索请求的 Gin 处理函数。
func (h *SearchHandler) SearchRfps(c *gin.Context) {
	query := c.Query("query")
	log.Infof("[SearchHandler] 收到混合检索请求, query: %s", query)

	if query == "" {
		log.Warnf("[SearchHandler] 检索请求失败: query 参数为空")
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的查询参数"})
		return
	}
	topKStr := c.DefaultQuery("topK", "10")
	topK, err := strconv.Atoi(topKStr)
	if err != nil || topK <= 0 {
		topK = 10
	}

	results, err := h.searchService.SearchRfps(c.Request.Context(), query, topK)
	if err != nil {
		log.Errorf("[SearchHandler] 混合检索服务返回错误, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "检索失败"})
		return
	}

	log.Infof("[SearchHandler] 混合检索成功, query: '%s', 返回 %d 条结果", query, len(results))
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": results, "message": "success"})
}
