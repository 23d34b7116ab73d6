package admin

import (
	"strconv"
	"strings"

	"github.com/ERPlora/module-discounts/internal/http/response"
	"github.com/ERPlora/module-discounts/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAdminUsages 获取折扣使用记录列表
func (h *Handler) GetAdminUsages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var ruleID uint
	if raw := strings.TrimSpace(c.Query("rule_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "请求参数无效", err)
			return
		}
		ruleID = uint(parsed)
	}
	var customerID uint
	if raw := strings.TrimSpace(c.Query("customer_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "请求参数无效", err)
			return
		}
		customerID = uint(parsed)
	}

	usages, total, err := h.UsageRepo.List(repository.UsageListFilter{
		RuleID:     ruleID,
		CustomerID: customerID,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取使用记录失败", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, usages, pagination)
}
