package admin

import (
	"strconv"

	"github.com/ERPlora/module-discounts/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ReleaseSale 回退销售单占用的折扣用量
// 说明：销售单取消或退款后调用，删除使用记录并归还规则计数。
func (h *Handler) ReleaseSale(c *gin.Context) {
	saleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || saleID == 0 {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	if err := h.DiscountService.ReleaseSale(uint(saleID)); err != nil {
		respondError(c, response.CodeInternal, "回退折扣用量失败", err)
		return
	}

	requestLog(c).Infow("discount_sale_released", "sale_id", saleID)
	response.Success(c, gin.H{
		"released": true,
	})
}
