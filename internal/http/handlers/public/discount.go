package public

import (
	"errors"
	"strconv"

	"github.com/ERPlora/module-discounts/internal/constants"
	"github.com/ERPlora/module-discounts/internal/http/response"
	"github.com/ERPlora/module-discounts/internal/models"
	"github.com/ERPlora/module-discounts/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OrderLineRequest 订单行请求
type OrderLineRequest struct {
	ProductID  uint    `json:"product_id" binding:"required"`
	CategoryID uint    `json:"category_id"`
	Quantity   int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice  float64 `json:"unit_price" binding:"gte=0"`
}

// ResolveRequest 折扣计算请求
type ResolveRequest struct {
	Lines         []OrderLineRequest `json:"lines" binding:"required,dive"`
	CustomerID    uint               `json:"customer_id"`
	CustomerGroup string             `json:"customer_group"`
	FirstPurchase bool               `json:"first_purchase"`
	CouponCode    string             `json:"coupon_code"`
}

func (req ResolveRequest) toServiceInput() service.ResolveInput {
	lines := make([]service.OrderLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, service.OrderLine{
			ProductID:  line.ProductID,
			CategoryID: line.CategoryID,
			Quantity:   line.Quantity,
			UnitPrice:  models.NewMoneyFromDecimal(decimal.NewFromFloat(line.UnitPrice)),
		})
	}
	return service.ResolveInput{
		Lines:         lines,
		CustomerID:    req.CustomerID,
		CustomerGroup: req.CustomerGroup,
		FirstPurchase: req.FirstPurchase,
		CouponCode:    req.CouponCode,
	}
}

// ResolveDiscounts 计算订单折扣（预览，不占用额度）
func (h *Handler) ResolveDiscounts(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	result, err := h.DiscountService.Resolve(req.toServiceInput())
	if err != nil {
		respondDiscountResolveError(c, err)
		return
	}

	response.Success(c, result)
}

// ValidateCouponRequest 优惠码校验请求
type ValidateCouponRequest struct {
	Code           string                `json:"code" binding:"required"`
	Lines          []OrderLineRequest    `json:"lines" binding:"required,dive"`
	CustomerID     uint                  `json:"customer_id"`
	CustomerGroup  string                `json:"customer_group"`
	FirstPurchase  bool                  `json:"first_purchase"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// ValidateCoupon 校验优惠码是否可用
func (h *Handler) ValidateCoupon(c *gin.Context) {
	var req ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	if h.CaptchaService != nil {
		if captchaErr := h.CaptchaService.Verify(constants.CaptchaSceneCouponValidate, req.CaptchaPayload.toServicePayload()); captchaErr != nil {
			switch {
			case errors.Is(captchaErr, service.ErrCaptchaRequired):
				respondError(c, response.CodeBadRequest, "请先完成验证码", nil)
				return
			case errors.Is(captchaErr, service.ErrCaptchaInvalid):
				respondError(c, response.CodeBadRequest, "验证码错误", nil)
				return
			default:
				respondError(c, response.CodeInternal, "验证码校验失败", captchaErr)
				return
			}
		}
	}

	input := ResolveRequest{
		Lines:         req.Lines,
		CustomerID:    req.CustomerID,
		CustomerGroup: req.CustomerGroup,
		FirstPurchase: req.FirstPurchase,
	}.toServiceInput()

	validation, err := h.DiscountService.ValidateCoupon(req.Code, input)
	if err != nil {
		respondDiscountResolveError(c, err)
		return
	}

	response.Success(c, validation)
}

// CommitSale 结算落账：按当前规则集占用额度并写入使用记录
func (h *Handler) CommitSale(c *gin.Context) {
	saleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || saleID == 0 {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	result, err := h.DiscountService.CommitSale(uint(saleID), req.toServiceInput())
	if err != nil {
		respondDiscountCommitError(c, err)
		return
	}

	requestLog(c).Infow("sale_discount_committed",
		"sale_id", saleID,
		"discount", result.Discount.String(),
	)
	response.Success(c, result)
}
