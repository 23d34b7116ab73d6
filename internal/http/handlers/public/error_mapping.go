package public

import (
	"errors"

	"github.com/ERPlora/module-discounts/internal/http/response"
	"github.com/ERPlora/module-discounts/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var discountResolveErrorRules = []mappedHandlerError{
	{target: service.ErrRuleNotFound, code: response.CodeNotFound, msg: "优惠码不存在"},
	{target: service.ErrRuleIneligible, code: response.CodeBadRequest, msg: "折扣不满足使用条件"},
	{target: service.ErrRuleConfigInvalid, code: response.CodeBadRequest, msg: "折扣配置无效"},
}

var discountCommitExtraErrorRules = []mappedHandlerError{
	{target: service.ErrUsageConflict, code: response.CodeConflict, msg: "折扣额度已被占用，请重新计算"},
	{target: service.ErrSaleIDInvalid, code: response.CodeBadRequest, msg: "销售单号无效"},
}

func respondDiscountResolveError(c *gin.Context, err error) {
	respondWithMappedError(c, err, discountResolveErrorRules, response.CodeInternal, "折扣计算失败")
}

func respondDiscountCommitError(c *gin.Context, err error) {
	rules := make([]mappedHandlerError, 0, len(discountResolveErrorRules)+len(discountCommitExtraErrorRules))
	rules = append(rules, discountResolveErrorRules...)
	rules = append(rules, discountCommitExtraErrorRules...)
	respondWithMappedError(c, err, rules, response.CodeInternal, "折扣落账失败")
}
