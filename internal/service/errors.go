package service

import "errors"

// 折扣引擎错误
var (
	ErrRuleNotFound      = errors.New("折扣规则不存在")
	ErrRuleIneligible    = errors.New("折扣规则不适用")
	ErrRuleConfigInvalid = errors.New("折扣规则配置无效")
	ErrUsageConflict     = errors.New("折扣额度并发冲突")
	ErrSaleIDInvalid     = errors.New("销售单号无效")
)

// 管理端错误
var (
	ErrRuleCodeRequired  = errors.New("优惠码不能为空")
	ErrRuleCodeTaken     = errors.New("优惠码已存在")
	ErrRuleKindInvalid   = errors.New("规则种类无效")
	ErrRuleValueInvalid  = errors.New("规则数值无效")
	ErrRuleScopeInvalid  = errors.New("规则适用范围无效")
	ErrRuleWindowInvalid = errors.New("规则生效时间无效")
)

// 认证错误
var (
	ErrAdminNotFound      = errors.New("管理员不存在")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrTokenInvalid       = errors.New("登录状态无效")
	ErrWeakPassword       = errors.New("密码强度不足")
)

// 验证码错误
var (
	ErrCaptchaRequired    = errors.New("需要验证码")
	ErrCaptchaInvalid     = errors.New("验证码错误")
	ErrCaptchaUnsupported = errors.New("验证码提供方不支持")
)
