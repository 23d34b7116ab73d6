package constants

// 规则种类常量
const (
	RuleKindCoupon    = "coupon"
	RuleKindPromotion = "promotion"
)

// 折扣类型常量
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed_amount"
	DiscountTypeBuyXGetY   = "buy_x_get_y"
)

// 适用范围常量
const (
	ScopeTypeOrder      = "order"
	ScopeTypeProducts   = "products"
	ScopeTypeCategories = "categories"
)

// 范围目标类型常量
const (
	TargetKindProduct  = "product"
	TargetKindCategory = "category"
)

// 规则派生状态常量
const (
	RuleStatusDraft     = "draft"
	RuleStatusActive    = "active"
	RuleStatusExpired   = "expired"
	RuleStatusExhausted = "exhausted"
)

// 条件类型常量
const (
	ConditionMinQuantity   = "min_quantity"
	ConditionMinAmount     = "min_amount"
	ConditionCustomerGroup = "customer_group"
	ConditionFirstPurchase = "first_purchase"
	ConditionDayOfWeek     = "day_of_week"
	ConditionTimeOfDay     = "time_of_day"
)

// 条件运算符常量
const (
	OperatorGte     = "gte"
	OperatorEq      = "eq"
	OperatorIn      = "in"
	OperatorBetween = "between"
)

// 规则不适用原因常量
const (
	ReasonInactive         = "inactive"
	ReasonNotStarted       = "not_started"
	ReasonExpired          = "expired"
	ReasonUsageLimit       = "usage_limit_reached"
	ReasonPerCustomerLimit = "per_customer_limit_reached"
	ReasonMinAmount        = "min_amount_not_met"
	ReasonSchedule         = "outside_schedule"
	ReasonScopeUnmatched   = "scope_unmatched"
	ReasonConditionFailed  = "condition_failed"
	ReasonStackingConflict = "stacking_conflict"
	ReasonConfigInvalid    = "config_invalid"
	ReasonNoDiscount       = "no_discount"
)

// 无限制哨兵值常量
const (
	UsageLimitUnlimited = 0
)

// 队列常量
const (
	QueueDefault   = "default"
	TaskRuleExpire = "rule:expire"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "dc"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码校验场景常量
const (
	CaptchaSceneLogin          = "login"
	CaptchaSceneCouponValidate = "coupon_validate"
)
