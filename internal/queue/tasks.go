package queue

import (
	"encoding/json"

	"github.com/ERPlora/module-discounts/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskRuleExpire 规则到期停用任务
	TaskRuleExpire = constants.TaskRuleExpire
)

// RuleExpirePayload 规则到期任务载荷
type RuleExpirePayload struct {
	RuleID uint `json:"rule_id"`
}

// NewRuleExpireTask 创建规则到期停用任务
func NewRuleExpireTask(payload RuleExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRuleExpire, body), nil
}
