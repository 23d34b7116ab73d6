package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ERPlora/module-discounts/internal/logger"
	"github.com/ERPlora/module-discounts/internal/provider"
	"github.com/ERPlora/module-discounts/internal/queue"
	"github.com/ERPlora/module-discounts/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskRuleExpire, c.handleRuleExpire)
}

func (c *Consumer) handleRuleExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_rule_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RuleExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_rule_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.RuleID == 0 {
		logger.Debugw("worker_rule_expire_skip_invalid_payload", "rule_id", payload.RuleID)
		return nil
	}
	if c.DiscountAdminService == nil {
		logger.Warnw("worker_rule_expire_skip_service_nil", "rule_id", payload.RuleID)
		return nil
	}
	if err := c.DiscountAdminService.Deactivate(payload.RuleID); err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			logger.Debugw("worker_rule_expire_skip_rule_not_found", "rule_id", payload.RuleID)
			return nil
		}
		logger.Warnw("worker_rule_expire_failed", "rule_id", payload.RuleID, "error", err)
		return err
	}
	logger.Infow("worker_rule_expired", "rule_id", payload.RuleID)
	return nil
}
