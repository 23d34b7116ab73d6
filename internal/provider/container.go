package provider

import (
	"github.com/ERPlora/module-discounts/internal/authz"
	"github.com/ERPlora/module-discounts/internal/cache"
	"github.com/ERPlora/module-discounts/internal/config"
	"github.com/ERPlora/module-discounts/internal/logger"
	"github.com/ERPlora/module-discounts/internal/models"
	"github.com/ERPlora/module-discounts/internal/queue"
	"github.com/ERPlora/module-discounts/internal/repository"
	"github.com/ERPlora/module-discounts/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo repository.AdminRepository
	RuleRepo  repository.DiscountRuleRepository
	UsageRepo repository.DiscountUsageRepository

	// Services
	AuthzService         *authz.Service
	AuthService          *service.AuthService
	CaptchaService       *service.CaptchaService
	DiscountService      *service.DiscountService
	DiscountAdminService *service.DiscountAdminService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.RuleRepo = repository.NewDiscountRuleRepository(db)
	c.UsageRepo = repository.NewDiscountUsageRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.DiscountService = service.NewDiscountService(c.RuleRepo, c.UsageRepo)
	c.DiscountAdminService = service.NewDiscountAdminService(c.RuleRepo, c.QueueClient)
}
