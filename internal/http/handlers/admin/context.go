package admin

import (
	handlershared "github.com/ERPlora/module-discounts/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "admin_id", "管理员标识无效", "管理员标识类型无效")
}
