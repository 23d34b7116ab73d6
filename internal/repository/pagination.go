package repository

import "gorm.io/gorm"

// applyPagination 为列表查询附加分页，pageSize 不大于 0 时返回全量
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
