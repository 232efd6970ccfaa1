package service

import (
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	copySuffix      = " (Copy)"
)

// pageBounds переводит номер страницы и её размер в limit/offset
func pageBounds(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageSize, (page - 1) * pageSize
}

// duplicateName добавляет суффикс " (Copy)" с учетом ограничения длины в рунах.
// Уже существующий суффикс не дублируется.
func duplicateName(original string, maxLen int) string {
	base := strings.TrimSuffix(original, copySuffix)

	suffixLen := len([]rune(copySuffix))
	runes := []rune(base)
	if len(runes)+suffixLen > maxLen {
		keep := maxLen - suffixLen
		if keep <= 0 {
			return string([]rune(base + copySuffix)[:maxLen])
		}
		runes = runes[:keep]
	}
	return string(runes) + copySuffix
}
