package response

import "user-backend/pkg/utils"

type PaginatedResponse[T any] struct {
	Items      []T            `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

type PaginationMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

func NewPaginatedResponse[T any](items []T, page, limit int, total int64) *PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := utils.CalculateTotalPages(total, limit)

	return &PaginatedResponse[T]{
		Items: items,
		Pagination: PaginationMeta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}
}
