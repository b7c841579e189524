package request

import "user-backend/pkg/utils"

type PaginatedRequest struct {
	Page   int    `json:"page" validate:"min=1"`
	Limit  int    `json:"limit" validate:"min=1,max=100"`
	Search string `json:"search"`
}

func (p PaginatedRequest) Offset() int {
	return utils.CalculateOffset(p.Page, p.PageSize())
}

func (p PaginatedRequest) PageSize() int {
	if p.Limit < 1 {
		return utils.DefaultLimit
	}
	if p.Limit > utils.MaxLimit {
		return utils.MaxLimit
	}
	return p.Limit
}
