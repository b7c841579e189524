package response

import "user-backend/internal/data/entity"

type StatsResponse struct {
	TotalUsers    int64 `json:"totalUsers"`
	ActiveUsers   int64 `json:"activeUsers"`
	InactiveUsers int64 `json:"inactiveUsers"`
	AdminUsers    int64 `json:"adminUsers"`
	NewUsersToday int64 `json:"newUsersToday"`
}

type StatsEnvelope struct {
	Stats StatsResponse `json:"stats"`
}

func StatsToResponse(stats *entity.UserStats) StatsResponse {
	return StatsResponse{
		TotalUsers:    stats.TotalUsers,
		ActiveUsers:   stats.ActiveUsers,
		InactiveUsers: stats.InactiveUsers,
		AdminUsers:    stats.AdminUsers,
		NewUsersToday: stats.NewUsersToday,
	}
}
