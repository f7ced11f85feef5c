package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/onelinediary/server/internal/models"
)

func diaryView(d models.Diary) gin.H {
	return gin.H{
		"id":         d.ID,
		"user_id":    d.UserID,
		"content":    d.Content,
		"emotion":    d.Emotion,
		"weather":    d.Weather,
		"mood":       d.Mood,
		"is_private": d.IsPrivate,
		"created_at": formatTime(d.CreatedAt),
		"updated_at": formatTime(d.UpdatedAt),
	}
}

func diaryViews(rows []models.Diary) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, diaryView(row))
	}
	return out
}

func plantView(p models.Plant) gin.H {
	return gin.H{
		"id":         p.ID,
		"user_id":    p.UserID,
		"type":       p.Type,
		"level":      p.Level,
		"experience": p.Experience,
		"name":       p.Name,
		"created_at": formatTime(p.CreatedAt),
		"updated_at": formatTime(p.UpdatedAt),
	}
}

func achievementView(a models.Achievement) gin.H {
	return gin.H{
		"id":          a.ID,
		"user_id":     a.UserID,
		"type":        a.Type,
		"title":       a.Title,
		"description": a.Description,
		"icon":        a.Icon,
		"unlocked_at": formatTime(a.UnlockedAt),
	}
}

func achievementViews(rows []models.Achievement) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, achievementView(row))
	}
	return out
}

func subscriptionView(s models.Subscription) gin.H {
	return gin.H{
		"id":                     s.ID,
		"user_id":                s.UserID,
		"plan_type":              s.PlanType,
		"status":                 s.Status,
		"start_date":             formatTime(s.StartDate),
		"end_date":               formatTimePtr(s.EndDate),
		"provider":               s.Provider,
		"amount":                 s.Amount,
		"stripe_subscription_id": s.StripeSubscriptionID,
		"imp_uid":                s.ImpUID,
		"toss_order_id":          s.TossOrderID,
		"created_at":             formatTime(s.CreatedAt),
		"updated_at":             formatTime(s.UpdatedAt),
	}
}
