package model

type NotificationType string

const (
	NotificationAchievementUnlocked NotificationType = "achievement_unlocked"
	NotificationCertificateIssued   NotificationType = "certificate_issued"
)

type Notification struct {
	UUIDBase
	UserID  uint                   `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Type    NotificationType       `gorm:"size:32;not null" json:"type"`
	Title   string                 `gorm:"size:200;not null" json:"title"`
	Message string                 `gorm:"size:500" json:"message"`
	Data    map[string]interface{} `gorm:"serializer:json;type:text" json:"data,omitempty"`
	IsRead  bool                   `json:"isRead"`
}

func (Notification) TableName() string {
	return "notifications"
}
