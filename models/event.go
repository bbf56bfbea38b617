package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"gorm.io/gorm"
)

// Event is the audit trail: one row per significant mutation (version
// lifecycle changes, imports, promotions, staging edits).
type Event struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type" binding:"required"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index" json:"reference_id"`
	ReferenceType string    `gorm:"size:255" json:"reference_type"`
	UserId        int       `gorm:"index" json:"user_id"`
	UserName      string    `gorm:"size:100" json:"user_name"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	EventActionCreate  = "C"
	EventActionUpdate  = "U"
	EventActionDelete  = "D"
	EventActionApprove = "A"
	EventActionReject  = "R"
	EventActionMigrate = "M"
)

// CreateEvent records the mutation inside the caller's transaction so the
// audit row commits or rolls back with the change it describes. Worker-side
// callers carry no user in context; those rows keep user_id 0.
func CreateEvent(tx *gorm.DB,
	actionType string,
	referenceId int,
	referenceType string,
	before interface{},
	after interface{},
	description string) error {

	var event Event

	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)

	ctx := tx.Statement.Context
	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)

	event.ActionType = actionType
	event.Before = string(b)
	event.After = string(a)
	event.Description = description
	event.ReferenceID = referenceId
	event.ReferenceType = referenceType
	event.UserId = userId
	event.UserName = userName

	return tx.Create(&event).Error
}

type EventFilter struct {
	ReferenceID   int
	ReferenceType string
	Limit         int
	Offset        int
}

func ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error) {
	db := config.GetDB().WithContext(ctx).Model(&Event{})
	if filter.ReferenceID > 0 {
		db = db.Where("reference_id = ?", filter.ReferenceID)
	}
	if filter.ReferenceType != "" {
		db = db.Where("reference_type = ?", filter.ReferenceType)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = config.SearchLimit
	}
	var events []*Event
	err := db.Order("id DESC").Limit(limit).Offset(filter.Offset).Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func GetEvent(ctx context.Context, id int) (*Event, error) {
	db := config.GetDB()
	var event Event
	if err := db.WithContext(ctx).First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &event, nil
}
