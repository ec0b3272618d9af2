package models

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a reply embedded in a publication. It has no lifecycle of its own.
type Comment struct {
	ID            string    `gorm:"primaryKey;size:36" bson:"id"`
	PublicationID string    `gorm:"size:36;not null;index" bson:"-"`
	Name          string    `gorm:"size:255;not null" bson:"name"`
	Comment       string    `gorm:"type:text;not null" bson:"comment"`
	Date          time.Time `gorm:"not null;index" bson:"date"`
	// Seq orders comments sharing a Date; later comments get larger values.
	Seq int64 `gorm:"not null;default:0" bson:"-" json:"-"`
}

var lastCommentSeq atomic.Int64

// nextCommentSeq returns a strictly increasing value seeded from the clock.
func nextCommentSeq() int64 {
	for {
		prev := lastCommentSeq.Load()
		next := time.Now().UnixNano()
		if next <= prev {
			next = prev + 1
		}
		if lastCommentSeq.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// TableName keeps the child table next to publications.
func (Comment) TableName() string {
	return "publication_comments"
}

// NewComment returns a comment dated now.
func NewComment(name, comment string) Comment {
	return Comment{
		ID:      uuid.NewString(),
		Name:    name,
		Comment: comment,
		Date:    time.Now().In(Location()),
		Seq:     nextCommentSeq(),
	}
}

// AssignDefaults sets the id and date when missing.
func (c *Comment) AssignDefaults(now time.Time) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Date.IsZero() {
		c.Date = now.In(Location())
	}
	if c.Seq == 0 {
		c.Seq = nextCommentSeq()
	}
}

// BeforeCreate hook ensures defaults are set even when not provided.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	c.AssignDefaults(time.Now())
	return nil
}
