package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Courses a publication can be tagged with.
const (
	CourseTecnologia          = "Tecnologia"
	CoursePracticaSupervisada = "Practica Supervisada"
	CourseTaller              = "Taller"
)

// Courses lists every accepted course in display order.
var Courses = []string{CourseTecnologia, CoursePracticaSupervisada, CourseTaller}

// IsValidCourse reports whether c is one of Courses.
func IsValidCourse(c string) bool {
	for _, course := range Courses {
		if c == course {
			return true
		}
	}
	return false
}

// CourseList is Courses joined for error messages.
func CourseList() string {
	return strings.Join(Courses, ", ")
}

// Publication is a blog-style post with an image, a course tag and comments.
// Status false marks the publication as deleted.
type Publication struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"_id"`
	Title       string    `gorm:"size:255;not null" bson:"title"`
	Description string    `gorm:"type:text;not null" bson:"description"`
	Image       string    `gorm:"size:255;not null;index" bson:"image"`
	Course      string    `gorm:"size:32;not null;index" bson:"course"`
	Comments    []Comment `gorm:"foreignKey:PublicationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" bson:"comments"`
	Date        time.Time `gorm:"not null;index" bson:"date"`
	Status      bool      `gorm:"not null;default:true;index" bson:"status"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// NewPublication returns a visible publication dated today.
func NewPublication(title, description, image, course string) *Publication {
	return &Publication{
		Title:       title,
		Description: description,
		Image:       image,
		Course:      course,
		Comments:    []Comment{},
		Date:        Today(),
		Status:      true,
	}
}

// AssignDefaults fills identifiers and timestamps for a record about to be
// inserted and normalizes its date.
func (p *Publication) AssignDefaults(now time.Time) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Date.IsZero() {
		p.Date = MidnightOf(now)
	} else {
		p.Date = MidnightOf(p.Date)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	for i := range p.Comments {
		p.Comments[i].AssignDefaults(now)
		p.Comments[i].PublicationID = p.ID
	}
}

// InLocation converts every timestamp to the service time zone. Stores hand
// back UTC instants.
func (p *Publication) InLocation() {
	loc := Location()
	p.Date = p.Date.In(loc)
	p.CreatedAt = p.CreatedAt.In(loc)
	p.UpdatedAt = p.UpdatedAt.In(loc)
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	for i := range p.Comments {
		p.Comments[i].Date = p.Comments[i].Date.In(loc)
	}
}

// BeforeCreate hook assigns the id and defaults before the row is written.
func (p *Publication) BeforeCreate(tx *gorm.DB) error {
	p.AssignDefaults(time.Now())
	return nil
}

// BeforeSave keeps the date truncated to midnight on every write.
func (p *Publication) BeforeSave(tx *gorm.DB) error {
	if !p.Date.IsZero() {
		p.Date = MidnightOf(p.Date)
	}
	return nil
}

// AfterFind hook
func (p *Publication) AfterFind(tx *gorm.DB) error {
	p.InLocation()
	return nil
}
