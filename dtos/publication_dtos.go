package dtos

import (
	"time"

	"github.com/cppla/blogpub/models"
)

type CommentResponse struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Comment string    `json:"comment"`
	Date    time.Time `json:"date"`
}

// PublicationResponse is the wire shape of a publication. Store-internal
// fields (foreign keys, bson ids) never reach clients.
type PublicationResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Image       string            `json:"image"`
	Course      string            `json:"course"`
	Comments    []CommentResponse `json:"comments"`
	Date        time.Time         `json:"date"`
	Status      bool              `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func ToCommentResponse(c models.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Name:    c.Name,
		Comment: c.Comment,
		Date:    c.Date,
	}
}

func ToPublicationResponse(p *models.Publication) PublicationResponse {
	comments := make([]CommentResponse, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, ToCommentResponse(c))
	}
	return PublicationResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Image:       p.Image,
		Course:      p.Course,
		Comments:    comments,
		Date:        p.Date,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToPublicationResponses never returns nil so empty results encode as [].
func ToPublicationResponses(list []models.Publication) []PublicationResponse {
	out := make([]PublicationResponse, 0, len(list))
	for i := range list {
		out = append(out, ToPublicationResponse(&list[i]))
	}
	return out
}
