package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogpub/dtos"
	"github.com/cppla/blogpub/events"
	"github.com/cppla/blogpub/middleware"
	"github.com/cppla/blogpub/models"
	"github.com/cppla/blogpub/repositories"
	"github.com/cppla/blogpub/utils"
	"github.com/cppla/blogpub/validators"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
	publishTimeout   = 3 * time.Second
)

// PublicationController handles the publication endpoints.
type PublicationController struct {
	repo      repositories.PublicationRepository
	publisher events.Publisher
}

// NewPublicationController creates a new PublicationController. A nil
// publisher disables events.
func NewPublicationController(repo repositories.PublicationRepository, publisher events.Publisher) *PublicationController {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &PublicationController{repo: repo, publisher: publisher}
}

// Create stores a publication from the validated, sanitized multipart form.
func (p *PublicationController) Create(ctx *gin.Context) {
	fields := middleware.ValidatedFields(ctx)

	pub := models.NewPublication(fields["title"], fields["description"], fields["image"], fields["course"])
	if raw := fields["date"]; raw != "" {
		// already checked by the schema
		if d, err := validators.ParseDate(raw); err == nil {
			pub.Date = models.MidnightOf(d)
		}
	}

	if err := p.repo.Create(ctx.Request.Context(), pub); err != nil {
		utils.ServerError(ctx, "error creating publication", err)
		return
	}

	resp := dtos.ToPublicationResponse(pub)
	utils.Success(ctx, http.StatusCreated, "publication created successfully", gin.H{"publication": resp})
	p.publish(ctx, events.New(events.PublicationCreated, pub.ID, resp))
}

// List returns one page of visible publications and the visible total.
func (p *PublicationController) List(ctx *gin.Context) {
	limit, offset := parsePagination(ctx.Query("limit"), ctx.Query("from"))

	items, total, err := p.repo.List(ctx.Request.Context(), offset, limit)
	if err != nil {
		utils.ServerError(ctx, "error retrieving publications", err)
		return
	}

	utils.Success(ctx, http.StatusOK, "publications retrieved successfully", gin.H{
		"total":        total,
		"publications": dtos.ToPublicationResponses(items),
	})
}

// GetByID returns a publication whatever its status.
func (p *PublicationController) GetByID(ctx *gin.Context) {
	pub, err := p.repo.FindByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, "publication not found")
			return
		}
		utils.ServerError(ctx, "error retrieving publication", err)
		return
	}

	utils.Success(ctx, http.StatusOK, "", gin.H{"publication": dtos.ToPublicationResponse(pub)})
}

// Filter runs the validated query over visible publications.
func (p *PublicationController) Filter(ctx *gin.Context) {
	fields := middleware.ValidatedFields(ctx)

	f := repositories.PublicationFilter{
		Course:    fields["course"],
		Title:     fields["title"],
		Ascending: fields["sortByDate"] == "asc",
	}
	start := parseOptionalDate(fields["startDate"])
	end := parseOptionalDate(fields["endDate"])
	f.Date = repositories.NewDateRange(start, end)

	items, err := p.repo.Filter(ctx.Request.Context(), f)
	if err != nil {
		utils.ServerError(ctx, "error retrieving publications", err)
		return
	}

	utils.Success(ctx, http.StatusOK, "", gin.H{"publications": dtos.ToPublicationResponses(items)})
}

// AddComment prepends a comment to a visible publication.
func (p *PublicationController) AddComment(ctx *gin.Context) {
	fields := middleware.ValidatedFields(ctx)
	id := ctx.Param("id")

	comment := models.NewComment(fields["name"], fields["comment"])

	pub, err := p.repo.AddComment(ctx.Request.Context(), id, comment)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, "publication not found")
			return
		}
		utils.ServerError(ctx, "error creating comment", err)
		return
	}

	utils.Success(ctx, http.StatusCreated, "comment created successfully", gin.H{"publication": dtos.ToPublicationResponse(pub)})
	p.publish(ctx, events.New(events.PublicationCommented, pub.ID, dtos.ToCommentResponse(comment)))
}

// SoftDelete hides a publication from list and filter.
func (p *PublicationController) SoftDelete(ctx *gin.Context) {
	pub, err := p.repo.SoftDelete(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, "publication not found")
			return
		}
		utils.ServerError(ctx, "error deleting publication", err)
		return
	}

	resp := dtos.ToPublicationResponse(pub)
	utils.Success(ctx, http.StatusOK, "publication deleted successfully", gin.H{"deletePublication": resp})
	p.publish(ctx, events.New(events.PublicationDeleted, pub.ID, nil))
}

// publish hands e to the publisher off the request path. The write already
// succeeded, so failures are only logged.
func (p *PublicationController) publish(ctx *gin.Context, e events.Event) {
	base := context.WithoutCancel(ctx.Request.Context())
	requestID := ctx.GetString("request_id")
	go func() {
		pctx, cancel := context.WithTimeout(base, publishTimeout)
		defer cancel()
		if err := p.publisher.Publish(pctx, e); err != nil {
			utils.Sugar.Warnw("failed to publish event",
				"type", e.Type,
				"publication_id", e.PublicationID,
				"request_id", requestID,
				"err", err,
			)
		}
	}()
}

// parsePagination reads limit and from. Missing or invalid values fall back
// to the defaults; limit is capped.
func parsePagination(limitStr, fromStr string) (int, int) {
	limit := defaultListLimit
	offset := 0
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
		limit = min(l, maxListLimit)
	}
	if f, err := strconv.Atoi(fromStr); err == nil && f > 0 {
		offset = f
	}
	return limit, offset
}

func parseOptionalDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := validators.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &t
}
