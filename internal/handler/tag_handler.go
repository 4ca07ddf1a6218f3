package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"todo/internal/apperror"
	"todo/internal/middleware"
	"todo/internal/model"
	"todo/internal/repository"
	"todo/internal/response"
	"todo/internal/validation"
)

const nameTakenMessage = "The name has already been taken."

// TagStore is the owner-scoped tag persistence used by the handlers.
type TagStore interface {
	List(ctx context.Context, ownerID uuid.UUID, search string, page repository.PageRequest) (*repository.Page[model.Tag], error)
	Create(ctx context.Context, tag *model.Tag) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Tag, error)
	Update(ctx context.Context, tag *model.Tag) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	NameTaken(ctx context.Context, ownerID uuid.UUID, name string, exceptID uuid.UUID) (bool, error)
	OwnedIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}

// CreateTagRequest is the body of POST /api/tags.
type CreateTagRequest struct {
	Name  string  `json:"name" binding:"required,filled,max=50" example:"Work"`
	Color *string `json:"color" binding:"omitempty,color" example:"#3498db"`
}

// UpdateTagRequest is the body of PUT /api/tags/{id}; absent fields are kept.
type UpdateTagRequest struct {
	Name  *string `json:"name" binding:"omitempty,filled,max=50"`
	Color *string `json:"color" binding:"omitempty,color"`
}

type TagHandler struct {
	tags TagStore
}

func NewTagHandler(tags TagStore) *TagHandler {
	return &TagHandler{tags: tags}
}

// List godoc
// @Summary      List tags
// @Tags         tags
// @Produce      json
// @Param        search    query  string  false  "Substring of the name"
// @Param        page      query  int     false  "Page number"
// @Param        per_page  query  int     false  "Page size (default 15, max 100)"
// @Success      200  {object}  response.Envelope{data=[]TagResponse}
// @Failure      401  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/tags [get]
func (h *TagHandler) List(c *gin.Context) {
	ownerID := middleware.CurrentUserID(c)
	search := strings.TrimSpace(c.Query("search"))

	page, err := h.tags.List(c.Request.Context(), ownerID, search, pageRequest(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	items := mapSlice(page.Items, newTagResponse)
	response.JSON(c, response.Paginated(items, page.Total, page.PerPage, page.Page, "Tags retrieved successfully"))
}

// Create godoc
// @Summary      Create a tag
// @Tags         tags
// @Accept       json
// @Produce      json
// @Param        body  body  CreateTagRequest  true  "Tag"
// @Success      201  {object}  response.Envelope{data=TagResponse}
// @Failure      422  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/tags [post]
func (h *TagHandler) Create(c *gin.Context) {
	ownerID := middleware.CurrentUserID(c)

	var req CreateTagRequest
	if _, err := validation.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	name := strings.TrimSpace(req.Name)

	if err := h.checkNameFree(c.Request.Context(), ownerID, name, uuid.Nil); err != nil {
		_ = c.Error(err)
		return
	}

	tag := &model.Tag{UserID: ownerID, Name: name}
	if req.Color != nil {
		tag.Color = *req.Color
	}
	if err := h.tags.Create(c.Request.Context(), tag); err != nil {
		_ = c.Error(translateNameConflict(err))
		return
	}

	response.Created(c, newTagResponse(*tag), "Tag created successfully")
}

// Show godoc
// @Summary      Get a tag
// @Tags         tags
// @Produce      json
// @Param        id  path  string  true  "Tag ID"
// @Success      200  {object}  response.Envelope{data=TagResponse}
// @Failure      404  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/tags/{id} [get]
func (h *TagHandler) Show(c *gin.Context) {
	tag, err := h.load(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, newTagResponse(*tag), "Tag retrieved successfully")
}

// Update godoc
// @Summary      Update a tag
// @Tags         tags
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "Tag ID"
// @Param        body  body  UpdateTagRequest  true  "Fields to change"
// @Success      200  {object}  response.Envelope{data=TagResponse}
// @Failure      404  {object}  response.Envelope
// @Failure      422  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/tags/{id} [put]
func (h *TagHandler) Update(c *gin.Context) {
	tag, err := h.load(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req UpdateTagRequest
	fields, err := validation.BindJSON(c, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if fields.IsNull("name") {
		_ = c.Error(apperror.InvalidField("name", "The name field is required."))
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := h.checkNameFree(c.Request.Context(), tag.UserID, name, tag.ID); err != nil {
			_ = c.Error(err)
			return
		}
		tag.Name = name
	}
	if req.Color != nil {
		tag.Color = *req.Color
	} else if fields.IsNull("color") {
		tag.Color = model.DefaultTagColor
	}

	if err := h.tags.Update(c.Request.Context(), tag); err != nil {
		_ = c.Error(translateNameConflict(err))
		return
	}

	updated, err := h.tags.GetByID(c.Request.Context(), tag.UserID, tag.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, newTagResponse(*updated), "Tag updated successfully")
}

// Delete godoc
// @Summary      Delete a tag
// @Description  Fails with 409 while any task still carries the tag.
// @Tags         tags
// @Param        id  path  string  true  "Tag ID"
// @Success      204
// @Failure      404  {object}  response.Envelope
// @Failure      409  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/tags/{id} [delete]
func (h *TagHandler) Delete(c *gin.Context) {
	id, err := routeID(c, repository.ErrTagNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.tags.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	response.NoContent(c)
}

func (h *TagHandler) load(c *gin.Context) (*model.Tag, error) {
	id, err := routeID(c, repository.ErrTagNotFound)
	if err != nil {
		return nil, err
	}
	return h.tags.GetByID(c.Request.Context(), middleware.CurrentUserID(c), id)
}

func (h *TagHandler) checkNameFree(ctx context.Context, ownerID uuid.UUID, name string, exceptID uuid.UUID) error {
	taken, err := h.tags.NameTaken(ctx, ownerID, name, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.InvalidField("name", nameTakenMessage)
	}
	return nil
}

// translateNameConflict maps a unique-index violation that raced past
// NameTaken to the same field error.
func translateNameConflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.InvalidField("name", nameTakenMessage)
	}
	return err
}

// routeID parses the :id path parameter. A malformed id cannot name an
// owned row, so it is reported as notFound.
func routeID(c *gin.Context, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}
