package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"movierank/internal/models"
	"movierank/internal/repository"
	"movierank/internal/stats"
)

type UserHandler struct {
	users      repository.Users
	rankings   repository.Rankings
	logger     *logrus.Logger
	production bool
}

func NewUserHandler(users repository.Users, rankings repository.Rankings, logger *logrus.Logger, production bool) *UserHandler {
	return &UserHandler{users: users, rankings: rankings, logger: logger, production: production}
}

func (h *UserHandler) List(c *gin.Context) {
	page := parsePage(c)
	filter := models.UserFilter{Search: queryString(c, "search")}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	users, total, err := h.users.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse[models.User]{
		Data:       users,
		Pagination: models.NewPagination(page, total),
	})
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req models.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user := models.User{
		ID:          uuid.NewString(),
		Username:    req.Username,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), models.UserUpdate{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete refuses to remove a user who still has rankings; the caller is
// told to deactivate instead.
func (h *UserHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if _, err := h.users.GetByID(ctx, id); err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	count, err := h.rankings.CountByUser(ctx, id)
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	if count > 0 {
		respondError(c, h.logger, h.production, models.NewReferenceError("user", count))
		return
	}

	if err := h.users.Delete(ctx, id); err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Stats(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if _, err := h.users.GetByID(ctx, id); err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	rankings, err := h.rankings.ListAll(ctx, models.RankingFilter{UserID: &id})
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, stats.ForUser(id, rankings))
}
