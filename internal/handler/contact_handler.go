package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/contact-console/internal/dto"
	"github.com/noah-isme/contact-console/internal/models"
	"github.com/noah-isme/contact-console/internal/service"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
	"github.com/noah-isme/contact-console/pkg/response"
)

// ContactHandler exposes lead intake and the administrator pipeline endpoints.
type ContactHandler struct {
	service *service.ContactService
}

// NewContactHandler constructs a contact handler.
func NewContactHandler(svc *service.ContactService) *ContactHandler {
	return &ContactHandler{service: svc}
}

// Submit godoc
// @Summary Submit a lead
// @Description Public lead form; throttled per client IP
// @Tags Contacts
// @Accept json
// @Produce json
// @Param payload body models.ContactSubmission true "Lead form"
// @Success 201 {object} dto.ContactResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody
// @Router /contact/submit [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req models.ContactSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid submission payload"))
		return
	}

	contact, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ContactResponse{
		Success: true,
		Message: "Thank you! We will be in touch shortly.",
		Contact: contact,
	})
}

// List godoc
// @Summary List contacts
// @Description Newest first, filtered by status and a free-text search over name, school and email
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param status query string false "Status filter (all, new, contacted, in-progress, completed)"
// @Param search query string false "Search text"
// @Success 200 {object} dto.ContactListResponse
// @Failure 401 {object} response.ErrorBody
// @Router /contact [get]
func (h *ContactHandler) List(c *gin.Context) {
	filter := models.ContactFilter{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 0),
		Search: c.Query("search"),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" && raw != models.StatusFilterAll {
		status := models.ContactStatus(raw)
		filter.Status = &status
	}

	contacts, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.ContactListResponse{Success: true, Contacts: contacts, Pagination: pagination})
}

// Stats godoc
// @Summary Pipeline statistics
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ContactStatsResponse
// @Failure 401 {object} response.ErrorBody
// @Router /contact/stats [get]
func (h *ContactHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ContactStatsResponse{Success: true, Stats: *stats})
}

// Get godoc
// @Summary Get contact
// @Tags Contacts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact ID"
// @Success 200 {object} dto.ContactResponse
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /contact/{id} [get]
func (h *ContactHandler) Get(c *gin.Context) {
	contact, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ContactResponse{Success: true, Contact: contact})
}

// Update godoc
// @Summary Update contact status or notes
// @Tags Contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact ID"
// @Param payload body models.ContactUpdate true "Status and/or admin notes"
// @Success 200 {object} dto.ContactResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /contact/{id} [patch]
func (h *ContactHandler) Update(c *gin.Context) {
	var req models.ContactUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid update payload"))
		return
	}

	contact, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ContactResponse{Success: true, Message: "Contact updated", Contact: contact})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
