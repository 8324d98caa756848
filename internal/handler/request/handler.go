package request

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/serviconli/citas-api/internal/handler"
	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/service/request"
)

type Handler struct {
	service *request.Service
}

func NewHandler(service *request.Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	PatientID   uuid.UUID `json:"patient_id" binding:"required"`
	Type        string    `json:"type" binding:"required,appointment_type"`
	Priority    string    `json:"priority" binding:"omitempty,appointment_priority"`
	Specialty   *string   `json:"specialty"`
	ClientNotes string    `json:"client_notes"`
	ActorID     uuid.UUID `json:"actor_id" binding:"required"`
}

func (h *Handler) CreateRequest(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	result, err := h.service.Create(c.Request.Context(), &request.CreateParams{
		PatientID:   req.PatientID,
		Type:        model.AppointmentType(req.Type),
		Priority:    model.Priority(req.Priority),
		Specialty:   req.Specialty,
		ClientNotes: req.ClientNotes,
		ActorID:     req.ActorID,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": result})
}

func (h *Handler) GetRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request ID"})
		return
	}

	result, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

func (h *Handler) ListRequests(c *gin.Context) {
	filters := &model.RequestFilters{
		Status:   model.RequestStatus(c.Query("status")),
		Priority: model.Priority(c.Query("priority")),
		Type:     model.AppointmentType(c.Query("type")),
	}

	if id := c.Query("patient_id"); id != "" {
		patientID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid patient ID"})
			return
		}
		filters.PatientID = patientID
	}

	if id := c.Query("assigned_to"); id != "" {
		operatorID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid operator ID"})
			return
		}
		filters.AssignedTo = operatorID
	}

	filters.ActiveOnly = c.Query("active") == "true"

	results, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": results})
}

type startRequest struct {
	OperatorID uuid.UUID `json:"operator_id" binding:"required"`
}

func (h *Handler) StartProcessing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request ID"})
		return
	}

	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	result, err := h.service.StartProcessing(c.Request.Context(), id, req.OperatorID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

type completeRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
}

// MarkCompleted seals a request against an existing appointment. Creating an
// appointment with appointment_request_id set does this implicitly.
func (h *Handler) MarkCompleted(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request ID"})
		return
	}

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	result, err := h.service.MarkCompleted(c.Request.Context(), id, req.AppointmentID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) MarkFailed(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request ID"})
		return
	}

	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	result, err := h.service.MarkFailed(c.Request.Context(), id, req.Reason)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

func (h *Handler) CancelRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request ID"})
		return
	}

	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

func (h *Handler) DeleteRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
