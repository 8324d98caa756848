package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/serviconli/citas-api/internal/handler"
	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/service/appointment"
	"github.com/serviconli/citas-api/internal/service/history"
)

type Handler struct {
	service    *appointment.Service
	historySvc *history.Service
}

func NewHandler(service *appointment.Service, historySvc *history.Service) *Handler {
	return &Handler{service: service, historySvc: historySvc}
}

type createRequest struct {
	PatientID            uuid.UUID  `json:"patient_id" binding:"required"`
	AppointmentRequestID *uuid.UUID `json:"appointment_request_id"`
	Type                 string     `json:"type" binding:"required,appointment_type"`
	Priority             string     `json:"priority" binding:"omitempty,appointment_priority"`
	Specialty            *string    `json:"specialty"`
	AppointmentDate      *string    `json:"appointment_date"`
	AppointmentTime      string     `json:"appointment_time" binding:"omitempty,hhmm_time"`
	DoctorName           string     `json:"doctor_name"`
	LocationName         string     `json:"location_name"`
	LocationAddress      string     `json:"location_address"`
	AuthorizationNumber  string     `json:"authorization_number"`
	Specifications       string     `json:"specifications"`
	InternalNotes        string     `json:"internal_notes"`
	SendConfirmation     bool       `json:"send_confirmation"`
	ActorID              uuid.UUID  `json:"actor_id" binding:"required"`
}

func parseDate(value string) (*time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	params := &appointment.CreateParams{
		PatientID:            req.PatientID,
		AppointmentRequestID: req.AppointmentRequestID,
		Type:                 model.AppointmentType(req.Type),
		Priority:             model.Priority(req.Priority),
		Specialty:            req.Specialty,
		AppointmentTime:      req.AppointmentTime,
		DoctorName:           req.DoctorName,
		LocationName:         req.LocationName,
		LocationAddress:      req.LocationAddress,
		AuthorizationNumber:  req.AuthorizationNumber,
		Specifications:       req.Specifications,
		InternalNotes:        req.InternalNotes,
		SendConfirmation:     req.SendConfirmation,
		ActorID:              req.ActorID,
	}
	if req.AppointmentDate != nil {
		date, err := parseDate(*req.AppointmentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment date, expected YYYY-MM-DD"})
			return
		}
		params.AppointmentDate = date
	}

	result, err := h.service.Create(c.Request.Context(), params)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": result})
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	result, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filters := &model.AppointmentFilters{
		Status:   model.AppointmentStatus(c.Query("status")),
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

	filters.TodayOnly = c.Query("today") == "true"
	filters.ActiveOnly = c.Query("active") == "true"

	results, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": results})
}

func (h *Handler) TodayAppointments(c *gin.Context) {
	results, err := h.service.TodayList(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": results})
}

type updateRequest struct {
	Priority            *string    `json:"priority" binding:"omitempty,appointment_priority"`
	Specialty           *string    `json:"specialty"`
	AppointmentDate     *string    `json:"appointment_date"`
	AppointmentTime     *string    `json:"appointment_time" binding:"omitempty,hhmm_time"`
	DoctorName          *string    `json:"doctor_name"`
	LocationName        *string    `json:"location_name"`
	LocationAddress     *string    `json:"location_address"`
	AuthorizationNumber *string    `json:"authorization_number"`
	Specifications      *string    `json:"specifications"`
	InternalNotes       *string    `json:"internal_notes"`
	AssignedTo          *uuid.UUID `json:"assigned_to"`
	ActorID             uuid.UUID  `json:"actor_id" binding:"required"`
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	params := &appointment.UpdateParams{
		Specialty:           req.Specialty,
		AppointmentTime:     req.AppointmentTime,
		DoctorName:          req.DoctorName,
		LocationName:        req.LocationName,
		LocationAddress:     req.LocationAddress,
		AuthorizationNumber: req.AuthorizationNumber,
		Specifications:      req.Specifications,
		InternalNotes:       req.InternalNotes,
		AssignedTo:          req.AssignedTo,
		ActorID:             req.ActorID,
	}
	if req.Priority != nil {
		priority := model.Priority(*req.Priority)
		params.Priority = &priority
	}
	if req.AppointmentDate != nil {
		date, err := parseDate(*req.AppointmentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment date, expected YYYY-MM-DD"})
			return
		}
		params.AppointmentDate = date
	}

	result, err := h.service.Update(c.Request.Context(), id, params)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

type changeStatusRequest struct {
	Status  string    `json:"status" binding:"required"`
	ActorID uuid.UUID `json:"actor_id" binding:"required"`
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	result, err := h.service.ChangeStatus(c.Request.Context(), id, model.AppointmentStatus(req.Status), req.ActorID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

func (h *Handler) SendConfirmation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	if err := h.service.SendConfirmation(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) GetHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	entries, err := h.historySvc.ListForAppointment(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": entries})
}

func (h *Handler) GetDashboardStats(c *gin.Context) {
	stats, err := h.service.GetDashboardStats(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": stats})
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
