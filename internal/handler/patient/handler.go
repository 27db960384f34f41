package patient

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Dentect/dentist-clinic-backend/internal/middleware"
	"github.com/Dentect/dentist-clinic-backend/internal/model"
	"github.com/Dentect/dentist-clinic-backend/internal/service/patient"
	apperrors "github.com/Dentect/dentist-clinic-backend/pkg/errors"
	"github.com/Dentect/dentist-clinic-backend/pkg/httputil"
)

type Handler struct {
	service patient.Service
}

func NewHandler(service patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.AddPatient)
		patients.GET("/:patientClinicId", h.GetPatient)
		patients.PATCH("/:patientClinicId", h.EditPatient)
	}
}

func (h *Handler) AddPatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	created, err := h.service.AddPatient(c.Request.Context(), dentistID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, created)
}

func (h *Handler) GetPatient(c *gin.Context) {
	clinicID, ok := clinicIDParam(c)
	if !ok {
		return
	}

	found, err := h.service.GetPatient(c.Request.Context(), dentistID(c), clinicID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) EditPatient(c *gin.Context) {
	clinicID, ok := clinicIDParam(c)
	if !ok {
		return
	}

	var updates model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&updates); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	updated, err := h.service.EditPatient(c.Request.Context(), dentistID(c), clinicID, &updates)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, updated)
}

func dentistID(c *gin.Context) uuid.UUID {
	if v, exists := c.Get(middleware.ContextDentistID); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// clinicIDParam parses the path parameter. A non-numeric value can never
// match a roster entry, so it gets the same scope denial as an unowned id.
func clinicIDParam(c *gin.Context) (int64, bool) {
	clinicID, err := strconv.ParseInt(c.Param("patientClinicId"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewUnauthorized(patient.MsgWrongClinicID, err))
		return 0, false
	}
	return clinicID, true
}
