package handler

import (
	"net/http"
	"strconv"

	"joyapos/internal/apierror"
	"joyapos/internal/dto"
	"joyapos/internal/service"

	"github.com/gin-gonic/gin"
)

type CotizacionesHandler struct{ svc service.CotizacionService }

func NewCotizacionesHandler(svc service.CotizacionService) *CotizacionesHandler {
	return &CotizacionesHandler{svc: svc}
}

// Ultima godoc
// @Summary      Última cotización de un metal
// @Tags         cotizaciones
// @Produce      json
// @Security     BearerAuth
// @Param        metal path string true "oro | plata"
// @Success      200 {object} dto.CotizacionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cotizaciones/{metal} [get]
func (h *CotizacionesHandler) Ultima(c *gin.Context) {
	resp, err := h.svc.Ultima(c.Request.Context(), c.Param("metal"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary      Historial de cotizaciones
// @Tags         cotizaciones
// @Produce      json
// @Security     BearerAuth
// @Param        metal path  string true  "oro | plata"
// @Param        limit query int    false "Máximo de registros (default 100)"
// @Success      200 {array} dto.CotizacionResponse
// @Router       /v1/cotizaciones/{metal}/historial [get]
func (h *CotizacionesHandler) Historial(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	resp, err := h.svc.Historial(c.Request.Context(), c.Param("metal"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al obtener historial de cotizaciones"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarManual godoc
// @Summary      Registrar cotización manual
// @Description  Alta manual del precio por gramo cuando el proveedor externo no responde.
// @Tags         cotizaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarCotizacionRequest true "Metal y precio por gramo"
// @Success      201  {object} dto.CotizacionResponse
// @Router       /v1/cotizaciones [post]
func (h *CotizacionesHandler) RegistrarManual(c *gin.Context) {
	var req dto.RegistrarCotizacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarManual(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
