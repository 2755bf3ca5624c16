package handler

import (
	"net/http"

	"joyapos/internal/apierror"
	"joyapos/internal/dto"
	"joyapos/internal/middleware"
	"joyapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Abrir godoc
// @Summary      Abrir sesión de caja
// @Tags         caja
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AbrirCajaRequest true "Punto de venta y monto inicial"
// @Success      201  {object} dto.ReporteCajaResponse
// @Router       /v1/caja/abrir [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Abrir(c.Request.Context(), claims.Tenant, usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RegistrarMovimiento godoc
// @Summary      Ingreso o egreso manual de caja
// @Tags         caja
// @Accept       json
// @Security     BearerAuth
// @Param        body body dto.MovimientoManualRequest true "Movimiento"
// @Success      201
// @Router       /v1/caja/movimientos [post]
func (h *CajaHandler) RegistrarMovimiento(c *gin.Context) {
	var req dto.MovimientoManualRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	if err := h.svc.RegistrarMovimiento(c.Request.Context(), claims.Tenant, req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// Arqueo godoc
// @Summary      Corte de caja (arqueo ciego)
// @Description  Recibe la declaración del cajero, calcula el desvío y cierra la sesión. Desvío crítico requiere observaciones.
// @Tags         caja
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ArqueoRequest true "Declaración por método de pago"
// @Success      200  {object} dto.ArqueoResponse
// @Router       /v1/caja/arqueo [post]
func (h *CajaHandler) Arqueo(c *gin.Context) {
	var req dto.ArqueoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.svc.Arqueo(c.Request.Context(), claims.Tenant, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reporte godoc
// @Summary      Reporte de una sesión de caja
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la sesión"
// @Success      200 {object} dto.ReporteCajaResponse
// @Router       /v1/caja/{id}/reporte [get]
func (h *CajaHandler) Reporte(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.svc.ObtenerReporte(c.Request.Context(), claims.Tenant, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
