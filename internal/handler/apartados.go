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

type ApartadosHandler struct {
	svc     service.ApartadoService
	tickets service.TicketService
}

func NewApartadosHandler(svc service.ApartadoService, tickets service.TicketService) *ApartadosHandler {
	return &ApartadosHandler{svc: svc, tickets: tickets}
}

func actorFromClaims(claims *middleware.JWTClaims) service.Actor {
	id, _ := uuid.Parse(claims.UserID)
	return service.Actor{ID: id, Username: claims.Username, Rol: claims.Rol}
}

// Crear godoc
// @Summary      Abrir un apartado o pedido
// @Description  Crea el apartado con sus items congelados, calcula el total una única vez y registra el anticipo obligatorio.
// @Tags         apartados
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearApartadoRequest true "Detalle del apartado"
// @Success      201  {object} dto.ApartadoResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/apartados [post]
func (h *ApartadosHandler) Crear(c *gin.Context) {
	var req dto.CrearApartadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.svc.Crear(c.Request.Context(), claims.Tenant, actorFromClaims(claims), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RegistrarAbono godoc
// @Summary      Registrar un abono
// @Description  Registra un pago parcial contra el saldo del apartado. Atómico por apartado; al saldarse transiciona a pagado automáticamente.
// @Tags         apartados
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "UUID del apartado"
// @Param        body body dto.RegistrarAbonoRequest true "Monto y método"
// @Success      201  {object} dto.AbonoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/apartados/{id}/abonos [post]
func (h *ApartadosHandler) RegistrarAbono(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.RegistrarAbonoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.svc.RegistrarAbono(c.Request.Context(), claims.Tenant, actorFromClaims(claims), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CambiarEstado godoc
// @Summary      Cambiar estado del apartado
// @Description  Transición administrativa validada contra el grafo de estados. Solo supervisor/administrador.
// @Tags         apartados
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "UUID del apartado"
// @Param        body body dto.CambiarEstadoRequest true "Estado solicitado"
// @Success      200  {object} dto.HistorialEstadoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/apartados/{id}/estado [patch]
func (h *ApartadosHandler) CambiarEstado(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.CambiarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.svc.CambiarEstado(c.Request.Context(), claims.Tenant, actorFromClaims(claims), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary      Detalle de un apartado
// @Tags         apartados
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del apartado"
// @Success      200 {object} dto.ApartadoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/apartados/{id} [get]
func (h *ApartadosHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.svc.Obtener(c.Request.Context(), claims.Tenant, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary      Listar apartados
// @Description  Lista paginada con filtros por estado y tipo; cada fila incluye la clasificación de antigüedad.
// @Tags         apartados
// @Produce      json
// @Security     BearerAuth
// @Param        estado query string false "pendiente | pagado | entregado | vencido | cancelado | all"
// @Param        tipo   query string false "apartado | pedido | all"
// @Param        page   query int    false "Página (default 1)"
// @Param        limit  query int    false "Registros por página (default 50)"
// @Success      200    {object} dto.ApartadoListResponse
// @Router       /v1/apartados [get]
func (h *ApartadosHandler) Listar(c *gin.Context) {
	var filter dto.ApartadoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.svc.Listar(c.Request.Context(), claims.Tenant, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar apartados"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EstadoCuenta godoc
// @Summary      Estado de cuenta del apartado
// @Description  Total, pagado y saldo. El saldo se reporta recortado a cero; saldo_exacto conserva la diferencia contable.
// @Tags         apartados
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del apartado"
// @Success      200 {object} dto.EstadoCuentaResponse
// @Router       /v1/apartados/{id}/estado-cuenta [get]
func (h *ApartadosHandler) EstadoCuenta(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.svc.EstadoCuenta(c.Request.Context(), claims.Tenant, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary      Historial de estados
// @Description  Bitácora inmutable de transiciones, en orden cronológico.
// @Tags         apartados
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del apartado"
// @Success      200 {array} dto.HistorialEstadoResponse
// @Router       /v1/apartados/{id}/historial [get]
func (h *ApartadosHandler) Historial(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.svc.Historial(c.Request.Context(), claims.Tenant, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarTickets godoc
// @Summary      Tickets emitidos del apartado
// @Tags         apartados
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del apartado"
// @Success      200 {array} dto.TicketResponse
// @Router       /v1/apartados/{id}/tickets [get]
func (h *ApartadosHandler) ListarTickets(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	claims := middleware.GetClaims(c)
	if _, err := h.svc.Obtener(c.Request.Context(), claims.Tenant, id); err != nil {
		respondError(c, err)
		return
	}

	tickets, err := h.tickets.ListByApartado(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		resp = append(resp, dto.TicketResponse{
			ID:         t.ID.String(),
			ApartadoID: t.ApartadoID.String(),
			Clave:      t.Clave,
			HTML:       t.HTML,
			CreatedAt:  t.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// RegenerarTicket godoc
// @Summary      Regenerar el ticket de un abono
// @Description  Reconstruye el artefacto desde el historial de pagos. Idempotente: mismas cifras en cada regeneración.
// @Tags         apartados
// @Produce      json
// @Security     BearerAuth
// @Param        id       path string true "UUID del apartado"
// @Param        abono_id path string true "UUID del abono"
// @Success      200 {object} dto.TicketResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/apartados/{id}/tickets/{abono_id}/regenerar [post]
func (h *ApartadosHandler) RegenerarTicket(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	abonoID, err := uuid.Parse(c.Param("abono_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de abono inválido"))
		return
	}
	claims := middleware.GetClaims(c)
	if _, err := h.svc.Obtener(c.Request.Context(), claims.Tenant, id); err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.tickets.Regenerar(c.Request.Context(), id, abonoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
