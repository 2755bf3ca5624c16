package handler

import (
	"errors"
	"net/http"
	"reflect"

	"joyapos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps the typed domain errors onto HTTP status codes. Anything
// untyped falls back to 400 with the raw message (domain errors carry safe,
// client-facing Spanish text).
func respondError(c *gin.Context, err error) {
	var (
		validacion   *apierror.ValidationError
		sobrepago    *apierror.OverpaymentError
		estado       *apierror.InvalidStateError
		transicion   *apierror.InvalidTransitionError
		noEncontrado *apierror.NotFoundError
		conflicto    *apierror.ConcurrentModificationError
		ticket       *apierror.TicketGenerationError
	)

	switch {
	case errors.As(err, &validacion):
		c.JSON(http.StatusUnprocessableEntity, validacion)
	case errors.As(err, &sobrepago):
		c.JSON(http.StatusConflict, gin.H{"detail": sobrepago.Error(), "maximo": sobrepago.Maximo})
	case errors.As(err, &estado):
		c.JSON(http.StatusConflict, gin.H{"detail": estado.Error(), "estado": estado.Estado})
	case errors.As(err, &transicion):
		c.JSON(http.StatusConflict, gin.H{
			"detail":     transicion.Error(),
			"actual":     transicion.Actual,
			"solicitado": transicion.Solicitado,
		})
	case errors.As(err, &noEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(noEncontrado.Error()))
	case errors.As(err, &conflicto):
		c.JSON(http.StatusConflict, apierror.New(conflicto.Error()))
	case errors.As(err, &ticket):
		// Only surfaces as a request failure on explicit regeneration.
		c.JSON(http.StatusInternalServerError, apierror.New(ticket.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}
