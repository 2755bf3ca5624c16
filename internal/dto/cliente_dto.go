package dto

type CrearClienteRequest struct {
	Nombre   string  `json:"nombre"   validate:"required,min=2"`
	Telefono *string `json:"telefono"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	VIP      bool    `json:"vip"`
}

type ActualizarClienteRequest struct {
	Nombre   *string `json:"nombre"`
	Telefono *string `json:"telefono"`
	Email    *string `json:"email" validate:"omitempty,email"`
	VIP      *bool   `json:"vip"`
}

type ClienteResponse struct {
	ID       string  `json:"id"`
	Nombre   string  `json:"nombre"`
	Telefono *string `json:"telefono,omitempty"`
	Email    *string `json:"email,omitempty"`
	VIP      bool    `json:"vip"`
	Activo   bool    `json:"activo"`
}
