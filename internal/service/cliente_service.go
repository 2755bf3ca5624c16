package service

import (
	"context"

	"joyapos/internal/apierror"
	"joyapos/internal/dto"
	"joyapos/internal/model"
	"joyapos/internal/repository"

	"github.com/google/uuid"
)

type ClienteService interface {
	Crear(ctx context.Context, tenant string, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, tenant string, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, tenant string, incluirInactivos bool) ([]dto.ClienteResponse, error)
	Actualizar(ctx context.Context, tenant string, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Desactivar(ctx context.Context, tenant string, id uuid.UUID) error
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, tenant string, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		Tenant:   tenant,
		Nombre:   req.Nombre,
		Telefono: req.Telefono,
		Email:    req.Email,
		VIP:      req.VIP,
		Activo:   true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) ObtenerPorID(ctx context.Context, tenant string, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.buscarEnTenant(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context, tenant string, incluirInactivos bool) ([]dto.ClienteResponse, error) {
	clientes, err := s.repo.List(ctx, tenant, incluirInactivos)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		resp = append(resp, *clienteToResponse(&clientes[i]))
	}
	return resp, nil
}

func (s *clienteService) Actualizar(ctx context.Context, tenant string, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.buscarEnTenant(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if req.Nombre != nil {
		c.Nombre = *req.Nombre
	}
	if req.Telefono != nil {
		c.Telefono = req.Telefono
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.VIP != nil {
		c.VIP = *req.VIP
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Desactivar(ctx context.Context, tenant string, id uuid.UUID) error {
	if _, err := s.buscarEnTenant(ctx, tenant, id); err != nil {
		return err
	}
	return s.repo.SetActivo(ctx, id, false)
}

func (s *clienteService) buscarEnTenant(ctx context.Context, tenant string, id uuid.UUID) (*model.Cliente, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Tenant != tenant {
		return nil, &apierror.NotFoundError{Recurso: "cliente"}
	}
	return c, nil
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:       c.ID.String(),
		Nombre:   c.Nombre,
		Telefono: c.Telefono,
		Email:    c.Email,
		VIP:      c.VIP,
		Activo:   c.Activo,
	}
}
