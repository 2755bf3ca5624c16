package router

import (
	"time"

	"joyapos/internal/config"
	"joyapos/internal/handler"
	"joyapos/internal/infra"
	"joyapos/internal/middleware"
	"joyapos/internal/repository"
	"joyapos/internal/service"
	"joyapos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	cotizacionesClient := infra.NewCotizacionesClient(cfg.CotizacionesURL)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)
	apartadoRepo := repository.NewApartadoRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	cotizacionRepo := repository.NewCotizacionRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	clienteSvc := service.NewClienteService(clienteRepo)
	productoSvc := service.NewProductoService(productoRepo, cotizacionRepo, rdb)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoStockRepo)
	cajaSvc := service.NewCajaService(cajaRepo)
	cotizacionSvc := service.NewCotizacionService(cotizacionRepo, cotizacionesClient)
	ticketSvc := service.NewTicketService(ticketRepo, apartadoRepo, cfg.NombreNegocio)
	apartadoSvc := service.NewApartadoService(apartadoRepo, productoRepo, clienteRepo, cajaRepo, movimientoStockRepo, dispatcher)
	ventaSvc := service.NewVentaService(ventaRepo, inventarioSvc, cajaSvc, cajaRepo, productoRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	productosH := handler.NewProductosHandler(productoSvc, inventarioSvc)
	apartadosH := handler.NewApartadosHandler(apartadoSvc, ticketSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	cotizacionesH := handler.NewCotizacionesHandler(cotizacionSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Apartados — the layaway ledger. Reads and payments are open to all
		// operators; manual status transitions need supervisor or above.
		apartados := v1.Group("/apartados")
		{
			apartados.POST("", apartadosH.Crear)
			apartados.GET("", apartadosH.Listar)
			apartados.GET("/:id", apartadosH.Obtener)
			apartados.POST("/:id/abonos", apartadosH.RegistrarAbono)
			apartados.PATCH("/:id/estado", middleware.RequireRole("supervisor", "administrador"), apartadosH.CambiarEstado)
			apartados.GET("/:id/estado-cuenta", apartadosH.EstadoCuenta)
			apartados.GET("/:id/historial", apartadosH.Historial)
			apartados.GET("/:id/tickets", apartadosH.ListarTickets)
			apartados.POST("/:id/tickets/:abono_id/regenerar", apartadosH.RegenerarTicket)
		}

		// Ventas de contado
		v1.POST("/ventas", ventasH.RegistrarVenta)
		v1.GET("/ventas", ventasH.ListarVentas)
		v1.DELETE("/ventas/:id", middleware.RequireRole("supervisor", "administrador"), ventasH.AnularVenta)

		// Productos — reads open to all operators, writes administrador only
		v1.GET("/productos", productosH.Listar)
		v1.GET("/productos/:id", productosH.Obtener)
		v1.GET("/precio/:codigo", productosH.ConsultarPrecio)
		v1.PATCH("/productos/:id/stock", middleware.RequireRole("supervisor", "administrador"), productosH.AjustarStock)
		prods := v1.Group("/productos", middleware.RequireRole("administrador"))
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Desactivar)
		}

		inv := v1.Group("/inventario", middleware.RequireRole("supervisor", "administrador"))
		{
			inv.GET("/alertas", productosH.AlertasStock)
			inv.GET("/movimientos", productosH.Movimientos)
		}

		// Clientes
		clientes := v1.Group("/clientes")
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.Obtener)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.DELETE("/:id", middleware.RequireRole("supervisor", "administrador"), clientesH.Desactivar)
		}

		// Caja
		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", cajaH.Abrir)
			caja.POST("/movimiento", cajaH.RegistrarMovimiento)
			caja.POST("/arqueo", cajaH.Arqueo)
			caja.GET("/:id/reporte", middleware.RequireRole("supervisor", "administrador"), cajaH.Reporte)
		}

		// Cotizaciones — manual registration is supervisor+
		v1.GET("/cotizaciones/:metal", cotizacionesH.Ultima)
		v1.GET("/cotizaciones/:metal/historial", cotizacionesH.Historial)
		v1.POST("/cotizaciones", middleware.RequireRole("supervisor", "administrador"), cotizacionesH.RegistrarManual)

		// Usuarios — administrador only
		usuarios := v1.Group("/usuarios", middleware.RequireRole("administrador"))
		{
			usuarios.POST("", authH.CrearUsuario)
			usuarios.GET("", authH.ListarUsuarios)
			usuarios.PUT("/:id", authH.ActualizarUsuario)
			usuarios.DELETE("/:id", authH.DesactivarUsuario)
			usuarios.PATCH("/:id/reactivar", authH.ReactivarUsuario)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
