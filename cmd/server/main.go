package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/mitienda/api/internal/auth"
	"github.com/mitienda/api/internal/cart"
	"github.com/mitienda/api/internal/catalog"
	"github.com/mitienda/api/internal/invoices"
	"github.com/mitienda/api/internal/users"
)

func main() {
	// Initialize OpenTelemetry
	tp, err := initTracer()
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	mp, err := initMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down meter: %v", err)
		}
	}()

	// Initialize database
	dbPool, err := initDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbPool.Close()

	// O segredo do token é lido uma vez aqui e injetado; não existe estado
	// de configuração mutável depois do arranque
	tokenMaker, err := auth.NewTokenMaker(
		getEnv("TOKEN_SECRET", ""),
		getDurationEnv("TOKEN_DURATION", 24*time.Hour),
	)
	if err != nil {
		log.Fatalf("Failed to initialize token maker: %v", err)
	}

	uploadDir := getEnv("UPLOAD_DIR", "./uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	// Redis é opcional: sem ele o catálogo responde direto do banco
	var productCache *catalog.RedisCache
	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Printf("⚠️  Redis unavailable, catalog cache disabled: %v", err)
		} else {
			productCache = catalog.NewRedisCache(client)
			log.Println("✅ Connected to redis, catalog cache enabled")
		}
	}

	mailer := users.NewSMTPMailer(
		getEnv("SMTP_HOST", "smtp.gmail.com"),
		getEnv("SMTP_PORT", "587"),
		getEnv("EMAIL_ACCOUNT", ""),
		getEnv("EMAIL_PASSWORD", ""),
	)

	// Initialize dependencies
	tracer := tp.Tracer("storefront-api")

	userHandler := users.NewHandler(users.NewUseCase(users.NewRepository(dbPool), tokenMaker, mailer))
	catalogHandler := catalog.NewHandler(catalog.NewUseCase(catalog.NewRepository(dbPool), cacheOrNil(productCache)), uploadDir)
	cartHandler := cart.NewHandler(cart.NewUseCase(cart.NewRepository(dbPool)))
	invoiceHandler := invoices.NewHandler(invoices.NewUseCase(invoices.NewRepository(dbPool), invoiceCacheOrNil(productCache)), tracer)

	r := setupRouter(tokenMaker, uploadDir, userHandler, catalogHandler, cartHandler, invoiceHandler)

	port := getEnv("SERVER_PORT", "8080")
	log.Printf("🚀 Storefront API listening on port %s", port)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter(
	tokenMaker *auth.TokenMaker,
	uploadDir string,
	userHandler *users.Handler,
	catalogHandler *catalog.Handler,
	cartHandler *cart.Handler,
	invoiceHandler *invoices.Handler,
) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware(getEnv("SERVICE_NAME", "storefront-api")))

	bearer := auth.RequireAuth(tokenMaker)
	admin := auth.RequireAdmin()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "storefront-api"})
	})

	// Imagens dos produtos
	r.Static("/uploads", uploadDir)

	// Usuários e autenticação
	r.POST("/usuarios/register", userHandler.Register)
	r.POST("/usuarios/login", userHandler.Login)
	r.POST("/usuarios/solicitar-reset", userHandler.RequestReset)
	r.POST("/usuarios/verificar-codigo", userHandler.VerifyCode)
	r.POST("/usuarios/reset-password", userHandler.ResetPassword)
	r.GET("/usuarios/perfil/:id", bearer, userHandler.GetProfile)
	r.PUT("/usuarios/perfil/:id", bearer, userHandler.UpdateProfile)

	// Catálogo
	r.GET("/productos", catalogHandler.ListProducts)
	r.GET("/productos/:id", catalogHandler.GetProduct)
	r.POST("/productos", bearer, admin, catalogHandler.CreateProduct)
	r.PUT("/productos/:id", bearer, admin, catalogHandler.UpdateProduct)
	r.DELETE("/productos/:id", bearer, admin, catalogHandler.DeleteProduct)

	r.GET("/categorias", catalogHandler.ListCategories)
	r.POST("/categorias", bearer, admin, catalogHandler.CreateCategory)
	r.PUT("/categorias/:id", bearer, admin, catalogHandler.UpdateCategory)
	r.DELETE("/categorias/:id", bearer, admin, catalogHandler.DeleteCategory)

	r.GET("/marcas", catalogHandler.ListBrands)
	r.POST("/marcas", bearer, admin, catalogHandler.CreateBrand)
	r.PUT("/marcas/:id", bearer, admin, catalogHandler.UpdateBrand)
	r.DELETE("/marcas/:id", bearer, admin, catalogHandler.DeleteBrand)

	// Carrinho
	r.GET("/carrito/:usuarioId", bearer, cartHandler.GetCart)
	r.POST("/carrito/agregar", bearer, cartHandler.AddItem)
	r.PUT("/carrito/actualizar", bearer, cartHandler.UpdateQuantity)
	r.DELETE("/carrito/eliminar/:detalleId", bearer, cartHandler.RemoveItem)
	r.DELETE("/carrito/vaciar", bearer, cartHandler.ClearCart)

	// Faturas: o checkout e as telas admin
	r.POST("/facturas", bearer, invoiceHandler.Checkout)
	r.GET("/facturas/todas", bearer, admin, invoiceHandler.ListAll)
	r.GET("/facturas/detalle/:id", bearer, invoiceHandler.GetDetail)
	r.GET("/facturas/usuario/:usuarioId", bearer, invoiceHandler.ListByUser)
	r.GET("/facturas/estadisticas/completas", bearer, admin, invoiceHandler.Statistics)
	r.PUT("/facturas/:id/estado", bearer, admin, invoiceHandler.UpdateStatus)

	return r
}

// cacheOrNil evita passar um ponteiro tipado não-nulo dentro de uma
// interface nula
func cacheOrNil(c *catalog.RedisCache) catalog.Cache {
	if c == nil {
		return nil
	}
	return c
}

func invoiceCacheOrNil(c *catalog.RedisCache) invoices.ProductCache {
	if c == nil {
		return nil
	}
	return c
}

func initDB() (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DATABASE_USER", "root"),
		getEnv("DATABASE_PASSWORD", "pass"),
		getEnv("DATABASE_HOST", "localhost"),
		getEnv("DATABASE_PORT", "5432"),
		getEnv("DATABASE_NAME", "tienda_db"),
	)

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Configure connection pool
	config.MaxConns = 25
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			log.Println("✅ Connected to database with connection pool")
			return pool, nil
		}
		log.Printf("⏳ Waiting for database... (%d/30)", i+1)
		time.Sleep(1 * time.Second)
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after 30 attempts")
}

func initTracer() (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	otlpEndpoint := getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(otlpEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(getEnv("SERVICE_NAME", "storefront-api")),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	otel.SetTracerProvider(tp)

	return tp, nil
}

func initMetrics() (*sdkmetric.MeterProvider, error) {
	ctx := context.Background()

	otlpEndpoint := getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(otlpEndpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(getEnv("SERVICE_NAME", "storefront-api")),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	return mp, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
