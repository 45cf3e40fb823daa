package main

import (
	"context"
	"errors"
	"fmt"
	"goldenapp/config"
	"goldenapp/controllers"
	"goldenapp/database"
	"goldenapp/middleware"
	"goldenapp/services"
	"goldenapp/utils"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
)

// newLedgerStore выбирает хранилище картеры по LEDGER_BACKEND
func newLedgerStore(ctx context.Context, cfg *config.Config, db *database.Database) (services.LedgerStore, func(), error) {
	switch cfg.Ledger.Backend {
	case "redis":
		client, err := database.NewRedisClient(ctx, cfg.Ledger.RedisAddr, cfg.Ledger.RedisPassword, cfg.Ledger.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return database.NewRedisLedgerStore(client), func() { client.Close() }, nil
	case "memory":
		utils.LogWarn("ledger is kept in memory and will be lost on restart")
		return database.NewMemoryLedgerStore(), func() {}, nil
	default:
		return database.NewSQLLedgerStore(db.DB), func() {}, nil
	}
}

// newAPIRouter собирает маршруты API
func newAPIRouter(auth *controllers.AuthController, cartera *controllers.CarteraController, catalog *controllers.CatalogController) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)

	// Публичные маршруты для аутентификации
	router.HandleFunc("/api/auth/signIn", auth.SignIn).Methods("POST")

	// Защищенные маршруты
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(auth.GetJWTKey())))

	catalog.RegisterRoutes(protected)
	cartera.RegisterRoutes(protected)

	return router
}

// newOpsRouter собирает служебный сервер: здоровье и метрики
func newOpsRouter(db *database.Database, limiter *utils.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logger(), middleware.Recovery(), middleware.RateLimit(limiter), middleware.CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "time": time.Now().UTC()}
		if db != nil {
			sqlDB, err := db.DB.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				status["status"] = "degraded"
				status["database"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, status)
				return
			}
			status["database"] = "ok"
		}
		c.JSON(http.StatusOK, status)
	})
	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.GetMetrics().GetMetricsSnapshot())
	})

	return router
}

func main() {
	// goldenapp hash-password <пароль> печатает значение для ADMIN_PASSWORD_HASH
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := utils.HashPassword(os.Args[2])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(hash)
		return
	}

	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if err := utils.InitLogger(utils.LogOptions{Level: cfg.Log.Level, Format: cfg.Log.Format, Dir: cfg.Log.Dir}); err != nil {
		log.Fatalf("Ошибка настройки логирования: %v", err)
	}
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Инициализируем подключение к базе данных
	db, err := database.Connect(cfg)
	if err != nil {
		utils.Log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	ledger, closeLedger, err := newLedgerStore(ctx, cfg, db)
	if err != nil {
		utils.Log.Fatalf("Ошибка подключения к хранилищу картеры: %v", err)
	}
	defer closeLedger()

	// Инициализируем сервисы
	emailService := services.NewEmailService(cfg)
	carteraService := services.NewCarteraService(ledger, db, db, db, emailService)
	catalogService := services.NewCatalogService(db, db)
	exportService := services.NewExportService()

	// Запускаем проверку просрочки
	monitor := services.NewOverdueMonitorService(carteraService, cfg.Cartera.Cities, cfg.Cartera.OverdueCron)
	if err := monitor.Start(); err != nil {
		utils.Log.Fatalf("Ошибка запуска проверки просрочки: %v", err)
	}
	defer monitor.Stop()

	// Инициализируем контроллеры
	router := newAPIRouter(
		controllers.NewAuthController(cfg),
		controllers.NewCarteraController(carteraService, exportService),
		controllers.NewCatalogController(catalogService),
	)

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	opsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Ops.Port),
		Handler:           newOpsRouter(db, utils.NewRateLimiter(cfg.Ops.RateLimit, time.Minute)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запускаем серверы
	errs := make(chan error, 2)
	for _, srv := range []*http.Server{apiServer, opsServer} {
		go func(srv *http.Server) {
			utils.LogInfo("Сервер запущен на %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		utils.LogInfo("Получен сигнал остановки")
	case err := <-errs:
		utils.LogError("Ошибка запуска сервера: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	for _, srv := range []*http.Server{apiServer, opsServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.LogError("Ошибка остановки сервера %s: %v", srv.Addr, err)
		}
	}
}
