package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/willjrcristo/go-paywall/docs" // Importa a pasta docs gerada

	// Nossos pacotes internos da aplicação!
	"github.com/willjrcristo/go-paywall/internal/billing"
	httphandler "github.com/willjrcristo/go-paywall/internal/handler/http"
	"github.com/willjrcristo/go-paywall/internal/repository"
	"github.com/willjrcristo/go-paywall/internal/service"
)

// @title           API do Paywall
// @version         1.0
// @description     API de demonstração do SDK de paywall: checkout, status de assinatura e webhook da Stripe.
// @termsOfService  http://swagger.io/terms/
//
// @contact.name   Will Cristo
// @contact.url    https://linkedin.com/in/willjrcristo
// @contact.email  willjrcristo@gmail.com
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @host      localhost:8080
// @BasePath  /
func main() {
	// --- 1. CONFIGURAÇÃO DO LOGGER ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	slog.Info("🚀 Iniciando a API do Paywall...")

	// --- 2. CONFIGURAÇÃO VIA AMBIENTE ---
	// Em desenvolvimento as variáveis vêm de um .env; em produção, do ambiente.
	if err := godotenv.Load(); err != nil {
		slog.Info("Arquivo .env não encontrado, usando variáveis do ambiente")
	}

	chaveStripe := os.Getenv("STRIPE_SECRET_KEY")
	if chaveStripe == "" {
		slog.Error("STRIPE_SECRET_KEY é obrigatória")
		os.Exit(1)
	}
	segredoWebhook := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if segredoWebhook == "" {
		slog.Error("STRIPE_WEBHOOK_SECRET é obrigatório")
		os.Exit(1)
	}

	caminhoBanco := os.Getenv("DATABASE_PATH")
	if caminhoBanco == "" {
		caminhoBanco = "./paywall.db"
	}
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}
	porta := os.Getenv("PORT")
	if porta == "" {
		porta = "8080"
	}

	// --- 3. CONEXÃO COM O BANCO DE DADOS E MIGRAÇÕES ---
	db, err := initDB(caminhoBanco)
	if err != nil {
		slog.Error("Erro ao inicializar o banco de dados", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("💾 Conexão com o banco de dados estabelecida com sucesso.")

	// --- 4. INJEÇÃO DE DEPENDÊNCIAS (WIRING) ---
	// DB -> Repository -> (Billing) -> Service -> Handler

	paywallRepo := repository.NewSQLiteRepository(db)
	slog.Info("Camada de repositório inicializada")

	gatewayStripe := billing.NewStripeGateway(chaveStripe, segredoWebhook)
	slog.Info("Gateway da Stripe inicializado")

	paywallService, err := service.NewPaywallService(paywallRepo, gatewayStripe, service.Config{
		PriceID:   os.Getenv("STRIPE_PRICE_ID"),
		AppURL:    appURL,
		ModoTeste: len(chaveStripe) > 8 && chaveStripe[:8] == "sk_test_",
	})
	if err != nil {
		slog.Error("Erro ao configurar o serviço do paywall", "error", err)
		os.Exit(1)
	}
	slog.Info("Camada de serviço inicializada")

	paywallHandler := httphandler.NewPaywallHandler(paywallService)
	slog.Info("Camada de handler inicializada")

	// --- 5. CONFIGURAÇÃO DO ROTEADOR E ROTAS ---
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(prometheusMiddleware)

	// Rota de Health Check
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("API do Paywall está no ar! 🚀"))
	})

	// Métricas para o Prometheus raspar
	r.Handle("/metrics", promhttp.Handler())

	// Rota para a documentação Swagger
	// A URL será http://localhost:8080/swagger/index.html
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	slog.Info("📖 Documentação Swagger disponível em http://localhost:8080/swagger/index.html")

	// "Montamos" as rotas do paywall sob o prefixo /api
	r.Mount("/api", paywallHandler.Routes())
	slog.Info("🛰️  Rotas de /api registradas")

	// --- 6. INICIALIZAÇÃO DO SERVIDOR HTTP ---
	slog.Info("✅ Servidor pronto para receber requisições", "porta", porta)
	if err := http.ListenAndServe(":"+porta, r); err != nil {
		slog.Error("Erro ao iniciar o servidor", "error", err)
		os.Exit(1)
	}
}

// initDB abre a conexão e aplica as migrações embutidas.
func initDB(filepath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", filepath)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := repository.ExecutarMigracoes(db); err != nil {
		return nil, err
	}
	return db, nil
}
