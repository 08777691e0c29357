package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/willjrcristo/go-paywall/internal/billing"
	"github.com/willjrcristo/go-paywall/internal/service"
)

// Para facilitar os testes, o handler depende desta interface, não da
// implementação concreta do serviço.
type PaywallService interface {
	CriarSessaoCheckout(ctx context.Context, email, callbackURL string) (string, error)
	ConsultarStatus(ctx context.Context, email string) (service.StatusAcesso, error)
	ProcessarWebhook(ctx context.Context, payload []byte, cabecalhoAssinatura string) error
}

// validate é o validador de corpo de requisição na borda HTTP. O serviço
// ainda aplica a checagem de formato mais rígida depois.
var validate = validator.New()

// PaywallHandler lida com as requisições HTTP do paywall: checkout,
// consulta de status e o webhook da Stripe.
type PaywallHandler struct {
	service PaywallService
}

// NewPaywallHandler cria uma nova instância do PaywallHandler.
func NewPaywallHandler(s PaywallService) *PaywallHandler {
	return &PaywallHandler{
		service: s,
	}
}

// Routes define e retorna todas as rotas que este handler gerencia.
func (h *PaywallHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/checkout", h.CriarCheckout)                // POST /api/checkout
	r.Get("/subscription/status", h.ConsultarStatus)    // GET  /api/subscription/status?email=
	r.Post("/webhooks/stripe", h.WebhookStripe)         // POST /api/webhooks/stripe

	return r
}

type requisicaoCheckout struct {
	Email       string `json:"email" validate:"required,email"`
	CallbackURL string `json:"callbackUrl" validate:"omitempty,max=2048"`
}

// @Summary      Cria uma sessão de checkout na Stripe
// @Description  Garante o cliente Stripe do email e gera a URL de pagamento da assinatura
// @Tags         paywall
// @Accept       json
// @Produce      json
// @Param        corpo  body      requisicaoCheckout  true  "Email e caminho de retorno opcional"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/checkout [post]
func (h *PaywallHandler) CriarCheckout(w http.ResponseWriter, r *http.Request) {
	var corpo requisicaoCheckout
	if err := json.NewDecoder(r.Body).Decode(&corpo); err != nil {
		respondWithError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if err := validate.Struct(corpo); err != nil {
		respondWithError(w, http.StatusBadRequest, "Email ausente ou inválido")
		return
	}

	url, err := h.service.CriarSessaoCheckout(r.Context(), corpo.Email, corpo.CallbackURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailObrigatorio), errors.Is(err, service.ErrEmailInvalido):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCallbackInvalido):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, billing.ErrPrecoNaoEncontrado):
			respondWithError(w, http.StatusBadRequest, "Plano de assinatura inválido")
		case errors.Is(err, billing.ErrClienteNaoEncontrado):
			respondWithError(w, http.StatusNotFound, "Cliente não encontrado")
		default:
			respondWithError(w, http.StatusInternalServerError, "Erro ao criar sessão de checkout")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"url": url})
}

// @Summary      Consulta o status de assinatura de um email
// @Description  Decide o acesso a partir da assinatura persistida; sem assinatura não é erro
// @Tags         paywall
// @Produce      json
// @Param        email  query     string  true  "Email do usuário"
// @Success      200    {object}  service.StatusAcesso
// @Failure      400    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/subscription/status [get]
func (h *PaywallHandler) ConsultarStatus(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	status, err := h.service.ConsultarStatus(r.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailObrigatorio), errors.Is(err, service.ErrEmailInvalido):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Erro ao consultar status da assinatura")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// @Summary      Recebe eventos de webhook da Stripe
// @Description  Verifica a assinatura do evento e reconcilia o estado da assinatura no banco
// @Tags         paywall
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/webhooks/stripe [post]
func (h *PaywallHandler) WebhookStripe(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536) // Limite de 64KB
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("erro ao ler o corpo do webhook", "error", err)
		respondWithError(w, http.StatusServiceUnavailable, "Erro ao ler corpo da requisição")
		return
	}

	assinatura := r.Header.Get("Stripe-Signature")
	if assinatura == "" {
		respondWithError(w, http.StatusBadRequest, "Cabeçalho de assinatura ausente")
		return
	}

	if err := h.service.ProcessarWebhook(r.Context(), payload, assinatura); err != nil {
		if errors.Is(err, service.ErrAssinaturaWebhook) {
			respondWithError(w, http.StatusBadRequest, "Falha na verificação da assinatura do webhook")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Erro interno ao processar webhook")
		}
		return
	}

	// 200 com received:true cobre inclusive os casos "tratado mas no-op",
	// para a Stripe não reentregar o que não tem conserto.
	respondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// --- FUNÇÕES AUXILIARES ---

func respondWithError(w http.ResponseWriter, code int, message string) {
	slog.Error("API Error", "code", code, "message", message)
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
