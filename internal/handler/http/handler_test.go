package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willjrcristo/go-paywall/internal/billing"
	"github.com/willjrcristo/go-paywall/internal/domain"
	"github.com/willjrcristo/go-paywall/internal/service"
)

// --- Mock da Camada de Serviço ---

// MockPaywallService é uma implementação falsa da interface PaywallService.
// Nós controlamos o que cada função vai retornar para simular diferentes cenários.
type MockPaywallService struct {
	CriarSessaoCheckoutFn func(ctx context.Context, email, callbackURL string) (string, error)
	ConsultarStatusFn     func(ctx context.Context, email string) (service.StatusAcesso, error)
	ProcessarWebhookFn    func(ctx context.Context, payload []byte, cabecalhoAssinatura string) error
}

func (m *MockPaywallService) CriarSessaoCheckout(ctx context.Context, email, callbackURL string) (string, error) {
	return m.CriarSessaoCheckoutFn(ctx, email, callbackURL)
}

func (m *MockPaywallService) ConsultarStatus(ctx context.Context, email string) (service.StatusAcesso, error) {
	return m.ConsultarStatusFn(ctx, email)
}

func (m *MockPaywallService) ProcessarWebhook(ctx context.Context, payload []byte, cabecalhoAssinatura string) error {
	return m.ProcessarWebhookFn(ctx, payload, cabecalhoAssinatura)
}

func executar(h *PaywallHandler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

// --- Testes do Handler ---

func TestPaywallHandler_CriarCheckout(t *testing.T) {
	t.Run("sucesso - devolve a url da sessão e status 200", func(t *testing.T) {
		// Arrange
		mockService := &MockPaywallService{
			CriarSessaoCheckoutFn: func(ctx context.Context, email, callbackURL string) (string, error) {
				assert.Equal(t, "maria@exemplo.com.br", email)
				assert.Equal(t, "/premium", callbackURL)
				return "https://checkout.stripe.com/c/pay/cs_teste", nil
			},
		}
		handler := NewPaywallHandler(mockService)

		corpo, _ := json.Marshal(map[string]string{
			"email":       "maria@exemplo.com.br",
			"callbackUrl": "/premium",
		})
		req := httptest.NewRequest("POST", "/checkout", bytes.NewBuffer(corpo))
		req.Header.Set("Content-Type", "application/json")

		// Act
		rr := executar(handler, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		var resposta map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resposta))
		assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_teste", resposta["url"])
	})

	t.Run("erro - corpo sem email devolve 400 antes do serviço", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			CriarSessaoCheckoutFn: func(ctx context.Context, email, callbackURL string) (string, error) {
				t.Fatal("o serviço não deveria ser chamado")
				return "", nil
			},
		})

		req := httptest.NewRequest("POST", "/checkout", bytes.NewBufferString(`{"callbackUrl":"/x"}`))
		rr := executar(handler, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("erro - callback inseguro devolve 400", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			CriarSessaoCheckoutFn: func(ctx context.Context, email, callbackURL string) (string, error) {
				return "", service.ErrCallbackInvalido
			},
		})

		corpo, _ := json.Marshal(map[string]string{"email": "maria@exemplo.com.br", "callbackUrl": "https://evil.com"})
		rr := executar(handler, httptest.NewRequest("POST", "/checkout", bytes.NewBuffer(corpo)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("erro - preço inexistente devolve 400", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			CriarSessaoCheckoutFn: func(ctx context.Context, email, callbackURL string) (string, error) {
				return "", billing.ErrPrecoNaoEncontrado
			},
		})

		corpo, _ := json.Marshal(map[string]string{"email": "maria@exemplo.com.br"})
		rr := executar(handler, httptest.NewRequest("POST", "/checkout", bytes.NewBuffer(corpo)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("erro - cliente inexistente devolve 404", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			CriarSessaoCheckoutFn: func(ctx context.Context, email, callbackURL string) (string, error) {
				return "", billing.ErrClienteNaoEncontrado
			},
		})

		corpo, _ := json.Marshal(map[string]string{"email": "maria@exemplo.com.br"})
		rr := executar(handler, httptest.NewRequest("POST", "/checkout", bytes.NewBuffer(corpo)))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("erro - falha genérica devolve 500", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			CriarSessaoCheckoutFn: func(ctx context.Context, email, callbackURL string) (string, error) {
				return "", errors.New("stripe fora do ar")
			},
		})

		corpo, _ := json.Marshal(map[string]string{"email": "maria@exemplo.com.br"})
		rr := executar(handler, httptest.NewRequest("POST", "/checkout", bytes.NewBuffer(corpo)))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestPaywallHandler_ConsultarStatus(t *testing.T) {
	t.Run("sucesso - devolve a decisão de acesso e status 200", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			ConsultarStatusFn: func(ctx context.Context, email string) (service.StatusAcesso, error) {
				assert.Equal(t, "maria@exemplo.com.br", email)
				return service.StatusAcesso{TemAcesso: true, Status: domain.StatusAtiva}, nil
			},
		})

		req := httptest.NewRequest("GET", "/subscription/status?email=maria%40exemplo.com.br", nil)
		rr := executar(handler, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resposta service.StatusAcesso
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resposta))
		assert.True(t, resposta.TemAcesso)
		assert.Equal(t, domain.StatusAtiva, resposta.Status)
	})

	t.Run("sucesso - sem assinatura ainda é 200", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			ConsultarStatusFn: func(ctx context.Context, email string) (service.StatusAcesso, error) {
				return service.StatusAcesso{TemAcesso: false, Status: domain.StatusSemAssinatura}, nil
			},
		})

		rr := executar(handler, httptest.NewRequest("GET", "/subscription/status?email=x%40exemplo.com.br", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), domain.StatusSemAssinatura)
	})

	t.Run("erro - email ausente devolve 400", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			ConsultarStatusFn: func(ctx context.Context, email string) (service.StatusAcesso, error) {
				return service.StatusAcesso{}, service.ErrEmailObrigatorio
			},
		})

		rr := executar(handler, httptest.NewRequest("GET", "/subscription/status", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("erro - falha do banco devolve 500", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			ConsultarStatusFn: func(ctx context.Context, email string) (service.StatusAcesso, error) {
				return service.StatusAcesso{}, errors.New("banco fora do ar")
			},
		})

		rr := executar(handler, httptest.NewRequest("GET", "/subscription/status?email=x%40exemplo.com.br", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestPaywallHandler_WebhookStripe(t *testing.T) {
	t.Run("sucesso - confirma o recebimento com received true", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			ProcessarWebhookFn: func(ctx context.Context, payload []byte, cabecalhoAssinatura string) error {
				assert.Equal(t, "t=1,v1=abc", cabecalhoAssinatura)
				return nil
			},
		})

		req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewBufferString(`{"type":"x"}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
		rr := executar(handler, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resposta map[string]bool
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resposta))
		assert.True(t, resposta["received"])
	})

	t.Run("erro - cabeçalho de assinatura ausente devolve 400 sem chamar o serviço", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			ProcessarWebhookFn: func(ctx context.Context, payload []byte, cabecalhoAssinatura string) error {
				t.Fatal("o serviço não deveria ser chamado")
				return nil
			},
		})

		req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewBufferString(`{}`))
		rr := executar(handler, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("erro - assinatura inválida devolve 400", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			ProcessarWebhookFn: func(ctx context.Context, payload []byte, cabecalhoAssinatura string) error {
				return service.ErrAssinaturaWebhook
			},
		})

		req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewBufferString(`{}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=ruim")
		rr := executar(handler, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("erro - falha de persistência devolve 500 para a stripe reentregar", func(t *testing.T) {
		handler := NewPaywallHandler(&MockPaywallService{
			ProcessarWebhookFn: func(ctx context.Context, payload []byte, cabecalhoAssinatura string) error {
				return errors.New("banco fora do ar")
			},
		})

		req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewBufferString(`{}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
		rr := executar(handler, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
