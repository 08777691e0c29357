package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v78"

	"github.com/willjrcristo/go-paywall/internal/domain"
)

// ProcessarWebhook verifica a assinatura criptográfica do evento e o
// despacha para a reconciliação. Não assumimos NADA sobre a ordem de
// entrega: a Stripe entrega ao-menos-uma-vez e pode reordenar, então a
// correção vem da sobrescrita completa chaveada pelo ID, não da ordem.
//
// Política de erros:
//   - assinatura inválida          -> ErrAssinaturaWebhook (handler: 400)
//   - cliente desconhecido         -> log + nil (reentrega não resolve)
//   - falha de persistência        -> erro (handler: 500, Stripe reentrega)
func (s *PaywallService) ProcessarWebhook(ctx context.Context, payload []byte, cabecalhoAssinatura string) error {
	evento, err := s.billing.ConstruirEvento(payload, cabecalhoAssinatura)
	if err != nil {
		slog.Error("falha na verificação da assinatura do webhook", "error", err)
		return ErrAssinaturaWebhook
	}

	switch evento.Type {
	case "checkout.session.completed":
		var sessao stripe.CheckoutSession
		if err := json.Unmarshal(evento.Data.Raw, &sessao); err != nil {
			return err
		}
		if sessao.Mode != stripe.CheckoutSessionModeSubscription || sessao.Subscription == nil {
			return nil
		}
		// A sessão pode não carregar o estado completo da assinatura;
		// buscamos o recurso autoritativo na Stripe em vez de confiar nela.
		assinatura, err := s.billing.BuscarAssinatura(ctx, sessao.Subscription.ID)
		if err != nil {
			return err
		}
		return s.reconciliarAssinatura(ctx, assinatura)

	case "customer.subscription.created", "customer.subscription.updated":
		var assinatura stripe.Subscription
		if err := json.Unmarshal(evento.Data.Raw, &assinatura); err != nil {
			return err
		}
		return s.reconciliarAssinatura(ctx, &assinatura)

	case "customer.subscription.deleted":
		var assinatura stripe.Subscription
		if err := json.Unmarshal(evento.Data.Raw, &assinatura); err != nil {
			return err
		}
		// ID inexistente no banco é um no-op: cancelar o que já não está
		// lá é vacuamente satisfeito.
		return s.repo.AtualizarStatusAssinatura(ctx, assinatura.ID, domain.StatusCancelada)

	default:
		slog.Info("webhook da stripe recebido, mas não tratado", "event_type", evento.Type)
	}

	return nil
}

// reconciliarAssinatura resolve o usuário dono pelo ID do cliente Stripe e
// grava a assinatura com sobrescrita completa (upsert idempotente).
func (s *PaywallService) reconciliarAssinatura(ctx context.Context, assinatura *stripe.Subscription) error {
	if assinatura.Customer == nil {
		slog.Warn("evento de assinatura sem cliente", "subscription_id", assinatura.ID)
		return nil
	}
	clienteID := assinatura.Customer.ID

	usuario, err := s.repo.BuscarUsuarioPorClienteID(ctx, clienteID)
	if err != nil {
		return err
	}
	if usuario == nil {
		// Lacuna de dados entre o checkout e a entrega do webhook.
		// Reentregar não conserta; registramos e confirmamos o recebimento
		// para a Stripe não insistir.
		slog.Warn("usuário não encontrado para o cliente do evento",
			"cliente_id", clienteID, "subscription_id", assinatura.ID)
		return nil
	}

	var priceID string
	if assinatura.Items != nil && len(assinatura.Items.Data) > 0 && assinatura.Items.Data[0].Price != nil {
		priceID = assinatura.Items.Data[0].Price.ID
	}

	var fimPeriodo *time.Time
	if assinatura.CurrentPeriodEnd > 0 {
		t := time.Unix(assinatura.CurrentPeriodEnd, 0).UTC()
		fimPeriodo = &t
	}

	return s.repo.UpsertAssinatura(ctx, domain.Assinatura{
		ID:                  assinatura.ID,
		UsuarioID:           usuario.ID,
		StripeClienteID:     clienteID,
		Status:              string(assinatura.Status),
		PriceID:             priceID,
		FimPeriodoAtual:     fimPeriodo,
		CancelaAoFimPeriodo: assinatura.CancelAtPeriodEnd,
		// CriadoEm vem da Stripe: upserts repetidos não deslocam o valor.
		CriadoEm:     time.Unix(assinatura.Created, 0).UTC(),
		AtualizadoEm: time.Now().UTC(),
	})
}
