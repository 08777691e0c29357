package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/customer"
	"github.com/stripe/stripe-go/v78/subscription"
	"github.com/stripe/stripe-go/v78/webhook"
)

// stripeGateway é a implementação do Gateway sobre a API da Stripe.
type stripeGateway struct {
	segredoWebhook string
}

// NewStripeGateway configura a chave global da Stripe e devolve o gateway.
func NewStripeGateway(chaveAPI, segredoWebhook string) Gateway {
	stripe.Key = chaveAPI
	return &stripeGateway{
		segredoWebhook: segredoWebhook,
	}
}

func (g *stripeGateway) CriarCliente(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx

	c, err := customer.New(params)
	if err != nil {
		return "", traduzirErro(err)
	}
	return c.ID, nil
}

func (g *stripeGateway) CriarSessaoCheckout(ctx context.Context, sessao SessaoCheckout) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(sessao.ClienteID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(sessao.URLSucesso),
		CancelURL:  stripe.String(sessao.URLCancelamento),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(sessao.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(sessao.ChaveIdempotencia)
	params.AddMetadata("email", sessao.Email)

	if sessao.ModoTeste {
		params.CustomText = &stripe.CheckoutSessionCustomTextParams{
			Submit: &stripe.CheckoutSessionCustomTextSubmitParams{
				Message: stripe.String("Demo: use o cartão 4242 4242 4242 4242. Os demais dados podem ser fictícios."),
			},
		}
	}

	sess, err := session.New(params)
	if err != nil {
		return "", traduzirErro(err)
	}
	return sess.URL, nil
}

func (g *stripeGateway) BuscarAssinatura(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	return subscription.Get(id, params)
}

func (g *stripeGateway) ConstruirEvento(payload []byte, cabecalhoAssinatura string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, cabecalhoAssinatura, g.segredoWebhook)
}

// traduzirErro converte erros de recurso inexistente da Stripe nos nossos
// sentinelas. Os demais erros sobem como estão.
func traduzirErro(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return err
	}
	if stripeErr.Code == stripe.ErrorCodeResourceMissing {
		switch {
		case strings.Contains(stripeErr.Msg, "No such price"):
			return ErrPrecoNaoEncontrado
		case strings.Contains(stripeErr.Msg, "No such customer"):
			return ErrClienteNaoEncontrado
		}
	}
	return err
}
