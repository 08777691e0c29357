package billing

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v78"
)

// Erros que o gateway traduz a partir das respostas da Stripe, para que as
// camadas de cima não precisem inspecionar mensagens dela.
var (
	ErrPrecoNaoEncontrado   = errors.New("preço não encontrado na stripe")
	ErrClienteNaoEncontrado = errors.New("cliente não encontrado na stripe")
)

// SessaoCheckout agrupa os parâmetros para abrir uma sessão de checkout.
type SessaoCheckout struct {
	ClienteID       string
	PriceID         string
	URLSucesso      string
	URLCancelamento string

	// Email vai nos metadados da sessão, para auditoria no dashboard.
	Email string

	// ChaveIdempotencia evita que submissões duplicadas em sequência
	// criem duas sessões de checkout.
	ChaveIdempotencia string

	// ModoTeste adiciona o texto de ajuda com o cartão de teste da Stripe.
	ModoTeste bool
}

// Gateway define a interface com o provedor de cobrança.
// O serviço depende desta interface, não da Stripe diretamente, o que nos
// permite usar um gateway falso nos testes.
type Gateway interface {
	// CriarCliente cria um cliente no provedor e devolve o ID dele.
	CriarCliente(ctx context.Context, email string) (string, error)

	// CriarSessaoCheckout abre uma sessão de pagamento e devolve a URL.
	CriarSessaoCheckout(ctx context.Context, sessao SessaoCheckout) (string, error)

	// BuscarAssinatura busca o recurso de assinatura autoritativo.
	BuscarAssinatura(ctx context.Context, id string) (*stripe.Subscription, error)

	// ConstruirEvento valida a assinatura criptográfica do webhook contra o
	// segredo compartilhado e decodifica o payload em um evento tipado.
	ConstruirEvento(payload []byte, cabecalhoAssinatura string) (stripe.Event, error)
}
