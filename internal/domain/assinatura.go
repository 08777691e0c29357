package domain

import (
	"slices"
	"time"
)

// Status de assinatura que a Stripe reporta. O conjunto é aberto (a Stripe
// pode enviar outros valores); nós só tratamos de forma especial os que
// concedem acesso e o "canceled".
const (
	StatusAtiva     = "active"
	StatusTeste     = "trialing"
	StatusCancelada = "canceled"
	StatusAtrasada  = "past_due"

	// StatusSemAssinatura é um status sintético nosso, devolvido pela
	// consulta de status quando o usuário não tem nenhuma assinatura.
	StatusSemAssinatura = "no_subscription"
)

// StatusComAcesso é o conjunto padrão de status que liberam o conteúdo.
func StatusComAcesso() []string {
	return []string{StatusAtiva, StatusTeste}
}

// Assinatura representa uma assinatura persistida no nosso banco.
// Criada e atualizada SOMENTE pelo reconciliador de webhooks.
type Assinatura struct {
	// ID é o identificador da assinatura na Stripe (ex: "sub_...").
	// Não geramos um ID próprio: reutilizar o da Stripe torna o upsert
	// naturalmente idempotente. Imutável e nunca reatribuído a outro usuário.
	ID string `json:"id"`

	UsuarioID string `json:"usuario_id"`

	// Cópia desnormalizada do StripeClienteID do usuário dono, para
	// resolver o usuário a partir de eventos sem precisar de join.
	StripeClienteID string `json:"-"`

	Status  string `json:"status"`
	PriceID string `json:"price_id"`

	// Fim do ciclo de cobrança atual. Pode ser nulo.
	FimPeriodoAtual *time.Time `json:"fim_periodo_atual"`

	// Indica que a assinatura está marcada para encerrar sem renovar.
	CancelaAoFimPeriodo bool `json:"cancela_ao_fim_periodo"`

	// CriadoEm vem do timestamp de criação da assinatura na Stripe, para
	// que upserts repetidos do mesmo evento não alterem o valor.
	CriadoEm     time.Time `json:"criado_em"`
	AtualizadoEm time.Time `json:"atualizado_em"`
}

// ConcedeAcesso informa se o status atual libera o conteúdo protegido.
func (a Assinatura) ConcedeAcesso(statusPermitidos []string) bool {
	return slices.Contains(statusPermitidos, a.Status)
}
