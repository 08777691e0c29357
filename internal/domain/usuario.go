package domain

import "time"

// Usuario representa um usuário do paywall.
// O ID é gerado por nós (UUID) no primeiro checkout; a linha nunca é
// criada diretamente por código voltado ao cliente final.
type Usuario struct {
	ID string `json:"id"`

	// Email é a chave de ligação com o provedor de identidade.
	// Sempre normalizado (trim + minúsculas) antes de qualquer busca ou gravação.
	Email string `json:"email"`

	// ID do cliente na Stripe (ex: "cus_...").
	// Fica vazio até o primeiro checkout criar o cliente lá.
	// O "-" significa que este campo não será exposto na nossa API JSON.
	StripeClienteID string `json:"-"`

	CriadoEm time.Time `json:"criado_em"`
}
