package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stripe/stripe-go/v78"

	"github.com/willjrcristo/go-paywall/internal/billing"
	"github.com/willjrcristo/go-paywall/internal/domain"
	"github.com/willjrcristo/go-paywall/internal/repository"
)

// --- Fake da camada de persistência ---

// repoEmMemoria implementa repository.Repository com mapas, seguindo o
// contrato do adaptador real (nil quando não encontra, upsert que preserva
// criado_em, no-op ao atualizar status inexistente).
type repoEmMemoria struct {
	usuarios    map[string]domain.Usuario    // chave: email
	assinaturas map[string]domain.Assinatura // chave: id da assinatura

	// criarUsuarioFn, quando definido, substitui CriarUsuario (para simular
	// a corrida de criação).
	criarUsuarioFn func(ctx context.Context, u domain.Usuario) error

	// erroForcado faz toda operação falhar (simula banco fora do ar).
	erroForcado error
}

func novoRepoEmMemoria() *repoEmMemoria {
	return &repoEmMemoria{
		usuarios:    make(map[string]domain.Usuario),
		assinaturas: make(map[string]domain.Assinatura),
	}
}

func (r *repoEmMemoria) BuscarUsuarioPorEmail(ctx context.Context, email string) (*domain.Usuario, error) {
	if r.erroForcado != nil {
		return nil, r.erroForcado
	}
	u, ok := r.usuarios[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *repoEmMemoria) BuscarUsuarioPorClienteID(ctx context.Context, clienteID string) (*domain.Usuario, error) {
	if r.erroForcado != nil {
		return nil, r.erroForcado
	}
	for _, u := range r.usuarios {
		if u.StripeClienteID == clienteID {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *repoEmMemoria) CriarUsuario(ctx context.Context, usuario domain.Usuario) error {
	if r.criarUsuarioFn != nil {
		return r.criarUsuarioFn(ctx, usuario)
	}
	if r.erroForcado != nil {
		return r.erroForcado
	}
	if _, existe := r.usuarios[usuario.Email]; existe {
		return fmt.Errorf("%w: %s", repository.ErrEmailDuplicado, usuario.Email)
	}
	r.usuarios[usuario.Email] = usuario
	return nil
}

func (r *repoEmMemoria) AtualizarUsuario(ctx context.Context, usuario domain.Usuario) error {
	if r.erroForcado != nil {
		return r.erroForcado
	}
	r.usuarios[usuario.Email] = usuario
	return nil
}

func (r *repoEmMemoria) BuscarUsuarioComAssinatura(ctx context.Context, email string) (*repository.UsuarioComAssinatura, error) {
	if r.erroForcado != nil {
		return nil, r.erroForcado
	}
	u, ok := r.usuarios[email]
	if !ok {
		return nil, nil
	}
	resultado := &repository.UsuarioComAssinatura{UsuarioID: u.ID}

	var doUsuario []domain.Assinatura
	for _, a := range r.assinaturas {
		if a.UsuarioID == u.ID {
			doUsuario = append(doUsuario, a)
		}
	}
	if len(doUsuario) > 0 {
		sort.Slice(doUsuario, func(i, j int) bool {
			if !doUsuario[i].CriadoEm.Equal(doUsuario[j].CriadoEm) {
				return doUsuario[i].CriadoEm.After(doUsuario[j].CriadoEm)
			}
			return doUsuario[i].ID < doUsuario[j].ID
		})
		resultado.Assinatura = &doUsuario[0]
	}
	return resultado, nil
}

func (r *repoEmMemoria) UpsertAssinatura(ctx context.Context, assinatura domain.Assinatura) error {
	if r.erroForcado != nil {
		return r.erroForcado
	}
	if existente, ok := r.assinaturas[assinatura.ID]; ok {
		// Em atualização, criado_em e usuario_id não mudam.
		assinatura.CriadoEm = existente.CriadoEm
		assinatura.UsuarioID = existente.UsuarioID
	}
	r.assinaturas[assinatura.ID] = assinatura
	return nil
}

func (r *repoEmMemoria) AtualizarStatusAssinatura(ctx context.Context, id, status string) error {
	if r.erroForcado != nil {
		return r.erroForcado
	}
	a, ok := r.assinaturas[id]
	if !ok {
		return nil
	}
	a.Status = status
	a.AtualizadoEm = time.Now().UTC()
	r.assinaturas[id] = a
	return nil
}

// --- Fake do gateway de cobrança ---

type gatewayFake struct {
	clientesCriados  []string
	proximoClienteID string

	ultimaSessao billing.SessaoCheckout
	urlSessao    string
	erroSessao   error

	assinaturaRemota *stripe.Subscription
	erroAssinatura   error

	evento     stripe.Event
	erroEvento error
}

func novoGatewayFake() *gatewayFake {
	return &gatewayFake{
		proximoClienteID: "cus_novo",
		urlSessao:        "https://checkout.stripe.com/c/pay/cs_teste",
	}
}

func (g *gatewayFake) CriarCliente(ctx context.Context, email string) (string, error) {
	g.clientesCriados = append(g.clientesCriados, email)
	return g.proximoClienteID, nil
}

func (g *gatewayFake) CriarSessaoCheckout(ctx context.Context, sessao billing.SessaoCheckout) (string, error) {
	g.ultimaSessao = sessao
	if g.erroSessao != nil {
		return "", g.erroSessao
	}
	return g.urlSessao, nil
}

func (g *gatewayFake) BuscarAssinatura(ctx context.Context, id string) (*stripe.Subscription, error) {
	if g.erroAssinatura != nil {
		return nil, g.erroAssinatura
	}
	return g.assinaturaRemota, nil
}

func (g *gatewayFake) ConstruirEvento(payload []byte, cabecalhoAssinatura string) (stripe.Event, error) {
	if g.erroEvento != nil {
		return stripe.Event{}, g.erroEvento
	}
	return g.evento, nil
}

// novoServicoTeste monta um serviço com os fakes e a configuração padrão.
func novoServicoTeste(repo *repoEmMemoria, gateway *gatewayFake) *PaywallService {
	s, err := NewPaywallService(repo, gateway, Config{
		PriceID: "price_teste",
		AppURL:  "https://exemplo.com.br",
	})
	if err != nil {
		panic(err)
	}
	return s
}
