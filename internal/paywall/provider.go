package paywall

import (
	"context"
	"errors"
	"sync"
)

// Estado é o estado de assinatura mantido por sessão de página.
// Enquanto Carregando for true, TemAcesso e Status são considerados velhos
// e não devem decidir acesso (os gates tratam carregando como um terceiro
// estado, não como "acesso negado").
type Estado struct {
	TemAcesso  bool
	Status     string
	Carregando bool
	Email      string
	Erro       string
}

// ConsultorStatus abstrai o endpoint de consulta de status do servidor,
// para que o provider seja testável sem rede.
type ConsultorStatus interface {
	ConsultarStatus(ctx context.Context, email string) (RespostaStatus, error)
}

// Provider é o contêiner de estado de assinatura do lado do cliente.
// Substitui o contexto ambiente do SDK original: é construído uma vez por
// sessão e passado por referência a quem precisar dele. Só o Provider
// muta o Estado.
type Provider struct {
	mu        sync.Mutex
	consultor ConsultorStatus
	estado    Estado

	// geracao chaveia cada busca ao email que a disparou. Uma resposta que
	// chega depois de o email mudar é descartada, nunca sobrescreve o
	// estado do email mais novo.
	geracao uint64
}

// NewProvider exige o consultor na construção — o "falha se usado fora do
// provider" do SDK original vira um erro de construção aqui.
func NewProvider(consultor ConsultorStatus) (*Provider, error) {
	if consultor == nil {
		return nil, errors.New("consultor de status é obrigatório")
	}
	return &Provider{consultor: consultor}, nil
}

// Estado devolve uma cópia do estado atual.
func (p *Provider) Estado() Estado {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.estado
}

// DefinirEmail troca a identidade atual e dispara a busca de status.
// Email vazio significa "sem identidade": o estado é zerado na hora, sem
// chamada de rede — ausência de login não é um estado de erro.
func (p *Provider) DefinirEmail(ctx context.Context, email string) {
	p.mu.Lock()
	p.estado.Email = email
	if email == "" {
		p.geracao++ // invalida qualquer busca em voo
		p.estado.TemAcesso = false
		p.estado.Status = ""
		p.estado.Erro = ""
		p.estado.Carregando = false
		p.mu.Unlock()
		return
	}
	geracao := p.iniciarBusca()
	p.mu.Unlock()

	p.buscar(ctx, email, geracao)
}

// VerificarAssinatura repete a busca com o email atual. É a reverificação
// explícita para depois da navegação de volta do checkout ou de um
// cancelamento administrativo.
func (p *Provider) VerificarAssinatura(ctx context.Context) {
	p.mu.Lock()
	email := p.estado.Email
	if email == "" {
		p.geracao++
		p.estado.TemAcesso = false
		p.estado.Status = ""
		p.estado.Erro = ""
		p.estado.Carregando = false
		p.mu.Unlock()
		return
	}
	geracao := p.iniciarBusca()
	p.mu.Unlock()

	p.buscar(ctx, email, geracao)
}

// LimparErro zera o erro sem refazer a busca.
func (p *Provider) LimparErro() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.estado.Erro = ""
}

// iniciarBusca marca o estado como carregando e devolve a geração da busca.
// Chamar com p.mu já travado.
func (p *Provider) iniciarBusca() uint64 {
	p.geracao++
	p.estado.Carregando = true
	p.estado.Erro = ""
	return p.geracao
}

func (p *Provider) buscar(ctx context.Context, email string, geracao uint64) {
	resposta, err := p.consultor.ConsultarStatus(ctx, email)

	p.mu.Lock()
	defer p.mu.Unlock()
	if geracao != p.geracao {
		// Resposta atrasada de um email já substituído: descarta.
		return
	}
	p.estado.Carregando = false
	if err != nil {
		p.estado.Erro = "falha ao verificar assinatura: " + err.Error()
		p.estado.TemAcesso = false
		p.estado.Status = ""
		return
	}
	p.estado.TemAcesso = resposta.TemAcesso
	p.estado.Status = resposta.Status
}
