package paywall

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

// Decisao é a união etiquetada dos desfechos de um gate, computada uma
// única vez por avaliação. Toda a saída deriva de um único switch sobre
// ela, em vez de espalhar a lógica de decisão pela renderização.
type Decisao int

const (
	DecisaoCarregando Decisao = iota
	DecisaoLiberado
	DecisaoNaoAutenticado
	DecisaoSemAssinatura
)

func (d Decisao) String() string {
	switch d {
	case DecisaoCarregando:
		return "carregando"
	case DecisaoLiberado:
		return "liberado"
	case DecisaoNaoAutenticado:
		return "nao_autenticado"
	case DecisaoSemAssinatura:
		return "sem_assinatura"
	}
	return "desconhecida"
}

// GateConfig reúne as opções dos gates com os padrões enumerados de forma
// explícita. Campos vazios recebem o padrão do gate na construção.
type GateConfig struct {
	// CaminhoSignIn é para onde o usuário sem login é mandado.
	// Padrão: "/signin".
	CaminhoSignIn string

	Titulo            string
	Subtitulo         string
	TextoBotaoSignIn  string
	TextoBotaoAssinar string

	// SemPreviaBorrada mostra só o prompt, sem a prévia borrada do
	// conteúdo atrás dele.
	SemPreviaBorrada bool

	// UIPersonalizada indica que quem chama renderiza o prompt inteiro;
	// o gate só entrega a decisão e as ações.
	UIPersonalizada bool
}

// Avaliacao é o resultado de avaliar um gate: a decisão e tudo que a
// camada de apresentação precisa para renderizar aquele estado.
type Avaliacao struct {
	Decisao Decisao

	// MostrarConteudo indica que o conteúdo protegido deve aparecer.
	MostrarConteudo bool

	// PreviaBorrada indica prévia borrada do conteúdo atrás do prompt.
	PreviaBorrada bool

	// UIPersonalizada repassa a escolha de pular o prompt embutido.
	UIPersonalizada bool

	Titulo     string
	Subtitulo  string
	TextoBotao string

	// URLSignIn é a ação de login (com callbackUrl para voltar depois).
	// Preenchida apenas na decisão não autenticada.
	URLSignIn string

	// ErroCheckout é o estado de erro reexecutável do botão de assinar.
	// Distinto do caso sem login; nunca expõe texto cru do provedor.
	ErroCheckout string
}

// montarURLSignIn anexa a localização atual como callbackUrl, para o
// provedor de identidade devolver o usuário ao mesmo lugar.
func montarURLSignIn(caminhoSignIn, paginaAtual string) string {
	return caminhoSignIn + "?callbackUrl=" + url.QueryEscape(paginaAtual)
}

// --- AUTH GATE ---

// AuthGate protege conteúdo que exige apenas login, sem olhar assinatura.
// Máquina de estados: carregando -> {liberado | não autenticado}.
type AuthGate struct {
	provider *Provider
	cfg      GateConfig
}

// NewAuthGate aplica os padrões do gate de autenticação.
func NewAuthGate(provider *Provider, cfg GateConfig) (*AuthGate, error) {
	if provider == nil {
		return nil, errors.New("provider é obrigatório")
	}
	if cfg.CaminhoSignIn == "" {
		cfg.CaminhoSignIn = "/signin"
	}
	if cfg.Titulo == "" {
		cfg.Titulo = "Login necessário"
	}
	if cfg.Subtitulo == "" {
		cfg.Subtitulo = "Entre para acessar este conteúdo."
	}
	if cfg.TextoBotaoSignIn == "" {
		cfg.TextoBotaoSignIn = "Entrar"
	}
	return &AuthGate{provider: provider, cfg: cfg}, nil
}

// Avaliar computa a decisão para o estado atual do provider.
func (g *AuthGate) Avaliar(paginaAtual string) Avaliacao {
	estado := g.provider.Estado()

	var decisao Decisao
	switch {
	case estado.Carregando:
		decisao = DecisaoCarregando
	case estado.Email != "":
		decisao = DecisaoLiberado
	default:
		decisao = DecisaoNaoAutenticado
	}

	switch decisao {
	case DecisaoLiberado:
		return Avaliacao{Decisao: decisao, MostrarConteudo: true}
	case DecisaoNaoAutenticado:
		return Avaliacao{
			Decisao:         decisao,
			PreviaBorrada:   !g.cfg.SemPreviaBorrada,
			UIPersonalizada: g.cfg.UIPersonalizada,
			Titulo:          g.cfg.Titulo,
			Subtitulo:       g.cfg.Subtitulo,
			TextoBotao:      g.cfg.TextoBotaoSignIn,
			URLSignIn:       montarURLSignIn(g.cfg.CaminhoSignIn, paginaAtual),
		}
	default:
		return Avaliacao{Decisao: DecisaoCarregando}
	}
}

// --- PAYWALL GATE ---

// PaywallGate protege conteúdo que exige assinatura ativa.
// Máquina de estados: carregando -> {liberado | negado}, e o negado se
// divide pela identidade: sem login vira ação de sign-in, com login vira
// ação de assinar.
type PaywallGate struct {
	provider *Provider
	checkout IniciadorCheckout
	cfg      GateConfig

	mu           sync.Mutex
	erroCheckout string
}

// NewPaywallGate aplica os padrões do gate de assinatura.
func NewPaywallGate(provider *Provider, checkout IniciadorCheckout, cfg GateConfig) (*PaywallGate, error) {
	if provider == nil {
		return nil, errors.New("provider é obrigatório")
	}
	if checkout == nil {
		return nil, errors.New("iniciador de checkout é obrigatório")
	}
	if cfg.CaminhoSignIn == "" {
		cfg.CaminhoSignIn = "/signin"
	}
	if cfg.Titulo == "" {
		cfg.Titulo = "Desbloqueie este conteúdo"
	}
	if cfg.Subtitulo == "" {
		cfg.Subtitulo = "Prometemos que vale a pena."
	}
	if cfg.TextoBotaoSignIn == "" {
		cfg.TextoBotaoSignIn = "Entre para assinar"
	}
	if cfg.TextoBotaoAssinar == "" {
		cfg.TextoBotaoAssinar = "Assinar agora"
	}
	return &PaywallGate{provider: provider, checkout: checkout, cfg: cfg}, nil
}

// Avaliar computa a decisão para o estado atual do provider.
func (g *PaywallGate) Avaliar(paginaAtual string) Avaliacao {
	estado := g.provider.Estado()

	g.mu.Lock()
	erroCheckout := g.erroCheckout
	g.mu.Unlock()

	var decisao Decisao
	switch {
	case estado.Carregando:
		decisao = DecisaoCarregando
	case estado.TemAcesso:
		decisao = DecisaoLiberado
	case estado.Email == "":
		decisao = DecisaoNaoAutenticado
	default:
		decisao = DecisaoSemAssinatura
	}

	switch decisao {
	case DecisaoLiberado:
		return Avaliacao{Decisao: decisao, MostrarConteudo: true}
	case DecisaoNaoAutenticado:
		return Avaliacao{
			Decisao:         decisao,
			PreviaBorrada:   !g.cfg.SemPreviaBorrada,
			UIPersonalizada: g.cfg.UIPersonalizada,
			Titulo:          g.cfg.Titulo,
			Subtitulo:       g.cfg.Subtitulo,
			TextoBotao:      g.cfg.TextoBotaoSignIn,
			URLSignIn:       montarURLSignIn(g.cfg.CaminhoSignIn, paginaAtual),
		}
	case DecisaoSemAssinatura:
		return Avaliacao{
			Decisao:         decisao,
			PreviaBorrada:   !g.cfg.SemPreviaBorrada,
			UIPersonalizada: g.cfg.UIPersonalizada,
			Titulo:          g.cfg.Titulo,
			Subtitulo:       g.cfg.Subtitulo,
			TextoBotao:      g.cfg.TextoBotaoAssinar,
			ErroCheckout:    erroCheckout,
		}
	default:
		return Avaliacao{Decisao: DecisaoCarregando}
	}
}

// Assinar inicia o checkout para o email atual e devolve a URL da sessão;
// a navegação para ela é uma ação terminal do lado do cliente. Em caso de
// falha, Avaliar passa a expor um erro reexecutável genérico.
func (g *PaywallGate) Assinar(ctx context.Context, paginaAtual string) (string, error) {
	estado := g.provider.Estado()
	if estado.Email == "" {
		return "", errors.New("assinar exige login")
	}

	urlCheckout, err := g.checkout.IniciarCheckout(ctx, estado.Email, paginaAtual)
	if err != nil {
		g.mu.Lock()
		g.erroCheckout = "Não foi possível iniciar o checkout. Tente novamente."
		g.mu.Unlock()
		return "", err
	}

	g.mu.Lock()
	g.erroCheckout = ""
	g.mu.Unlock()
	return urlCheckout, nil
}

// LimparErroCheckout zera o erro do botão de assinar.
func (g *PaywallGate) LimparErroCheckout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.erroCheckout = ""
}
