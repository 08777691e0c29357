package service

import (
	"errors"
	"strings"

	"github.com/willjrcristo/go-paywall/internal/billing"
	"github.com/willjrcristo/go-paywall/internal/domain"
	"github.com/willjrcristo/go-paywall/internal/repository"
)

// Erros de negócio do paywall.
var (
	ErrEmailObrigatorio  = errors.New("email é obrigatório")
	ErrEmailInvalido     = errors.New("formato de email inválido")
	ErrCallbackInvalido  = errors.New("url de callback inválida")
	ErrAssinaturaWebhook = errors.New("falha na verificação da assinatura do webhook")
)

// Config reúne a configuração do serviço, com os padrões enumerados de
// forma explícita em vez de espalhados por parâmetros opcionais.
type Config struct {
	// PriceID é o preço/plano da Stripe para o qual o checkout aponta.
	PriceID string

	// AppURL é a base (http(s)://...) usada para montar as URLs de
	// sucesso e cancelamento do checkout.
	AppURL string

	// StatusPermitidos são os status de assinatura que concedem acesso.
	// Padrão: {"active", "trialing"}.
	StatusPermitidos []string

	// ModoTeste mostra o texto de ajuda com cartão de teste no checkout.
	ModoTeste bool
}

// PaywallService encapsula a lógica de negócio do paywall: checkout,
// consulta de status e reconciliação de webhooks.
type PaywallService struct {
	repo    repository.Repository
	billing billing.Gateway
	cfg     Config
}

// NewPaywallService valida as dependências e a configuração na construção.
// O contrato "falha se faltar algo" do provider original vira um erro aqui,
// em vez de uma falha em tempo de requisição.
func NewPaywallService(repo repository.Repository, gateway billing.Gateway, cfg Config) (*PaywallService, error) {
	if repo == nil {
		return nil, errors.New("repositório é obrigatório")
	}
	if gateway == nil {
		return nil, errors.New("gateway de cobrança é obrigatório")
	}
	if cfg.PriceID == "" {
		return nil, errors.New("price id da stripe é obrigatório")
	}
	if !strings.HasPrefix(cfg.AppURL, "http://") && !strings.HasPrefix(cfg.AppURL, "https://") {
		return nil, errors.New("app url deve começar com http:// ou https://")
	}
	if len(cfg.StatusPermitidos) == 0 {
		cfg.StatusPermitidos = domain.StatusComAcesso()
	}
	cfg.AppURL = strings.TrimSuffix(cfg.AppURL, "/")

	return &PaywallService{
		repo:    repo,
		billing: gateway,
		cfg:     cfg,
	}, nil
}
