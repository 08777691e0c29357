package service

import (
	"context"
	"time"

	"github.com/willjrcristo/go-paywall/internal/domain"
)

// StatusAcesso é a decisão de acesso derivada da assinatura mais recente
// do usuário. Os nomes JSON seguem o contrato do SDK no navegador.
type StatusAcesso struct {
	TemAcesso       bool       `json:"hasAccess"`
	Status          string     `json:"status"`
	FimPeriodoAtual *time.Time `json:"currentPeriodEnd"`
}

// ConsultarStatus busca usuário e assinatura em uma única leitura e decide
// o acesso. Usuário inexistente ou sem assinatura NÃO é erro: devolve
// o status sintético "no_subscription" com acesso negado.
func (s *PaywallService) ConsultarStatus(ctx context.Context, email string) (StatusAcesso, error) {
	emailNormalizado := NormalizarEmail(email)
	if emailNormalizado == "" {
		return StatusAcesso{}, ErrEmailObrigatorio
	}
	if !EmailValido(emailNormalizado) {
		return StatusAcesso{}, ErrEmailInvalido
	}

	resultado, err := s.repo.BuscarUsuarioComAssinatura(ctx, emailNormalizado)
	if err != nil {
		return StatusAcesso{}, err
	}
	if resultado == nil || resultado.Assinatura == nil {
		return StatusAcesso{
			TemAcesso: false,
			Status:    domain.StatusSemAssinatura,
		}, nil
	}

	assinatura := resultado.Assinatura
	return StatusAcesso{
		TemAcesso:       assinatura.ConcedeAcesso(s.cfg.StatusPermitidos),
		Status:          assinatura.Status,
		FimPeriodoAtual: assinatura.FimPeriodoAtual,
	}, nil
}
