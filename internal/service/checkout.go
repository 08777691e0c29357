package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/willjrcristo/go-paywall/internal/billing"
	"github.com/willjrcristo/go-paywall/internal/domain"
	"github.com/willjrcristo/go-paywall/internal/repository"
)

// CriarSessaoCheckout valida o email e o caminho de retorno, garante que o
// usuário tenha um cliente na Stripe e abre a sessão de pagamento.
// Devolve a URL para onde o navegador deve ser redirecionado.
func (s *PaywallService) CriarSessaoCheckout(ctx context.Context, email, callbackURL string) (string, error) {
	emailNormalizado := NormalizarEmail(email)
	if emailNormalizado == "" {
		return "", ErrEmailObrigatorio
	}
	if !EmailValido(emailNormalizado) {
		return "", ErrEmailInvalido
	}

	caminhoRetorno, err := validarCallback(callbackURL)
	if err != nil {
		return "", err
	}

	clienteID, err := s.garantirCliente(ctx, emailNormalizado)
	if err != nil {
		slog.Error("falha ao garantir cliente na stripe",
			"email", mascararEmail(emailNormalizado), "error", err)
		return "", err
	}

	urlSucesso, urlCancelamento := s.montarURLsCheckout(caminhoRetorno)

	// Balde de tempo de um minuto: submissões duplicadas em sequência
	// reutilizam a mesma chave e não criam duas sessões.
	chaveIdempotencia := fmt.Sprintf("checkout_%s_%s_%d",
		clienteID, s.cfg.PriceID, time.Now().Unix()/60)

	url, err := s.billing.CriarSessaoCheckout(ctx, billing.SessaoCheckout{
		ClienteID:         clienteID,
		PriceID:           s.cfg.PriceID,
		URLSucesso:        urlSucesso,
		URLCancelamento:   urlCancelamento,
		Email:             emailNormalizado,
		ChaveIdempotencia: chaveIdempotencia,
		ModoTeste:         s.cfg.ModoTeste,
	})
	if err != nil {
		slog.Error("falha ao criar a sessão de checkout na stripe",
			"email", mascararEmail(emailNormalizado), "price_id", s.cfg.PriceID, "error", err)
		return "", err
	}
	return url, nil
}

// garantirCliente devolve o ID do cliente Stripe do email, criando o
// cliente (e o usuário, se preciso) na primeira vez.
func (s *PaywallService) garantirCliente(ctx context.Context, email string) (string, error) {
	usuario, err := s.repo.BuscarUsuarioPorEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if usuario != nil && usuario.StripeClienteID != "" {
		return usuario.StripeClienteID, nil
	}

	clienteID, err := s.billing.CriarCliente(ctx, email)
	if err != nil {
		return "", err
	}

	if usuario != nil {
		usuario.StripeClienteID = clienteID
		if err := s.repo.AtualizarUsuario(ctx, *usuario); err != nil {
			return "", err
		}
		return clienteID, nil
	}

	err = s.repo.CriarUsuario(ctx, domain.Usuario{
		ID:              uuid.NewString(),
		Email:           email,
		StripeClienteID: clienteID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailDuplicado) {
			// Corrida: outra requisição criou o usuário entre a nossa busca
			// e o insert. Reaproveitamos o cliente que ela gravou.
			existente, buscaErr := s.repo.BuscarUsuarioPorEmail(ctx, email)
			if buscaErr != nil {
				return "", buscaErr
			}
			if existente != nil && existente.StripeClienteID != "" {
				return existente.StripeClienteID, nil
			}
			return "", fmt.Errorf("não foi possível obter o cliente stripe após a corrida de criação")
		}
		return "", err
	}
	return clienteID, nil
}

// montarURLsCheckout constrói as URLs de retorno a partir da base da
// aplicação. A de sucesso carrega o placeholder de sessão, que a Stripe
// substitui pelo ID real.
func (s *PaywallService) montarURLsCheckout(caminhoRetorno string) (urlSucesso, urlCancelamento string) {
	if caminhoRetorno == "" {
		return s.cfg.AppURL + "/?session_id={CHECKOUT_SESSION_ID}", s.cfg.AppURL + "/"
	}
	return s.cfg.AppURL + caminhoRetorno + "?session_id={CHECKOUT_SESSION_ID}",
		s.cfg.AppURL + caminhoRetorno
}
