package paywall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RespostaStatus é a resposta do endpoint de status do servidor.
type RespostaStatus struct {
	TemAcesso       bool       `json:"hasAccess"`
	Status          string     `json:"status"`
	FimPeriodoAtual *time.Time `json:"currentPeriodEnd"`
}

// IniciadorCheckout abstrai o endpoint de checkout para os gates.
type IniciadorCheckout interface {
	IniciarCheckout(ctx context.Context, email, callbackURL string) (string, error)
}

// ClienteHTTP fala com os endpoints do paywall no servidor.
// Os caminhos podem ser trocados quando a aplicação monta as rotas em
// outro lugar.
type ClienteHTTP struct {
	CaminhoStatus   string
	CaminhoCheckout string

	baseURL string
	http    *http.Client
}

// NewClienteHTTP cria o cliente com os caminhos padrão da API.
func NewClienteHTTP(baseURL string) *ClienteHTTP {
	return &ClienteHTTP{
		CaminhoStatus:   "/api/subscription/status",
		CaminhoCheckout: "/api/checkout",
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		http:            &http.Client{Timeout: 10 * time.Second},
	}
}

// ConsultarStatus implementa ConsultorStatus via GET no endpoint de status.
func (c *ClienteHTTP) ConsultarStatus(ctx context.Context, email string) (RespostaStatus, error) {
	endereco := c.baseURL + c.CaminhoStatus + "?email=" + url.QueryEscape(email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endereco, nil)
	if err != nil {
		return RespostaStatus{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return RespostaStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RespostaStatus{}, fmt.Errorf("consulta de status devolveu http %d", resp.StatusCode)
	}

	var resposta RespostaStatus
	if err := json.NewDecoder(resp.Body).Decode(&resposta); err != nil {
		return RespostaStatus{}, err
	}
	return resposta, nil
}

// IniciarCheckout implementa IniciadorCheckout via POST no endpoint de
// checkout. Devolve a URL da sessão para onde o navegador deve navegar.
func (c *ClienteHTTP) IniciarCheckout(ctx context.Context, email, callbackURL string) (string, error) {
	corpo, err := json.Marshal(map[string]string{
		"email":       email,
		"callbackUrl": callbackURL,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+c.CaminhoCheckout, bytes.NewReader(corpo))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("checkout devolveu http %d", resp.StatusCode)
	}

	var resposta struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&resposta); err != nil {
		return "", err
	}
	return resposta.URL, nil
}
