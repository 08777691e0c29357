package service

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Validação de email no formato local@dominio.tld: sem espaços, sem pontos
// consecutivos e com tamanho total entre 5 e 254 (limite da RFC 5321).
var regexEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// NormalizarEmail remove espaços das pontas e converte para minúsculas.
// É idempotente: normalizar duas vezes dá o mesmo resultado.
func NormalizarEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailValido aplica a checagem conservadora de formato. Espera receber o
// email já normalizado.
func EmailValido(email string) bool {
	if len(email) < 5 || len(email) > 254 {
		return false
	}
	if strings.Contains(email, "..") {
		return false
	}
	return regexEmail.MatchString(email)
}

// validarCallback garante que o caminho de retorno não possa ser usado como
// open redirect. Aceita apenas caminhos relativos, sem esquema, sem prefixo
// "//" e sem segmentos ".." (checado após decodificar, para pegar "%2e%2e").
// Caminho vazio é válido e significa "usar a raiz".
func validarCallback(caminho string) (string, error) {
	if caminho == "" {
		return "", nil
	}

	decodificado, err := url.PathUnescape(caminho)
	if err != nil {
		return "", fmt.Errorf("%w: codificação inválida", ErrCallbackInvalido)
	}

	if strings.HasPrefix(decodificado, "http://") ||
		strings.HasPrefix(decodificado, "https://") ||
		strings.HasPrefix(decodificado, "//") {
		return "", fmt.Errorf("%w: deve ser um caminho relativo", ErrCallbackInvalido)
	}

	if strings.Contains(decodificado, "..") {
		return "", fmt.Errorf("%w: não pode conter '..'", ErrCallbackInvalido)
	}

	if !strings.HasPrefix(decodificado, "/") {
		decodificado = "/" + decodificado
	}
	return decodificado, nil
}

// mascararEmail reduz o email a um formato seguro para logs (sem PII completa).
func mascararEmail(email string) string {
	arroba := strings.Index(email, "@")
	if arroba <= 0 {
		return "desconhecido"
	}
	local := email[:arroba]
	if len(local) > 3 {
		local = local[:3]
	}
	return local + "***@" + email[arroba+1:]
}
