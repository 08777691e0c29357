package repository

import (
	"context"
	"errors"

	"github.com/willjrcristo/go-paywall/internal/domain"
)

// ErrEmailDuplicado é devolvido por CriarUsuario quando outro usuário já
// possui o mesmo email. O serviço de checkout usa este erro para resolver
// a corrida de duas criações simultâneas para o mesmo email novo.
var ErrEmailDuplicado = errors.New("já existe um usuário com este email")

// UsuarioComAssinatura é o resultado da busca combinada usada pela
// consulta de status: o usuário e, se houver, uma assinatura dele.
type UsuarioComAssinatura struct {
	UsuarioID  string
	Assinatura *domain.Assinatura
}

// Repository define a interface de persistência do paywall.
// Usar uma interface nos permite 'mockar' a persistência em testes e trocar
// a implementação do banco de dados facilmente.
//
// Convenção herdada do restante do projeto: buscas devolvem (nil, nil)
// quando o registro não existe — ausência não é erro.
type Repository interface {
	BuscarUsuarioPorEmail(ctx context.Context, email string) (*domain.Usuario, error)
	BuscarUsuarioPorClienteID(ctx context.Context, clienteID string) (*domain.Usuario, error)
	CriarUsuario(ctx context.Context, usuario domain.Usuario) error
	AtualizarUsuario(ctx context.Context, usuario domain.Usuario) error

	// BuscarUsuarioComAssinatura faz a leitura combinada usuário+assinatura
	// em uma única consulta. Se o usuário tiver mais de uma assinatura,
	// devolve a primeira linha do join da implementação.
	BuscarUsuarioComAssinatura(ctx context.Context, email string) (*UsuarioComAssinatura, error)

	// UpsertAssinatura grava a assinatura sobrescrevendo TODOS os campos
	// mutáveis, chaveada pelo ID. Em atualização, criado_em não muda.
	UpsertAssinatura(ctx context.Context, assinatura domain.Assinatura) error

	// AtualizarStatusAssinatura troca só o status (e atualizado_em).
	// Se o ID não existir, é um no-op, não um erro.
	AtualizarStatusAssinatura(ctx context.Context, id, status string) error
}
