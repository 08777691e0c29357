package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/willjrcristo/go-paywall/internal/domain"
)

// sqliteRepository é a implementação do Repository para SQLite.
// Ela precisa de uma conexão com o banco de dados (*sql.DB) para funcionar.
type sqliteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository é uma "fábrica" que cria uma nova instância do nosso repositório.
// É assim que vamos injetar a dependência do banco de dados no nosso repositório.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{
		db: db,
	}
}

// --- USUÁRIOS ---

func (r *sqliteRepository) BuscarUsuarioPorEmail(ctx context.Context, email string) (*domain.Usuario, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, email, stripe_cliente_id, criado_em FROM usuarios WHERE email = ?", email)
	return lerUsuario(row)
}

func (r *sqliteRepository) BuscarUsuarioPorClienteID(ctx context.Context, clienteID string) (*domain.Usuario, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, email, stripe_cliente_id, criado_em FROM usuarios WHERE stripe_cliente_id = ?", clienteID)
	return lerUsuario(row)
}

func lerUsuario(row *sql.Row) (*domain.Usuario, error) {
	var u domain.Usuario
	var clienteID sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &clienteID, &u.CriadoEm); err != nil {
		// É uma boa prática tratar o erro 'sql.ErrNoRows' separadamente.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Retorna nil, nil se o usuário não for encontrado.
		}
		return nil, err
	}
	u.StripeClienteID = clienteID.String
	return &u, nil
}

func (r *sqliteRepository) CriarUsuario(ctx context.Context, usuario domain.Usuario) error {
	stmt, err := r.db.PrepareContext(ctx,
		"INSERT INTO usuarios(id, email, stripe_cliente_id, criado_em) VALUES(?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	criadoEm := usuario.CriadoEm
	if criadoEm.IsZero() {
		criadoEm = time.Now().UTC()
	}

	_, err = stmt.ExecContext(ctx, usuario.ID, usuario.Email, usuario.StripeClienteID, criadoEm)
	if err != nil {
		// Traduz a violação de UNIQUE(email) para o nosso erro sentinela,
		// que o serviço de checkout sabe resolver com uma nova busca.
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s", ErrEmailDuplicado, usuario.Email)
		}
		return err
	}
	return nil
}

func (r *sqliteRepository) AtualizarUsuario(ctx context.Context, usuario domain.Usuario) error {
	stmt, err := r.db.PrepareContext(ctx,
		"UPDATE usuarios SET email = ?, stripe_cliente_id = ? WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, usuario.Email, usuario.StripeClienteID, usuario.ID)
	return err
}

// --- ASSINATURAS ---

func (r *sqliteRepository) BuscarUsuarioComAssinatura(ctx context.Context, email string) (*UsuarioComAssinatura, error) {
	// LEFT JOIN: usuário sem assinatura ainda é um resultado válido.
	// Com mais de uma assinatura, levamos a primeira linha do join; a
	// ordenação por criado_em/id só serve para tornar a escolha determinística.
	row := r.db.QueryRowContext(ctx, `
		SELECT u.id,
		       a.id, a.usuario_id, a.stripe_cliente_id, a.status, a.price_id,
		       a.fim_periodo_atual, a.cancela_ao_fim_periodo, a.criado_em, a.atualizado_em
		FROM usuarios u
		LEFT JOIN assinaturas a ON a.usuario_id = u.id
		WHERE u.email = ?
		ORDER BY a.criado_em DESC, a.id
		LIMIT 1`, email)

	var resultado UsuarioComAssinatura
	var (
		id, usuarioID, clienteID, status, priceID sql.NullString
		fimPeriodo, criadoEm, atualizadoEm        sql.NullTime
		cancelaAoFim                              sql.NullBool
	)
	err := row.Scan(&resultado.UsuarioID,
		&id, &usuarioID, &clienteID, &status, &priceID,
		&fimPeriodo, &cancelaAoFim, &criadoEm, &atualizadoEm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if id.Valid {
		a := domain.Assinatura{
			ID:                  id.String,
			UsuarioID:           usuarioID.String,
			StripeClienteID:     clienteID.String,
			Status:              status.String,
			PriceID:             priceID.String,
			CancelaAoFimPeriodo: cancelaAoFim.Bool,
			CriadoEm:            criadoEm.Time,
			AtualizadoEm:        atualizadoEm.Time,
		}
		if fimPeriodo.Valid {
			fim := fimPeriodo.Time
			a.FimPeriodoAtual = &fim
		}
		resultado.Assinatura = &a
	}
	return &resultado, nil
}

func (r *sqliteRepository) UpsertAssinatura(ctx context.Context, assinatura domain.Assinatura) error {
	// Sobrescrita completa chaveada pelo ID: aplicar o mesmo evento N vezes
	// produz o mesmo estado final. Em conflito, criado_em e usuario_id não
	// mudam (o ID de uma assinatura nunca é reatribuído a outro usuário).
	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO assinaturas
			(id, usuario_id, stripe_cliente_id, status, price_id,
			 fim_periodo_atual, cancela_ao_fim_periodo, criado_em, atualizado_em)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			stripe_cliente_id      = excluded.stripe_cliente_id,
			status                 = excluded.status,
			price_id               = excluded.price_id,
			fim_periodo_atual      = excluded.fim_periodo_atual,
			cancela_ao_fim_periodo = excluded.cancela_ao_fim_periodo,
			atualizado_em          = excluded.atualizado_em`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var fimPeriodo any
	if assinatura.FimPeriodoAtual != nil {
		fimPeriodo = *assinatura.FimPeriodoAtual
	}

	_, err = stmt.ExecContext(ctx,
		assinatura.ID, assinatura.UsuarioID, assinatura.StripeClienteID,
		assinatura.Status, assinatura.PriceID, fimPeriodo,
		assinatura.CancelaAoFimPeriodo, assinatura.CriadoEm, assinatura.AtualizadoEm)
	return err
}

func (r *sqliteRepository) AtualizarStatusAssinatura(ctx context.Context, id, status string) error {
	stmt, err := r.db.PrepareContext(ctx,
		"UPDATE assinaturas SET status = ?, atualizado_em = ? WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	// Zero linhas afetadas não é erro: cancelar uma assinatura que não
	// existe no banco é vacuamente satisfeito.
	_, err = stmt.ExecContext(ctx, status, time.Now().UTC(), id)
	return err
}
