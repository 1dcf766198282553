package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sat-prep-service/internal/domain"
)

// BankLoader loads question banks stored as JSONB rows in Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context, subject domain.Subject, difficulty domain.Difficulty) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx,
		`SELECT questions FROM question_banks WHERE subject=$1 AND difficulty=$2`,
		string(subject), string(difficulty),
	).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrBankNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	var bank []domain.Question
	if err := json.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("unmarshal bank: %w", err)
	}
	return bank, nil
}
