package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres persists agents in a Postgres table so configuration survives
// restarts and is shared across gateway instances.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and applies pending migrations.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (p *Postgres) Put(ctx context.Context, cfg AgentConfig) error {
	cfg = fillDefaults(cfg)
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO agents (phone_number, system_prompt, voice_id, transcriber, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (phone_number) DO UPDATE SET
			system_prompt = EXCLUDED.system_prompt,
			voice_id      = EXCLUDED.voice_id,
			transcriber   = EXCLUDED.transcriber`,
		NormalizeNumber(cfg.PhoneNumber), cfg.SystemPrompt, cfg.VoiceID, cfg.Transcriber, cfg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save agent: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, phoneNumber string) (AgentConfig, error) {
	var cfg AgentConfig
	err := p.pool.QueryRow(ctx, `
		SELECT phone_number, system_prompt, voice_id, transcriber, created_at
		FROM agents WHERE phone_number = $1`,
		NormalizeNumber(phoneNumber),
	).Scan(&cfg.PhoneNumber, &cfg.SystemPrompt, &cfg.VoiceID, &cfg.Transcriber, &cfg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AgentConfig{}, ErrNotFound
	}
	if err != nil {
		return AgentConfig{}, fmt.Errorf("load agent: %w", err)
	}
	return cfg, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
