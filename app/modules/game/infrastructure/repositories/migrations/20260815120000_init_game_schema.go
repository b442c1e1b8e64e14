package gamemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS games (
				id BIGSERIAL PRIMARY KEY,
				admin TEXT NOT NULL,
				start TIMESTAMPTZ NOT NULL,
				"end" TIMESTAMPTZ NOT NULL,
				num_rounds INTEGER NOT NULL,
				round_length BIGINT NOT NULL,
				announcement_channel TEXT,
				announcement_ref TEXT,
				canceled BOOLEAN NOT NULL DEFAULT FALSE,
				state TEXT NOT NULL,
				current_round INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE IF NOT EXISTS game_rounds (
				game_id BIGINT NOT NULL REFERENCES games (id) ON DELETE CASCADE,
				number INTEGER NOT NULL,
				rule_id INTEGER NOT NULL,
				start TIMESTAMPTZ NOT NULL,
				"end" TIMESTAMPTZ NOT NULL,
				fields INTEGER NOT NULL,
				soldiers INTEGER NOT NULL,
				canceled BOOLEAN NOT NULL DEFAULT FALSE,
				PRIMARY KEY (game_id, number)
			);

			CREATE TABLE IF NOT EXISTS participants (
				game_id BIGINT NOT NULL REFERENCES games (id) ON DELETE CASCADE,
				user_id TEXT NOT NULL,
				PRIMARY KEY (game_id, user_id)
			);

			CREATE TABLE IF NOT EXISTS submissions (
				id BIGSERIAL PRIMARY KEY,
				game_id BIGINT NOT NULL,
				user_id TEXT NOT NULL,
				round_number INTEGER NOT NULL,
				field INTEGER NOT NULL,
				soldiers INTEGER NOT NULL,
				submitted_at TIMESTAMPTZ NOT NULL,
				FOREIGN KEY (game_id, user_id) REFERENCES participants (game_id, user_id) ON DELETE CASCADE,
				FOREIGN KEY (game_id, round_number) REFERENCES game_rounds (game_id, number) ON DELETE CASCADE
			);

			CREATE INDEX IF NOT EXISTS submissions_round_idx
				ON submissions (game_id, round_number, submitted_at, id);

			CREATE TABLE IF NOT EXISTS round_results (
				game_id BIGINT NOT NULL,
				user_id TEXT NOT NULL,
				round_number INTEGER NOT NULL,
				score DOUBLE PRECISION NOT NULL,
				rank INTEGER NOT NULL,
				PRIMARY KEY (game_id, user_id, round_number),
				FOREIGN KEY (game_id, user_id) REFERENCES participants (game_id, user_id) ON DELETE CASCADE,
				FOREIGN KEY (game_id, round_number) REFERENCES game_rounds (game_id, number) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS game_results (
				game_id BIGINT NOT NULL,
				user_id TEXT NOT NULL,
				score DOUBLE PRECISION NOT NULL,
				rank INTEGER NOT NULL,
				PRIMARY KEY (game_id, user_id),
				FOREIGN KEY (game_id, user_id) REFERENCES participants (game_id, user_id) ON DELETE CASCADE
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create game schema: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS game_results;
			DROP TABLE IF EXISTS round_results;
			DROP TABLE IF EXISTS submissions;
			DROP TABLE IF EXISTS participants;
			DROP TABLE IF EXISTS game_rounds;
			DROP TABLE IF EXISTS games;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop game schema: %w", err)
		}
		return nil
	})
}
