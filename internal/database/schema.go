package database

import (
	"context"
	"database/sql"
)

// schema holds the DDL for every table, in dependency order. Statements
// are idempotent so EnsureSchema can run on each startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email              VARCHAR(255)    NOT NULL,
		password_hash      VARCHAR(255)    NOT NULL,
		name               VARCHAR(255)    NULL,
		role               VARCHAR(16)     NOT NULL DEFAULT 'USER',
		refresh_token_hash CHAR(64)        NULL,
		refresh_expires_at DATETIME        NULL,
		created_at         DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at         DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email),
		KEY idx_users_refresh (refresh_token_hash)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS dictations (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title       VARCHAR(200)    NOT NULL,
		language    VARCHAR(8)      NOT NULL,
		description TEXT            NULL,
		is_public   TINYINT(1)      NOT NULL DEFAULT 0,
		author_id   BIGINT UNSIGNED NOT NULL,
		created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_dictations_author (author_id),
		KEY idx_dictations_public (is_public, created_at),
		CONSTRAINT fk_dictations_author FOREIGN KEY (author_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS words (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		text         VARCHAR(200)    NOT NULL,
		hint         VARCHAR(500)    NULL,
		audio_url    VARCHAR(500)    NULL,
		author_id    BIGINT UNSIGNED NOT NULL,
		dictation_id BIGINT UNSIGNED NOT NULL,
		created_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_words_dictation (dictation_id),
		KEY idx_words_author (author_id),
		CONSTRAINT fk_words_author FOREIGN KEY (author_id) REFERENCES users (id),
		CONSTRAINT fk_words_dictation FOREIGN KEY (dictation_id) REFERENCES dictations (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS dictation_practices (
		id            BIGINT UNSIGNED  NOT NULL AUTO_INCREMENT,
		user_id       BIGINT UNSIGNED  NOT NULL,
		dictation_id  BIGINT UNSIGNED  NOT NULL,
		score         TINYINT UNSIGNED NOT NULL,
		total_words   INT UNSIGNED     NOT NULL,
		correct_count INT UNSIGNED     NOT NULL,
		errors        JSON             NULL,
		created_at    DATETIME         NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_practices_user (user_id, created_at),
		KEY idx_practices_dictation (dictation_id),
		CONSTRAINT fk_practices_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_practices_dictation FOREIGN KEY (dictation_id) REFERENCES dictations (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing tables. It does not migrate existing
// ones; column changes still need a manual migration.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
