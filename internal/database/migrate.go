package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/evgkirov/member-content-system/internal/auth"
	"github.com/evgkirov/member-content-system/internal/model"
)

// schema holds the DDL applied on startup in development mode. The email
// column uses a binary collation so lookups stay case-sensitive; the slug
// unique constraint is global on purpose — soft-deleted rows keep their
// slug reserved.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) NOT NULL PRIMARY KEY,
		email VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
		name VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('admin','member') NOT NULL DEFAULT 'member',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		token_version INT NOT NULL DEFAULT 1,
		force_logout_flag TINYINT(1) NOT NULL DEFAULT 0,
		last_device_id VARCHAR(255) NULL,
		last_login_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS categories (
		id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		description TEXT NULL,
		order_index INT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_categories_name (name)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS contents (
		id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL,
		category_id INT NULL,
		body TEXT NOT NULL,
		status ENUM('draft','published','archived') NOT NULL DEFAULT 'draft',
		author_id CHAR(36) NULL,
		meta_title VARCHAR(255) NULL,
		meta_description VARCHAR(255) NULL,
		cover_image_url VARCHAR(500) NULL,
		tags VARCHAR(255) NULL,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_contents_slug (slug),
		CONSTRAINT fk_contents_category FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL,
		CONSTRAINT fk_contents_author FOREIGN KEY (author_id) REFERENCES users(id) ON DELETE SET NULL
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS media_files (
		id CHAR(36) NOT NULL PRIMARY KEY,
		filename VARCHAR(255) NOT NULL,
		original_filename VARCHAR(255) NULL,
		url VARCHAR(500) NOT NULL,
		content_type VARCHAR(100) NOT NULL,
		size BIGINT NOT NULL,
		uploaded_by CHAR(36) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_media_url (url),
		CONSTRAINT fk_media_uploader FOREIGN KEY (uploaded_by) REFERENCES users(id) ON DELETE SET NULL
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS content_media (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		content_id INT NOT NULL,
		media_id CHAR(36) NOT NULL,
		UNIQUE KEY uq_content_media (content_id, media_id),
		CONSTRAINT fk_cm_content FOREIGN KEY (content_id) REFERENCES contents(id) ON DELETE CASCADE,
		CONSTRAINT fk_cm_media FOREIGN KEY (media_id) REFERENCES media_files(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id CHAR(36) NULL,
		action VARCHAR(100) NOT NULL,
		target_id VARCHAR(100) NULL,
		device_info TEXT NULL,
		ip_address VARCHAR(45) NULL,
		meta TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_audit_action_created (action, created_at),
		CONSTRAINT fk_audit_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
	) ENGINE=InnoDB`,
}

// Migrate applies the schema statements in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// SeedAdmin creates the initial admin account when the users table is
// empty so a fresh install is reachable. The password must be changed
// immediately; a warning is logged every time the seed runs.
func SeedAdmin(ctx context.Context, db *sql.DB, bcryptCost int) error {
	var count int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword("changeme", bcryptCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO users (id,email,name,password_hash,role,is_active) VALUES (?,?,?,?,?,1)",
		uuid.NewString(), "admin@example.com", "Administrator", hash, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Println("seeded initial admin account admin@example.com — change the password now")
	return nil
}
