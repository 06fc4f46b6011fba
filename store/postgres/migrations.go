package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the taskguard store (PostgreSQL).
var Migrations = migrate.NewGroup("taskguard")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_permissions",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS taskguard_permissions (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    app_id          TEXT NOT NULL DEFAULT '',
    name            TEXT NOT NULL,
    slug            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    group_name      TEXT NOT NULL DEFAULT '',
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE(tenant_id, slug)
);

CREATE INDEX IF NOT EXISTS idx_taskguard_permissions_group ON taskguard_permissions (tenant_id, group_name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS taskguard_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_roles",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS taskguard_roles (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    app_id          TEXT NOT NULL DEFAULT '',
    name            TEXT NOT NULL,
    slug            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    is_system       BOOLEAN NOT NULL DEFAULT FALSE,
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE(tenant_id, slug)
);

CREATE INDEX IF NOT EXISTS idx_taskguard_roles_system ON taskguard_roles (tenant_id, is_system);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS taskguard_roles`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_role_permission",
			Version: "20250301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS taskguard_role_permission (
    role_id         TEXT NOT NULL REFERENCES taskguard_roles(id) ON DELETE CASCADE,
    permission_id   TEXT NOT NULL REFERENCES taskguard_permissions(id) ON DELETE CASCADE,

    PRIMARY KEY (role_id, permission_id)
);

CREATE INDEX IF NOT EXISTS idx_taskguard_role_perm_perm ON taskguard_role_permission (permission_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS taskguard_role_permission`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_role_user",
			Version: "20250301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				// entity_type/entity_id are both NULL for a global assignment.
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS taskguard_role_user (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    app_id          TEXT NOT NULL DEFAULT '',
    role_id         TEXT NOT NULL REFERENCES taskguard_roles(id) ON DELETE CASCADE,
    user_id         TEXT NOT NULL,
    entity_type     TEXT,
    entity_id       TEXT,
    granted_by      TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_taskguard_role_user_unique ON taskguard_role_user
    (tenant_id, role_id, user_id, (COALESCE(entity_type, '')), (COALESCE(entity_id, '')));
CREATE INDEX IF NOT EXISTS idx_taskguard_role_user_user ON taskguard_role_user (tenant_id, user_id);
CREATE INDEX IF NOT EXISTS idx_taskguard_role_user_entity ON taskguard_role_user (tenant_id, entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_taskguard_role_user_role ON taskguard_role_user (role_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS taskguard_role_user`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_memberships",
			Version: "20250301000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS taskguard_memberships (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    app_id          TEXT NOT NULL DEFAULT '',
    entity_type     TEXT NOT NULL,
    entity_id       TEXT NOT NULL,
    user_id         TEXT NOT NULL,
    role            TEXT NOT NULL DEFAULT 'member',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    deleted_at      TIMESTAMPTZ,

    UNIQUE(tenant_id, entity_type, entity_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_taskguard_memberships_user ON taskguard_memberships (tenant_id, user_id);
CREATE INDEX IF NOT EXISTS idx_taskguard_memberships_active ON taskguard_memberships (tenant_id, entity_type, entity_id) WHERE deleted_at IS NULL;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS taskguard_memberships`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_check_logs",
			Version: "20250301000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS taskguard_check_logs (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    app_id          TEXT NOT NULL DEFAULT '',
    user_id         TEXT NOT NULL,
    action          TEXT NOT NULL,
    resource_type   TEXT NOT NULL DEFAULT '',
    resource_id     TEXT NOT NULL DEFAULT '',
    permission      TEXT NOT NULL DEFAULT '',
    decision        TEXT NOT NULL,
    reason          TEXT NOT NULL DEFAULT '',
    eval_time_ns    BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_taskguard_clogs_user ON taskguard_check_logs (tenant_id, user_id);
CREATE INDEX IF NOT EXISTS idx_taskguard_clogs_resource ON taskguard_check_logs (tenant_id, resource_type, resource_id);
CREATE INDEX IF NOT EXISTS idx_taskguard_clogs_decision ON taskguard_check_logs (tenant_id, decision);
CREATE INDEX IF NOT EXISTS idx_taskguard_clogs_created ON taskguard_check_logs (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS taskguard_check_logs`)
				return err
			},
		},
	)
}
