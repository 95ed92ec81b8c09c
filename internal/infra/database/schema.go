package database

// postgresSchema создает таблицы модулей, вопросов и прогресса в Postgres
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS modules (
                id BIGSERIAL PRIMARY KEY,
                title TEXT NOT NULL,
                description TEXT NOT NULL DEFAULT '',
                total_questions INTEGER NOT NULL CHECK (total_questions > 0),
                duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
                difficulty TEXT NOT NULL DEFAULT 'medium',
                created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS questions (
                id BIGSERIAL PRIMARY KEY,
                module_id BIGINT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
                title TEXT NOT NULL DEFAULT '',
                formula TEXT NOT NULL DEFAULT '',
                instruction TEXT NOT NULL DEFAULT '',
                options TEXT NOT NULL DEFAULT '[]',
                correct_answer TEXT NOT NULL DEFAULT ''
        )`,
	`CREATE INDEX IF NOT EXISTS questions_module_id_idx ON questions (module_id, id)`,
	`CREATE TABLE IF NOT EXISTS user_module_progress (
                id BIGSERIAL PRIMARY KEY,
                user_id BIGINT NOT NULL,
                module_id BIGINT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
                status TEXT NOT NULL CHECK (status IN ('in_progress', 'paused', 'completed')),
                remaining_seconds INTEGER NOT NULL DEFAULT 0 CHECK (remaining_seconds >= 0),
                right_answer INTEGER,
                wrong_answer INTEGER,
                started_at TIMESTAMPTZ,
                completed_at TIMESTAMPTZ,
                updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
                version INTEGER NOT NULL DEFAULT 1,
                UNIQUE (user_id, module_id)
        )`,
}

// sqliteSchema те же таблицы для SQLite
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS modules (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                title TEXT NOT NULL,
                description TEXT NOT NULL DEFAULT '',
                total_questions INTEGER NOT NULL CHECK (total_questions > 0),
                duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
                difficulty TEXT NOT NULL DEFAULT 'medium',
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
	`CREATE TABLE IF NOT EXISTS questions (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                module_id INTEGER NOT NULL,
                title TEXT NOT NULL DEFAULT '',
                formula TEXT NOT NULL DEFAULT '',
                instruction TEXT NOT NULL DEFAULT '',
                options TEXT NOT NULL DEFAULT '[]',
                correct_answer TEXT NOT NULL DEFAULT '',
                FOREIGN KEY (module_id) REFERENCES modules(id) ON DELETE CASCADE
        )`,
	`CREATE INDEX IF NOT EXISTS questions_module_id_idx ON questions (module_id, id)`,
	`CREATE TABLE IF NOT EXISTS user_module_progress (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                user_id INTEGER NOT NULL,
                module_id INTEGER NOT NULL,
                status TEXT NOT NULL CHECK (status IN ('in_progress', 'paused', 'completed')),
                remaining_seconds INTEGER NOT NULL DEFAULT 0 CHECK (remaining_seconds >= 0),
                right_answer INTEGER,
                wrong_answer INTEGER,
                started_at DATETIME,
                completed_at DATETIME,
                updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                version INTEGER NOT NULL DEFAULT 1,
                FOREIGN KEY (module_id) REFERENCES modules(id) ON DELETE CASCADE,
                UNIQUE (user_id, module_id)
        )`,
}
