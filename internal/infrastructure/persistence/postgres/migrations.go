package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_profiles",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_tasks_habits",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_blocks_courses",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

const migration001Up = `
CREATE TABLE profiles (
	user_id     TEXT PRIMARY KEY,
	total_xp    INTEGER NOT NULL DEFAULT 0 CHECK (total_xp >= 0),
	badges      JSONB NOT NULL DEFAULT '[]',
	preferences JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS profiles;
`

const migration002Up = `
CREATE TABLE tasks (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	due_at        TIMESTAMPTZ,
	effort_min    INTEGER NOT NULL DEFAULT 0,
	legacy_effort DOUBLE PRECISION NOT NULL DEFAULT 0,
	priority      TEXT NOT NULL DEFAULT 'medium',
	category      TEXT NOT NULL DEFAULT '',
	is_complete   BOOLEAN NOT NULL DEFAULT FALSE,
	completed_at  TIMESTAMPTZ,
	xp_value      INTEGER NOT NULL DEFAULT 0 CHECK (xp_value >= 0),
	course_id     TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL DEFAULT 'manual',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_tasks_user_incomplete ON tasks (user_id) WHERE NOT is_complete;

CREATE TABLE habits (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	title            TEXT NOT NULL,
	frequency        TEXT NOT NULL DEFAULT 'daily',
	target_days      JSONB NOT NULL DEFAULT '[]',
	duration_minutes INTEGER NOT NULL DEFAULT 0,
	xp_value         INTEGER NOT NULL DEFAULT 0 CHECK (xp_value >= 0),
	current_streak   INTEGER NOT NULL DEFAULT 0,
	longest_streak   INTEGER NOT NULL DEFAULT 0,
	total_done       INTEGER NOT NULL DEFAULT 0,
	history          JSONB NOT NULL DEFAULT '[]',
	is_active        BOOLEAN NOT NULL DEFAULT TRUE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_habits_user_active ON habits (user_id) WHERE is_active;
`

const migration002Down = `
DROP TABLE IF EXISTS habits;
DROP TABLE IF EXISTS tasks;
`

const migration003Up = `
CREATE TABLE schedule_blocks (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	date_key   TEXT NOT NULL,
	start_at   TIMESTAMPTZ NOT NULL,
	end_at     TIMESTAMPTZ NOT NULL,
	block_type TEXT NOT NULL,
	task_id    TEXT NOT NULL DEFAULT '',
	habit_id   TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'planned',
	reasoning  TEXT NOT NULL DEFAULT '',
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (confidence >= 0 AND confidence <= 1),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (end_at > start_at),
	CHECK (task_id = '' OR habit_id = '')
);

CREATE INDEX idx_blocks_user_date ON schedule_blocks (user_id, date_key);

CREATE TABLE courses (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	title         TEXT NOT NULL,
	days          JSONB NOT NULL DEFAULT '[]',
	start_time    TEXT NOT NULL DEFAULT '',
	end_time      TEXT NOT NULL DEFAULT '',
	meeting_times TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_courses_user ON courses (user_id);
`

const migration003Down = `
DROP TABLE IF EXISTS courses;
DROP TABLE IF EXISTS schedule_blocks;
`
