package migrations

import "gorm.io/gorm"

// Migration001Invocations creates the tool invocation audit table.
type Migration001Invocations struct{}

func (m *Migration001Invocations) Version() string {
	return "001"
}

func (m *Migration001Invocations) Description() string {
	return "Create tool_invocations table"
}

func (m *Migration001Invocations) Up(db *gorm.DB) error {
	sql := `
	CREATE TABLE IF NOT EXISTS tool_invocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id VARCHAR(64) NOT NULL DEFAULT '',
		tool VARCHAR(64) NOT NULL,
		input TEXT NOT NULL DEFAULT '',
		output TEXT NOT NULL DEFAULT '',
		detail JSON,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		succeeded BOOLEAN NOT NULL DEFAULT 1,
		error VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tool_invocations_session ON tool_invocations(session_id);
	CREATE INDEX IF NOT EXISTS idx_tool_invocations_tool ON tool_invocations(tool);
	CREATE INDEX IF NOT EXISTS idx_tool_invocations_created_at ON tool_invocations(created_at);
	`
	return db.Exec(sql).Error
}

func (m *Migration001Invocations) Down(db *gorm.DB) error {
	return db.Exec(`DROP TABLE IF EXISTS tool_invocations;`).Error
}
