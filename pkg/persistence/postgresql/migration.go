package postgresql

// migrations returns the versioned DDL for the bot schema store. The graph
// itself is kept as one JSONB document; the engine and validator always
// consume it whole, so per-node tables would only add join overhead.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS bot_schemas (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				graph JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_bot_schemas_deleted_at
				ON bot_schemas (deleted_at);
		`,
	}
}
