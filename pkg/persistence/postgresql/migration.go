package postgresql

// migrations returns the schema migrations keyed by version. Trigger, guard,
// environment and steps live in jsonb: they are documents, not relations.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				trigger JSONB NOT NULL,
				guard JSONB,
				env JSONB,
				steps JSONB NOT NULL,
				metadata JSONB,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMPTZ
			);

			CREATE INDEX IF NOT EXISTS idx_workflows_deleted_at ON workflows (deleted_at);
		`,
		2: `
			CREATE TABLE IF NOT EXISTS workflow_runs (
				id TEXT PRIMARY KEY,
				workflow_id TEXT NOT NULL REFERENCES workflows (id),
				status TEXT NOT NULL,
				event JSONB NOT NULL,
				environment JSONB,
				step_results JSONB,
				error TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				started_at TIMESTAMPTZ,
				finished_at TIMESTAMPTZ
			);

			CREATE INDEX IF NOT EXISTS idx_workflow_runs_workflow_id ON workflow_runs (workflow_id);
			CREATE INDEX IF NOT EXISTS idx_workflow_runs_status ON workflow_runs (status);
		`,
	}
}
