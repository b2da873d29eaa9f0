package db

const filterKeyPrefix = "filter:"

// CollapsedNodes returns the collapsed project paths for a todo file
func (db *DB) CollapsedNodes(todoFile string) (map[string]bool, error) {
	rows, err := db.Query(`
		SELECT full_path FROM collapsed_nodes WHERE todo_file = ?
	`, todoFile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collapsed := make(map[string]bool)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		collapsed[path] = true
	}
	return collapsed, rows.Err()
}

// SetCollapsed records or clears the collapsed state of a project path
func (db *DB) SetCollapsed(todoFile, fullPath string, collapsed bool) error {
	if !collapsed {
		_, err := db.Exec(`
			DELETE FROM collapsed_nodes WHERE todo_file = ? AND full_path = ?
		`, todoFile, fullPath)
		return err
	}

	_, err := db.Exec(`
		INSERT INTO collapsed_nodes (todo_file, full_path) VALUES (?, ?)
		ON CONFLICT(todo_file, full_path) DO NOTHING
	`, todoFile, fullPath)
	return err
}

// ActiveFilter returns the project path last selected for a todo file.
// An empty string means all tasks.
func (db *DB) ActiveFilter(todoFile string) (string, error) {
	return db.GetSetting(filterKeyPrefix + todoFile)
}

// SetActiveFilter stores the selected project path for a todo file
func (db *DB) SetActiveFilter(todoFile, fullPath string) error {
	if fullPath == "" {
		return db.DeleteSetting(filterKeyPrefix + todoFile)
	}
	return db.SetSetting(filterKeyPrefix+todoFile, fullPath)
}
