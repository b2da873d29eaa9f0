package db

import "time"

// now is swapped in tests to order entries deterministically.
var now = time.Now

// TouchRecentFile records that a todo file was opened
func (db *DB) TouchRecentFile(path string) error {
	_, err := db.Exec(`
		INSERT INTO recent_files (path, opened_at) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET opened_at = excluded.opened_at
	`, path, now().UnixNano())
	return err
}

// RecentFiles returns up to limit todo files, most recently opened first
func (db *DB) RecentFiles(limit int) ([]string, error) {
	rows, err := db.Query(`
		SELECT path FROM recent_files ORDER BY opened_at DESC, path LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
