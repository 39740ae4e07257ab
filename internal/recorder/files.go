package recorder

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/gareth0712/hyperliquid-client/internal/schema"
)

const dateLayout = "2006-01-02"

func (s *Store) dateDir() string {
	return filepath.Join(s.cfg.Dir, s.date)
}

func (s *Store) rawPath(account schema.Account) string {
	return filepath.Join(s.dateDir(), "raw_"+account.Key()+".jsonl")
}

func (s *Store) lowestLogPath(account schema.Account) string {
	return filepath.Join(s.dateDir(), "lowest_"+account.Key()+".jsonl")
}

func (s *Store) historyPath(account schema.Account) string {
	return filepath.Join(s.dateDir(), "history_"+account.Key()+".jsonl")
}

func (s *Store) lowestSnapshotPath(account schema.Account) string {
	return filepath.Join(s.dateDir(), "lowest_"+account.Key()+".json")
}

// writeFileAtomic replaces path with data through a temp file and rename, so
// a completed write always leaves a fully valid file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// readFileIfExists loads a whole file, returning nil data for a missing one.
func readFileIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// readLines loads a JSONL file. A missing file yields no lines and no error.
func readLines(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var lines [][]byte
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		out := make([]byte, len(line))
		copy(out, line)
		lines = append(lines, out)
	}
	return lines, nil
}

func joinLines(lines [][]byte) []byte {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
