package output

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

const (
	// RunPrefix names generated run folders: <parent>/log_parser_NNNN.
	RunPrefix = "log_parser_"

	runDigits = 4
	maxRunNum = 9999
)

var runFolderRe = regexp.MustCompile(`^log_parser_(\d{4})$`)

// NextRunFolder creates and returns the next numbered run folder under
// parent. Numbering continues after the highest existing run; past 9999 it
// wraps to 0001, replacing whatever was there.
func NextRunFolder(parent string) (string, error) {
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("creating output parent %s: %w", parent, err)
	}

	next := highestRun(parent) + 1
	if next > maxRunNum {
		next = 1
	}

	path := filepath.Join(parent, fmt.Sprintf("%s%0*d", RunPrefix, runDigits, next))
	if err := os.RemoveAll(path); err != nil {
		return "", fmt.Errorf("clearing run folder %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("creating run folder %s: %w", path, err)
	}
	return path, nil
}

func highestRun(parent string) int {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return 0
	}

	highest := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m := runFolderRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest
}
