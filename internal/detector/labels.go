package detector

import (
	"bufio"
	"os"
	"strings"
)

// loadLabels reads the class label file, one label per line. Blank lines and
// lines starting with '#' are skipped.
func loadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	return labels, scanner.Err()
}
