package moderation

import (
	"bufio"
	"bytes"
	"chat-relay/errors"
	"embed"
	"io/fs"
	"strings"
)

//go:embed censored/*.txt
var censoredFS embed.FS

// Dictionary carries the loaded word list plus metadata for logging.
type Dictionary struct {
	Words     []string
	Languages []string
}

// LoadDictionary parses the embedded word lists, one .txt file per
// language ("en.txt" -> "en"), one word per line, into a unique word set.
func LoadDictionary() (*Dictionary, error) {
	entries, err := fs.ReadDir(censoredFS, "censored")
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := censoredFS.ReadFile("censored/" + entry.Name())
		if err != nil {
			return nil, err
		}

		// A scanner handles both \n and \r\n line endings correctly.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				uniqueWords[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}
	return &Dictionary{Words: words, Languages: languages}, nil
}
