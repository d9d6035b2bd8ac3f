package segmenter

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"discoseg/internal/corpus"
	"discoseg/internal/tree"
)

// decode converts raw file bytes from the configured encoding to UTF-8.
func decode(data []byte, enc string) (string, error) {
	switch strings.ToLower(enc) {
	case "", "utf-8", "utf8":
		return string(data), nil
	case "latin-1", "iso-8859-1":
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		return string(out), err
	case "windows-1251":
		out, err := charmap.Windows1251.NewDecoder().Bytes(data)
		return string(out), err
	case "windows-1252":
		out, err := charmap.Windows1252.NewDecoder().Bytes(data)
		return string(out), err
	default:
		return "", fmt.Errorf("unsupported encoding %q", enc)
	}
}

func readText(path, enc string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text, err := decode(data, enc)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return text, nil
}

// bracketedReader parses a file of bracketed trees. Each top-level tree is
// one elementary unit, keyed by the leaf offset of its first token.
func bracketedReader(enc string) corpus.TreeReader {
	return func(path string) (map[int]*tree.Node, error) {
		text, err := readText(path, enc)
		if err != nil {
			return nil, err
		}
		forest, err := tree.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		out := make(map[int]*tree.Node, len(forest))
		offset := 0
		for _, n := range forest {
			out[offset] = n
			offset += len(n.Leaves())
		}
		return out, nil
	}
}

// lineTreeReader treats each non-empty line as one flat elementary unit of
// whitespace tokens (rule-based variant input).
func lineTreeReader(enc string) corpus.TreeReader {
	return func(path string) (map[int]*tree.Node, error) {
		text, err := readText(path, enc)
		if err != nil {
			return nil, err
		}
		out := make(map[int]*tree.Node)
		offset := 0
		sc := bufio.NewScanner(strings.NewReader(text))
		for sc.Scan() {
			toks := strings.Fields(sc.Text())
			if len(toks) == 0 {
				continue
			}
			n := &tree.Node{Label: "LINE"}
			for _, t := range toks {
				n.Children = append(n.Children, &tree.Node{Token: t})
			}
			out[offset] = n
			offset += len(toks)
		}
		return out, sc.Err()
	}
}

// dependencyReader parses CoNLL-style token lines (ID FORM HEAD DEPREL,
// whitespace-separated, blank line between sentences). Each sentence becomes
// one elementary unit whose children carry the dependency relation labels.
func dependencyReader(enc string) corpus.TreeReader {
	return func(path string) (map[int]*tree.Node, error) {
		text, err := readText(path, enc)
		if err != nil {
			return nil, err
		}
		out := make(map[int]*tree.Node)
		offset := 0
		sent := &tree.Node{Label: "S"}
		flush := func() {
			if len(sent.Children) > 0 {
				out[offset] = sent
				offset += len(sent.Leaves())
				sent = &tree.Node{Label: "S"}
			}
		}
		sc := bufio.NewScanner(strings.NewReader(text))
		lineNo := 0
		for sc.Scan() {
			lineNo++
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				flush()
				continue
			}
			if strings.HasPrefix(line, "#") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, fmt.Errorf("%s:%d: want at least ID and FORM, got %q", path, lineNo, line)
			}
			rel := "dep"
			if len(fields) >= 4 {
				rel = fields[3]
			}
			sent.Children = append(sent.Children, &tree.Node{
				Label:    rel,
				Children: []*tree.Node{{Token: fields[1]}},
			})
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		flush()
		return out, nil
	}
}

// segmentReader parses gold label files: one "TOKEN-INDEX LABEL" entry per
// line, '#' comments and blank lines skipped.
func segmentReader(enc string) corpus.SegmentReader {
	return func(path string) (map[int]string, error) {
		text, err := readText(path, enc)
		if err != nil {
			return nil, err
		}
		out := make(map[int]string)
		sc := bufio.NewScanner(strings.NewReader(text))
		lineNo := 0
		for sc.Scan() {
			lineNo++
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return nil, fmt.Errorf("%s:%d: want \"INDEX LABEL\", got %q", path, lineNo, line)
			}
			idx, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("%s:%d: bad token index: %w", path, lineNo, err)
			}
			out[idx] = fields[1]
		}
		return out, sc.Err()
	}
}
