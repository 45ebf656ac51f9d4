// Package chunk splits extracted document text into model-size-bounded
// segments. Chunks are exact substrings of the input: concatenating
// them in order reproduces the original text byte for byte, so a run
// can be restarted from the same input and land on the same chunks.
package chunk

import "strings"

// Split cuts text into ordered chunks of at most maxSize bytes.
// Paragraph boundaries (blank lines) are preferred cut points; because
// serialized tables are single paragraphs, a table is never split
// unless it alone exceeds maxSize. Hard character cuts happen only
// when no boundary exists within the limit.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 || len(text) <= maxSize {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}

	for _, para := range paragraphs(text) {
		if cur.Len()+len(para) <= maxSize {
			cur.WriteString(para)
			continue
		}
		flush()
		if len(para) <= maxSize {
			cur.WriteString(para)
			continue
		}
		pieces := hardCut(para, maxSize)
		for i, piece := range pieces {
			if i < len(pieces)-1 {
				chunks = append(chunks, piece)
			} else {
				// Last piece seeds the next chunk so following
				// paragraphs can pack in with it.
				cur.WriteString(piece)
			}
		}
	}
	flush()

	return chunks
}

// paragraphs partitions text after each maximal run of two or more
// newlines, keeping the delimiter attached to the preceding paragraph.
func paragraphs(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); {
		if text[i] == '\n' && i+1 < len(text) && text[i+1] == '\n' {
			j := i
			for j < len(text) && text[j] == '\n' {
				j++
			}
			out = append(out, text[start:j])
			start = j
			i = j
			continue
		}
		i++
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// hardCut partitions an oversize paragraph into pieces of at most
// maxSize bytes, preferring a newline, then a space, near the limit.
func hardCut(para string, maxSize int) []string {
	var out []string
	for len(para) > maxSize {
		cut := maxSize
		window := para[:maxSize]
		if i := strings.LastIndexByte(window, '\n'); i > 0 {
			cut = i + 1
		} else if i := strings.LastIndexByte(window, ' '); i > 0 {
			cut = i + 1
		}
		out = append(out, para[:cut])
		para = para[cut:]
	}
	if para != "" {
		out = append(out, para)
	}
	return out
}
