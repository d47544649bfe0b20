package blob

import "strings"

// Split fragments text into line-bounded blobs of at most maxLines
// lines each. Files at or under maxLines produce a
// single blob with Fragment -1 (unsplit). Larger files produce
// consecutive, non-overlapping fragments numbered from 0; the final
// fragment is never empty (a file whose line count divides evenly by
// maxLines does not get a trailing empty fragment).
func Split(path, text string, maxLines int) []Blob {
	if maxLines <= 0 {
		maxLines = 1
	}

	lines := splitLinesKeepEnds(text)

	if len(lines) <= maxLines {
		return []Blob{New(path, -1, text)}
	}

	var blobs []Blob
	fragment := 0
	for start := 0; start < len(lines); start += maxLines {
		end := start + maxLines
		if end > len(lines) {
			end = len(lines)
		}
		chunk := strings.Join(lines[start:end], "")
		blobs = append(blobs, New(path, fragment, chunk))
		fragment++
	}
	return blobs
}

// splitLinesKeepEnds splits text into lines, retaining each line's
// trailing newline so that rejoining fragments reproduces the
// original byte sequence exactly.
func splitLinesKeepEnds(text string) []string {
	if text == "" {
		return nil
	}

	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
