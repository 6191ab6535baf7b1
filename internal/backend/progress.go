package backend

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
)

// ffmpeg reports elapsed time on stderr as "time=HH:MM:SS.cc".
var timeMarker = regexp.MustCompile(`time=(\d+):(\d+):(\d+)`)

// scanProgress drains the process error stream line by line while the
// process runs, converting elapsed-time markers into 0-1 fractions.
// The stream is drained even when callback or duration are absent so
// the external process never blocks on a full pipe. The last few lines
// are retained for error reporting.
//
// Well-behaved tools emit non-decreasing markers, so fractions are
// non-decreasing too; an out-of-order marker is passed through as is.
func scanProgress(r io.Reader, duration float64, callback func(float64)) []string {
	const tailLines = 40

	var tail []string
	scanner := bufio.NewScanner(r)
	scanner.Split(scanCRLines)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		tail = append(tail, line)
		if len(tail) > tailLines {
			tail = tail[1:]
		}
		if callback == nil || duration <= 0 {
			continue
		}
		if elapsed, ok := parseTimeMarker(line); ok {
			progress := elapsed / duration
			if progress > 1.0 {
				progress = 1.0
			}
			callback(progress)
		}
	}
	if scanner.Err() != nil {
		// An over-long line stops the scanner; keep draining so the
		// process never blocks on a full pipe.
		io.Copy(io.Discard, r)
	}
	return tail
}

// parseTimeMarker extracts elapsed seconds from an HH:MM:SS marker.
func parseTimeMarker(line string) (float64, bool) {
	m := timeMarker.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	return float64(h*3600 + min*60 + s), true
}

// scanCRLines splits on both \n and \r; ffmpeg rewrites its status
// line with bare carriage returns.
func scanCRLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
