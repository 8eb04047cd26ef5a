package captions

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Summary describes rendered SRT or VTT content.
type Summary struct {
	Cues  int
	First float64
	Last  float64
	// Inverted counts cues whose end is not after their start.
	Inverted int
	// OutOfOrder counts cues that start before the previous cue.
	OutOfOrder int
}

// Inspect scans SRT or VTT content for cue timing lines.
func Inspect(content string) Summary {
	var s Summary
	s.First = math.Inf(1)
	prevStart := math.Inf(-1)
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.SplitN(line, "-->", 2)
		start, errStart := parseTimestamp(parts[0])
		end, errEnd := parseTimestamp(parts[1])
		if errStart != nil || errEnd != nil {
			continue
		}
		s.Cues++
		s.First = min(s.First, start)
		s.Last = max(s.Last, end)
		if end <= start {
			s.Inverted++
		}
		if start < prevStart {
			s.OutOfOrder++
		}
		prevStart = start
	}
	if s.Cues == 0 {
		s.First = 0
	}
	return s
}

// Validate reports format problems in rendered SRT or VTT content. When
// mediaSeconds is positive, captions ending well past the media are
// flagged. An empty result means the content passed.
func Validate(content string, mediaSeconds float64) []string {
	var issues []string
	s := Inspect(content)
	if s.Cues == 0 {
		return append(issues, "empty_caption_file")
	}
	if s.Inverted > 0 {
		issues = append(issues, fmt.Sprintf("inverted_cues: %d", s.Inverted))
	}
	if s.OutOfOrder > 0 {
		issues = append(issues, fmt.Sprintf("out_of_order_cues: %d", s.OutOfOrder))
	}
	if mediaSeconds > 0 && s.Last > mediaSeconds+1 {
		issues = append(issues, fmt.Sprintf("duration_mismatch: delta=%.1fs", s.Last-mediaSeconds))
	}
	return issues
}

// parseTimestamp accepts HH:MM:SS,mmm and HH:MM:SS.mmm; VTT cue settings
// after the timestamp are ignored.
func parseTimestamp(value string) (float64, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(fields[0], ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) == 2 {
		hms = append([]string{"0"}, hms...)
	}
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
