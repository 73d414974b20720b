package analyzer

import (
	"bufio"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

// The embedded word lists come from the operators' complaint-analysis
// dictionaries: domain terms with score multipliers, and function words the
// token counts must never include. Lines starting with # are comments.

//go:embed dict/industry.txt
var industryDictData string

//go:embed dict/stopwords.txt
var stopwordData string

// parseIndustryDict reads "term weight" lines into a weight table.
func parseIndustryDict(data string) (map[string]float64, error) {
	weights := make(map[string]float64)
	sc := bufio.NewScanner(strings.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("industry dictionary line %d: want \"term weight\", got %q", line, text)
		}
		weight, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || weight <= 0 {
			return nil, fmt.Errorf("industry dictionary line %d: bad weight %q", line, fields[1])
		}
		weights[fields[0]] = weight
	}
	return weights, nil
}

func parseStopwords(data string) map[string]bool {
	stop := make(map[string]bool)
	sc := bufio.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		stop[text] = true
	}
	return stop
}
