// Package render turns a trends.Report into delivery-channel payloads.
package render

import (
	"fmt"
	"strings"

	"github.com/aristath/healthtrends/internal/modules/trends"
)

const (
	// NotEnoughData is shown instead of comparisons when the report is insufficient.
	NotEnoughData = "❌ Not enough data for a comparative analysis."
	// NoValue stands in for a window average that had no contributing days.
	NoValue = "n/a"

	headerTitle = "📈 Daily Health Trends"
	dateLayout  = "January 02, 2006"
)

// TextObject is a Slack composition text object.
type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Block is the subset of Slack layout blocks the report uses.
type Block struct {
	Type     string       `json:"type"`
	Text     *TextObject  `json:"text,omitempty"`
	Elements []TextObject `json:"elements,omitempty"`
}

// SlackMessage is the webhook body.
type SlackMessage struct {
	Blocks []Block `json:"blocks"`
}

// SlackBlocks renders the report as a single-column list of Slack blocks.
func SlackBlocks(r *trends.Report) []Block {
	if r == nil || r.Insufficient {
		return []Block{section(NotEnoughData)}
	}

	recentLabel := fmt.Sprintf("%dd", r.RecentWindowSize)

	blocks := []Block{
		{
			Type: "header",
			Text: &TextObject{Type: "plain_text", Text: headerTitle, Emoji: true},
		},
		{
			Type: "context",
			Elements: []TextObject{{
				Type: "mrkdwn",
				Text: fmt.Sprintf(
					"Comparing the *Last %d Days* vs. your *All-Time* average. Report generated on %s.",
					r.RecentWindowSize, r.GeneratedAt.Format(dateLayout),
				),
			}},
		},
		{Type: "divider"},
	}

	for _, c := range r.Comparisons {
		recent, baseline := valuePair(c)
		text := fmt.Sprintf("*%s %s*\n%s (%s) vs %s (All Time)", c.Icon, c.Name, recent, recentLabel, baseline)
		if change := ChangeAnnotation(c); change != "" {
			text += " _" + change + "_"
		}
		blocks = append(blocks, section(text))
	}

	return blocks
}

// Slack wraps SlackBlocks in a webhook message.
func Slack(r *trends.Report) SlackMessage {
	return SlackMessage{Blocks: SlackBlocks(r)}
}

// ChangeAnnotation returns "🔼 +3.4%" / "🔽 -3.4%" for notable changes and "" otherwise.
func ChangeAnnotation(c trends.MetricComparison) string {
	if !c.Notable || c.PercentChange == nil {
		return ""
	}
	arrow := "🔽"
	if *c.PercentChange > 0 {
		arrow = "🔼"
	}
	return fmt.Sprintf("%s %+.1f%%", arrow, *c.PercentChange)
}

// FormatAverage renders a window average, or NoValue when nothing contributed.
func FormatAverage(c trends.MetricComparison, avg trends.WindowAverage) string {
	if !avg.HasData() {
		return NoValue
	}
	return c.FormatValue(avg.Average)
}

// valuePair formats both averages and bolds the larger one.
func valuePair(c trends.MetricComparison) (string, string) {
	recent := FormatAverage(c, c.Recent)
	baseline := FormatAverage(c, c.Baseline)

	switch c.Larger {
	case trends.LargerRecent:
		if c.Recent.HasData() {
			recent = "*" + recent + "*"
		}
	case trends.LargerBaseline:
		if c.Baseline.HasData() {
			baseline = "*" + baseline + "*"
		}
	}
	return recent, baseline
}

func section(text string) Block {
	return Block{
		Type: "section",
		Text: &TextObject{Type: "mrkdwn", Text: strings.TrimSpace(text)},
	}
}
