package feedback

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeEmptyTranscript(t *testing.T) {
	report := Analyze("")

	require.Equal(t, 60, report.OverallScore)
	require.Equal(t, []string{"Shows good basic communication skills"}, report.Strengths)
	require.Contains(t, report.AreasForImprovement, "Include specific examples to support your answers")
	require.Len(t, report.Recommendations, 5)
	require.Equal(t, "Low", report.ConversationQuality.Engagement)
	require.Equal(t, "Needs improvement", report.ConversationQuality.Clarity)
	require.Equal(t, "Developing", report.ConversationQuality.Professionalism)
	require.Zero(t, report.DetailedAnalysis.ResponseCount)
	require.Zero(t, report.DetailedAnalysis.AverageResponseLength)
	require.Zero(t, report.DetailedAnalysis.CommunicationStyle.Professionalism)
}

func TestAnalyzeDeterministic(t *testing.T) {
	transcript := "AI: Tell me about your experience\n" +
		"You: I developed and managed a platform used by 300 customers, for instance the billing service that I led from design to launch.\n" +
		"AI: What are your goals?\n" +
		"You: First, I want to keep growing as an engineer. Additionally, I am excited about mentoring."

	first := Analyze(transcript)
	second := Analyze(transcript)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)

	require.Equal(t, firstJSON, secondJSON)
}

func TestAnalyzeExamplesRaiseScore(t *testing.T) {
	transcript := "AI: Tell me about yourself\n" +
		"You: I led a team of five engineers and shipped three products, for example the payments platform.\n" +
		"AI: Why this role?\n" +
		"You: I am passionate about fintech."

	report := Analyze(transcript)

	require.Equal(t, 2, report.DetailedAnalysis.ResponseCount)
	require.Greater(t, report.OverallScore, 60)

	quality := analyzeResponseQuality([]string{
		"I led a team of five engineers and shipped three products, for example the payments platform.",
		"I am passionate about fintech.",
	})
	require.True(t, quality.UsesExamples)
}

func TestAnalyzeScoreCappedAtHundred(t *testing.T) {
	turn := "You: First and second, I have experience and skills and expertise, I accomplished and achieved results, " +
		"contributed and developed systems, managed and led teams, collaborated widely. Additionally and furthermore " +
		"I am excited, passionate, enthusiastic, confident, successful, excellent, outstanding and effective, " +
		"for example I grew revenue 40% and $2M with 12 engineers across 3 Products in my Experience.\n"

	transcript := ""
	for range 8 {
		transcript += "AI: Tell me more\n" + turn
	}

	report := Analyze(transcript)

	require.Equal(t, 100, report.OverallScore)
}

func TestAnalyzeTopicCoverage(t *testing.T) {
	transcript := "AI: Tell me about your experience and background\n" +
		"You: Short answer.\n" +
		"AI: How do you work with a team?\n" +
		"You: I collaborated with designers and engineers daily for years on a shared roadmap."

	report := Analyze(transcript)

	coverage := report.DetailedAnalysis.TopicCoverage
	require.Equal(t, 0.5, coverage.Experience)
	require.Equal(t, 1.0, coverage.Teamwork)
	require.Zero(t, coverage.Motivation)
}

func TestParseTurnsSkipsBlankAndUnprefixedLines(t *testing.T) {
	questions, responses := parseTurns("AI: Hello\n\nnoise line\nYou: Hi there\n   \nYou: Another answer")

	require.Equal(t, []string{"Hello"}, questions)
	require.Equal(t, []string{"Hi there", "Another answer"}, responses)
}
