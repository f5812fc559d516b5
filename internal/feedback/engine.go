package feedback

import (
	"math"
	"regexp"
	"strings"
)

// Transcript line prefixes as emitted by the voice client.
const (
	interviewerPrefix = "AI:"
	candidatePrefix   = "You:"
)

const baseScore = 60

const (
	participationPointsPerTurn = 4
	participationCap           = 20
	lengthWeight               = 0.5
	lengthCap                  = 10
	detailWeight               = 10
	examplesBonus              = 10
	specificityWeight          = 5
	professionalismWeight      = 8
	positivityWeight           = 4
	structureWeight            = 3
	maxScore                   = 100
)

const detailedTurnMinWords = 20

var exampleMarkers = []string{"example", "for instance", "specifically"}

var professionalWords = []string{
	"experience", "skills", "expertise", "accomplished", "achieved",
	"contributed", "developed", "managed", "led", "collaborated",
}

var positiveWords = []string{
	"excited", "passionate", "enthusiastic", "confident",
	"successful", "excellent", "outstanding", "effective",
}

var structuralWords = []string{
	"first", "second", "additionally", "furthermore", "in conclusion", "to summarize",
}

var (
	numeralPattern     = regexp.MustCompile(`\b\d+\b`)
	capitalizedPattern = regexp.MustCompile(`[A-Z][a-z]+`)
)

type ResponseQuality struct {
	DetailLevel  float64 `json:"detail_level"`
	UsesExamples bool    `json:"uses_examples"`
	Specificity  float64 `json:"specificity"`
}

type CommunicationStyle struct {
	Professionalism float64 `json:"professionalism"`
	Positivity      float64 `json:"positivity"`
	Structure       float64 `json:"structure"`
}

type TopicCoverage struct {
	Experience float64 `json:"experience"`
	Skills     float64 `json:"skills"`
	Motivation float64 `json:"motivation"`
	Challenges float64 `json:"challenges"`
	Goals      float64 `json:"goals"`
	Teamwork   float64 `json:"teamwork"`
}

type ConversationQuality struct {
	Engagement      string `json:"engagement"`
	Clarity         string `json:"clarity"`
	Professionalism string `json:"professionalism"`
}

type DetailedAnalysis struct {
	ResponseCount         int                `json:"response_count"`
	AverageResponseLength int                `json:"average_response_length"`
	TotalWords            int                `json:"total_words"`
	CommunicationStyle    CommunicationStyle `json:"communication_style"`
	TopicCoverage         TopicCoverage      `json:"topic_coverage"`
}

type Report struct {
	OverallScore        int                 `json:"overall_score"`
	Strengths           []string            `json:"strengths"`
	AreasForImprovement []string            `json:"areas_for_improvement"`
	Recommendations     []string            `json:"recommendations"`
	ConversationQuality ConversationQuality `json:"conversation_quality"`
	DetailedAnalysis    DetailedAnalysis    `json:"detailed_analysis"`
}

// Analyze scores a raw interview transcript. Pure and deterministic: the same
// transcript always yields the same report. An empty transcript yields the
// base score with fallback messages rather than an error, since scoring runs
// best-effort after call completion.
func Analyze(transcript string) *Report {
	questions, responses := parseTurns(transcript)

	responseCount := len(responses)
	totalWords := countWords(responses)

	avgResponseLength := 0
	if responseCount > 0 {
		avgResponseLength = int(math.Round(float64(totalWords) / float64(responseCount)))
	}

	quality := analyzeResponseQuality(responses)
	style := analyzeCommunicationStyle(responses)
	coverage := analyzeTopicCoverage(questions, responses)

	return &Report{
		OverallScore:        overallScore(responseCount, avgResponseLength, quality, style),
		Strengths:           strengths(quality, style),
		AreasForImprovement: improvements(quality, style),
		Recommendations:     recommendations(),
		ConversationQuality: ConversationQuality{
			Engagement:      engagementLevel(responseCount, avgResponseLength),
			Clarity:         clarityLevel(quality),
			Professionalism: professionalismLevel(style),
		},
		DetailedAnalysis: DetailedAnalysis{
			ResponseCount:         responseCount,
			AverageResponseLength: avgResponseLength,
			TotalWords:            totalWords,
			CommunicationStyle:    style,
			TopicCoverage:         coverage,
		},
	}
}

// parseTurns splits the transcript into interviewer questions and candidate
// responses, preserving order. Blank lines are discarded.
func parseTurns(transcript string) (questions, responses []string) {
	for _, line := range strings.Split(transcript, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, candidatePrefix):
			responses = append(responses, strings.TrimSpace(strings.TrimPrefix(line, candidatePrefix)))
		case strings.HasPrefix(line, interviewerPrefix):
			questions = append(questions, strings.TrimSpace(strings.TrimPrefix(line, interviewerPrefix)))
		}
	}

	return questions, responses
}

func countWords(responses []string) int {
	total := 0
	for _, response := range responses {
		total += len(strings.Fields(response))
	}

	return total
}

func analyzeResponseQuality(responses []string) ResponseQuality {
	if len(responses) == 0 {
		return ResponseQuality{}
	}

	detailCount := 0
	exampleCount := 0
	specificityCount := 0

	for _, response := range responses {
		if len(strings.Fields(response)) > detailedTurnMinWords {
			detailCount++
		}

		lower := strings.ToLower(response)
		for _, marker := range exampleMarkers {
			if strings.Contains(lower, marker) {
				exampleCount++
				break
			}
		}

		if numeralPattern.MatchString(response) ||
			capitalizedPattern.MatchString(response) ||
			strings.Contains(response, "%") ||
			strings.Contains(response, "$") {
			specificityCount++
		}
	}

	count := float64(len(responses))

	return ResponseQuality{
		DetailLevel:  float64(detailCount) / count,
		UsesExamples: exampleCount > 0,
		Specificity:  float64(specificityCount) / count,
	}
}

func analyzeCommunicationStyle(responses []string) CommunicationStyle {
	if len(responses) == 0 {
		return CommunicationStyle{}
	}

	professionalTerms := 0
	positiveLanguage := 0
	structuredResponses := 0

	for _, response := range responses {
		lower := strings.ToLower(response)

		for _, word := range professionalWords {
			if strings.Contains(lower, word) {
				professionalTerms++
			}
		}

		for _, word := range positiveWords {
			if strings.Contains(lower, word) {
				positiveLanguage++
			}
		}

		for _, word := range structuralWords {
			if strings.Contains(lower, word) {
				structuredResponses++
			}
		}
	}

	count := float64(len(responses))

	return CommunicationStyle{
		Professionalism: float64(professionalTerms) / count,
		Positivity:      float64(positiveLanguage) / count,
		Structure:       float64(structuredResponses) / count,
	}
}

// analyzeTopicCoverage pairs questions with responses by index and credits a
// full point when the paired response exceeds the category's character
// threshold, half a point otherwise. Diagnostic only; not part of the score.
func analyzeTopicCoverage(questions, responses []string) TopicCoverage {
	var coverage TopicCoverage

	for i, question := range questions {
		lowerQuestion := strings.ToLower(question)

		response := ""
		if i < len(responses) {
			response = responses[i]
		}

		responseLen := len(response)

		if strings.Contains(lowerQuestion, "experience") || strings.Contains(lowerQuestion, "background") {
			coverage.Experience += coveragePoints(responseLen, 50)
		}

		if strings.Contains(lowerQuestion, "skill") || strings.Contains(lowerQuestion, "ability") {
			coverage.Skills += coveragePoints(responseLen, 30)
		}

		if strings.Contains(lowerQuestion, "why") ||
			strings.Contains(lowerQuestion, "interest") ||
			strings.Contains(lowerQuestion, "motivation") {
			coverage.Motivation += coveragePoints(responseLen, 40)
		}

		if strings.Contains(lowerQuestion, "challenge") ||
			strings.Contains(lowerQuestion, "difficult") ||
			strings.Contains(lowerQuestion, "problem") {
			coverage.Challenges += coveragePoints(responseLen, 60)
		}

		if strings.Contains(lowerQuestion, "goal") ||
			strings.Contains(lowerQuestion, "future") ||
			strings.Contains(lowerQuestion, "plan") {
			coverage.Goals += coveragePoints(responseLen, 30)
		}

		if strings.Contains(lowerQuestion, "team") ||
			strings.Contains(lowerQuestion, "collaborate") ||
			strings.Contains(lowerQuestion, "work with") {
			coverage.Teamwork += coveragePoints(responseLen, 40)
		}
	}

	return coverage
}

func coveragePoints(responseLen, threshold int) float64 {
	if responseLen > threshold {
		return 1
	}

	return 0.5
}

// overallScore is a clamped weighted sum. The style ratios are not bounded to
// 1, so a pathological transcript can saturate the score from style terms
// alone; kept as-is to match the established scoring behavior.
func overallScore(responseCount, avgResponseLength int, quality ResponseQuality, style CommunicationStyle) int {
	score := float64(baseScore)

	score += math.Min(float64(responseCount*participationPointsPerTurn), participationCap)
	score += math.Min(float64(avgResponseLength)*lengthWeight, lengthCap)

	score += quality.DetailLevel * detailWeight
	if quality.UsesExamples {
		score += examplesBonus
	}
	score += quality.Specificity * specificityWeight

	score += style.Professionalism * professionalismWeight
	score += style.Positivity * positivityWeight
	score += style.Structure * structureWeight

	rounded := int(math.Round(score))
	if rounded > maxScore {
		return maxScore
	}

	return rounded
}

func strengths(quality ResponseQuality, style CommunicationStyle) []string {
	var out []string

	if quality.DetailLevel > 0.7 {
		out = append(out, "Provides detailed and comprehensive responses")
	}

	if quality.UsesExamples {
		out = append(out, "Effectively uses examples to illustrate points")
	}

	if style.Professionalism > 0.5 {
		out = append(out, "Demonstrates professional communication skills")
	}

	if style.Positivity > 0.3 {
		out = append(out, "Shows enthusiasm and positive attitude")
	}

	if style.Structure > 0.2 {
		out = append(out, "Organizes responses in a clear, structured manner")
	}

	if len(out) == 0 {
		return []string{"Shows good basic communication skills"}
	}

	return out
}

func improvements(quality ResponseQuality, style CommunicationStyle) []string {
	var out []string

	if quality.DetailLevel < 0.5 {
		out = append(out, "Provide more detailed responses with specific examples")
	}

	if !quality.UsesExamples {
		out = append(out, "Include specific examples to support your answers")
	}

	if style.Professionalism < 0.3 {
		out = append(out, "Use more professional terminology and industry-specific language")
	}

	if style.Structure < 0.1 {
		out = append(out, "Structure responses using frameworks like STAR method")
	}

	if quality.Specificity < 0.3 {
		out = append(out, "Include more quantifiable achievements and specific details")
	}

	if len(out) == 0 {
		return []string{"Continue practicing to build confidence"}
	}

	return out
}

// recommendations is deliberately non-conditional: the same coaching list for
// every candidate.
func recommendations() []string {
	return []string{
		"Practice the STAR method (Situation, Task, Action, Result) for behavioral questions",
		"Prepare specific examples from your experience for common interview topics",
		"Research the company and role thoroughly to show genuine interest",
		"Practice articulating your achievements with quantifiable results",
		"Work on maintaining confidence and enthusiasm throughout the interview",
	}
}

func engagementLevel(responseCount, avgResponseLength int) string {
	if responseCount >= 6 && avgResponseLength >= 25 {
		return "High"
	}

	if responseCount >= 4 && avgResponseLength >= 15 {
		return "Medium"
	}

	return "Low"
}

func clarityLevel(quality ResponseQuality) string {
	if quality.DetailLevel > 0.6 && quality.Specificity > 0.4 {
		return "Excellent"
	}

	if quality.DetailLevel > 0.4 {
		return "Good"
	}

	return "Needs improvement"
}

func professionalismLevel(style CommunicationStyle) string {
	if style.Professionalism > 0.5 {
		return "High"
	}

	if style.Professionalism > 0.2 {
		return "Good"
	}

	return "Developing"
}
