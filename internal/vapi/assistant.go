package vapi

import (
	"fmt"
	"strings"
)

// Provider constraint: assistant names must stay under 40 characters.
const (
	maxAssistantNameLen = 39
	maxNamePartLen      = 15
)

type assistantModelMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type assistantModel struct {
	Provider    string                  `json:"provider"`
	Model       string                  `json:"model"`
	Messages    []assistantModelMessage `json:"messages"`
	Temperature float64                 `json:"temperature"`
	MaxTokens   int                     `json:"maxTokens"`
}

type assistantVoice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

type assistantTranscriber struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Language string `json:"language"`
}

type createAssistantRequest struct {
	Name         string               `json:"name"`
	Model        assistantModel       `json:"model"`
	Voice        assistantVoice       `json:"voice"`
	FirstMessage string               `json:"firstMessage"`
	Transcriber  assistantTranscriber `json:"transcriber"`
}

func buildAssistantRequest(
	jobTitle, jobDescription, candidateName string,
	questions []string,
) createAssistantRequest {
	return createAssistantRequest{
		Name: buildAssistantName(jobTitle, candidateName),
		Model: assistantModel{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   200,
			Messages: []assistantModelMessage{
				{
					Role:    "system",
					Content: buildInstructions(jobTitle, jobDescription, candidateName, questions),
				},
			},
		},
		Voice: assistantVoice{
			Provider: "11labs",
			VoiceID:  "sarah",
		},
		FirstMessage: buildFirstMessage(jobTitle, candidateName),
		Transcriber: assistantTranscriber{
			Provider: "deepgram",
			Model:    "nova-2",
			Language: "en",
		},
	}
}

func buildAssistantName(jobTitle, candidateName string) string {
	name := truncate(jobTitle, maxNamePartLen) + " - " + truncate(candidateName, maxNamePartLen)

	if len(name) > maxAssistantNameLen {
		name = name[:maxAssistantNameLen]
	}

	return name
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}

	return s
}

func buildInstructions(jobTitle, jobDescription, candidateName string, questions []string) string {
	var builder strings.Builder

	fmt.Fprintf(&builder,
		"You are an AI interviewer conducting a professional job interview for the position: %s.\n\n",
		jobTitle,
	)
	fmt.Fprintf(&builder, "Candidate Information:\n- Name: %s\n- Position: %s\n\n", candidateName, jobTitle)
	fmt.Fprintf(&builder, "Job Description:\n%s\n\n", jobDescription)

	builder.WriteString(`Interview Guidelines:
1. Be professional, friendly, and encouraging
2. Ask one question at a time and wait for complete answers
3. Follow up with clarifying questions when needed
4. Keep the interview conversational and natural
5. Take notes on the candidate's responses for evaluation
6. The interview should last approximately 15-30 minutes

`)

	if len(questions) > 0 {
		builder.WriteString("Interview Questions to Ask:\n")

		for i, question := range questions {
			fmt.Fprintf(&builder, "%d. %s\n", i+1, question)
		}

		builder.WriteString("\nYou can ask additional follow-up questions based on the candidate's responses.\n")
	} else {
		builder.WriteString(`Interview Topics to Cover:
- Background and experience
- Technical skills relevant to the role
- Problem-solving abilities
- Cultural fit and motivation
- Questions the candidate has about the role/company
`)
	}

	builder.WriteString("\nStart the interview by greeting the candidate warmly and explaining the interview process.")

	return builder.String()
}

func buildFirstMessage(jobTitle, candidateName string) string {
	return fmt.Sprintf(
		"Hello %s! Thank you for taking the time to interview with us today for the %s position. "+
			"I'm an AI interviewer, and I'll be conducting this interview. "+
			"The interview will take about 15-30 minutes, and I'll be asking you questions about your "+
			"background, experience, and fit for this role. Please feel free to take your time with your "+
			"answers, and don't hesitate to ask if you need me to repeat or clarify any questions. "+
			"Are you ready to begin?",
		candidateName,
		jobTitle,
	)
}
