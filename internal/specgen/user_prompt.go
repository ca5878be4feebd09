package specgen

import (
	"strings"

	"github.com/yungbote/specforge-backend/internal/contract"
)

func contextBlock(productType, platform string) string {
	var lines []string
	if productType != "" {
		lines = append(lines, "Product Type: "+productType)
	}
	if platform != "" {
		lines = append(lines, "Platform: "+platform)
	}
	if len(lines) == 0 {
		return ""
	}
	return "\nContext:\n" + strings.Join(lines, "\n")
}

// chatUserPrompt builds the user turn for a chat request. Answers from the question flow win
// over everything else; otherwise an initial request asks for clarifying questions and a
// follow-up either refines the spec or asks for the first full one.
func chatUserPrompt(req ChatRequest) string {
	ctx := contextBlock(req.ProductType, req.Platform)

	if len(req.StructuredAnswers) > 0 && req.OriginalPrompt != "" {
		answers := make([]string, 0, len(req.StructuredAnswers))
		for _, a := range req.StructuredAnswers {
			answers = append(answers, "- "+a.QuestionID+": "+a.Answer)
		}
		return "The user has answered the clarifying questions through an interactive flow.\n" +
			"Generate the full 8-section technical prompt based on their original idea and these answers.\n\n" +
			"Original Product Idea:\n" + req.OriginalPrompt + "\n\n" +
			"User's Answers:\n" + strings.Join(answers, "\n") + ctx + "\n\n" +
			"Now generate the complete technical prompt with all 8 sections."
	}

	if req.IsInitial() {
		return "Transform this product idea into a comprehensive, AI-agent-ready prompt:" + ctx + "\n\n" +
			"Product Idea:\n" + req.Prompt + "\n\n" +
			"Remember: Start by asking 3-5 clarifying questions. Do NOT generate the full prompt yet."
	}

	action := "The user has answered your questions. Now generate the full 8-section technical prompt."
	if contract.IsFullSpec(req.CurrentSpec) {
		action = "Update the technical prompt based on this feedback."
	}
	return "User response: " + req.Prompt + "\n\n" + action
}

func questionsUserPrompt(req QuestionsRequest) string {
	return "Generate clarifying questions for this product idea:" + contextBlock(req.ProductType, req.Platform) + "\n\n" +
		"Product Idea:\n" + req.Prompt + "\n\n" +
		"Generate 3-5 multiple-choice questions with 2-5 options each.\n" +
		"Return as JSON with this structure:\n" +
		`{
  "questions": [
    {
      "id": "unique_id",
      "question": "Question text",
      "options": ["Option 1", "Option 2", "Option 3"],
      "recommendedIndex": 0,
      "required": true
    }
  ]
}`
}
