package parser

import (
	"regexp"
	"strings"
)

var aiKeywords = []string{
	"ai", "llm", "llms", "gpt", "claude", "anthropic", "openai",
	"machine learning", "deep learning", "neural", "transformer", "gemini",
	"chatgpt", "copilot", "midjourney", "stable diffusion", "diffusion",
	"langchain", "langgraph", "rag", "embedding", "embeddings",
	"fine-tuning", "llama", "mistral", "deepseek", "qwen",
	"hugging face", "pytorch", "tensorflow", "artificial intelligence",
	"generative", "agi", "nlp", "computer vision", "reinforcement learning",
}

// aiKeywordExpr matches keywords on word boundaries so "ai" does not hit "said".
var aiKeywordExpr = func() *regexp.Regexp {
	quoted := make([]string, len(aiKeywords))
	for i, k := range aiKeywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}()

// isAIRelated reports whether text mentions any AI keyword.
func isAIRelated(text string) bool {
	return aiKeywordExpr.MatchString(text)
}
