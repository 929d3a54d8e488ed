package config

import "fmt"

// defaultSites mirrors the curated source list the brief has always tracked.
func defaultSites() []SiteConfig {
	return []SiteConfig{
		{
			Name:    "ai-news-feeds",
			Scanner: "rss",
			Group:   "rss",
			Categories: []CategoryConfig{
				{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/"},
				{Name: "MIT Technology Review AI", URL: "https://www.technologyreview.com/topic/artificial-intelligence/feed"},
				{Name: "VentureBeat AI", URL: "https://venturebeat.com/category/ai/feed/"},
				{Name: "The Verge AI", URL: "https://www.theverge.com/ai-artificial-intelligence/rss/index.xml"},
				{Name: "AI News", URL: "https://artificialintelligence-news.com/feed/"},
				{Name: "Ars Technica AI", URL: "https://feeds.arstechnica.com/arstechnica/technology-lab"},
				{Name: "Wired AI", URL: "https://www.wired.com/feed/tag/ai/latest/rss"},
				{Name: "The Information AI", URL: "https://www.theinformation.com/feed"},
			},
			Options: map[string]string{"tags": "AI", "min_content": "100"},
		},
		{
			Name:     "company-blogs",
			Scanner:  "rss",
			Group:    "blogs",
			Priority: 9,
			Categories: []CategoryConfig{
				{Name: "OpenAI Blog", URL: "https://openai.com/blog/rss.xml"},
				{Name: "Google AI Blog", URL: "https://blog.google/technology/ai/rss/"},
				{Name: "DeepMind Blog", URL: "https://deepmind.google/blog/rss.xml"},
				{Name: "Meta AI Blog", URL: "https://ai.meta.com/blog/rss/"},
				{Name: "Hugging Face Blog", URL: "https://huggingface.co/blog/feed.xml"},
			},
			Options: map[string]string{"tags": "AI,Official Blog"},
		},
		{
			Name:     "company-news-pages",
			Scanner:  "html",
			Group:    "blogs",
			Priority: 10,
			Categories: []CategoryConfig{
				{Name: "Anthropic Blog", URL: "https://www.anthropic.com/news"},
				{Name: "Stability AI Blog", URL: "https://stability.ai/news"},
			},
			Options: map[string]string{
				"item_selector":  "article",
				"title_selector": "h3, h2, h1",
				"link_selector":  "a[href]",
				"date_selector":  "time",
				"text_selector":  "p",
				"tags":           "AI,Official Blog",
			},
		},
		{
			Name:    "reddit",
			Scanner: "reddit",
			Limit:   10,
			Categories: []CategoryConfig{
				{Name: "MachineLearning"},
				{Name: "artificial"},
				{Name: "ArtificialInteligence"},
				{Name: "LocalLLaMA"},
				{Name: "ChatGPT"},
				{Name: "ClaudeAI"},
				{Name: "singularity"},
			},
		},
		{
			Name:    "hackernews",
			Scanner: "hackernews",
			Limit:   25,
			Categories: []CategoryConfig{
				{Name: "HackerNews", URL: "https://hacker-news.firebaseio.com/v0"},
			},
		},
		{
			Name:    "arxiv",
			Scanner: "arxiv",
			Limit:   15,
			Categories: []CategoryConfig{
				{Name: "cs.AI", URL: "https://arxiv.org/list/cs.AI/recent"},
				{Name: "cs.LG", URL: "https://arxiv.org/list/cs.LG/recent"},
				{Name: "cs.CL", URL: "https://arxiv.org/list/cs.CL/recent"},
				{Name: "cs.CV", URL: "https://arxiv.org/list/cs.CV/recent"},
			},
		},
		{
			Name:       "github-releases",
			Scanner:    "github",
			Priority:   8,
			Categories: githubRepos(),
		},
		{
			Name:       "x",
			Scanner:    "rss",
			Group:      "x",
			Limit:      5,
			Categories: nitterAccounts("https://nitter.net"),
			Options:    map[string]string{"tags": "AI,X", "ai_only": "true"},
		},
		{
			Name:    "youtube",
			Scanner: "rss",
			Group:   "youtube",
			Limit:   3,
			Categories: []CategoryConfig{
				youtubeChannel("Two Minute Papers", "UCbfYPyITQ-7l4upoX8nvctg"),
				youtubeChannel("Yannic Kilcher", "UCZHmQk67mSJgfCCTn7xBfew"),
				youtubeChannel("AI Explained", "UCkLfEba0iefnKTsKTtr1YVA"),
				youtubeChannel("3Blue1Brown", "UCYO_jab_esuFRV4b17AJtAw"),
				youtubeChannel("Lex Fridman", "UCBa5G_ESCn8Yd4vw5U-gIcg"),
			},
			Options: map[string]string{"tags": "AI,Video", "ai_only": "true"},
		},
	}
}

func githubRepos() []CategoryConfig {
	repos := []struct{ slug, label string }{
		{"langchain-ai/langchain", "Framework"},
		{"langchain-ai/langgraph", "Framework"},
		{"run-llama/llama_index", "Framework"},
		{"huggingface/transformers", "ML Library"},
		{"huggingface/diffusers", "ML Library"},
		{"pytorch/pytorch", "ML Library"},
		{"vllm-project/vllm", "Inference"},
		{"ggerganov/llama.cpp", "Inference"},
		{"ollama/ollama", "Inference"},
		{"microsoft/autogen", "Agents"},
		{"crewAIInc/crewAI", "Agents"},
		{"openai/openai-python", "SDK"},
		{"anthropics/anthropic-sdk-python", "SDK"},
		{"unslothai/unsloth", "Training"},
		{"chroma-core/chroma", "Vector DB"},
		{"qdrant/qdrant", "Vector DB"},
	}
	out := make([]CategoryConfig, 0, len(repos))
	for _, r := range repos {
		out = append(out, CategoryConfig{Name: r.slug, Label: r.label})
	}
	return out
}

func nitterAccounts(instance string) []CategoryConfig {
	accounts := []string{"sama", "karpathy", "ylecun", "demishassabis", "OpenAI", "AnthropicAI", "GoogleDeepMind", "AndrewYNg"}
	out := make([]CategoryConfig, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, CategoryConfig{
			Name: "X @" + a,
			URL:  fmt.Sprintf("%s/%s/rss", instance, a),
		})
	}
	return out
}

func youtubeChannel(name, id string) CategoryConfig {
	return CategoryConfig{
		Name: "YouTube " + name,
		URL:  "https://www.youtube.com/feeds/videos.xml?channel_id=" + id,
	}
}
