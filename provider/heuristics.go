package provider

import "strings"

// GuessVisionSupport guesses whether a model accepts image input from its id
// alone. It is only consulted when no authoritative capability data exists
// (BuildDefaultModel, live listings without metadata) and never overrides a
// saved configuration.
//
// The rules per vendor:
//   - openai: id contains vision, vl, 4 or llava
//   - gemini: always true
//   - anthropic: id contains claude
//   - ollama: id contains vision or llava
//   - zhipu: id contains glm-4 but not air, or ends in v (glm-4v)
//   - deepseek: always false
//   - siliconflow: id contains vl or vision
//   - openrouter: id contains vision, vl, 4o, claude or gemini
//
// Unknown provider ids fall back to the openai rule.
func GuessVisionSupport(providerID, modelID string) bool {
	id := strings.ToLower(modelID)

	switch providerID {
	case IDGemini:
		return true
	case IDAnthropic:
		return strings.Contains(id, "claude")
	case IDOllama:
		return containsAny(id, "vision", "llava")
	case IDZhipu:
		if strings.HasSuffix(id, "v") {
			return true
		}
		return strings.Contains(id, "glm-4") && !strings.Contains(id, "air")
	case IDDeepSeek:
		return false
	case IDSiliconFlow:
		return containsAny(id, "vl", "vision")
	case IDOpenRouter:
		return containsAny(id, "vision", "vl", "4o", "claude", "gemini")
	default:
		return containsAny(id, "vision", "vl", "4", "llava")
	}
}

// guessReasoningSupport flags the reasoning model families we know about.
func guessReasoningSupport(modelID string) bool {
	id := strings.ToLower(modelID)
	return strings.HasPrefix(id, "o1") || strings.HasPrefix(id, "o3") ||
		strings.Contains(id, "reasoner") || strings.Contains(id, "-r1")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
