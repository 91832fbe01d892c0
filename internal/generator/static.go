package generator

import "strings"

type staticAnswer struct {
	match func(msg string) bool
	text  string
}

func containsAll(words ...string) func(string) bool {
	return func(msg string) bool {
		for _, w := range words {
			if !strings.Contains(msg, w) {
				return false
			}
		}
		return true
	}
}

func containsAny(words ...string) func(string) bool {
	return func(msg string) bool {
		for _, w := range words {
			if strings.Contains(msg, w) {
				return true
			}
		}
		return false
	}
}

// staticAnswers are checked in order; the first match wins.
var staticAnswers = []staticAnswer{
	{
		match: containsAll("what is", "panafrican ai summit"),
		text:  `🌍 The PanAfrican AI Summit is an annual event that started in 2025 with the mission to "Bridge Africa's AI Divide." It brings together AI innovators from across Africa to collaborate on solutions tailored to the continent's unique challenges and opportunities!`,
	},
	{
		match: containsAny("mission", "purpose"),
		text:  `🎯 The summit aims to accelerate Africa's AI ecosystem by fostering collaboration, knowledge sharing, and innovation across the continent while ensuring ethical and inclusive AI development that addresses Africa-specific needs.`,
	},
	{
		match: containsAny("participat", "join", "attend"),
		text:  `🤝 The summit welcomes researchers, startups, policymakers, students, and investors from all African regions! Participation is open to anyone interested in advancing AI in Africa. The event features sessions in multiple languages including English, French, Arabic, Swahili, and Portuguese.`,
	},
	{
		match: containsAny("pillar", "focus"),
		text: `🔬 The summit focuses on 5 key pillars:
1. AI Research & Development
2. AI Education & Capacity Building
3. AI Policy & Governance
4. AI Entrepreneurship & Investment
5. AI for Social Good`,
	},
	{
		match: containsAny("contact", "website"),
		text:  `📧 For more information, you can visit the official website or contact the organizers at info@panafricanaisummit.africa`,
	},
}

const staticGreeting = `🤖 Hello! I'm PanAI Sage, your guide to the PanAfrican AI Summit. I'm here to answer questions about the summit's mission, pillars, participation, and initiatives. What would you like to know about? 🌍`

// StaticResponse returns a canned answer chosen by keyword match. It is the
// last resort when no backing model is reachable and never fails.
func StaticResponse(userMessage string) string {
	msg := strings.ToLower(userMessage)
	for _, a := range staticAnswers {
		if a.match(msg) {
			return a.text
		}
	}
	return staticGreeting
}
