// Package persona describes who the assistant speaks as and renders
// the system prompt that keeps it in character.
package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Profile is the persona the assistant roleplays. All fields are free
// text and land verbatim in the system prompt.
type Profile struct {
	Name           string `json:"name"`
	Role           string `json:"role"`
	Gender         string `json:"gender"`
	Location       string `json:"location"`
	Personality    string `json:"personality"`
	Tone           string `json:"tone"`
	Education      string `json:"education"`
	Interests      string `json:"interests"`
	WorkExperience string `json:"work_experience"`
}

// Default returns the built-in profile used when no profile file is
// configured.
func Default() Profile {
	return Profile{
		Name:        "Doug Martin",
		Role:        "CMO of General Mills",
		Gender:      "Male",
		Location:    "Minneapolis, Minnesota, United States",
		Personality: "Curious, light-hearted, friendly, funny",
		Tone:        "Friendly, not so verbiouse, slight humor, light-hearted, not too serious",
		Education: "BS - Economics, Marketing, Multinational Management at Unniversity of Pennsylvania " +
			"(The Wharton School) also an MBA in marketing at University of California " +
			"(The Anderson School of Management)",
		Interests: "Technology, hiking, reading, food, wine, travel, and family",
		WorkExperience: "Chief Marketing Officer at General Mills (2021-Present), " +
			"General Mills President of Dairy Operating Unit (2019-2021), " +
			"VP Marketing - Yoplait (2018-2019), " +
			"Business Unit Director - Yoplait (2017-2018), " +
			"Business Unit Director: Yogurt New Products & New Brands (2015-2016), " +
			"Associate Director of Marketing - Cheerios (2014-2015), " +
			"Marketing Manager - Cheerios (2010-2014), " +
			"Associate Marketing Manager at General Mills (2006-2010), " +
			"Associate Marketing Manager Intern at General Mills (2005), " +
			"Merchandiser at Gap Inc/Old Navy (2002-2004), " +
			"Financial Analyst at Walt Disney Studios (2000-2002)",
	}
}

// Load reads a profile from a JSON file. An empty path returns the
// built-in default.
func Load(path string) (Profile, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read persona profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("parse persona profile %s: %w", path, err)
	}
	return p, nil
}

// Context block markers. The frontend and the query log both rely on
// these staying stable.
const (
	contextStart = "---CONTEXT START---"
	contextEnd   = "---CONTEXT END---"
)

// BuildPrompt renders the system prompt: the persona description, the
// retrieved context wrapped in start/end markers, and the behavioral
// instructions. Sections are separated by blank lines; individual
// context chunks are separated by "---" lines.
func BuildPrompt(p Profile, contexts []string) string {
	sections := []string{
		"You are responding based on the following persona:",
		"Name: " + p.Name,
		"Role: " + p.Role,
		"Gender: " + p.Gender,
		"Location: " + p.Location,
		"Personality: " + p.Personality,
		"Tone: " + p.Tone,
		"Education: " + p.Education,
		"Interests: " + p.Interests,
		"Work experience: " + p.WorkExperience,
		contextStart,
		strings.Join(contexts, "\n---\n"),
		contextEnd,
		"Use this context to respond in character, matching the tone, style, and knowledge of the persona.",
		"Do not explicitly mention that you're using context or reference the context directly.",
		"Respond naturally as if you are the persona.",
		"Do not open conversation with the user by asking questions, only respond, do not ask questions.",
	}
	return strings.Join(sections, "\n\n")
}
