// Package types provides type definitions for structured data used throughout the portfolio-ai system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"strings"
)

// CVData is the structured domain input for CV generation, assembled by the request layer
type CVData struct {
	PersonalInfo   PersonalInfo     `json:"personal_info" validate:"required"`
	WorkExperience []WorkExperience `json:"work_experience" validate:"dive"`
	Education      []Education      `json:"education" validate:"dive"`
	Skills         StringList       `json:"skills"`
}

// PersonalInfo holds the candidate's contact details and summary
type PersonalInfo struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty" validate:"omitempty,url"`
	GitHub   string `json:"github,omitempty" validate:"omitempty,url"`
	Website  string `json:"portfolio,omitempty" validate:"omitempty,url"`
	Summary  string `json:"summary,omitempty"`
}

// WorkExperience represents a single role in the candidate's work history
type WorkExperience struct {
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	StartDate   string     `json:"start_date,omitempty"`
	EndDate     string     `json:"end_date,omitempty"`
	Current     bool       `json:"current,omitempty"`
	Description StringList `json:"description,omitempty"`
}

// Education represents a degree or program entry
type Education struct {
	Degree       string `json:"degree"`
	Institution  string `json:"institution"`
	FieldOfStudy string `json:"field_of_study,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	GPA          string `json:"gpa,omitempty"`
}

// StringList is a list of strings that also accepts a single JSON string.
// A single string is split on newlines, and leading bullet markers are dropped.
type StringList []string

// UnmarshalJSON accepts either a JSON array of strings or a single string
func (s *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = compactStrings(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*s = SplitLines(single)
	return nil
}

// SplitLines splits free text into trimmed non-empty lines, stripping bullet markers
func SplitLines(text string) StringList {
	var out StringList
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•· ")
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func compactStrings(list []string) StringList {
	out := make(StringList, 0, len(list))
	for _, item := range list {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
