package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Gender is inferred from the honorific written in front of a name.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// honorificPrefixes is matched in order; the first leading match is stripped.
var honorificPrefixes = []string{
	"ด.ช.",
	"ด.ญ.",
	"นาย",
	"นางสาว",
	"นาง",
	"เด็กชาย",
	"เด็กหญิง",
	"ด.ช",
	"ด.ญ",
	"เด็ก ชาย",
	"เด็ก หญิง",
}

// headerKeywords mark cells that are column titles rather than names.
var headerKeywords = []string{
	"ชื่อ",
	"นามสกุล",
	"รายชื่อ",
	"name",
	"student",
	"ลำดับ",
	"ที่",
	"no",
	"ชื่อ-นามสกุล",
	"ชื่อนักเรียน",
	"รายชื่อนักเรียน",
}

var (
	// RE2 \s is ASCII only; \p{Zs} adds NBSP and the other Unicode spaces spreadsheets carry.
	leadingNumbering = regexp.MustCompile(`^\d+\.[\s\p{Zs}]*`)
	whitespaceRun    = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// CleanStudentName strips positional numbering and one honorific prefix and collapses whitespace.
func CleanStudentName(raw string) string {
	name := strings.TrimSpace(raw)
	name = leadingNumbering.ReplaceAllString(name, "")
	for _, prefix := range honorificPrefixes {
		if strings.HasPrefix(name, prefix) {
			name = strings.TrimPrefix(name, prefix)
			break
		}
	}
	name = whitespaceRun.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// IsValidStudentName rejects short values, bare numbers and header-like cells.
func IsValidStudentName(name string) bool {
	if utf8.RuneCountInString(name) < 2 {
		return false
	}
	if isAllDigits(name) {
		return false
	}
	lower := strings.ToLower(name)
	for _, keyword := range headerKeywords {
		if strings.Contains(lower, keyword) {
			return false
		}
	}
	return true
}

// NormalizeStudentName cleans raw and reports whether the result is usable as a name.
func NormalizeStudentName(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	name := CleanStudentName(raw)
	if !IsValidStudentName(name) {
		return "", false
	}
	return name, true
}

// NormalizeStudentNames keeps the accepted names of raw in their original order.
func NormalizeStudentNames(raw []string) []string {
	names := make([]string, 0, len(raw))
	for _, value := range raw {
		if name, ok := NormalizeStudentName(value); ok {
			names = append(names, name)
		}
	}
	return names
}

// DetectGender looks for a gendered honorific anywhere in the uncleaned value.
func DetectGender(raw string) Gender {
	switch {
	case strings.Contains(raw, "ด.ช.") || strings.Contains(raw, "เด็กชาย"):
		return GenderMale
	case strings.Contains(raw, "ด.ญ.") || strings.Contains(raw, "เด็กหญิง"):
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// isAllDigits treats any Unicode decimal digit run, Thai digits included, as a bare number.
func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
