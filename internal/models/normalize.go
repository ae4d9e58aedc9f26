package models

import "strings"

func trimSpace(s string) string { return strings.TrimSpace(s) }

// NormalizeName: trim(lowercase(x)); единственное правило сопоставления участника группы.
func NormalizeName(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// NormalizeSkills: trim + lower-case, пустые выбрасываем.
func NormalizeSkills(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if v := strings.ToLower(strings.TrimSpace(x)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// NormalizeList: только trim, пустые выбрасываем (интересы, доступность).
func NormalizeList(xs []string) []string {
	if xs == nil {
		return nil
	}
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if v := strings.TrimSpace(x); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SplitList разбирает поле формы "a, b ,c" в список.
func SplitList(raw string) []string {
	return NormalizeList(strings.Split(raw, ","))
}
