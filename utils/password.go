package utils

import (
	"strings"
	"unicode"
)

type PasswordReport struct {
	Score    int      `json:"score"` // 0 (very weak) to 4 (strong)
	Label    string   `json:"label"`
	Feedback []string `json:"feedback"`
}

var strengthLabels = [...]string{"Very Weak", "Weak", "Fair", "Good", "Strong"}

var commonPasswords = map[string]bool{
	"password": true, "password1": true, "password123": true, "123456": true,
	"12345678": true, "123456789": true, "qwerty": true, "qwerty123": true,
	"letmein": true, "iloveyou": true, "welcome": true, "admin": true,
	"abc123": true, "monkey": true, "dragon": true, "sunshine": true,
	"princess": true, "football": true, "baseball": true, "lovely": true,
}

// PasswordStrength scores pw with simple heuristics: length, character
// classes, and a short list of common passwords.
func PasswordStrength(pw string) PasswordReport {
	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	length := len([]rune(pw))

	var feedback []string
	points := 0
	if length >= 8 {
		points++
	} else {
		feedback = append(feedback, "Use at least 8 characters.")
	}
	if length >= 12 {
		points++
	} else if length >= 8 {
		feedback = append(feedback, "Longer passwords are stronger; try 12 or more characters.")
	}
	if lower && upper {
		points++
	} else {
		feedback = append(feedback, "Mix upper and lower case letters.")
	}
	if digit {
		points++
	} else {
		feedback = append(feedback, "Add a number.")
	}
	if symbol {
		points++
	} else {
		feedback = append(feedback, "Add a symbol such as ! or #.")
	}

	score := points - 1
	if length < 8 && score > 1 {
		score = 1
	}
	if commonPasswords[strings.ToLower(pw)] {
		score = 0
		feedback = append([]string{"This is a commonly used password."}, feedback...)
	}
	if score < 0 {
		score = 0
	}
	if score > 4 {
		score = 4
	}
	if feedback == nil {
		feedback = []string{}
	}
	return PasswordReport{Score: score, Label: strengthLabels[score], Feedback: feedback}
}
