package processing

import (
	"time"

	"github.com/Caia-Tech/pdfocr/pkg/logging"
)

// CleaningRule represents a single text rewrite pass
type CleaningRule interface {
	Name() string
	Description() string
	Apply(content string) string
}

// CleaningResult contains the results of content cleaning
type CleaningResult struct {
	OriginalLength int           `json:"original_length"`
	CleanedLength  int           `json:"cleaned_length"`
	RulesApplied   []string      `json:"rules_applied"`
	BytesRemoved   int           `json:"bytes_removed"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// ContentCleaner applies its enabled rules in registration order
type ContentCleaner struct {
	rules        []CleaningRule
	enabledRules map[string]bool
}

// NewContentCleaner creates a cleaner with no rules
func NewContentCleaner() *ContentCleaner {
	return &ContentCleaner{
		rules:        make([]CleaningRule, 0),
		enabledRules: make(map[string]bool),
	}
}

// NewNormalizer creates the cleaner used on OCR output: newline removal, then
// collapsing whitespace between Japanese characters.
func NewNormalizer() *ContentCleaner {
	cleaner := NewContentCleaner()
	cleaner.AddRule(&NewlineRemovalRule{})
	cleaner.AddRule(&CJKWhitespaceRule{})
	return cleaner
}

// AddRule appends a rule and enables it
func (cc *ContentCleaner) AddRule(rule CleaningRule) {
	cc.rules = append(cc.rules, rule)
	cc.enabledRules[rule.Name()] = true
}

// EnableRule enables a specific rule by name
func (cc *ContentCleaner) EnableRule(ruleName string) {
	cc.enabledRules[ruleName] = true
}

// DisableRule disables a specific rule by name
func (cc *ContentCleaner) DisableRule(ruleName string) {
	cc.enabledRules[ruleName] = false
}

// Rules returns the names of the registered rules in application order
func (cc *ContentCleaner) Rules() []string {
	names := make([]string, len(cc.rules))
	for i, rule := range cc.rules {
		names[i] = rule.Name()
	}
	return names
}

// Clean runs every enabled rule over content and reports what changed
func (cc *ContentCleaner) Clean(content string) (string, *CleaningResult) {
	start := time.Now()
	cleaned := content
	rulesApplied := []string{}

	for _, rule := range cc.rules {
		if !cc.enabledRules[rule.Name()] {
			continue
		}
		after := rule.Apply(cleaned)
		if after != cleaned {
			cleaned = after
			rulesApplied = append(rulesApplied, rule.Name())
		}
	}

	return cleaned, &CleaningResult{
		OriginalLength: len(content),
		CleanedLength:  len(cleaned),
		RulesApplied:   rulesApplied,
		BytesRemoved:   len(content) - len(cleaned),
		ProcessingTime: time.Since(start),
	}
}

// Normalize cleans text and logs a summary. It never fails.
func (cc *ContentCleaner) Normalize(text string) string {
	cleaned, result := cc.Clean(text)

	logger := logging.GetLogger("normalizer")
	logger.Debug().
		Int("original_length", result.OriginalLength).
		Int("cleaned_length", result.CleanedLength).
		Strs("rules_applied", result.RulesApplied).
		Dur("processing_time", result.ProcessingTime).
		Msg("Text normalized")

	return cleaned
}

var defaultNormalizer = NewNormalizer()

// Normalize applies the default OCR normalization to text
func Normalize(text string) string {
	return defaultNormalizer.Normalize(text)
}
