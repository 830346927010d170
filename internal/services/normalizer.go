package services

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalization is pure and deterministic: the same raw listing always yields
// the same dedup key, and missing optional fields behave as empty strings.

type substitution struct {
	pattern *regexp.Regexp
	repl    string
}

func mustSubs(pairs [][2]string) []substitution {
	subs := make([]substitution, 0, len(pairs))
	for _, p := range pairs {
		subs = append(subs, substitution{regexp.MustCompile(p[0]), p[1]})
	}
	return subs
}

// Title variations collapsed before comparison: seniority markers, level
// numerals and common abbreviations.
var titleSubstitutions = mustSubs([][2]string{
	{`\bsr\.?\b`, "senior"},
	{`\bjr\.?\b`, "junior"},
	{`\bmid-?level\b`, "mid"},
	{`\blead\b`, "senior"},
	{`\bprincipal\b`, "senior"},
	{`\bstaff\b`, "senior"},
	{`\b[ivx]+\b`, ""},
	{`\b[123]\b`, ""},
	{`\bml\b`, "machine learning"},
	{`\bai\b`, "artificial intelligence"},
	{`\bds\b`, "data science"},
	{`\bswe\b`, "software engineer"},
	{`\bengr\.?\b`, "engineer"},
	{`\bdev\.?\b`, "developer"},
	{`\bops\b`, "operations"},
	{`\bfull-?stack\b`, "fullstack"},
	{`\bfront-?end\b`, "frontend"},
	{`\bback-?end\b`, "backend"},
})

var companySubstitutions = mustSubs([][2]string{
	{`\binc\.?\b`, ""},
	{`\bincorporated\b`, ""},
	{`\bllc\.?\b`, ""},
	{`\bltd\.?\b`, ""},
	{`\blimited\b`, ""},
	{`\bcorp\.?\b`, ""},
	{`\bcorporation\b`, ""},
	{`\bco\.?\b`, ""},
	{`\bcompany\b`, ""},
	{`\bgroup\b`, ""},
	{`\bholdings\b`, ""},
	{`\binternational\b`, ""},
	{`\bglobal\b`, ""},
	{`\bthe\b`, ""},
	{`\b&\b`, "and"},
	{`\btechnologies?\b`, ""},
	{`\bsolutions?\b`, ""},
	{`\bservices?\b`, ""},
	{`\bsystems?\b`, ""},
	{`\bconsulting\b`, ""},
	{`-`, ""}, // H-E-B vs HEB
})

var locationSubstitutions = mustSubs([][2]string{
	{`\btx\b`, "texas"},
	{`\bca\b`, "california"},
	{`\bny\b`, "new york"},
	{`,\s*usa?\b`, ""},
	{`,\s*united states\b`, ""},
	{`\bremote\b.*`, "remote"},
	{`\bhybrid\b.*`, "hybrid"},
})

var (
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	diacriticsTr = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

func normalizeText(text string, subs []substitution) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)

	if folded, _, err := transform.String(diacriticsTr, text); err == nil {
		text = folded
	}

	for _, s := range subs {
		text = s.pattern.ReplaceAllString(text, s.repl)
	}

	text = nonAlnumRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeTitle canonicalizes a job title for comparison.
func NormalizeTitle(title string) string {
	return normalizeText(title, titleSubstitutions)
}

// NormalizeCompany canonicalizes a company name. Spaces are removed entirely
// so stylized names compare equal to their plain forms.
func NormalizeCompany(company string) string {
	return strings.ReplaceAll(normalizeText(company, companySubstitutions), " ", "")
}

// NormalizeLocation canonicalizes a location, expanding trailing state
// abbreviations and collapsing remote/hybrid variants.
func NormalizeLocation(location string) string {
	return normalizeText(location, locationSubstitutions)
}

// DedupKey derives the deduplication key for a listing. The location
// contributes only its leading city token, and only when it names a specific
// place rather than a generic remote/hybrid arrangement.
func DedupKey(title, company, location string) string {
	parts := []string{NormalizeTitle(title), NormalizeCompany(company)}

	if loc := NormalizeLocation(location); loc != "" && loc != "remote" && loc != "hybrid" {
		if city := strings.Fields(loc); len(city) > 0 {
			parts = append(parts, city[0])
		}
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

// JobID derives the stable job identifier from the source URL. Re-scraping
// the same URL always yields the same id, which makes ingestion an upsert.
func JobID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}

// TextHash fingerprints embedded text so unchanged jobs can skip
// recomputation.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
