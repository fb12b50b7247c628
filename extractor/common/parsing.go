package common

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Spanish three-letter month abbreviations. English ones are accepted too
// because Banorte and HSBC statements mix both (NOV, DIC, DEC...).
var monthAbbrevs = map[string]time.Month{
	"ENE": time.January, "JAN": time.January,
	"FEB": time.February,
	"MAR": time.March,
	"ABR": time.April, "APR": time.April,
	"MAY": time.May,
	"JUN": time.June,
	"JUL": time.July,
	"AGO": time.August, "AUG": time.August,
	"SEP": time.September,
	"OCT": time.October,
	"NOV": time.November,
	"DIC": time.December, "DEC": time.December,
}

var (
	dateTokenRegex    = regexp.MustCompile(`^(\d{1,2})[-/\s.]+([A-Z]{3}|\d{1,2})[-/\s.]+(\d{2,4})$`)
	nonDescCharRegex  = regexp.MustCompile(`[^A-Z0-9\s]`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	currencyJunkRegex = regexp.MustCompile(`[$\s]`)
	installmentRegex  = regexp.MustCompile(`(?i)(\d+)\s+DE\s+(\d+)`)
	// Short fee keywords match whole words only: "IVA" must not fire inside
	// "PRIVADA", nor "FEE" inside "COFFEE".
	feeWordRegex = regexp.MustCompile(`\b(?:IVA|FEE)\b`)
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// MonthFromAbbrev resolves a three-letter Spanish or English month
// abbreviation, case and accent insensitive.
func MonthFromAbbrev(token string) (time.Month, bool) {
	m, ok := monthAbbrevs[strings.ToUpper(StripAccents(strings.TrimSpace(token)))]
	return m, ok
}

// StripAccents removes diacritics (á → a, ñ → n).
func StripAccents(text string) string {
	out, _, err := transform.String(accentStripper, text)
	if err != nil {
		return text
	}
	return out
}

// ParseSpanishDate parses a day-month-year string where the month is either a
// three-letter Spanish (or English) abbreviation or numeric, with separators
// among '-', '/', '.' and space. Comparison is case and accent insensitive.
// The boolean is false for anything that does not match the grammar; callers
// treat that as "field absent".
func ParseSpanishDate(text string) (time.Time, bool) {
	text = strings.ToUpper(StripAccents(strings.TrimSpace(text)))
	m := dateTokenRegex.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	var month time.Month
	if mm, ok := monthAbbrevs[m[2]]; ok {
		month = mm
	} else {
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 || n > 12 {
			return time.Time{}, false
		}
		month = time.Month(n)
	}

	year, err := strconv.Atoi(m[3])
	if err != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}

	dt := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	// Reject overflowed days like 31-FEB.
	if dt.Day() != day || dt.Month() != month {
		return time.Time{}, false
	}
	return dt, true
}

// ParseDateRange parses "01-DIC-2025 AL 31-DIC-2025" style period ranges.
var rangeSeparators = []string{" AL ", " A ", " - ", " TO "}

func ParseDateRange(text string) (start, end time.Time, ok bool) {
	upper := strings.ToUpper(text)
	for _, sep := range rangeSeparators {
		idx := strings.Index(upper, sep)
		if idx < 0 {
			continue
		}
		s, okS := ParseSpanishDate(upper[:idx])
		e, okE := ParseSpanishDate(upper[idx+len(sep):])
		if okS && okE {
			return s, e, true
		}
	}
	return time.Time{}, time.Time{}, false
}

// ParseAmount parses a Mexican-formatted currency string: optional "$",
// thousands commas, parenthesized negatives. A lone "-" or empty string is
// zero. The boolean is false for non-numeric garbage.
func ParseAmount(text string) (decimal.Decimal, bool) {
	text = strings.TrimSpace(text)

	negative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		negative = true
		text = text[1 : len(text)-1]
	}

	text = currencyJunkRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, ",", "")

	if text == "-" || text == "" {
		return decimal.Zero, true
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, true
}

// NormalizeDescription canonicalizes a transaction description: upper-case,
// accents stripped, everything outside [A-Z0-9 and whitespace] replaced by a
// space, whitespace collapsed, trimmed. Downstream duplicate detection and
// classification join on this exact form, so its behavior is pinned by tests.
func NormalizeDescription(text string) string {
	text = StripAccents(strings.ToUpper(text))
	text = nonDescCharRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ClassifyTransaction decides the transaction type from keywords in the
// (normalized) description. Returns the type and whether the row is
// interest-bearing.
func ClassifyTransaction(description string) (txType string, hasInterest bool) {
	desc := NormalizeDescription(description)
	switch {
	case containsAny(desc, "PAGO", "ABONO", "SPEI"):
		return TypePayment, false
	case strings.Contains(desc, "INTERES"):
		return TypeInterest, true
	case containsAny(desc, "COMISION", "ANUALIDAD", "PENALIZACION") || feeWordRegex.MatchString(desc):
		return TypeFee, false
	default:
		return TypeExpense, false
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ApplySign resolves the final signed amount for a transaction row. An
// explicit sign token from the statement always wins; without one, payments
// are forced negative and everything else positive. Every bank grammar routes
// through here so the convention cannot drift per bank.
func ApplySign(amount decimal.Decimal, signToken, txType string) decimal.Decimal {
	switch signToken {
	case "-":
		return amount.Abs().Neg()
	case "+":
		return amount.Abs()
	}
	if txType == TypePayment {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

// ExtractInstallmentInfo pulls an "N DE M" counter out of a description.
func ExtractInstallmentInfo(text string) (current, total int, ok bool) {
	m := installmentRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	current, _ = strconv.Atoi(m[1])
	total, _ = strconv.Atoi(m[2])
	if current <= 0 || total <= 0 || current > total {
		return 0, 0, false
	}
	return current, total, true
}

// InferYear decides the calendar year of a day-month transaction date that
// omits the year, relative to the statement's cut date. A month more than one
// ahead of the cut month belongs to the previous year (December purchases on
// a January-cut statement).
func InferYear(month time.Month, periodEnd time.Time) int {
	if int(month) > int(periodEnd.Month())+1 {
		return periodEnd.Year() - 1
	}
	return periodEnd.Year()
}

// FixDateYear pins a parsed transaction date to the statement's year using
// the same previous-year rule as InferYear.
func FixDateYear(txDate, statementDate time.Time) time.Time {
	year := InferYear(txDate.Month(), statementDate)
	if year == txDate.Year() {
		return txDate
	}
	return time.Date(year, txDate.Month(), txDate.Day(), 0, 0, 0, 0, txDate.Location())
}

// HasExcludedKeyword reports whether a candidate row is a header, subtotal or
// footer line that must never produce a record even when it matches the row
// shape.
func HasExcludedKeyword(description string, extra ...string) bool {
	desc := NormalizeDescription(description)
	keywords := append([]string{"TOTAL", "SALDO", "SUBTOTAL", "ORDINARIOS", "MORATORIOS"}, extra...)
	return containsAny(desc, keywords...)
}
