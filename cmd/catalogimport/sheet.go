package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/clcruickshank2/datenight/internal/domain"
)

// firstDataRow skips the title, source and header rows of the sheet.
const firstDataRow = 4

const (
	colName = iota + 1 // column B
	colPrice
	colNeighborhood
	colGoogle
	colCuisine
	colVibes
	colSources
)

var (
	ratingExpr    = regexp.MustCompile(`([0-5](?:\.\d)?)\s*$`)
	tagCharExpr   = regexp.MustCompile(`[^a-z0-9\-\s]`)
	spaceExpr     = regexp.MustCompile(`\s+`)
	cuisineSplit  = regexp.MustCompile(`[()/,]`)
	numericIDExpr = regexp.MustCompile(`^\d+$`)
)

// profileID accepts a UUID or a numeric shorthand such as 0001.
func profileID(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if id, err := uuid.Parse(token); err == nil && len(token) == 36 {
		return id.String(), nil
	}
	if numericIDExpr.MatchString(token) {
		n, err := strconv.ParseInt(token, 10, 64)
		if err == nil {
			return fmt.Sprintf("00000000-0000-0000-0000-%012d", n), nil
		}
	}
	return "", fmt.Errorf("profile id %q is not a UUID or numeric shorthand (e.g. 0001)", raw)
}

func normalizeTag(s string) string {
	cleaned := tagCharExpr.ReplaceAllString(strings.ToLower(s), " ")
	return strings.TrimSpace(spaceExpr.ReplaceAllString(cleaned, " "))
}

// splitTags merges comma separated vibes with coarse cuisine tokens,
// so "Italian (Northern)" contributes italian and northern.
func splitTags(vibes, cuisine string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	add := func(token string) {
		t := normalizeTag(token)
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, chunk := range strings.Split(vibes, ",") {
		add(chunk)
	}
	for _, part := range cuisineSplit.Split(cuisine, -1) {
		add(part)
	}
	return out
}

// priceLevel counts dollar signs; anything outside 1-4 is unknown (0).
func priceLevel(cell string) int {
	n := strings.Count(cell, "$")
	if n < domain.MinPrice || n > domain.MaxPrice {
		return 0
	}
	return n
}

func googleRating(cell string) (float64, bool) {
	m := ratingExpr.FindStringSubmatch(cell)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	return v, err == nil
}

func buildNotes(cuisine, google, sources string) string {
	var parts []string
	if cuisine != "" {
		parts = append(parts, "Cuisine: "+cuisine)
	}
	if r, ok := googleRating(google); ok {
		parts = append(parts, fmt.Sprintf("Google rating: %.1f", r))
	}
	if sources != "" {
		parts = append(parts, "Sources: "+sources)
	}
	return strings.Join(parts, " | ")
}

// rowToRestaurant maps one sheet row; ok is false when the name cell is empty.
func rowToRestaurant(cells []string) (domain.Restaurant, bool) {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	name := cell(colName)
	if name == "" {
		return domain.Restaurant{}, false
	}
	return domain.Restaurant{
		Name:         name,
		Neighborhood: cell(colNeighborhood),
		PriceLevel:   priceLevel(cell(colPrice)),
		Tags:         splitTags(cell(colVibes), cell(colCuisine)),
		Notes:        buildNotes(cell(colCuisine), cell(colGoogle), cell(colSources)),
	}, true
}

// readSheet parses the first worksheet of an .xlsx workbook.
func readSheet(path string) ([]domain.Restaurant, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	// One upsert statement cannot touch the same (profile_id, name) twice.
	var out []domain.Restaurant
	seen := map[string]struct{}{}
	for i, cells := range rows {
		if i+1 < firstDataRow {
			continue
		}
		r, ok := rowToRestaurant(cells)
		if !ok {
			continue
		}
		if _, dup := seen[r.Name]; dup {
			continue
		}
		seen[r.Name] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}
