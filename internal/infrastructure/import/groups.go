package csvimport

import "strings"

// Suffixes of the wide variation columns on a product row
const (
	GroupNameSuffix  = "_name"
	GroupPriceSuffix = "_price_with_vat"
	GroupImageSuffix = "_image"
)

// VariationGroup is a set of columns describing one variation inline on a
// product row, e.g. size_name, size_price_with_vat, size_image.
type VariationGroup struct {
	Prefix      string
	NameColumn  string
	PriceColumn string
	// ImageColumn is empty when the file has no <prefix>_image column.
	ImageColumn string
}

// DiscoverGroups finds variation groups in a header row. A group exists
// when both <prefix>_name and <prefix>_price_with_vat are present. Groups
// are returned in the order their name column appears. Partial groups are
// skipped here; IncompleteGroups reports them.
func DiscoverGroups(headers []string) []VariationGroup {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var groups []VariationGroup
	seen := make(map[string]bool)
	for _, h := range headers {
		if !strings.HasSuffix(h, GroupNameSuffix) {
			continue
		}
		prefix := strings.TrimSuffix(h, GroupNameSuffix)
		if prefix == "" || seen[prefix] {
			continue
		}
		if !present[prefix+GroupPriceSuffix] {
			continue
		}
		seen[prefix] = true
		g := VariationGroup{
			Prefix:      prefix,
			NameColumn:  h,
			PriceColumn: prefix + GroupPriceSuffix,
		}
		if present[prefix+GroupImageSuffix] {
			g.ImageColumn = prefix + GroupImageSuffix
		}
		groups = append(groups, g)
	}
	return groups
}

// IncompleteGroups returns the columns a partial variation group lacks: the
// price column of a <prefix>_name without <prefix>_price_with_vat, and the
// name column of a price or image column without <prefix>_name. The result
// follows header order and is empty when every group is complete.
func IncompleteGroups(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var missing []string
	reported := make(map[string]bool)
	report := func(column string) {
		if !present[column] && !reported[column] {
			reported[column] = true
			missing = append(missing, column)
		}
	}
	for _, h := range headers {
		switch {
		case strings.HasSuffix(h, GroupNameSuffix):
			if prefix := strings.TrimSuffix(h, GroupNameSuffix); prefix != "" {
				report(prefix + GroupPriceSuffix)
			}
		case strings.HasSuffix(h, GroupPriceSuffix):
			if prefix := strings.TrimSuffix(h, GroupPriceSuffix); prefix != "" {
				report(prefix + GroupNameSuffix)
			}
		case strings.HasSuffix(h, GroupImageSuffix):
			if prefix := strings.TrimSuffix(h, GroupImageSuffix); prefix != "" {
				report(prefix + GroupNameSuffix)
			}
		}
	}
	return missing
}

// Values reads the group's cells from a row. ok is false when the name cell
// is blank, meaning the row has no variation in this group.
func (g VariationGroup) Values(row *Row) (name, price, image string, ok bool) {
	name = row.Get(g.NameColumn)
	if name == "" {
		return "", "", "", false
	}
	price = row.Get(g.PriceColumn)
	if g.ImageColumn != "" {
		image = row.Get(g.ImageColumn)
	}
	return name, price, image, true
}
