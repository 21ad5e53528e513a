package bulk

import (
	"strings"

	"github.com/rotem1230/gal1/internal/domain/shared"
	csvimport "github.com/rotem1230/gal1/internal/infrastructure/import"
)

// Entity names a catalog table taking part in an exchange
type Entity string

const (
	EntityCategories Entity = "categories"
	EntityProducts   Entity = "products"
	EntityVariations Entity = "variations"
)

// Entities in processing order
var Entities = []Entity{EntityCategories, EntityProducts, EntityVariations}

// Filename is the CSV file name of an entity
func (e Entity) Filename() string {
	return string(e) + ".csv"
}

// Mode selects how imported rows meet existing ones
type Mode string

const (
	// ModeAppend inserts products next to the existing catalog
	ModeAppend Mode = "append"
	// ModeReplace swaps each supplied table for the file contents
	ModeReplace Mode = "replace"
)

// ParseMode maps the query value to a mode; empty means append
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAppend:
		return ModeAppend, nil
	case ModeReplace:
		return ModeReplace, nil
	default:
		return "", shared.NewValidationError("mode must be append or replace")
	}
}

// Files holds uploaded CSV contents keyed by entity
type Files map[Entity][]byte

// ImportQuery is the query string of an import request
type ImportQuery struct {
	Mode string `form:"mode" binding:"omitempty,oneof=append replace"`
}

// Archive is an exported catalog
type Archive struct {
	Filename string
	Data     []byte
}

// ArchiveFilename is the download name of an export
const ArchiveFilename = "catalog_export.zip"

// EntityResult counts the rows an import touched in one table
type EntityResult struct {
	RowsInserted int64 `json:"rows_inserted"`
	RowsDeleted  int64 `json:"rows_deleted"`
}

// ImportResult is returned after a successful import
type ImportResult struct {
	Mode     Mode                    `json:"mode"`
	Entities map[Entity]EntityResult `json:"entities"`
	// Warnings lists image references that do not resolve
	Warnings []string `json:"warnings,omitempty"`
}

// RowErrorDetails is attached to the validation error of a rejected file
type RowErrorDetails struct {
	File        string               `json:"file"`
	Errors      []csvimport.RowError `json:"errors"`
	TotalErrors int                  `json:"total_errors"`
	Truncated   bool                 `json:"truncated,omitempty"`
}

// MissingColumnsDetails is attached when required columns are absent
type MissingColumnsDetails struct {
	File    string   `json:"file"`
	Missing []string `json:"missing_columns"`
}

// OrphanedRowsDetails lists existing rows a replacement would leave without
// their parent
type OrphanedRowsDetails struct {
	File     string   `json:"file"`
	Entity   Entity   `json:"orphaned_entity"`
	IDs      []string `json:"orphaned_ids"`
	TotalIDs int      `json:"total_orphaned"`
}

// Export column layouts
var (
	categoryColumns  = []string{"id", "name", "image"}
	productColumns   = []string{"id", "name", "price_without_vat", "price_with_vat", "image", "category_id"}
	variationColumns = []string{"id", "product_id", "name", "price_without_vat", "price_with_vat", "image"}
)

// Required columns per mode and entity
var (
	appendProductColumns    = []string{"name", "price_with_vat", "category"}
	replaceCategoryColumns  = []string{"name"}
	replaceProductColumns   = []string{"name", "price_with_vat", "category_id"}
	replaceVariationColumns = []string{"product_id", "name", "price_with_vat"}
)

// ParseEntity maps an upload field or file name to an entity
func ParseEntity(name string) (Entity, bool) {
	name = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".csv")
	for _, e := range Entities {
		if string(e) == name {
			return e, true
		}
	}
	return "", false
}
