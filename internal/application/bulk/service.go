// Package bulk exports the catalog as CSV files in a ZIP archive and imports
// such files back, either appending products or replacing whole tables.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	catalogapp "github.com/rotem1230/gal1/internal/application/catalog"
	"github.com/rotem1230/gal1/internal/domain/catalog"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/shared"
	csvimport "github.com/rotem1230/gal1/internal/infrastructure/import"
	"github.com/rotem1230/gal1/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultMaxErrors    = 100
	defaultMaxEntrySize = 10 << 20
)

// Metrics records imported rows
type Metrics interface {
	RecordRowsImported(ctx context.Context, entity string, rows int64)
}

// Service moves the catalog in and out of CSV files
type Service struct {
	exchange     catalog.ExchangeRepository
	categories   catalog.CategoryRepository
	images       catalogapp.ImageStore
	metrics      Metrics
	maxErrors    int
	maxEntrySize int64
	tempDir      string
	logger       *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithMetrics sets the metrics recorder
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLimits bounds the row errors kept per file and the size of an archive entry
func WithLimits(maxErrors int, maxEntrySize int64) Option {
	return func(s *Service) {
		if maxErrors > 0 {
			s.maxErrors = maxErrors
		}
		if maxEntrySize > 0 {
			s.maxEntrySize = maxEntrySize
		}
	}
}

// WithTempDir sets where export files are staged; empty means the OS default
func WithTempDir(dir string) Option {
	return func(s *Service) { s.tempDir = dir }
}

// NewService creates a bulk exchange service. images may be nil, in which
// case image references are not checked.
func NewService(
	exchange catalog.ExchangeRepository,
	categories catalog.CategoryRepository,
	images catalogapp.ImageStore,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		exchange:     exchange,
		categories:   categories,
		images:       images,
		maxErrors:    defaultMaxErrors,
		maxEntrySize: defaultMaxEntrySize,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export writes the three catalog tables into a ZIP archive
func (s *Service) Export(ctx context.Context) (*Archive, error) {
	dump, err := s.exchange.Dump(ctx)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(s.tempDir, "catalog-export-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	defer os.RemoveAll(dir)

	tables := []struct {
		entity  Entity
		headers []string
		rows    [][]string
	}{
		{EntityCategories, categoryColumns, categoryRows(dump.Categories)},
		{EntityProducts, productColumns, productRows(dump.Products)},
		{EntityVariations, variationColumns, variationRows(dump.Variations)},
	}
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		if err := csvimport.WriteTableFile(filepath.Join(dir, t.entity.Filename()), t.headers, t.rows); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", t.entity.Filename(), err)
		}
		names = append(names, t.entity.Filename())
	}

	data, err := csvimport.ArchiveFiles(dir, names)
	if err != nil {
		return nil, fmt.Errorf("failed to build export archive: %w", err)
	}

	s.logger.Info("Catalog exported",
		zap.Int("categories", len(dump.Categories)),
		zap.Int("products", len(dump.Products)),
		zap.Int("variations", len(dump.Variations)),
		zap.Int("bytes", len(data)),
	)
	return &Archive{Filename: ArchiveFilename, Data: data}, nil
}

// FilesFromArchive extracts the catalog CSV files of an uploaded archive.
// Entries are matched by file name; anything else is ignored.
func (s *Service) FilesFromArchive(data []byte) (Files, error) {
	entries, err := csvimport.ReadArchive(data, s.maxEntrySize)
	if err != nil {
		if errors.Is(err, csvimport.ErrFileTooLarge) {
			return nil, shared.NewValidationError(err.Error())
		}
		return nil, &shared.DomainError{Code: shared.CodeValidation, Message: "archive could not be read", Err: err}
	}
	files := make(Files)
	for _, entity := range Entities {
		if content, ok := entries[string(entity)]; ok {
			files[entity] = content
		}
	}
	if len(files) == 0 {
		return nil, shared.NewValidationError("archive contains no categories, products or variations file")
	}
	return files, nil
}

// Import loads the supplied files. Every file is parsed and validated before
// anything is written; a single bad row rejects the whole import.
func (s *Service) Import(ctx context.Context, files Files, mode Mode) (result *ImportResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bulk", "Import", attribute.String("mode", string(mode)))
	defer func() { telemetry.EndSpan(span, err) }()

	if len(files) == 0 {
		return nil, shared.NewValidationError("no import files supplied")
	}

	switch mode {
	case ModeAppend:
		result, err = s.importAppend(ctx, files)
	case ModeReplace:
		result, err = s.importReplace(ctx, files)
	default:
		return nil, shared.NewValidationError("mode must be append or replace")
	}
	if err != nil {
		return nil, err
	}

	for entity, r := range result.Entities {
		if s.metrics != nil {
			s.metrics.RecordRowsImported(ctx, string(entity), r.RowsInserted)
		}
		s.logger.Info("Catalog table imported",
			zap.String("mode", string(mode)),
			zap.String("entity", string(entity)),
			zap.Int64("rows_inserted", r.RowsInserted),
			zap.Int64("rows_deleted", r.RowsDeleted),
		)
	}
	return result, nil
}

func (s *Service) importAppend(ctx context.Context, files Files) (*ImportResult, error) {
	for entity := range files {
		if entity != EntityProducts {
			return nil, shared.NewValidationError("append mode imports products only")
		}
	}

	table, err := parseTable(EntityProducts, files[EntityProducts], appendProductColumns)
	if err != nil {
		return nil, err
	}
	existing, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	ec := csvimport.NewErrorCollection(s.maxErrors)
	refs := &imageRefs{}
	products := parseProducts(table, "category", false, indexCategories(existing), ec, refs)
	if ec.HasErrors() {
		return nil, rowErrors(EntityProducts, ec)
	}

	if err := s.exchange.AppendProducts(ctx, products); err != nil {
		return nil, err
	}

	result := &ImportResult{
		Mode: ModeAppend,
		Entities: map[Entity]EntityResult{
			EntityProducts: {RowsInserted: int64(len(products))},
		},
		Warnings: s.checkImages(ctx, refs),
	}
	if n := countVariations(products); n > 0 {
		result.Entities[EntityVariations] = EntityResult{RowsInserted: n}
	}
	return result, nil
}

func (s *Service) importReplace(ctx context.Context, files Files) (*ImportResult, error) {
	dump, err := s.exchange.Dump(ctx)
	if err != nil {
		return nil, err
	}
	refs := &imageRefs{}

	// parse and validate everything first
	categoryData, replaceCategories := files[EntityCategories]
	productData, replaceProducts := files[EntityProducts]
	variationData, replaceVariations := files[EntityVariations]

	var categories []catalog.Category
	cats := indexCategories(dump.Categories)
	if replaceCategories {
		table, err := parseTable(EntityCategories, categoryData, replaceCategoryColumns)
		if err != nil {
			return nil, err
		}
		ec := csvimport.NewErrorCollection(s.maxErrors)
		categories = parseCategories(table, ec, refs)
		if ec.HasErrors() {
			return nil, rowErrors(EntityCategories, ec)
		}
		cats = indexCategories(categories)
		if !replaceProducts {
			if err := checkCategoryOwners(dump.Products, cats); err != nil {
				return nil, err
			}
		}
	}

	var products []catalog.Product
	withGroups := false
	productIDs := make(map[uuid.UUID]bool, len(dump.Products))
	for i := range dump.Products {
		productIDs[dump.Products[i].ID] = true
	}
	if replaceProducts {
		table, err := parseTable(EntityProducts, productData, replaceProductColumns)
		if err != nil {
			return nil, err
		}
		ec := csvimport.NewErrorCollection(s.maxErrors)
		products = parseProducts(table, "category_id", true, cats, ec, refs)
		if ec.HasErrors() {
			return nil, rowErrors(EntityProducts, ec)
		}
		withGroups = len(csvimport.DiscoverGroups(table.Headers)) > 0
		productIDs = make(map[uuid.UUID]bool, len(products))
		for i := range products {
			productIDs[products[i].ID] = true
		}
	}

	var variations []catalog.Variation
	if replaceVariations {
		table, err := parseTable(EntityVariations, variationData, replaceVariationColumns)
		if err != nil {
			return nil, err
		}
		ec := csvimport.NewErrorCollection(s.maxErrors)
		variations = parseVariations(table, productIDs, ec, refs)
		if ec.HasErrors() {
			return nil, rowErrors(EntityVariations, ec)
		}
	}

	// each table is replaced in its own transaction
	result := &ImportResult{Mode: ModeReplace, Entities: make(map[Entity]EntityResult)}
	if replaceCategories {
		res, err := s.exchange.ReplaceCategories(ctx, categories)
		if err != nil {
			return nil, err
		}
		result.Entities[EntityCategories] = toEntityResult(res)
	}
	if replaceProducts {
		withVariations := withGroups && !replaceVariations
		pres, vres, err := s.exchange.ReplaceProducts(ctx, products, withVariations)
		if err != nil {
			return nil, err
		}
		result.Entities[EntityProducts] = toEntityResult(pres)
		if withVariations || vres.Deleted > 0 {
			result.Entities[EntityVariations] = toEntityResult(vres)
		}
		if replaceVariations {
			// inline variation columns join the variations file
			nested := make([]catalog.Variation, 0, countVariations(products))
			for i := range products {
				nested = append(nested, products[i].Variations...)
			}
			variations = append(nested, variations...)
		}
	}
	if replaceVariations {
		res, err := s.exchange.ReplaceVariations(ctx, variations)
		if err != nil {
			return nil, err
		}
		// rows pruned with their products count as deleted too
		res.Deleted += result.Entities[EntityVariations].RowsDeleted
		result.Entities[EntityVariations] = toEntityResult(res)
	}

	result.Warnings = s.checkImages(ctx, refs)
	return result, nil
}

// maxOrphanedIDs bounds the ids listed in a conflict response
const maxOrphanedIDs = 20

// checkCategoryOwners refuses a category replacement that would leave
// existing products pointing at a category that no longer exists.
func checkCategoryOwners(products []catalog.Product, cats categoryIndex) error {
	var orphaned []string
	for i := range products {
		if !cats.byID[products[i].CategoryID] {
			orphaned = append(orphaned, products[i].ID.String())
		}
	}
	if len(orphaned) == 0 {
		return nil
	}
	details := OrphanedRowsDetails{
		File:     EntityCategories.Filename(),
		Entity:   EntityProducts,
		IDs:      orphaned,
		TotalIDs: len(orphaned),
	}
	if len(details.IDs) > maxOrphanedIDs {
		details.IDs = details.IDs[:maxOrphanedIDs]
	}
	return shared.NewReferentialConflictError(fmt.Sprintf(
		"%s would leave %d products without a category; supply products.csv in the same import",
		EntityCategories.Filename(), len(orphaned),
	)).WithDetails(details)
}

func toEntityResult(r catalog.ReplaceResult) EntityResult {
	return EntityResult{RowsInserted: r.Inserted, RowsDeleted: r.Deleted}
}

func countVariations(products []catalog.Product) int64 {
	var n int64
	for i := range products {
		n += int64(len(products[i].Variations))
	}
	return n
}

func parseTable(entity Entity, data []byte, required []string) (*csvimport.Table, error) {
	table, err := csvimport.ParseTable(data, required)
	if err == nil && entity == EntityProducts {
		// a partial variation group would silently drop its cells
		if cols := csvimport.IncompleteGroups(table.Headers); len(cols) > 0 {
			err = &csvimport.MissingColumnsError{Columns: cols}
		}
	}
	if err == nil {
		return table, nil
	}
	var missing *csvimport.MissingColumnsError
	if errors.As(err, &missing) {
		return nil, shared.NewValidationError(entity.Filename() + ": " + missing.Error()).
			WithDetails(MissingColumnsDetails{File: entity.Filename(), Missing: missing.Columns})
	}
	return nil, &shared.DomainError{
		Code:    shared.CodeValidation,
		Message: entity.Filename() + " could not be parsed",
		Err:     err,
	}
}

func rowErrors(entity Entity, ec *csvimport.ErrorCollection) error {
	return shared.NewValidationError(ec.Summary(entity.Filename())).WithDetails(RowErrorDetails{
		File:        entity.Filename(),
		Errors:      ec.Errors(),
		TotalErrors: ec.TotalCount(),
		Truncated:   ec.Truncated(),
	})
}

// categoryIndex resolves a category cell holding an id or an exact name
type categoryIndex struct {
	byID   map[uuid.UUID]bool
	byName map[string]uuid.UUID
}

func indexCategories(categories []catalog.Category) categoryIndex {
	ix := categoryIndex{
		byID:   make(map[uuid.UUID]bool, len(categories)),
		byName: make(map[string]uuid.UUID, len(categories)),
	}
	for i := range categories {
		ix.byID[categories[i].ID] = true
		name := csvimport.NormalizeValue(categories[i].Name)
		if _, dup := ix.byName[name]; !dup {
			ix.byName[name] = categories[i].ID
		}
	}
	return ix
}

func (ix categoryIndex) resolve(value string) (uuid.UUID, bool) {
	if id, err := uuid.Parse(value); err == nil && ix.byID[id] {
		return id, true
	}
	id, ok := ix.byName[value]
	return id, ok
}

// idTracker parses optional id cells and reports duplicates within a file
type idTracker map[uuid.UUID]int

func (t idTracker) read(row *csvimport.Row, ec *csvimport.ErrorCollection) (uuid.UUID, bool) {
	raw := row.Get("id")
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		ec.AddInvalidID(row.LineNumber, "id", raw)
		return uuid.Nil, false
	}
	if first, seen := t[id]; seen {
		ec.AddDuplicate(row.LineNumber, "id", raw, first)
		return uuid.Nil, false
	}
	t[id] = row.LineNumber
	return id, true
}

func readPrice(row *csvimport.Row, column string, ec *csvimport.ErrorCollection) (pricing.Pair, bool) {
	raw := row.Get(column)
	if raw == "" {
		ec.AddRequired(row.LineNumber, column)
		return pricing.Pair{}, false
	}
	pair, err := pricing.ParseAndDerive(raw, pricing.Inclusive)
	if err != nil {
		ec.AddInvalidPrice(row.LineNumber, column, raw, err)
		return pricing.Pair{}, false
	}
	return pair, true
}

func readRequired(row *csvimport.Row, column string, ec *csvimport.ErrorCollection) (string, bool) {
	v := row.Get(column)
	if v == "" {
		ec.AddRequired(row.LineNumber, column)
		return "", false
	}
	return v, true
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func parseCategories(table *csvimport.Table, ec *csvimport.ErrorCollection, refs *imageRefs) []catalog.Category {
	ids := idTracker{}
	categories := make([]catalog.Category, 0, len(table.Rows))
	for _, row := range table.Rows {
		id, idOK := ids.read(row, ec)
		name, nameOK := readRequired(row, "name", ec)
		if !idOK || !nameOK {
			continue
		}
		image := row.Get("image")
		c, err := catalog.NewCategory(name, optional(image))
		if err != nil {
			ec.AddInvalid(row.LineNumber, "name", err.Error(), name)
			continue
		}
		if id != uuid.Nil {
			c.ID = id
		}
		refs.add(EntityCategories, row.LineNumber, image)
		categories = append(categories, *c)
	}
	return categories
}

func parseProducts(
	table *csvimport.Table,
	categoryColumn string,
	keepIDs bool,
	cats categoryIndex,
	ec *csvimport.ErrorCollection,
	refs *imageRefs,
) []catalog.Product {
	groups := csvimport.DiscoverGroups(table.Headers)
	ids := idTracker{}
	products := make([]catalog.Product, 0, len(table.Rows))

	for _, row := range table.Rows {
		before := ec.TotalCount()

		id := uuid.Nil
		if keepIDs {
			id, _ = ids.read(row, ec)
		}
		name, _ := readRequired(row, "name", ec)
		price, _ := readPrice(row, "price_with_vat", ec)
		categoryID := uuid.Nil
		if value, ok := readRequired(row, categoryColumn, ec); ok {
			if categoryID, ok = cats.resolve(value); !ok {
				ec.AddReference(row.LineNumber, categoryColumn, value, "category")
			}
		}
		if ec.TotalCount() > before {
			continue
		}

		image := row.Get("image")
		p, err := catalog.NewProduct(name, price, categoryID, optional(image))
		if err != nil {
			ec.AddInvalid(row.LineNumber, "name", err.Error(), name)
			continue
		}
		if id != uuid.Nil {
			p.ID = id
		}
		refs.add(EntityProducts, row.LineNumber, image)

		for _, g := range groups {
			vname, _, vimage, ok := g.Values(row)
			if !ok {
				continue
			}
			vprice, ok := readPrice(row, g.PriceColumn, ec)
			if !ok {
				continue
			}
			v, err := catalog.NewImportedVariation(p.ID, vname, vprice, optional(vimage))
			if err != nil {
				ec.AddInvalid(row.LineNumber, g.NameColumn, err.Error(), vname)
				continue
			}
			refs.add(EntityProducts, row.LineNumber, vimage)
			p.Variations = append(p.Variations, *v)
		}
		products = append(products, *p)
	}
	return products
}

func parseVariations(table *csvimport.Table, products map[uuid.UUID]bool, ec *csvimport.ErrorCollection, refs *imageRefs) []catalog.Variation {
	ids := idTracker{}
	variations := make([]catalog.Variation, 0, len(table.Rows))

	for _, row := range table.Rows {
		before := ec.TotalCount()

		id, _ := ids.read(row, ec)
		productID := uuid.Nil
		if raw, ok := readRequired(row, "product_id", ec); ok {
			parsed, err := uuid.Parse(raw)
			switch {
			case err != nil:
				ec.AddInvalidID(row.LineNumber, "product_id", raw)
			case !products[parsed]:
				ec.AddReference(row.LineNumber, "product_id", raw, "product")
			default:
				productID = parsed
			}
		}
		name, _ := readRequired(row, "name", ec)
		price, _ := readPrice(row, "price_with_vat", ec)
		if ec.TotalCount() > before {
			continue
		}

		image := row.Get("image")
		v, err := catalog.NewImportedVariation(productID, name, price, optional(image))
		if err != nil {
			ec.AddInvalid(row.LineNumber, "name", err.Error(), name)
			continue
		}
		if id != uuid.Nil {
			v.ID = id
		}
		refs.add(EntityVariations, row.LineNumber, image)
		variations = append(variations, *v)
	}
	return variations
}

type imageRef struct {
	entity Entity
	row    int
	key    string
}

type imageRefs struct {
	refs []imageRef
}

func (r *imageRefs) add(entity Entity, row int, key string) {
	if key != "" {
		r.refs = append(r.refs, imageRef{entity: entity, row: row, key: key})
	}
}

// checkImages lists image references missing from the image store
func (s *Service) checkImages(ctx context.Context, refs *imageRefs) []string {
	if s.images == nil {
		return nil
	}
	var warnings []string
	known := make(map[string]bool)
	for _, ref := range refs.refs {
		exists, checked := known[ref.key]
		if !checked {
			var err error
			exists, err = s.images.Exists(ctx, ref.key)
			if err != nil {
				s.logger.Warn("Failed to check image", zap.String("image", ref.key), zap.Error(err))
				continue
			}
			known[ref.key] = exists
		}
		if !exists {
			warnings = append(warnings, fmt.Sprintf("%s row %d: image '%s' not found", ref.entity.Filename(), ref.row, ref.key))
		}
	}
	return warnings
}

func imageCell(image *string) string {
	if image == nil {
		return ""
	}
	return *image
}

func categoryRows(categories []catalog.Category) [][]string {
	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []string{c.ID.String(), c.Name, imageCell(c.Image)})
	}
	return rows
}

func productRows(products []catalog.Product) [][]string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			p.ID.String(),
			p.Name,
			p.Price.WithoutVAT.String(),
			p.Price.WithVAT.String(),
			imageCell(p.Image),
			p.CategoryID.String(),
		})
	}
	return rows
}

func variationRows(variations []catalog.Variation) [][]string {
	rows := make([][]string, 0, len(variations))
	for _, v := range variations {
		rows = append(rows, []string{
			v.ID.String(),
			v.ProductID.String(),
			v.Name,
			v.Price.WithoutVAT.String(),
			v.Price.WithVAT.String(),
			imageCell(v.Image),
		})
	}
	return rows
}
