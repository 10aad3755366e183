package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/lunajoyas/catalogo/internal/cache"
	"github.com/lunajoyas/catalogo/internal/catalog"
	"github.com/lunajoyas/catalogo/internal/docstore"
	"github.com/lunajoyas/catalogo/internal/logging"
	"github.com/lunajoyas/catalogo/internal/media"
	"github.com/lunajoyas/catalogo/internal/models"
	"github.com/lunajoyas/catalogo/internal/repository"
)

const (
	SortNewest    = "newest"
	SortPopular   = "popular"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// Query selects and orders storefront products. Categories and tags match
// any of the given ids; the dimensions combine with AND.
type Query struct {
	Categories []string
	Tags       []string
	Collection string
	Search     string
	Sort       string
	Locale     string
}

// Snapshot is everything the storefront reads, loaded at once and cached.
type Snapshot struct {
	Products        []*models.Product        `json:"products"`
	Categories      []*models.Category       `json:"categories"`
	Tags            []*models.Tag            `json:"tags"`
	Collections     []*models.Collection     `json:"collections"`
	ShippingOptions []*models.ShippingOption `json:"shippingOptions"`
	PaymentMethods  []*models.PaymentMethod  `json:"paymentMethods"`
	Pricing         *models.PricingConfig    `json:"pricing"`
	Discount        *models.GlobalDiscount   `json:"discount,omitempty"`
}

type ProductView struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Categories  []string      `json:"categories"`
	Tags        []string      `json:"tags,omitempty"`
	Price       catalog.Price `json:"price"`
	Discount    float64       `json:"discountPercent,omitempty"`
	IsNew       bool          `json:"isNew"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	Images      []string      `json:"images,omitempty"`
}

type ContactLinks struct {
	WhatsApp  string `json:"whatsapp,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

type ProductDetail struct {
	ProductView
	DiscountNote string       `json:"discountNote,omitempty"`
	Contact      ContactLinks `json:"contact"`
}

// NamedView is the localized public face of a category, tag, collection
// or payment method.
type NamedView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Image       string `json:"image,omitempty"`
}

type ShippingView struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Price          float64 `json:"price"`
	FormattedPrice string  `json:"formattedPrice"`
	EstimatedDays  string  `json:"estimatedDays,omitempty"`
}

type PromotionView struct {
	Percent     float64 `json:"percent"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
}

type StorefrontOptions struct {
	Repositories    *repository.Repositories
	Cache           cache.Provider
	CacheTTL        time.Duration
	Pricer          *catalog.Pricer
	Translator      Translator
	WhatsAppNumber  string
	InstagramHandle string
	Logger          *slog.Logger
}

// Translator is the slice of i18n the services need.
type Translator interface {
	DefaultLocale() string
	Normalize(locale string) string
	T(locale, key string) string
	Tf(locale, key string, args ...any) string
	FormatPrice(locale string, amount float64) string
}

// StorefrontService serves the public, published view of the catalog.
type StorefrontService struct {
	repos     *repository.Repositories
	cache     cache.Provider
	cacheTTL  time.Duration
	pricer    *catalog.Pricer
	tr        Translator
	whatsApp  string
	instagram string
	logger    *slog.Logger
}

func NewStorefrontService(opts StorefrontOptions) (*StorefrontService, error) {
	if opts.Repositories == nil {
		return nil, fmt.Errorf("storefront service: repositories are required")
	}
	if opts.Translator == nil {
		return nil, fmt.Errorf("storefront service: translator is required")
	}
	s := &StorefrontService{
		repos:     opts.Repositories,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		pricer:    opts.Pricer,
		tr:        opts.Translator,
		whatsApp:  opts.WhatsAppNumber,
		instagram: strings.TrimPrefix(opts.InstagramHandle, "@"),
		logger:    opts.Logger,
	}
	if s.pricer == nil {
		s.pricer = catalog.NewPricer()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "storefront_service")
	return s, nil
}

func (s *StorefrontService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Snapshot returns the published catalog, from cache when possible.
func (s *StorefrontService) Snapshot(ctx context.Context) (*Snapshot, error) {
	logger := s.loggerFromContext(ctx)
	if s.cache != nil {
		var snap Snapshot
		err := cache.GetJSON(ctx, s.cache, cache.StorefrontKey(), &snap)
		if err == nil {
			return &snap, nil
		}
		if !errors.Is(err, cache.ErrNotFound) {
			logger.WarnContext(ctx, "failed to read storefront cache", "error", err)
		}
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, cache.StorefrontKey(), snap, s.cacheTTL); err != nil {
			logger.WarnContext(ctx, "failed to write storefront cache", "error", err)
		}
	}
	return snap, nil
}

func (s *StorefrontService) load(ctx context.Context) (*Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Products, err = s.repos.PublishedProducts(ctx); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if snap.Categories, err = s.repos.Categories.List(ctx); err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if snap.Tags, err = s.repos.Tags.List(ctx); err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	if snap.Collections, err = s.repos.Collections.List(ctx, docstore.Where("published", true)); err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}
	if snap.ShippingOptions, err = s.repos.ShippingOptions.List(ctx, docstore.Where("active", true)); err != nil {
		return nil, fmt.Errorf("failed to load shipping options: %w", err)
	}
	if snap.PaymentMethods, err = s.repos.PaymentMethods.List(ctx, docstore.Where("active", true)); err != nil {
		return nil, fmt.Errorf("failed to load payment methods: %w", err)
	}
	if snap.Pricing, err = s.repos.Settings.Pricing(ctx); err != nil {
		return nil, fmt.Errorf("failed to load pricing: %w", err)
	}
	if snap.Discount, err = s.repos.Settings.Discount(ctx); err != nil {
		return nil, fmt.Errorf("failed to load discount: %w", err)
	}

	slices.SortStableFunc(snap.Categories, func(a, b *models.Category) int { return cmp.Compare(a.Order, b.Order) })
	slices.SortStableFunc(snap.Collections, func(a, b *models.Collection) int { return cmp.Compare(a.Order, b.Order) })
	slices.SortStableFunc(snap.ShippingOptions, func(a, b *models.ShippingOption) int { return cmp.Compare(a.Order, b.Order) })
	slices.SortStableFunc(snap.PaymentMethods, func(a, b *models.PaymentMethod) int { return cmp.Compare(a.Order, b.Order) })
	return &snap, nil
}

// Products returns the published products matching q, sorted by q.Sort.
func (s *StorefrontService) Products(ctx context.Context, q Query) ([]*models.Product, *Snapshot, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s.filter(snap, q), snap, nil
}

func (s *StorefrontService) ListProducts(ctx context.Context, q Query) ([]ProductView, error) {
	products, snap, err := s.Products(ctx, q)
	if err != nil {
		return nil, err
	}
	locale := s.tr.Normalize(q.Locale)
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, s.view(p, snap, locale))
	}
	return views, nil
}

// Product returns one published product with contact links.
func (s *StorefrontService) Product(ctx context.Context, id, locale string) (*ProductDetail, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(snap.Products, func(p *models.Product) bool { return p.ID == id })
	if idx < 0 {
		return nil, fmt.Errorf("%w: product %q", ErrNotFound, id)
	}

	locale = s.tr.Normalize(locale)
	product := snap.Products[idx]
	detail := &ProductDetail{ProductView: s.view(product, snap, locale)}
	if product.Discount != nil && product.Discount.Enabled {
		detail.DiscountNote = product.Discount.Description
	}
	detail.Contact = s.contactLinks(product, detail.Price, locale)
	return detail, nil
}

func (s *StorefrontService) Categories(ctx context.Context, locale string) ([]NamedView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	locale = s.tr.Normalize(locale)
	out := make([]NamedView, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		out = append(out, NamedView{ID: c.ID, Name: c.Name.In(locale), Description: c.Description.In(locale), Slug: c.Slug, Image: c.Image})
	}
	return out, nil
}

func (s *StorefrontService) Tags(ctx context.Context, locale string) ([]NamedView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	locale = s.tr.Normalize(locale)
	out := make([]NamedView, 0, len(snap.Tags))
	for _, t := range snap.Tags {
		out = append(out, NamedView{ID: t.ID, Name: t.Name.In(locale), Slug: t.Slug})
	}
	return out, nil
}

func (s *StorefrontService) Collections(ctx context.Context, locale string) ([]NamedView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	locale = s.tr.Normalize(locale)
	out := make([]NamedView, 0, len(snap.Collections))
	for _, c := range snap.Collections {
		thumb, _ := media.Variants(c.Image)
		out = append(out, NamedView{ID: c.ID, Name: c.Name.In(locale), Description: c.Description.In(locale), Image: thumb})
	}
	return out, nil
}

func (s *StorefrontService) ShippingOptions(ctx context.Context, locale string) ([]ShippingView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	locale = s.tr.Normalize(locale)
	out := make([]ShippingView, 0, len(snap.ShippingOptions))
	for _, o := range snap.ShippingOptions {
		out = append(out, ShippingView{
			ID:             o.ID,
			Name:           o.Name.In(locale),
			Description:    o.Description.In(locale),
			Price:          o.Price,
			FormattedPrice: s.tr.FormatPrice(locale, o.Price),
			EstimatedDays:  o.EstimatedDays,
		})
	}
	return out, nil
}

func (s *StorefrontService) PaymentMethods(ctx context.Context, locale string) ([]NamedView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	locale = s.tr.Normalize(locale)
	out := make([]NamedView, 0, len(snap.PaymentMethods))
	for _, m := range snap.PaymentMethods {
		out = append(out, NamedView{ID: m.ID, Name: m.Name.In(locale), Description: m.Description.In(locale)})
	}
	return out, nil
}

// Promotion returns the global discount banner, or nil when none applies.
func (s *StorefrontService) Promotion(ctx context.Context, locale string) (*PromotionView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !snap.Discount.IsApplicable() {
		return nil, nil
	}
	locale = s.tr.Normalize(locale)
	return &PromotionView{
		Percent:     snap.Discount.Percent,
		Title:       snap.Discount.Title.In(locale),
		Description: snap.Discount.Description.In(locale),
	}, nil
}

// CategoryNames maps every category id to its name in locale.
func (snap *Snapshot) CategoryNames(locale string) map[string]string {
	names := make(map[string]string, len(snap.Categories))
	for _, c := range snap.Categories {
		names[c.ID] = c.Name.In(locale)
	}
	return names
}

func (s *StorefrontService) filter(snap *Snapshot, q Query) []*models.Product {
	var members map[string]bool
	if q.Collection != "" {
		members = map[string]bool{}
		for _, c := range snap.Collections {
			if c.ID == q.Collection {
				for _, id := range c.ProductIDs {
					members[id] = true
				}
			}
		}
	}
	needle := foldText(q.Search)

	out := make([]*models.Product, 0, len(snap.Products))
	for _, p := range snap.Products {
		if len(q.Categories) > 0 && !slices.ContainsFunc(q.Categories, p.HasCategory) {
			continue
		}
		if len(q.Tags) > 0 && !slices.ContainsFunc(q.Tags, p.HasTag) {
			continue
		}
		if members != nil && !members[p.ID] {
			continue
		}
		if needle != "" && !matchesSearch(p, needle) {
			continue
		}
		out = append(out, p)
	}

	s.sort(out, snap, q.Sort)
	return out
}

func (s *StorefrontService) sort(products []*models.Product, snap *Snapshot, order string) {
	switch order {
	case SortPopular:
		slices.SortStableFunc(products, func(a, b *models.Product) int {
			return cmp.Compare(b.Popularity, a.Popularity)
		})
	case SortPriceAsc, SortPriceDesc:
		prices := make(map[string]float64, len(products))
		for _, p := range products {
			prices[p.ID] = s.pricer.Resolve(p, snap.Pricing, snap.Discount).Price
		}
		slices.SortStableFunc(products, func(a, b *models.Product) int {
			if order == SortPriceDesc {
				return cmp.Compare(prices[b.ID], prices[a.ID])
			}
			return cmp.Compare(prices[a.ID], prices[b.ID])
		})
	default:
		slices.SortStableFunc(products, func(a, b *models.Product) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
}

func (s *StorefrontService) view(p *models.Product, snap *Snapshot, locale string) ProductView {
	view := ProductView{
		ID:          p.ID,
		Title:       p.Title.In(locale),
		Description: p.Description.In(locale),
		Categories:  p.Categories,
		Tags:        p.Tags,
		Price:       s.pricer.Resolve(p, snap.Pricing, snap.Discount),
		Discount:    s.pricer.DiscountPercent(p, snap.Discount),
		IsNew:       p.IsNew,
	}
	for i, img := range p.Images {
		thumb, detail := media.Variants(img)
		if i == 0 {
			view.Thumbnail = thumb
		}
		view.Images = append(view.Images, detail)
	}
	return view
}

func (s *StorefrontService) contactLinks(p *models.Product, price catalog.Price, locale string) ContactLinks {
	var links ContactLinks
	if s.whatsApp != "" {
		text := s.tr.Tf(locale, "contact.whatsapp", p.Title.In(locale), s.tr.FormatPrice(locale, price.Price))
		links.WhatsApp = "https://wa.me/" + s.whatsApp + "?text=" + url.QueryEscape(text)
	}
	if s.instagram != "" {
		links.Instagram = "https://instagram.com/" + url.PathEscape(s.instagram)
	}
	return links
}

func matchesSearch(p *models.Product, needle string) bool {
	for _, text := range []models.LocalizedText{p.Title, p.Description} {
		for _, v := range text {
			if strings.Contains(foldText(v), needle) {
				return true
			}
		}
	}
	return false
}

func foldText(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}
