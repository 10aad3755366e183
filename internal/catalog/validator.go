package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lunajoyas/catalogo/internal/models"
)

// FieldProblem describes one rejected field.
type FieldProblem struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every problem found in an entity.
type ValidationError struct {
	Problems []FieldProblem `json:"problems"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Field, p.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, rule, message string) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Rule: rule, Message: message})
}

func (e *ValidationError) merge(prefix string, err error) {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return
	}
	for _, p := range verr.Problems {
		p.Field = prefix + "." + p.Field
		e.Problems = append(e.Problems, p)
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

func (v *Validator) ValidateProduct(product *models.Product) error {
	problems := v.structProblems(product)
	requireLocalized(problems, "title", product.Title)

	switch {
	case product.Pricing == nil && product.Price == nil:
		problems.add("pricing", "required", "a pricing tier or a price is required")
	case product.Pricing != nil && product.Pricing.Type == models.PricingCustom && product.Pricing.CustomPrice == nil:
		problems.add("pricing.customPrice", "required_if", "custom pricing needs an amount")
	}
	if product.Discount != nil && product.Discount.Enabled && product.Discount.Percent <= 0 {
		problems.add("discount.percent", "gt", "an enabled discount needs a percent above zero")
	}
	return problems.orNil()
}

func (v *Validator) ValidateCategory(category *models.Category) error {
	problems := v.structProblems(category)
	requireLocalized(problems, "name", category.Name)
	return problems.orNil()
}

func (v *Validator) ValidateTag(tag *models.Tag) error {
	problems := v.structProblems(tag)
	requireLocalized(problems, "name", tag.Name)
	return problems.orNil()
}

func (v *Validator) ValidateCollection(collection *models.Collection) error {
	problems := v.structProblems(collection)
	requireLocalized(problems, "name", collection.Name)
	return problems.orNil()
}

func (v *Validator) ValidateShippingOption(option *models.ShippingOption) error {
	problems := v.structProblems(option)
	requireLocalized(problems, "name", option.Name)
	return problems.orNil()
}

func (v *Validator) ValidatePaymentMethod(method *models.PaymentMethod) error {
	problems := v.structProblems(method)
	requireLocalized(problems, "name", method.Name)
	return problems.orNil()
}

func (v *Validator) ValidatePricing(pricing *models.PricingConfig) error {
	return v.structProblems(pricing).orNil()
}

func (v *Validator) ValidateDiscount(discount *models.GlobalDiscount) error {
	problems := v.structProblems(discount)
	if discount.Active {
		requireLocalized(problems, "title", discount.Title)
	}
	return problems.orNil()
}

// ValidateSeed checks every entity of a seed file and that products only
// reference categories and tags the seed defines.
func (v *Validator) ValidateSeed(seed *Seed) error {
	problems := &ValidationError{}
	if seed.Pricing != nil {
		problems.merge("pricing", v.ValidatePricing(seed.Pricing))
	}
	if seed.Discount != nil {
		problems.merge("discount", v.ValidateDiscount(seed.Discount))
	}

	categories := make(map[string]bool, len(seed.Categories))
	for i := range seed.Categories {
		problems.merge(fmt.Sprintf("categories[%d]", i), v.ValidateCategory(&seed.Categories[i]))
		categories[seed.Categories[i].ID] = true
	}
	tags := make(map[string]bool, len(seed.Tags))
	for i := range seed.Tags {
		problems.merge(fmt.Sprintf("tags[%d]", i), v.ValidateTag(&seed.Tags[i]))
		tags[seed.Tags[i].ID] = true
	}
	for i := range seed.Collections {
		problems.merge(fmt.Sprintf("collections[%d]", i), v.ValidateCollection(&seed.Collections[i]))
	}
	for i := range seed.ShippingOptions {
		problems.merge(fmt.Sprintf("shippingOptions[%d]", i), v.ValidateShippingOption(&seed.ShippingOptions[i]))
	}
	for i := range seed.PaymentMethods {
		problems.merge(fmt.Sprintf("paymentMethods[%d]", i), v.ValidatePaymentMethod(&seed.PaymentMethods[i]))
	}

	ids := make(map[string]bool, len(seed.Products))
	for i := range seed.Products {
		product := &seed.Products[i]
		prefix := fmt.Sprintf("products[%d]", i)
		problems.merge(prefix, v.ValidateProduct(product))
		if product.ID != "" {
			if ids[product.ID] {
				problems.add(prefix+".id", "unique", fmt.Sprintf("duplicate product id %q", product.ID))
			}
			ids[product.ID] = true
		}
		if len(seed.Categories) > 0 {
			for _, id := range product.Categories {
				if !categories[id] {
					problems.add(prefix+".categories", "exists", fmt.Sprintf("unknown category %q", id))
				}
			}
		}
		if len(seed.Tags) > 0 {
			for _, id := range product.Tags {
				if !tags[id] {
					problems.add(prefix+".tags", "exists", fmt.Sprintf("unknown tag %q", id))
				}
			}
		}
	}
	return problems.orNil()
}

func (v *Validator) structProblems(entity any) *ValidationError {
	problems := &ValidationError{}
	err := v.validate.Struct(entity)
	if err == nil {
		return problems
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		problems.add("", "invalid", err.Error())
		return problems
	}
	for _, fe := range fieldErrs {
		problems.add(fieldPath(fe.Namespace()), fe.Tag(), describe(fe))
	}
	return problems
}

// requireLocalized demands a non-empty value for every supported locale.
func requireLocalized(problems *ValidationError, field string, text models.LocalizedText) {
	for _, locale := range models.SupportedLocales {
		if strings.TrimSpace(text[locale]) == "" {
			problems.add(field+"."+locale, "required", "is required")
		}
	}
}

// fieldPath drops the leading struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "needs at least " + fe.Param() + " item(s)"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
