// Package search narrows an in-memory listing sequence by free text and
// attribute predicates. Everything here is pure: inputs are never modified.
package search

import (
	"sort"
	"strconv"
	"strings"

	"car-classifieds/internal/domain"
)

// All is the "no filter" sentinel for the select-style fields.
const All = "all"

// Query 与前端筛选表单一一对应，数值边界和 featured 保持原始文本，解析失败即视为未设置
type Query struct {
	SearchText   string `form:"q"`
	Make         string `form:"make"`
	FuelType     string `form:"fuel_type"`
	Transmission string `form:"transmission"`
	PriceMin     string `form:"price_min"`
	PriceMax     string `form:"price_max"`
	YearMin      string `form:"year_min"`
	YearMax      string `form:"year_max"`
	Featured     string `form:"featured"`
}

type bound struct {
	v  float64
	ok bool
}

func parseBound(s string) bound {
	s = strings.TrimSpace(s)
	if s == "" {
		return bound{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return bound{}
	}
	return bound{v: v, ok: true}
}

func selected(v string) bool { return v != "" && v != All }

func parseFlag(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}

type compiled struct {
	text                     string
	make, fuel, transmission string
	priceMin, priceMax       bound
	yearMin, yearMax         bound
	featuredOnly             bool
}

func (q Query) compile() compiled {
	return compiled{
		text:         strings.ToLower(q.SearchText),
		make:         q.Make,
		fuel:         q.FuelType,
		transmission: q.Transmission,
		priceMin:     parseBound(q.PriceMin),
		priceMax:     parseBound(q.PriceMax),
		yearMin:      parseBound(q.YearMin),
		yearMax:      parseBound(q.YearMax),
		featuredOnly: parseFlag(q.Featured),
	}
}

func (c compiled) match(l domain.Listing) bool {
	if c.text != "" &&
		!strings.Contains(strings.ToLower(l.Make), c.text) &&
		!strings.Contains(strings.ToLower(l.Model), c.text) {
		return false
	}
	if selected(c.make) && l.Make != c.make {
		return false
	}
	if selected(c.fuel) && l.FuelType != c.fuel {
		return false
	}
	if selected(c.transmission) && l.Transmission != c.transmission {
		return false
	}
	if c.priceMin.ok && l.Price < c.priceMin.v {
		return false
	}
	if c.priceMax.ok && l.Price > c.priceMax.v {
		return false
	}
	year := float64(l.Year)
	if c.yearMin.ok && year < c.yearMin.v {
		return false
	}
	if c.yearMax.ok && year > c.yearMax.v {
		return false
	}
	return !c.featuredOnly || l.Featured
}

// Apply returns the listings matching every active predicate of q, in input order.
func Apply(listings []domain.Listing, q Query) []domain.Listing {
	c := q.compile()
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if c.match(l) {
			out = append(out, l.Clone())
		}
	}
	return out
}

// Featured returns the featured listings of an already filtered result, in
// input order. Featured listings stay in the full result as well.
func Featured(listings []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, 0)
	for _, l := range listings {
		if l.Featured {
			out = append(out, l.Clone())
		}
	}
	return out
}

// PopularBrands 排在品牌下拉框最前面
var PopularBrands = []string{"Fiat", "Volkswagen", "Chevrolet", "Hyundai", "Ford", "Toyota"}

// Brands lists the distinct non-empty makes: popular ones first in the fixed
// order above, then the rest alphabetically.
func Brands(listings []domain.Listing) []string {
	seen := make(map[string]struct{})
	for _, l := range listings {
		if l.Make != "" {
			seen[l.Make] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for _, b := range PopularBrands {
		if _, ok := seen[b]; ok {
			out = append(out, b)
			delete(seen, b)
		}
	}
	rest := make([]string, 0, len(seen))
	for b := range seen {
		rest = append(rest, b)
	}
	sort.Strings(rest)
	return append(out, rest...)
}
