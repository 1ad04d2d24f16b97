package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"car-classifieds/internal/domain"
)

func catalog() []domain.Listing {
	return []domain.Listing{
		{ID: "1", Make: "Toyota", Model: "Corolla", Year: 2020, Price: 95000, FuelType: "Flex", Transmission: "Automatic", Photos: []string{"a"}, Featured: true},
		{ID: "2", Make: "Fiat", Model: "Uno", Year: 2012, Price: 18000, FuelType: "Gasoline", Transmission: "Manual"},
		{ID: "3", Make: "Volkswagen", Model: "Gol", Year: 2016, Price: 32000, FuelType: "Flex", Transmission: "Manual"},
		{ID: "4", Make: "BMW", Model: "320i", Year: 2021, Price: 210000, FuelType: "Gasoline", Transmission: "Automatic", Featured: true},
		{ID: "5", Make: "Toyota", Model: "Hilux", Year: 2019, Price: 180000, FuelType: "Diesel", Transmission: "Automatic"},
	}
}

func ids(ls []domain.Listing) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"no filters", Query{}, []string{"1", "2", "3", "4", "5"}},
		{"all sentinel", Query{Make: All, FuelType: All, Transmission: All}, []string{"1", "2", "3", "4", "5"}},
		{"text matches make case-insensitively", Query{SearchText: "toy"}, []string{"1", "5"}},
		{"text matches model", Query{SearchText: "GOL"}, []string{"3"}},
		{"text matches nothing", Query{SearchText: "tesla"}, []string{}},
		{"make exact", Query{Make: "Toyota"}, []string{"1", "5"}},
		{"make is case sensitive", Query{Make: "toyota"}, []string{}},
		{"fuel", Query{FuelType: "Flex"}, []string{"1", "3"}},
		{"transmission", Query{Transmission: "Manual"}, []string{"2", "3"}},
		{"price bounds inclusive", Query{PriceMin: "32000", PriceMax: "95000"}, []string{"1", "3"}},
		{"unparseable bound ignored", Query{PriceMin: "abc", PriceMax: "20000"}, []string{"2"}},
		{"decimal bound", Query{PriceMax: "18000.50"}, []string{"2"}},
		{"year range", Query{YearMin: "2019", YearMax: "2020"}, []string{"1", "5"}},
		{"combined", Query{SearchText: "o", Transmission: "Automatic", PriceMax: "100000"}, []string{"1"}},
		{"featured only", Query{Featured: "true"}, []string{"1", "4"}},
		{"featured false is no filter", Query{Featured: "false"}, []string{"1", "2", "3", "4", "5"}},
		{"unparseable featured ignored", Query{Featured: "yes please"}, []string{"1", "2", "3", "4", "5"}},
		{"featured with make", Query{Featured: "1", Make: "Toyota"}, []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(catalog(), tt.q)))
		})
	}
}

func TestApply_DoesNotAliasInput(t *testing.T) {
	in := catalog()
	out := Apply(in, Query{Make: "Toyota"})
	out[0].Photos[0] = "changed"
	out[0].Model = "changed"
	assert.Equal(t, "a", in[0].Photos[0])
	assert.Equal(t, "Corolla", in[0].Model)
}

func TestApply_EmptyInput(t *testing.T) {
	assert.Empty(t, Apply(nil, Query{SearchText: "x"}))
}

func TestFeatured(t *testing.T) {
	all := Apply(catalog(), Query{Transmission: "Automatic"})
	got := Featured(all)
	assert.Equal(t, []string{"1", "4"}, ids(got))
	assert.Len(t, all, 3, "featured listings stay in the full result")

	got[0].Photos[0] = "changed"
	assert.Equal(t, "a", all[0].Photos[0])

	assert.Empty(t, Featured(Apply(catalog(), Query{Make: "Fiat"})))
}

func TestBrands(t *testing.T) {
	ls := append(catalog(),
		domain.Listing{Make: "Audi"},
		domain.Listing{Make: "Fiat"},
		domain.Listing{Make: ""},
	)
	assert.Equal(t, []string{"Fiat", "Volkswagen", "Toyota", "Audi", "BMW"}, Brands(ls))
	assert.Empty(t, Brands(nil))
}
