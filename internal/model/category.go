package model

import (
	"strings"

	"github.com/shinyyama/campus-market/internal/apperr"
)

type Category string

const (
	CategoryBooks       Category = "books"
	CategoryElectronics Category = "electronics"
	CategoryFurniture   Category = "furniture"
	CategoryClothing    Category = "clothing"
	CategorySports      Category = "sports"
	CategoryStationery  Category = "stationery"
	CategoryKitchen     Category = "kitchen"
	CategoryOther       Category = "other"
)

var categories = []Category{
	CategoryBooks, CategoryElectronics, CategoryFurniture, CategoryClothing,
	CategorySports, CategoryStationery, CategoryKitchen, CategoryOther,
}

func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, v := range categories {
		if v == c {
			return c, nil
		}
	}
	return "", apperr.Validation("unknown category %q", raw)
}

type Condition string

const (
	ConditionNew       Condition = "new"
	ConditionExcellent Condition = "excellent"
	ConditionUsed      Condition = "used"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

func ParseCondition(raw string) (Condition, error) {
	c := Condition(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case ConditionNew, ConditionExcellent, ConditionUsed, ConditionFair, ConditionPoor:
		return c, nil
	}
	return "", apperr.Validation("unknown condition %q", raw)
}
