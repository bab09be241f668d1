package domain

import "strings"

type Category string

const (
	CategoryRestaurant      Category = "RESTAURANT"
	CategoryCafe            Category = "CAFE"
	CategoryGallery         Category = "GALLERY"
	CategoryPhotoSpot       Category = "PHOTO_SPOT"
	CategoryCultureActivity Category = "CULTURE_ACTIVITY"
	CategoryShopping        Category = "SHOPPING"
	CategoryOther           Category = "OTHER"
)

type SubCategory string

const (
	SubCategoryKoreanFood   SubCategory = "KOREAN_FOOD"
	SubCategoryChineseFood  SubCategory = "CHINESE_FOOD"
	SubCategoryJapaneseFood SubCategory = "JAPANESE_FOOD"
	SubCategoryWesternFood  SubCategory = "WESTERN_FOOD"
	SubCategoryFastFood     SubCategory = "FAST_FOOD"
	SubCategorySeafood      SubCategory = "SEAFOOD"
	SubCategoryBBQ          SubCategory = "BBQ"
	SubCategoryDessert      SubCategory = "DESSERT"

	SubCategoryCoffeeShop SubCategory = "COFFEE_SHOP"
	SubCategoryBakery     SubCategory = "BAKERY"
	SubCategoryTeaHouse   SubCategory = "TEA_HOUSE"
	SubCategoryRoastery   SubCategory = "ROASTERY"

	SubCategoryArtGallery     SubCategory = "ART_GALLERY"
	SubCategoryMuseum         SubCategory = "MUSEUM"
	SubCategoryExhibitionHall SubCategory = "EXHIBITION_HALL"

	SubCategoryScenicView SubCategory = "SCENIC_VIEW"
	SubCategoryLandmark   SubCategory = "LANDMARK"
	SubCategoryBeach      SubCategory = "BEACH"
	SubCategoryMountain   SubCategory = "MOUNTAIN"
	SubCategoryGarden     SubCategory = "GARDEN"

	SubCategoryTheater        SubCategory = "THEATER"
	SubCategoryCinema         SubCategory = "CINEMA"
	SubCategoryConcertHall    SubCategory = "CONCERT_HALL"
	SubCategoryCulturalCenter SubCategory = "CULTURAL_CENTER"

	SubCategoryDepartmentStore   SubCategory = "DEPARTMENT_STORE"
	SubCategoryOutlet            SubCategory = "OUTLET"
	SubCategoryTraditionalMarket SubCategory = "TRADITIONAL_MARKET"
	SubCategoryShoppingMall      SubCategory = "SHOPPING_MALL"

	SubCategoryAccommodation SubCategory = "ACCOMMODATION"
	SubCategoryEntertainment SubCategory = "ENTERTAINMENT"
	SubCategorySports        SubCategory = "SPORTS"

	SubCategoryNone SubCategory = "NONE"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryRestaurant,
	CategoryCafe,
	CategoryGallery,
	CategoryPhotoSpot,
	CategoryCultureActivity,
	CategoryShopping,
	CategoryOther,
}

var subCategoryMapping = map[Category][]SubCategory{
	CategoryRestaurant: {
		SubCategoryKoreanFood,
		SubCategoryChineseFood,
		SubCategoryJapaneseFood,
		SubCategoryWesternFood,
		SubCategoryFastFood,
		SubCategorySeafood,
		SubCategoryBBQ,
		SubCategoryDessert,
	},
	CategoryCafe: {
		SubCategoryCoffeeShop,
		SubCategoryBakery,
		SubCategoryTeaHouse,
		SubCategoryRoastery,
	},
	CategoryGallery: {
		SubCategoryArtGallery,
		SubCategoryMuseum,
		SubCategoryExhibitionHall,
	},
	CategoryPhotoSpot: {
		SubCategoryScenicView,
		SubCategoryLandmark,
		SubCategoryBeach,
		SubCategoryMountain,
		SubCategoryGarden,
	},
	CategoryCultureActivity: {
		SubCategoryTheater,
		SubCategoryCinema,
		SubCategoryConcertHall,
		SubCategoryCulturalCenter,
	},
	CategoryShopping: {
		SubCategoryDepartmentStore,
		SubCategoryOutlet,
		SubCategoryTraditionalMarket,
		SubCategoryShoppingMall,
	},
	CategoryOther: {
		SubCategoryAccommodation,
		SubCategoryEntertainment,
		SubCategorySports,
		SubCategoryNone,
	},
}

// SubCategoriesOf returns a copy of the subcategories mapped to c.
func SubCategoriesOf(c Category) []SubCategory {
	subs := subCategoryMapping[c]
	out := make([]SubCategory, len(subs))
	copy(out, subs)
	return out
}

// CategoryMapping returns the full category to subcategory table.
func CategoryMapping() map[Category][]SubCategory {
	out := make(map[Category][]SubCategory, len(subCategoryMapping))
	for c := range subCategoryMapping {
		out[c] = SubCategoriesOf(c)
	}
	return out
}

// IsValidSubCategory reports whether sub may be used together with c.
// NONE is accepted for every known category.
func IsValidSubCategory(c Category, sub SubCategory) bool {
	subs, ok := subCategoryMapping[c]
	if !ok {
		return false
	}
	if sub == SubCategoryNone {
		return true
	}
	for _, s := range subs {
		if s == sub {
			return true
		}
	}
	return false
}

func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := subCategoryMapping[c]; !ok {
		return "", NewValidationError("unknown category %q", raw)
	}
	return c, nil
}

func ParseSubCategory(raw string) (SubCategory, error) {
	s := SubCategory(strings.ToUpper(strings.TrimSpace(raw)))
	if s == SubCategoryNone {
		return s, nil
	}
	for _, subs := range subCategoryMapping {
		for _, known := range subs {
			if known == s {
				return s, nil
			}
		}
	}
	return "", NewValidationError("unknown subcategory %q", raw)
}

// ResolveCategories parses a category and an optional subcategory and checks
// that the pair belongs to the mapping table. An empty subcategory resolves to NONE.
func ResolveCategories(rawCategory string, rawSubCategory *string) (Category, SubCategory, error) {
	c, err := ParseCategory(rawCategory)
	if err != nil {
		return "", "", err
	}

	sub := SubCategoryNone
	if rawSubCategory != nil && strings.TrimSpace(*rawSubCategory) != "" {
		sub, err = ParseSubCategory(*rawSubCategory)
		if err != nil {
			return "", "", err
		}
	}

	if !IsValidSubCategory(c, sub) {
		return "", "", NewValidationError("subcategory %s does not belong to category %s", sub, c)
	}

	return c, sub, nil
}
